package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLifecycle(t *testing.T) {
	t.Parallel()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	name, err := l.Store(FilePath(1, 2, "report.pdf"), []byte("pdf"))
	require.NoError(t, err)
	assert.Contains(t, name, "report.pdf")

	p := FilePath(1, 2, name)
	assert.Equal(t, "1/2/"+name, p)
	assert.True(t, l.Exists(p))

	rc, err := l.Open(p)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "pdf", string(data))

	require.NoError(t, l.Delete(p))
	assert.False(t, l.Exists(p))
	require.NoError(t, l.Delete(p))
}

func TestLocalDeleteTree(t *testing.T) {
	t.Parallel()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	a, _ := l.Store(FilePath(3, 1, "a.txt"), []byte("a"))
	b, _ := l.Store(FilePath(3, 2, "b.txt"), []byte("b"))
	other, _ := l.Store(FilePath(4, 1, "c.txt"), []byte("c"))

	require.NoError(t, l.DeleteTree(BoardPath(3)))

	assert.False(t, l.Exists(FilePath(3, 1, a)))
	assert.False(t, l.Exists(FilePath(3, 2, b)))
	assert.True(t, l.Exists(FilePath(4, 1, other)))
}

func TestLocalRejectsEscapes(t *testing.T) {
	t.Parallel()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Store("../../etc/passwd", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, l.DeleteTree(""), ErrInvalidPath)
	assert.False(t, l.Exists("1/../../x"))
}
