package service

import (
	"io"
	"path"
	"testing"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileUploadOpenDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	b := f.board(owner)
	l := f.list(owner, b.ID, models.Unlimited)
	c := f.card(owner, l.ID, "c")

	up, err := f.svc.Files.Upload(f.ctx, owner, c.ID, `C:\Users\me\report.pdf`, []byte("pdf"))
	require.NoError(t, err)
	assert.Contains(t, up.FileName, "report.pdf")
	assert.Equal(t, models.EventFileUpload, f.lastActivity(b.ID).Event)

	meta, rc, err := f.svc.Files.Open(f.ctx, owner, up.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "pdf", string(data))
	assert.Equal(t, up.ID, meta.ID)

	files, err := f.svc.Files.List(f.ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, f.svc.Files.Delete(f.ctx, owner, up.ID))
	assert.False(t, f.files.Exists(storage.FilePath(b.ID, c.ID, up.FileName)))
	_, _, err = f.svc.Files.Open(f.ctx, owner, up.ID)
	assert.True(t, IsNotFound(err))
}

func TestFileUploadRollsBackBlob(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	b := f.board(owner)
	l := f.list(owner, b.ID, models.Unlimited)
	c := f.card(owner, l.ID, "c")
	files := &trackingStorage{Storage: f.files}
	broken := New(Deps{Store: failingActivities{f.store}, Files: files})

	_, err := broken.Files.Upload(f.ctx, owner, c.ID, "a.txt", []byte("x"))
	assert.ErrorIs(t, err, errActivityDown)

	listed, err := f.svc.Files.List(f.ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
	require.Len(t, files.stored, 1)
	assert.Equal(t, storage.CardPath(b.ID, c.ID), path.Dir(files.stored[0]))
	assert.False(t, f.files.Exists(files.stored[0]))
}

// trackingStorage remembers the path of every blob it stores.
type trackingStorage struct {
	storage.Storage
	stored []string
}

func (s *trackingStorage) Store(p string, data []byte) (string, error) {
	name, err := s.Storage.Store(p, data)
	if err == nil {
		s.stored = append(s.stored, path.Join(path.Dir(p), name))
	}
	return name, err
}

func TestObserverCannotUpload(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, observer := f.user("owner"), f.user("observer")
	b := f.board(owner)
	f.addMember(owner, b.ID, observer, permission.RoleObserver)
	l := f.list(owner, b.ID, models.Unlimited)
	c := f.card(owner, l.ID, "c")

	_, err := f.svc.Files.Upload(f.ctx, observer, c.ID, "a.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Files.Upload(f.ctx, owner, c.ID, "", []byte("x"))
	assert.True(t, IsValidation(err))
}
