// Package storage keeps uploaded card files on local disk, addressed by
// slash-separated paths relative to a root directory:
//
//	{board_id}/{card_id}/{file_name}
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Storage is what command services need from blob storage.
type Storage interface {
	// Store writes data next to p under a collision-free name derived from
	// path.Base(p) and returns that name.
	Store(p string, data []byte) (string, error)
	Exists(p string) bool
	Open(p string) (io.ReadCloser, error)
	// Delete removes one file. A missing file is not an error.
	Delete(p string) error
	// DeleteTree removes a directory and everything below it.
	DeleteTree(p string) error
}

func BoardPath(boardID int64) string {
	return strconv.FormatInt(boardID, 10)
}

func CardPath(boardID, cardID int64) string {
	return path.Join(BoardPath(boardID), strconv.FormatInt(cardID, 10))
}

func FilePath(boardID, cardID int64, name string) string {
	return path.Join(CardPath(boardID, cardID), name)
}

var ErrInvalidPath = errors.New("storage: invalid path")

type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{root: root}, nil
}

// resolve maps a storage path to a filesystem path, refusing anything that
// would escape the root.
func (l *Local) resolve(p string) (string, error) {
	clean := path.Clean("/" + p)
	if clean == "/" || strings.Contains(p, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Local) Store(p string, data []byte) (string, error) {
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return "", ErrInvalidPath
	}
	name := uuid.NewString()[:8] + "-" + base

	full, err := l.resolve(path.Join(path.Dir(p), name))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create file dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return name, nil
}

func (l *Local) Exists(p string) bool {
	full, err := l.resolve(p)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (l *Local) Open(p string) (io.ReadCloser, error) {
	full, err := l.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (l *Local) Delete(p string) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (l *Local) DeleteTree(p string) error {
	full, err := l.resolve(p)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("delete dir: %w", err)
	}
	return nil
}
