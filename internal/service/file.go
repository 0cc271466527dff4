package service

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/lalith-99/kanban/internal/storage"
	"go.uber.org/zap"
)

type FileService struct{ *core }

func cleanFileName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || strings.TrimSpace(base) == "" {
		return "", invalid("file", "Missing file name.")
	}
	return base, nil
}

func (s *FileService) List(ctx context.Context, userID uuid.UUID, cardID int64) ([]models.CardFile, error) {
	var files []models.CardFile
	err := s.view(ctx, func(tx repository.Tx) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.FileDownload); err != nil {
			return err
		}
		files, err = tx.Files().ListByCard(ctx, card.ID)
		return err
	})
	return files, err
}

// Upload stores the blob first and then writes its metadata row. If the row
// cannot be written the blob is removed again.
func (s *FileService) Upload(ctx context.Context, userID uuid.UUID, cardID int64, name string, data []byte) (*models.CardFile, error) {
	base, err := cleanFileName(name)
	if err != nil {
		return nil, err
	}

	var card *models.Card
	err = s.view(ctx, func(tx repository.Tx) error {
		var err error
		if card, err = s.loadCard(ctx, tx, cardID); err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
		if err != nil {
			return err
		}
		return m.require(permission.FileUpload)
	})
	if err != nil {
		return nil, err
	}

	stored, err := s.files.Store(storage.FilePath(card.BoardID, card.ID, base), data)
	if err != nil {
		return nil, err
	}
	blob := storage.FilePath(card.BoardID, card.ID, stored)

	var f *models.CardFile
	err = s.run(ctx, func(tx repository.Tx, out *outbox) error {
		c, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, c.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.FileUpload); err != nil {
			return err
		}

		f = &models.CardFile{BoardID: c.BoardID, CardID: c.ID, FileName: stored}
		if err := tx.Files().Create(ctx, f); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  c.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventFileUpload,
			EntityID: activity.ID(f.ID),
			CardID:   activity.ID(c.ID),
			Changes:  &activity.Changes{To: map[string]any{"file_name": f.FileName}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(c.BoardID), realtime.EventFileNew, entityEvent{
			ListID: c.ListID,
			CardID: c.ID,
			Entity: f,
		})
		return nil
	})
	if err != nil {
		if derr := s.files.Delete(blob); derr != nil {
			s.logger.Error("remove orphaned upload", zap.String("path", blob), zap.Error(derr))
		}
		return nil, err
	}
	return f, nil
}

func (s *FileService) loadFile(ctx context.Context, tx repository.Tx, userID uuid.UUID, fileID int64, need permission.Name) (*models.CardFile, *models.Card, *Member, error) {
	f, err := tx.Files().GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, nil, err
	}
	if f == nil {
		return nil, nil, nil, notFound("file")
	}
	card, err := s.loadCard(ctx, tx, f.CardID)
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := m.require(need); err != nil {
		return nil, nil, nil, err
	}
	return f, card, m, nil
}

// Open returns the file's metadata and a reader over its content. The caller
// closes the reader.
func (s *FileService) Open(ctx context.Context, userID uuid.UUID, fileID int64) (*models.CardFile, io.ReadCloser, error) {
	var f *models.CardFile
	err := s.view(ctx, func(tx repository.Tx) error {
		var err error
		f, _, _, err = s.loadFile(ctx, tx, userID, fileID, permission.FileDownload)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	p := storage.FilePath(f.BoardID, f.CardID, f.FileName)
	if !s.files.Exists(p) {
		return nil, nil, notFound("file")
	}
	rc, err := s.files.Open(p)
	if err != nil {
		return nil, nil, err
	}
	return f, rc, nil
}

func (s *FileService) Delete(ctx context.Context, userID uuid.UUID, fileID int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		f, card, m, err := s.loadFile(ctx, tx, userID, fileID, permission.FileDelete)
		if err != nil {
			return err
		}
		if err := tx.Files().Delete(ctx, f.ID); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  card.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventFileDelete,
			EntityID: activity.ID(f.ID),
			CardID:   activity.ID(card.ID),
			Changes:  &activity.Changes{From: map[string]any{"file_name": f.FileName}},
		}); err != nil {
			return err
		}
		out.purgeFile(storage.FilePath(f.BoardID, f.CardID, f.FileName))
		out.publish(realtime.BoardRoom(card.BoardID), realtime.EventFileDelete, deleteEvent{
			ListID:   card.ListID,
			CardID:   card.ID,
			EntityID: f.ID,
		})
		return nil
	})
}
