package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type FileStore struct {
	q pgx.Tx
}

func (s *FileStore) Create(ctx context.Context, f *models.CardFile) error {
	query := `
		INSERT INTO card_files (board_id, card_id, file_name, created_on)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_on`

	if err := s.q.QueryRow(ctx, query, f.BoardID, f.CardID, f.FileName).Scan(&f.ID, &f.CreatedOn); err != nil {
		return fmt.Errorf("insert card file: %w", err)
	}
	return nil
}

func (s *FileStore) GetByID(ctx context.Context, id int64) (*models.CardFile, error) {
	query := `SELECT id, board_id, card_id, file_name, created_on FROM card_files WHERE id = $1`

	var f models.CardFile
	if err := s.q.QueryRow(ctx, query, id).Scan(&f.ID, &f.BoardID, &f.CardID, &f.FileName, &f.CreatedOn); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card file: %w", err)
	}
	return &f, nil
}

func (s *FileStore) ListByCard(ctx context.Context, cardID int64) ([]models.CardFile, error) {
	return s.list(ctx, `
		SELECT id, board_id, card_id, file_name, created_on
		FROM card_files
		WHERE card_id = $1
		ORDER BY id`, cardID)
}

func (s *FileStore) ListByList(ctx context.Context, listID int64) ([]models.CardFile, error) {
	return s.list(ctx, `
		SELECT f.id, f.board_id, f.card_id, f.file_name, f.created_on
		FROM card_files f
		JOIN cards c ON c.id = f.card_id
		WHERE c.list_id = $1
		ORDER BY f.id`, listID)
}

func (s *FileStore) list(ctx context.Context, query string, parentID int64) ([]models.CardFile, error) {
	rows, err := s.q.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list card files: %w", err)
	}
	defer rows.Close()

	files := make([]models.CardFile, 0)
	for rows.Next() {
		var f models.CardFile
		if err := rows.Scan(&f.ID, &f.BoardID, &f.CardID, &f.FileName, &f.CreatedOn); err != nil {
			return nil, fmt.Errorf("scan card file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card files: %w", err)
	}
	return files, nil
}

func (s *FileStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM card_files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete card file: %w", err)
	}
	return nil
}
