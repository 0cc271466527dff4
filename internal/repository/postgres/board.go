package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type BoardStore struct {
	q pgx.Tx
}

const boardColumns = `id, owner_id, title, background_image, background_color, archived, archived_on, created_on`

func scanBoard(row pgx.Row, b *models.Board) error {
	return row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Title,
		&b.BackgroundImage,
		&b.BackgroundColor,
		&b.Archived,
		&b.ArchivedOn,
		&b.CreatedOn,
	)
}

func (s *BoardStore) Create(ctx context.Context, b *models.Board) error {
	query := `
		INSERT INTO boards (owner_id, title, background_image, background_color, created_on)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, created_on`

	err := s.q.QueryRow(ctx, query, b.OwnerID, b.Title, b.BackgroundImage, b.BackgroundColor).Scan(&b.ID, &b.CreatedOn)
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}

func (s *BoardStore) GetByID(ctx context.Context, id int64) (*models.Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE id = $1`

	var b models.Board
	if err := scanBoard(s.q.QueryRow(ctx, query, id), &b); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	return &b, nil
}

func (s *BoardStore) Update(ctx context.Context, b *models.Board) error {
	query := `
		UPDATE boards
		SET owner_id = $2, title = $3, background_image = $4, background_color = $5,
		    archived = $6, archived_on = $7
		WHERE id = $1`

	_, err := s.q.Exec(ctx, query, b.ID, b.OwnerID, b.Title, b.BackgroundImage, b.BackgroundColor, b.Archived, b.ArchivedOn)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for roles, members, lists, cards and
// the activity log.
func (s *BoardStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

func (s *BoardStore) ListForUser(ctx context.Context, userID uuid.UUID, archived bool) ([]models.Board, error) {
	query := `
		SELECT ` + boardColumns + `
		FROM boards b
		WHERE b.archived = $2
		  AND (b.owner_id = $1 OR EXISTS (
		        SELECT 1 FROM board_users bu
		        WHERE bu.board_id = b.id AND bu.user_id = $1 AND NOT bu.is_deleted))
		ORDER BY b.created_on DESC, b.id DESC`

	rows, err := s.q.Query(ctx, query, userID, archived)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	boards := make([]models.Board, 0)
	for rows.Next() {
		var b models.Board
		if err := scanBoard(rows, &b); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	return boards, nil
}
