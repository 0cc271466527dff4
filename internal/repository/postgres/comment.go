package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type CommentStore struct {
	q pgx.Tx
}

func (s *CommentStore) Create(ctx context.Context, c *models.CardComment) error {
	query := `
		INSERT INTO card_comments (board_id, activity_id, board_user_id, comment, created_on)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, created_on`

	if err := s.q.QueryRow(ctx, query, c.BoardID, c.ActivityID, c.AuthorID, c.Comment).Scan(&c.ID, &c.CreatedOn); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *CommentStore) GetByID(ctx context.Context, id int64) (*models.CardComment, error) {
	query := `
		SELECT id, board_id, activity_id, board_user_id, comment, created_on, updated_on
		FROM card_comments
		WHERE id = $1`

	var c models.CardComment
	err := s.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.BoardID, &c.ActivityID, &c.AuthorID, &c.Comment, &c.CreatedOn, &c.UpdatedOn)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (s *CommentStore) Update(ctx context.Context, c *models.CardComment) error {
	if _, err := s.q.Exec(ctx, `UPDATE card_comments SET comment = $2, updated_on = $3 WHERE id = $1`, c.ID, c.Comment, c.UpdatedOn); err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}
