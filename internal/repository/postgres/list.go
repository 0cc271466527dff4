package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type ListStore struct {
	q pgx.Tx
}

const listColumns = `id, board_id, title, position, wip_limit, archived, archived_on, created_on`

func scanList(row pgx.Row, l *models.BoardList) error {
	return row.Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.WIPLimit, &l.Archived, &l.ArchivedOn, &l.CreatedOn)
}

func (s *ListStore) Create(ctx context.Context, l *models.BoardList) error {
	query := `
		INSERT INTO board_lists (board_id, title, position, wip_limit, created_on)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, created_on`

	if err := s.q.QueryRow(ctx, query, l.BoardID, l.Title, l.Position, l.WIPLimit).Scan(&l.ID, &l.CreatedOn); err != nil {
		return fmt.Errorf("insert list: %w", err)
	}
	return nil
}

func (s *ListStore) GetByID(ctx context.Context, id int64) (*models.BoardList, error) {
	query := `SELECT ` + listColumns + ` FROM board_lists WHERE id = $1`

	var l models.BoardList
	if err := scanList(s.q.QueryRow(ctx, query, id), &l); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get list: %w", err)
	}
	return &l, nil
}

func (s *ListStore) ListByBoard(ctx context.Context, boardID int64, includeArchived bool) ([]models.BoardList, error) {
	query := `
		SELECT ` + listColumns + `
		FROM board_lists
		WHERE board_id = $1 AND ($2 OR NOT archived)
		ORDER BY position, id`

	rows, err := s.q.Query(ctx, query, boardID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	lists := make([]models.BoardList, 0)
	for rows.Next() {
		var l models.BoardList
		if err := scanList(rows, &l); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}
	return lists, nil
}

func (s *ListStore) Update(ctx context.Context, l *models.BoardList) error {
	query := `
		UPDATE board_lists
		SET title = $2, position = $3, wip_limit = $4, archived = $5, archived_on = $6
		WHERE id = $1`

	if _, err := s.q.Exec(ctx, query, l.ID, l.Title, l.Position, l.WIPLimit, l.Archived, l.ArchivedOn); err != nil {
		return fmt.Errorf("update list: %w", err)
	}
	return nil
}

func (s *ListStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM board_lists WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

func (s *ListStore) MaxPosition(ctx context.Context, boardID int64) (int, error) {
	pos, err := maxPosition(ctx, s.q, `SELECT COALESCE(MAX(position), 0) FROM board_lists WHERE board_id = $1`, boardID)
	if err != nil {
		return 0, fmt.Errorf("max list position: %w", err)
	}
	return pos, nil
}

func (s *ListStore) SetPosition(ctx context.Context, id int64, position int) error {
	if _, err := s.q.Exec(ctx, `UPDATE board_lists SET position = $2 WHERE id = $1`, id, position); err != nil {
		return fmt.Errorf("set list position: %w", err)
	}
	return nil
}
