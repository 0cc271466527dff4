package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type CardStore struct {
	q pgx.Tx
}

const cardColumns = `id, board_id, list_id, title, description, position, archived, archived_by_list, archived_on, created_on`

func scanCard(row pgx.Row, c *models.Card) error {
	return row.Scan(
		&c.ID,
		&c.BoardID,
		&c.ListID,
		&c.Title,
		&c.Description,
		&c.Position,
		&c.Archived,
		&c.ArchivedByList,
		&c.ArchivedOn,
		&c.CreatedOn,
	)
}

func (s *CardStore) Create(ctx context.Context, c *models.Card) error {
	query := `
		INSERT INTO cards (board_id, list_id, title, description, position, created_on)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_on`

	err := s.q.QueryRow(ctx, query, c.BoardID, c.ListID, c.Title, c.Description, c.Position).Scan(&c.ID, &c.CreatedOn)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (s *CardStore) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	var c models.Card
	if err := scanCard(s.q.QueryRow(ctx, query, id), &c); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	return &c, nil
}

func (s *CardStore) ListByList(ctx context.Context, listID int64, includeArchived bool) ([]models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE list_id = $1 AND ($2 OR (NOT archived AND NOT archived_by_list))
		ORDER BY position, id`

	rows, err := s.q.Query(ctx, query, listID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]models.Card, 0)
	for rows.Next() {
		var c models.Card
		if err := scanCard(rows, &c); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

func (s *CardStore) Update(ctx context.Context, c *models.Card) error {
	query := `
		UPDATE cards
		SET list_id = $2, title = $3, description = $4, position = $5,
		    archived = $6, archived_by_list = $7, archived_on = $8
		WHERE id = $1`

	_, err := s.q.Exec(ctx, query, c.ID, c.ListID, c.Title, c.Description, c.Position, c.Archived, c.ArchivedByList, c.ArchivedOn)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return nil
}

func (s *CardStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

func (s *CardStore) MaxPosition(ctx context.Context, listID int64) (int, error) {
	pos, err := maxPosition(ctx, s.q, `SELECT COALESCE(MAX(position), 0) FROM cards WHERE list_id = $1`, listID)
	if err != nil {
		return 0, fmt.Errorf("max card position: %w", err)
	}
	return pos, nil
}

func (s *CardStore) SetPosition(ctx context.Context, id int64, position int) error {
	if _, err := s.q.Exec(ctx, `UPDATE cards SET position = $2 WHERE id = $1`, id, position); err != nil {
		return fmt.Errorf("set card position: %w", err)
	}
	return nil
}

func (s *CardStore) CountActive(ctx context.Context, listID int64) (int, error) {
	var n int
	query := `SELECT count(*) FROM cards WHERE list_id = $1 AND NOT archived AND NOT archived_by_list`
	if err := s.q.QueryRow(ctx, query, listID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active cards: %w", err)
	}
	return n, nil
}

func (s *CardStore) CountArchivedByList(ctx context.Context, listID int64) (int, error) {
	var n int
	query := `SELECT count(*) FROM cards WHERE list_id = $1 AND NOT archived AND archived_by_list`
	if err := s.q.QueryRow(ctx, query, listID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count list-archived cards: %w", err)
	}
	return n, nil
}

func (s *CardStore) ArchiveByList(ctx context.Context, listID int64, at time.Time) (int64, error) {
	query := `
		UPDATE cards
		SET archived_by_list = true, archived_on = $2
		WHERE list_id = $1 AND NOT archived AND NOT archived_by_list`

	tag, err := s.q.Exec(ctx, query, listID, at)
	if err != nil {
		return 0, fmt.Errorf("archive cards by list: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *CardStore) RevertByList(ctx context.Context, listID int64) (int64, error) {
	query := `
		UPDATE cards
		SET archived_by_list = false, archived_on = NULL
		WHERE list_id = $1 AND NOT archived AND archived_by_list`

	tag, err := s.q.Exec(ctx, query, listID)
	if err != nil {
		return 0, fmt.Errorf("revert cards by list: %w", err)
	}
	return tag.RowsAffected(), nil
}
