package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type DateStore struct {
	q pgx.Tx
}

const dateColumns = `id, board_id, card_id, dt_from, dt_to, description, complete, created_on`

func scanDate(row pgx.Row, d *models.CardDate) error {
	return row.Scan(&d.ID, &d.BoardID, &d.CardID, &d.DtFrom, &d.DtTo, &d.Description, &d.Complete, &d.CreatedOn)
}

func (s *DateStore) Create(ctx context.Context, d *models.CardDate) error {
	query := `
		INSERT INTO card_dates (board_id, card_id, dt_from, dt_to, description, complete, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_on`

	err := s.q.QueryRow(ctx, query, d.BoardID, d.CardID, d.DtFrom, d.DtTo, d.Description, d.Complete).Scan(&d.ID, &d.CreatedOn)
	if err != nil {
		return fmt.Errorf("insert card date: %w", err)
	}
	return nil
}

func (s *DateStore) GetByID(ctx context.Context, id int64) (*models.CardDate, error) {
	query := `SELECT ` + dateColumns + ` FROM card_dates WHERE id = $1`

	var d models.CardDate
	if err := scanDate(s.q.QueryRow(ctx, query, id), &d); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card date: %w", err)
	}
	return &d, nil
}

func (s *DateStore) ListByCard(ctx context.Context, cardID int64) ([]models.CardDate, error) {
	query := `SELECT ` + dateColumns + ` FROM card_dates WHERE card_id = $1 ORDER BY dt_to, id`

	rows, err := s.q.Query(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card dates: %w", err)
	}
	defer rows.Close()

	dates := make([]models.CardDate, 0)
	for rows.Next() {
		var d models.CardDate
		if err := scanDate(rows, &d); err != nil {
			return nil, fmt.Errorf("scan card date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card dates: %w", err)
	}
	return dates, nil
}

func (s *DateStore) Update(ctx context.Context, d *models.CardDate) error {
	query := `
		UPDATE card_dates
		SET dt_from = $2, dt_to = $3, description = $4, complete = $5
		WHERE id = $1`

	if _, err := s.q.Exec(ctx, query, d.ID, d.DtFrom, d.DtTo, d.Description, d.Complete); err != nil {
		return fmt.Errorf("update card date: %w", err)
	}
	return nil
}

func (s *DateStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM card_dates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete card date: %w", err)
	}
	return nil
}
