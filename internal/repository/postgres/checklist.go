package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
)

type ChecklistStore struct {
	q pgx.Tx
}

const itemColumns = `id, checklist_id, title, completed, marked_complete_board_user_id, marked_complete_on,
	assigned_board_user_id, due_date, position`

func scanItem(row pgx.Row, it *models.ChecklistItem) error {
	return row.Scan(
		&it.ID,
		&it.ChecklistID,
		&it.Title,
		&it.Completed,
		&it.MarkedCompleteBy,
		&it.MarkedCompleteOn,
		&it.AssignedMemberID,
		&it.DueDate,
		&it.Position,
	)
}

func (s *ChecklistStore) Create(ctx context.Context, c *models.Checklist) error {
	query := `
		INSERT INTO checklists (board_id, card_id, title, created_on)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_on`

	if err := s.q.QueryRow(ctx, query, c.BoardID, c.CardID, c.Title).Scan(&c.ID, &c.CreatedOn); err != nil {
		return fmt.Errorf("insert checklist: %w", err)
	}
	return nil
}

func (s *ChecklistStore) GetByID(ctx context.Context, id int64) (*models.Checklist, error) {
	query := `SELECT id, board_id, card_id, title, created_on FROM checklists WHERE id = $1`

	var c models.Checklist
	if err := s.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.BoardID, &c.CardID, &c.Title, &c.CreatedOn); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checklist: %w", err)
	}
	return &c, nil
}

func (s *ChecklistStore) ListByCard(ctx context.Context, cardID int64) ([]models.Checklist, error) {
	query := `SELECT id, board_id, card_id, title, created_on FROM checklists WHERE card_id = $1 ORDER BY id`

	rows, err := s.q.Query(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("list checklists: %w", err)
	}
	defer rows.Close()

	checklists := make([]models.Checklist, 0)
	for rows.Next() {
		var c models.Checklist
		if err := rows.Scan(&c.ID, &c.BoardID, &c.CardID, &c.Title, &c.CreatedOn); err != nil {
			return nil, fmt.Errorf("scan checklist: %w", err)
		}
		checklists = append(checklists, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklists: %w", err)
	}
	rows.Close()

	for i := range checklists {
		items, err := s.ListItems(ctx, checklists[i].ID)
		if err != nil {
			return nil, err
		}
		checklists[i].Items = items
	}
	return checklists, nil
}

func (s *ChecklistStore) Update(ctx context.Context, c *models.Checklist) error {
	if _, err := s.q.Exec(ctx, `UPDATE checklists SET title = $2 WHERE id = $1`, c.ID, c.Title); err != nil {
		return fmt.Errorf("update checklist: %w", err)
	}
	return nil
}

func (s *ChecklistStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM checklists WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete checklist: %w", err)
	}
	return nil
}

func (s *ChecklistStore) CreateItem(ctx context.Context, it *models.ChecklistItem) error {
	query := `
		INSERT INTO checklist_items (checklist_id, title, assigned_board_user_id, due_date, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if err := s.q.QueryRow(ctx, query, it.ChecklistID, it.Title, it.AssignedMemberID, it.DueDate, it.Position).Scan(&it.ID); err != nil {
		return fmt.Errorf("insert checklist item: %w", err)
	}
	return nil
}

func (s *ChecklistStore) GetItem(ctx context.Context, id int64) (*models.ChecklistItem, error) {
	query := `SELECT ` + itemColumns + ` FROM checklist_items WHERE id = $1`

	var it models.ChecklistItem
	if err := scanItem(s.q.QueryRow(ctx, query, id), &it); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checklist item: %w", err)
	}
	return &it, nil
}

func (s *ChecklistStore) ListItems(ctx context.Context, checklistID int64) ([]models.ChecklistItem, error) {
	query := `SELECT ` + itemColumns + ` FROM checklist_items WHERE checklist_id = $1 ORDER BY position, id`

	rows, err := s.q.Query(ctx, query, checklistID)
	if err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	defer rows.Close()

	items := make([]models.ChecklistItem, 0)
	for rows.Next() {
		var it models.ChecklistItem
		if err := scanItem(rows, &it); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist items: %w", err)
	}
	return items, nil
}

// UpdateItem writes completed together with its marked-complete pair in one
// statement.
func (s *ChecklistStore) UpdateItem(ctx context.Context, it *models.ChecklistItem) error {
	query := `
		UPDATE checklist_items
		SET title = $2, completed = $3, marked_complete_board_user_id = $4, marked_complete_on = $5,
		    assigned_board_user_id = $6, due_date = $7, position = $8
		WHERE id = $1`

	_, err := s.q.Exec(ctx, query, it.ID, it.Title, it.Completed, it.MarkedCompleteBy, it.MarkedCompleteOn,
		it.AssignedMemberID, it.DueDate, it.Position)
	if err != nil {
		return fmt.Errorf("update checklist item: %w", err)
	}
	return nil
}

func (s *ChecklistStore) DeleteItem(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM checklist_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete checklist item: %w", err)
	}
	return nil
}

func (s *ChecklistStore) MaxItemPosition(ctx context.Context, checklistID int64) (int, error) {
	pos, err := maxPosition(ctx, s.q, `SELECT COALESCE(MAX(position), 0) FROM checklist_items WHERE checklist_id = $1`, checklistID)
	if err != nil {
		return 0, fmt.Errorf("max item position: %w", err)
	}
	return pos, nil
}

func (s *ChecklistStore) SetItemPosition(ctx context.Context, id int64, position int) error {
	if _, err := s.q.Exec(ctx, `UPDATE checklist_items SET position = $2 WHERE id = $1`, id, position); err != nil {
		return fmt.Errorf("set item position: %w", err)
	}
	return nil
}
