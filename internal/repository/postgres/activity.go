package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/repository"
)

type ActivityStore struct {
	q pgx.Tx
}

// sortColumns maps filter sort keys to SQL. Anything else sorts by time.
var sortColumns = map[string]string{
	"id":            "a.id",
	"activity_on":   "a.activity_on",
	"event":         "a.event",
	"entity_id":     "a.entity_id",
	"board_user_id": "a.board_user_id",
	"card_id":       "a.card_id",
}

func (s *ActivityStore) Create(ctx context.Context, a *models.Activity) error {
	query := `
		INSERT INTO activities (board_id, card_id, board_user_id, activity_on, event, entity_id, changes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var changes []byte
	if len(a.Changes) > 0 {
		changes = a.Changes
	}
	err := s.q.QueryRow(ctx, query, a.BoardID, a.CardID, a.MemberID, a.ActivityOn, string(a.Event), a.EntityID, changes).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

const activitySelect = `
		SELECT a.id, a.board_id, a.card_id, a.board_user_id, a.activity_on, a.event, a.entity_id, a.changes,
		       cc.id, cc.board_user_id, cc.comment, cc.created_on, cc.updated_on
		FROM activities a
		LEFT JOIN card_comments cc ON cc.activity_id = a.id`

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var (
		a         models.Activity
		event     string
		changes   []byte
		commentID *int64
		authorID  *int64
		text      *string
		createdOn *time.Time
		updatedOn *time.Time
	)
	if err := row.Scan(
		&a.ID, &a.BoardID, &a.CardID, &a.MemberID, &a.ActivityOn, &event, &a.EntityID, &changes,
		&commentID, &authorID, &text, &createdOn, &updatedOn,
	); err != nil {
		return nil, err
	}
	a.Event = models.Event(event)
	if len(changes) > 0 {
		a.Changes = changes
	}
	if commentID != nil {
		a.Comment = &models.CardComment{
			ID:         *commentID,
			BoardID:    a.BoardID,
			ActivityID: a.ID,
			AuthorID:   authorID,
			Comment:    *text,
			CreatedOn:  *createdOn,
			UpdatedOn:  updatedOn,
		}
	}
	return &a, nil
}

func (s *ActivityStore) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	a, err := scanActivity(s.q.QueryRow(ctx, activitySelect+` WHERE a.id = $1`, id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// Delete cascades to the comment owned by the activity.
func (s *ActivityStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

func (s *ActivityStore) Query(ctx context.Context, f repository.ActivityFilter) ([]models.Activity, int, error) {
	where := []string{"a.board_id = $1"}
	args := []any{f.BoardID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.CardID != nil {
		add("a.card_id = $%d", *f.CardID)
	}
	if f.CommentsOnly {
		add("a.event = $%d", string(models.EventCardComment))
	}
	if f.MemberID != nil {
		add("a.board_user_id = $%d", *f.MemberID)
	}
	if f.From != nil {
		add("a.activity_on >= $%d", *f.From)
	}
	if f.To != nil {
		if f.From != nil {
			add("a.activity_on <= $%d", *f.To)
		} else {
			add("a.activity_on < $%d", *f.To)
		}
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.q.QueryRow(ctx, `SELECT count(*) FROM activities a WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "a.activity_on"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY %s %s, a.id %s
		LIMIT %d OFFSET %d`, activitySelect, cond, col, dir, dir, f.Limit, f.Offset)

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := make([]models.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, total, nil
}
