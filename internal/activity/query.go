package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/repository"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
	DefaultSort    = "activity_on"

	TypeAll     = "all"
	TypeComment = "comment"
)

var sortable = map[string]bool{
	"id":            true,
	"activity_on":   true,
	"event":         true,
	"entity_id":     true,
	"board_user_id": true,
	"card_id":       true,
}

// Query is a read request as it arrives from a client. Zero values mean
// "use the default"; invalid values are corrected, never rejected.
type Query struct {
	BoardID  int64
	CardID   *int64
	Type     string
	From     *time.Time
	To       *time.Time
	MemberID *int64
	SortBy   string
	Order    string
	Page     int
	PerPage  int
}

type Page struct {
	Items   []models.Activity `json:"items"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	Pages   int               `json:"pages"`
	SortBy  string            `json:"sort_by"`
	Order   string            `json:"order"`
}

// Filter validates q and turns it into a repository filter.
func (q Query) Filter() (repository.ActivityFilter, int, int) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	switch {
	case perPage < 1:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}

	sortBy := q.SortBy
	if !sortable[sortBy] {
		sortBy = DefaultSort
	}

	return repository.ActivityFilter{
		BoardID:      q.BoardID,
		CardID:       q.CardID,
		CommentsOnly: strings.EqualFold(q.Type, TypeComment),
		From:         q.From,
		To:           q.To,
		MemberID:     q.MemberID,
		SortBy:       sortBy,
		Desc:         !strings.EqualFold(q.Order, "asc"),
		Limit:        perPage,
		Offset:       (page - 1) * perPage,
	}, page, perPage
}

// Query reads one page of a board's (or a card's) activity log.
func (r *Recorder) Query(ctx context.Context, tx repository.Tx, q Query) (*Page, error) {
	f, page, perPage := q.Filter()

	items, total, err := tx.Activities().Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}

	order := "asc"
	if f.Desc {
		order = "desc"
	}
	return &Page{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   (total + perPage - 1) / perPage,
		SortBy:  f.SortBy,
		Order:   order,
	}, nil
}
