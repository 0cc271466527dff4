// Package activity appends entries to a board's audit log and reads them back.
//
// Record always takes the caller's repository.Tx: an entry is written in the
// same transaction as the change it describes, so a failed insert rolls the
// change back with it.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/repository"
)

// Changes is the before/after payload stored with an entry. Producers put the
// old values of the fields they touched in From and the new values in To,
// using the same keys on both sides.
type Changes struct {
	From map[string]any `json:"from,omitempty"`
	To   map[string]any `json:"to,omitempty"`
}

// Diff builds a Changes value from a single field transition.
func Diff(field string, from, to any) *Changes {
	return &Changes{
		From: map[string]any{field: from},
		To:   map[string]any{field: to},
	}
}

// Set records field on both sides. It allocates the maps on first use.
func (c *Changes) Set(field string, from, to any) {
	if c.From == nil {
		c.From = map[string]any{}
	}
	if c.To == nil {
		c.To = map[string]any{}
	}
	c.From[field] = from
	c.To[field] = to
}

func (c *Changes) Empty() bool {
	return c == nil || (len(c.From) == 0 && len(c.To) == 0)
}

// Entry describes one change. MemberID is the acting board member and may be
// nil only when the actor has no membership row (an owner whose row was
// purged out of band).
type Entry struct {
	BoardID  int64
	MemberID *int64
	Event    models.Event
	EntityID *int64
	CardID   *int64
	Changes  *Changes
}

type Recorder struct {
	now func() time.Time
}

// NewRecorder takes the clock used to stamp entries; nil means time.Now.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Record appends e and returns the stored row.
func (r *Recorder) Record(ctx context.Context, tx repository.Tx, e Entry) (*models.Activity, error) {
	if e.BoardID == 0 {
		return nil, errors.New("record activity: board id is required")
	}
	if e.Event == "" {
		return nil, errors.New("record activity: event is required")
	}

	a := &models.Activity{
		BoardID:    e.BoardID,
		CardID:     e.CardID,
		MemberID:   e.MemberID,
		ActivityOn: r.now().UTC(),
		Event:      e.Event,
		EntityID:   e.EntityID,
	}
	if !e.Changes.Empty() {
		raw, err := json.Marshal(e.Changes)
		if err != nil {
			return nil, fmt.Errorf("encode activity changes: %w", err)
		}
		a.Changes = raw
	}

	if err := tx.Activities().Create(ctx, a); err != nil {
		return nil, fmt.Errorf("record activity %s: %w", e.Event, err)
	}
	return a, nil
}

// ID is a small helper for the *int64 entity and card fields.
func ID(v int64) *int64 {
	return &v
}
