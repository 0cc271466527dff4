package activity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/lalith-99/kanban/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFilterDefaults(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	f, page, perPage := Query{BoardID: 3, SortBy: "password; DROP TABLE", Page: -2}.Filter()

	assert.Equal(1, page)
	assert.Equal(DefaultPerPage, perPage)
	assert.Equal(DefaultSort, f.SortBy)
	assert.True(f.Desc)
	assert.Equal(0, f.Offset)
	assert.False(f.CommentsOnly)
}

func TestQueryFilterExplicit(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	f, page, perPage := Query{BoardID: 3, Type: "comment", SortBy: "event", Order: "ASC", Page: 3, PerPage: 500}.Filter()

	assert.Equal(3, page)
	assert.Equal(MaxPerPage, perPage)
	assert.Equal("event", f.SortBy)
	assert.False(f.Desc)
	assert.Equal(2*MaxPerPage, f.Offset)
	assert.True(f.CommentsOnly)
}

func TestRecordWritesChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memory.New()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecorder(func() time.Time { return fixed })

	var stored *models.Activity
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		stored, err = rec.Record(ctx, tx, Entry{
			BoardID:  7,
			MemberID: ID(2),
			Event:    models.EventCardMove,
			EntityID: ID(9),
			CardID:   ID(9),
			Changes:  Diff("list_id", 1, 2),
		})
		return err
	})
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)
	assert.Equal(t, fixed, stored.ActivityOn)

	var decoded map[string]map[string]float64
	require.NoError(t, json.Unmarshal(stored.Changes, &decoded))
	assert.Equal(t, 1.0, decoded["from"]["list_id"])
	assert.Equal(t, 2.0, decoded["to"]["list_id"])

	err = store.WithTx(ctx, func(tx repository.Tx) error {
		page, err := rec.Query(ctx, tx, Query{BoardID: 7})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, 1, page.Pages)
		assert.Equal(t, "desc", page.Order)
		return nil
	})
	require.NoError(t, err)
}

func TestRecordRejectsMissingFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec := NewRecorder(nil)

	err := memory.New().WithTx(ctx, func(tx repository.Tx) error {
		_, err := rec.Record(ctx, tx, Entry{Event: models.EventCardCreate})
		return err
	})
	assert.Error(t, err)
}

func TestChangesEmptyIsOmitted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rec := NewRecorder(nil)

	_ = memory.New().WithTx(ctx, func(tx repository.Tx) error {
		a, err := rec.Record(ctx, tx, Entry{BoardID: 1, Event: models.EventBoardCreate, Changes: &Changes{}})
		require.NoError(t, err)
		assert.Nil(t, a.Changes)
		return nil
	})
}
