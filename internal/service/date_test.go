package service

import (
	"testing"
	"time"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardDates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	b := f.board(owner)
	l := f.list(owner, b.ID, models.Unlimited)
	c := f.card(owner, l.ID, "c")
	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	_, err := f.svc.Dates.Create(f.ctx, owner, c.ID, DateInput{DtFrom: &end, DtTo: start})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "dt_from")

	_, err = f.svc.Dates.Create(f.ctx, owner, c.ID, DateInput{})
	assert.True(t, IsValidation(err))

	d, err := f.svc.Dates.Create(f.ctx, owner, c.ID, DateInput{DtFrom: &start, DtTo: end, Description: "sprint"})
	require.NoError(t, err)
	assert.Equal(t, models.EventCardDateCreate, f.lastActivity(b.ID).Event)

	got, err := f.svc.Dates.Update(f.ctx, owner, d.ID, models.DatePatch{Complete: boolp(true)})
	require.NoError(t, err)
	assert.True(t, got.Complete)

	early := start.Add(-time.Hour)
	_, err = f.svc.Dates.Update(f.ctx, owner, d.ID, models.DatePatch{DtTo: &early})
	assert.True(t, IsValidation(err))

	dates, err := f.svc.Dates.List(f.ctx, owner, c.ID)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.True(t, dates[0].DtTo.Equal(end))

	require.NoError(t, f.svc.Dates.Delete(f.ctx, owner, d.ID))
	dates, err = f.svc.Dates.List(f.ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Empty(t, dates)
	assert.Equal(t, models.EventCardDateDelete, f.lastActivity(b.ID).Event)
}
