package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markerRole creates a role that may only tick checklist items.
func (f *fixture) markerRole(boardID int64) int64 {
	f.t.Helper()
	role := &models.BoardRole{BoardID: boardID, Name: "Marker"}
	for _, n := range permission.All() {
		role.Permissions = append(role.Permissions, models.BoardRolePermission{
			Name:  n,
			Allow: n == permission.ChecklistItemMark,
		})
	}
	require.NoError(f.t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		return tx.Roles().Create(f.ctx, role)
	}))
	return role.ID
}

type checklistSetup struct {
	owner, marker uuid.UUID
	board         *models.Board
	card          *models.Card
	checklist     *models.Checklist
	item          *models.ChecklistItem
}

func setupChecklist(t *testing.T, f *fixture) checklistSetup {
	t.Helper()
	s := checklistSetup{owner: f.user("owner"), marker: f.user("marker")}
	s.board = f.board(s.owner)
	roleID := f.markerRole(s.board.ID)
	_, err := f.svc.Members.Add(f.ctx, s.owner, s.board.ID, AddMemberInput{UserID: &s.marker, RoleID: roleID})
	require.NoError(t, err)

	l := f.list(s.owner, s.board.ID, models.Unlimited)
	s.card = f.card(s.owner, l.ID, "release")
	s.checklist, err = f.svc.Checklists.Create(f.ctx, s.owner, s.card.ID, "Steps")
	require.NoError(t, err)
	s.item, err = f.svc.Checklists.CreateItem(f.ctx, s.owner, s.checklist.ID, ChecklistItemInput{Title: "tag"})
	require.NoError(t, err)
	return s
}

func TestMarkerCanToggleCompletion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := setupChecklist(t, f)

	done, err := f.svc.Checklists.UpdateItem(f.ctx, s.marker, s.item.ID, models.ChecklistItemPatch{Completed: boolp(true)})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.MarkedCompleteBy)
	assert.NotNil(t, done.MarkedCompleteOn)
	assert.Equal(t, models.EventChecklistItemMarked, f.lastActivity(s.board.ID).Event)

	undone, err := f.svc.Checklists.UpdateItem(f.ctx, s.marker, s.item.ID, models.ChecklistItemPatch{Completed: boolp(false)})
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Nil(t, undone.MarkedCompleteBy)
	assert.Nil(t, undone.MarkedCompleteOn)
}

func TestMarkerCannotEditItem(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := setupChecklist(t, f)
	before := f.activityCount(s.board.ID)

	_, err := f.svc.Checklists.UpdateItem(f.ctx, s.marker, s.item.ID, models.ChecklistItemPatch{
		Title:     strp("renamed"),
		Completed: boolp(true),
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, before, f.activityCount(s.board.ID))

	_, err = f.svc.Checklists.CreateItem(f.ctx, s.marker, s.checklist.ID, ChecklistItemInput{Title: "more"})
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.svc.Checklists.DeleteItem(f.ctx, s.marker, s.item.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestChecklistItemEditsRecordSeparately(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := setupChecklist(t, f)
	m, err := f.svc.Boards.Claims(f.ctx, s.owner, s.board.ID)
	require.NoError(t, err)
	due := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	before := f.activityCount(s.board.ID)

	got, err := f.svc.Checklists.UpdateItem(f.ctx, s.owner, s.item.ID, models.ChecklistItemPatch{
		Title:            strp("tag v2"),
		AssignedMemberID: int64p(m.Record.ID),
		DueDate:          &due,
	})
	require.NoError(t, err)
	assert.Equal(t, "tag v2", got.Title)
	assert.Equal(t, before+3, f.activityCount(s.board.ID))

	_, err = f.svc.Checklists.UpdateItem(f.ctx, s.owner, s.item.ID, models.ChecklistItemPatch{AssignedMemberID: int64p(9999)})
	assert.True(t, IsValidation(err))
}

func TestReorderChecklistItems(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := setupChecklist(t, f)
	second, err := f.svc.Checklists.CreateItem(f.ctx, s.owner, s.checklist.ID, ChecklistItemInput{Title: "push"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Checklists.ReorderItems(f.ctx, s.owner, s.checklist.ID, []int64{second.ID, s.item.ID}))

	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		items, err := tx.Checklists().ListItems(f.ctx, s.checklist.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)
		return nil
	}))
	assert.Equal(t, models.EventChecklistUpdate, f.lastActivity(s.board.ID).Event)
}

func TestChecklistDeleteRemovesItems(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := setupChecklist(t, f)

	require.NoError(t, f.svc.Checklists.Delete(f.ctx, s.owner, s.checklist.ID))

	d, err := f.svc.Cards.Get(f.ctx, s.owner, s.card.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, d.Checklists)

	_, err = f.svc.Checklists.UpdateItem(f.ctx, s.owner, s.item.ID, models.ChecklistItemPatch{Completed: boolp(true)})
	assert.True(t, IsNotFound(err))
}
