package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestObserverCannotUpdateBoard(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	u1, u2 := f.user("u1"), f.user("u2")
	b := f.board(u1)
	f.addMember(u1, b.ID, u2, permission.RoleObserver)
	f.pub.reset()
	before := f.activityCount(b.ID)

	_, err := f.svc.Boards.Update(f.ctx, u2, b.ID, models.BoardPatch{Title: strp("Mine now")})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Boards.Get(f.ctx, u1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", got.Title)
	assert.Equal(t, before, f.activityCount(b.ID))
	assert.Empty(t, f.pub.names())
}

func TestBoardUpdateTracksTitleSeparately(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	b := f.board(owner)
	f.pub.reset()
	before := f.activityCount(b.ID)

	got, err := f.svc.Boards.Update(f.ctx, owner, b.ID, models.BoardPatch{
		Title:           strp("Q3"),
		BackgroundColor: strp("#ff0000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Q3", got.Title)
	assert.Equal(t, "#ff0000", got.BackgroundColor)
	assert.Equal(t, before+2, f.activityCount(b.ID))
	assert.Equal(t, []string{fmt.Sprintf("board-%d:board.update", b.ID)}, f.pub.names())

	last := f.lastActivity(b.ID)
	assert.Equal(t, models.EventBoardUpdate, last.Event)
	var changes map[string]map[string]any
	require.NoError(t, json.Unmarshal(last.Changes, &changes))
	assert.Equal(t, "", changes["from"]["background_color"])
	assert.Equal(t, "#ff0000", changes["to"]["background_color"])
}

func TestBoardUpdateWithoutChangesRecordsNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	b := f.board(owner)
	f.pub.reset()
	before := f.activityCount(b.ID)

	_, err := f.svc.Boards.Update(f.ctx, owner, b.ID, models.BoardPatch{Title: strp("Roadmap")})
	require.NoError(t, err)
	assert.Equal(t, before, f.activityCount(b.ID))
	assert.Empty(t, f.pub.names())
}

func TestBoardUpdateRollsBackWhenActivityFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	b := f.board(owner)

	broken := New(Deps{Store: failingActivities{f.store}, Publisher: f.pub, Files: f.files})
	f.pub.reset()

	_, err := broken.Boards.Update(f.ctx, owner, b.ID, models.BoardPatch{Title: strp("Lost")})
	assert.ErrorIs(t, err, errActivityDown)

	got, err := f.svc.Boards.Get(f.ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", got.Title)
	assert.Empty(t, f.pub.names())
}

func TestBoardDeleteArchivesThenPurges(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, admin := f.user("owner"), f.user("admin")
	b := f.board(owner)
	f.addMember(owner, b.ID, admin, permission.RoleAdmin)

	_, err := f.svc.Boards.Delete(f.ctx, admin, b.ID)
	assert.ErrorIs(t, err, ErrForbidden, "admins may not delete a board they do not own")

	state, err := f.svc.Boards.Delete(f.ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateArchived, state)

	got, err := f.svc.Boards.Get(f.ctx, owner, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)
	assert.NotNil(t, got.ArchivedOn)

	name, err := f.files.Store(storage.FilePath(b.ID, 99, "notes.txt"), []byte("x"))
	require.NoError(t, err)
	blob := storage.FilePath(b.ID, 99, name)
	require.True(t, f.files.Exists(blob))

	state, err = f.svc.Boards.Delete(f.ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatePurged, state)

	_, err = f.svc.Boards.Get(f.ctx, owner, b.ID)
	assert.True(t, IsNotFound(err))
	assert.False(t, f.files.Exists(blob))
	assert.Zero(t, f.activityCount(b.ID))
}

func TestBoardRevert(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, member := f.user("owner"), f.user("member")
	b := f.board(owner)
	f.addMember(owner, b.ID, member, permission.RoleAdmin)

	_, err := f.svc.Boards.Revert(f.ctx, owner, b.ID)
	assert.True(t, IsValidation(err))

	_, err = f.svc.Boards.Delete(f.ctx, owner, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Boards.Revert(f.ctx, member, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Boards.Revert(f.ctx, owner, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived)
	assert.Nil(t, got.ArchivedOn)
	assert.Equal(t, models.EventBoardRevert, f.lastActivity(b.ID).Event)
}

func TestTransferOwner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, next := f.user("owner"), f.user("next")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, next, permission.RoleAdmin)

	_, err := f.svc.Boards.TransferOwner(f.ctx, next, b.ID, v.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Boards.TransferOwner(f.ctx, owner, b.ID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, next, got.OwnerID)
	assert.Equal(t, models.EventBoardChangeOwner, f.lastActivity(b.ID).Event)

	_, err = f.svc.Boards.Delete(f.ctx, owner, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	m, err := f.svc.Boards.Claims(f.ctx, next, b.ID)
	require.NoError(t, err)
	assert.True(t, m.IsOwner())
	assert.True(t, m.Record.IsOwner)
}

func TestListForUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, member := f.user("owner"), f.user("member")
	a := f.board(owner)
	f.board(owner)
	f.addMember(owner, a.ID, member, permission.RoleMember)

	mine, err := f.svc.Boards.ListForUser(f.ctx, owner, false)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	shared, err := f.svc.Boards.ListForUser(f.ctx, member, false)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, a.ID, shared[0].ID)
}

func TestBoardActivitiesPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	b := f.board(owner)
	for _, title := range []string{"a", "b", "c"} {
		_, err := f.svc.Boards.Update(f.ctx, owner, b.ID, models.BoardPatch{Title: strp(title)})
		require.NoError(t, err)
	}

	page, err := f.svc.Boards.Activities(f.ctx, owner, b.ID, activityQuery(2, 1))
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, models.EventBoardChangeTitle, page.Items[0].Event)
}
