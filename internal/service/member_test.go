package service

import (
	"fmt"
	"testing"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMemberByEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	f.user("dana")
	b := f.board(owner)
	roles := f.roles(b.ID)
	f.pub.reset()

	v, err := f.svc.Members.Add(f.ctx, owner, b.ID, AddMemberInput{
		Email:  "dana@example.com",
		RoleID: roles[permission.RoleMember].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "dana", v.DisplayName)
	assert.Equal(t, permission.RoleMember, v.RoleName)
	assert.Equal(t, models.EventMemberAdd, f.lastActivity(b.ID).Event)
	assert.Contains(t, f.pub.names(), fmt.Sprintf("board-%d:%s", b.ID, realtime.EventMemberNew))

	_, err = f.svc.Members.Add(f.ctx, owner, b.ID, AddMemberInput{Email: "nobody@example.com", RoleID: roles[permission.RoleMember].ID})
	assert.True(t, IsValidation(err))
}

func TestAddMemberRejectsDuplicates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("u")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, u, permission.RoleMember)
	member := f.roles(b.ID)[permission.RoleMember].ID

	_, err := f.svc.Members.Add(f.ctx, owner, b.ID, AddMemberInput{UserID: &u, RoleID: member})
	assert.True(t, IsValidation(err))

	_, err = f.svc.Members.Remove(f.ctx, owner, v.ID)
	require.NoError(t, err)
	_, err = f.svc.Members.Add(f.ctx, owner, b.ID, AddMemberInput{UserID: &u, RoleID: member})
	assert.True(t, IsValidation(err), "revoked members come back through Activate")
}

func TestAddMemberRoleFromOtherBoard(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("u")
	b, other := f.board(owner), f.board(owner)

	_, err := f.svc.Members.Add(f.ctx, owner, b.ID, AddMemberInput{
		UserID: &u,
		RoleID: f.roles(other.ID)[permission.RoleMember].ID,
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "board_role_id")
}

func TestNonAdminCannotManageMembers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, member, other := f.user("owner"), f.user("member"), f.user("other")
	b := f.board(owner)
	f.addMember(owner, b.ID, member, permission.RoleMember)
	target := f.addMember(owner, b.ID, other, permission.RoleObserver)
	roles := f.roles(b.ID)

	_, err := f.svc.Members.Add(f.ctx, member, b.ID, AddMemberInput{UserID: &owner, RoleID: roles[permission.RoleMember].ID})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Members.UpdateRole(f.ctx, member, target.ID, roles[permission.RoleAdmin].ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Members.Remove(f.ctx, member, target.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateOwnRoleIsValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, admin := f.user("owner"), f.user("admin")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, admin, permission.RoleAdmin)
	roles := f.roles(b.ID)

	_, err := f.svc.Members.UpdateRole(f.ctx, admin, v.ID, roles[permission.RoleObserver].ID)
	assert.True(t, IsValidation(err))
	assert.NotErrorIs(t, err, ErrForbidden)

	ownerRow, err := f.svc.Boards.Claims(f.ctx, owner, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Members.UpdateRole(f.ctx, admin, ownerRow.Record.ID, roles[permission.RoleObserver].ID)
	assert.True(t, IsValidation(err))
}

func TestUpdateRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("u")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, u, permission.RoleObserver)
	roles := f.roles(b.ID)

	got, err := f.svc.Members.UpdateRole(f.ctx, owner, v.ID, roles[permission.RoleMember].ID)
	require.NoError(t, err)
	assert.Equal(t, permission.RoleMember, got.RoleName)
	assert.Equal(t, models.EventMemberChangeRole, f.lastActivity(b.ID).Event)

	l := f.list(owner, b.ID, models.Unlimited)
	_, err = f.svc.Cards.Create(f.ctx, u, l.ID, CreateCardInput{Title: "now allowed"})
	assert.NoError(t, err)

	before := f.activityCount(b.ID)
	_, err = f.svc.Members.UpdateRole(f.ctx, owner, v.ID, roles[permission.RoleMember].ID)
	require.NoError(t, err)
	assert.Equal(t, before, f.activityCount(b.ID))
}

func TestRemoveTwiceDeletesRow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("u")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, u, permission.RoleMember)

	state, err := f.svc.Members.Remove(f.ctx, owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateArchived, state)
	assert.Equal(t, models.EventMemberAccessRevoke, f.lastActivity(b.ID).Event)

	state, err = f.svc.Members.Remove(f.ctx, owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatePurged, state)
	assert.Equal(t, models.EventMemberDelete, f.lastActivity(b.ID).Event)

	_, err = f.svc.Members.Remove(f.ctx, owner, v.ID)
	assert.True(t, IsNotFound(err))
	_, err = f.svc.Boards.Get(f.ctx, u, b.ID)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestOwnerCannotBeRemoved(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, admin := f.user("owner"), f.user("admin")
	b := f.board(owner)
	f.addMember(owner, b.ID, admin, permission.RoleAdmin)
	ownerRow, err := f.svc.Boards.Claims(f.ctx, owner, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Members.Remove(f.ctx, admin, ownerRow.Record.ID)
	assert.True(t, IsValidation(err))
	_, err = f.svc.Members.Remove(f.ctx, owner, ownerRow.Record.ID)
	assert.True(t, IsValidation(err))
}

func TestActivateRestoresAccess(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("u")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, u, permission.RoleMember)

	_, err := f.svc.Members.Activate(f.ctx, owner, v.ID)
	assert.True(t, IsValidation(err))

	_, err = f.svc.Members.Remove(f.ctx, owner, v.ID)
	require.NoError(t, err)

	got, err := f.svc.Members.Activate(f.ctx, owner, v.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
	assert.Equal(t, permission.RoleMember, got.RoleName)
	assert.Equal(t, models.EventMemberRevert, f.lastActivity(b.ID).Event)

	_, err = f.svc.Boards.Get(f.ctx, u, b.ID)
	assert.NoError(t, err)
}

func TestMemberList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("u")
	b := f.board(owner)
	f.addMember(owner, b.ID, u, permission.RoleObserver)

	views, err := f.svc.Members.List(f.ctx, u, b.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	names := []string{views[0].RoleName, views[1].RoleName}
	assert.ElementsMatch(t, []string{permission.RoleAdmin, permission.RoleObserver}, names)

	roles, err := f.svc.Members.Roles(f.ctx, u, b.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 3)
}
