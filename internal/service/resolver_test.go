package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapCreatesDefaultRoles(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.user("owner")
	b := f.board(owner)

	roles := f.roles(b.ID)
	require.Len(t, roles, 3)

	admins := 0
	for _, r := range roles {
		if r.IsAdmin {
			admins++
		}
		assert.ElementsMatch(t, permission.All(), r.Names(), "role %s", r.Name)
	}
	assert.Equal(t, 1, admins)

	for _, n := range permission.All() {
		assert.True(t, roles[permission.RoleAdmin].Allows(n))
		assert.False(t, roles[permission.RoleObserver].Allows(n))
		assert.Equal(t, n != permission.BoardDelete, roles[permission.RoleMember].Allows(n), string(n))
	}

	m, err := f.svc.Boards.Claims(f.ctx, owner, b.ID)
	require.NoError(t, err)
	require.NotNil(t, m.Record)
	assert.True(t, m.Record.IsOwner)
	assert.Equal(t, roles[permission.RoleAdmin].ID, m.Record.RoleID)
	assert.True(t, m.IsAdmin())
	assert.Equal(t, 1, f.activityCount(b.ID))
}

func TestResolveNonMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	b := f.board(f.user("owner"))

	_, err := f.svc.Boards.Get(f.ctx, f.user("stranger"), b.ID)
	assert.ErrorIs(t, err, ErrNotMember)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Boards.Get(f.ctx, f.user("other"), b.ID+1000)
	assert.True(t, IsNotFound(err))
}

func TestRevokedMemberLosesAccess(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u2 := f.user("owner"), f.user("u2")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, u2, permission.RoleMember)

	_, err := f.svc.Members.Remove(f.ctx, owner, v.ID)
	require.NoError(t, err)

	_, err = f.svc.Boards.Get(f.ctx, u2, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrNotMember)

	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		rec, err := tx.Members().GetByID(f.ctx, v.ID)
		require.NoError(t, err)
		role, err := tx.Roles().GetByID(f.ctx, rec.RoleID)
		require.NoError(t, err)

		m := &Member{Board: *b, Record: rec, Role: role, UserID: u2}
		for _, n := range permission.All() {
			assert.False(t, m.HasPermission(n), string(n))
		}
		assert.False(t, m.IsAdmin())

		ok, err := f.svc.Resolver.CanAccessBoard(f.ctx, tx, b, u2)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func TestOwnerHasEveryPermission(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	m := &Member{Board: models.Board{ID: 1, OwnerID: owner}, UserID: owner}

	for _, n := range permission.All() {
		assert.True(t, m.HasPermission(n))
	}
	assert.False(t, m.IsAdmin(), "ownership alone does not grant member management")
	assert.Nil(t, m.ActorID())
}

func TestMissingPermissionRowDenies(t *testing.T) {
	t.Parallel()
	role := &models.BoardRole{Name: "Custom", Permissions: []models.BoardRolePermission{
		{Name: permission.CardEdit, Allow: true},
	}}
	m := &Member{
		Board:  models.Board{OwnerID: uuid.New()},
		Record: &models.BoardMember{ID: 7},
		Role:   role,
		UserID: uuid.New(),
	}
	assert.True(t, m.HasPermission(permission.CardEdit))
	assert.False(t, m.HasPermission(permission.CardDelete))
}

func TestReconcileRepairsDrift(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	b := f.board(f.user("owner"))
	roles := f.roles(b.ID)

	keep := make([]permission.Name, 0)
	for _, n := range permission.All() {
		if n != permission.CardEdit {
			keep = append(keep, n)
		}
	}
	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		if _, err := tx.Roles().DeletePermissionsNotIn(f.ctx, keep); err != nil {
			return err
		}
		_, err := tx.Roles().AddPermission(f.ctx, roles[permission.RoleMember].ID, "card.legacy", true)
		return err
	}))

	report, err := f.svc.Resolver.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Roles)
	assert.Equal(t, 3, report.Added)
	assert.EqualValues(t, 1, report.Removed)

	after := f.roles(b.ID)
	for _, r := range after {
		missing, retired := permission.Diff(r.Names())
		assert.Empty(t, missing, r.Name)
		assert.Empty(t, retired, r.Name)
		assert.Len(t, r.Permissions, len(permission.All()))
	}
	assert.True(t, after[permission.RoleAdmin].Allows(permission.CardEdit))
	assert.True(t, after[permission.RoleMember].Allows(permission.CardEdit))
	assert.False(t, after[permission.RoleObserver].Allows(permission.CardEdit))

	again, err := f.svc.Resolver.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Added)
	assert.Zero(t, again.Removed)
}

func TestReconcileKeepsExistingValues(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	b := f.board(f.user("owner"))

	// Member's stored deny for board.delete must survive repeated passes.
	_, err := f.svc.Resolver.Reconcile(f.ctx)
	require.NoError(t, err)
	assert.False(t, f.roles(b.ID)[permission.RoleMember].Allows(permission.BoardDelete))
}

func TestNotMemberIsForbidden(t *testing.T) {
	t.Parallel()
	assert.True(t, errors.Is(ErrNotMember, ErrForbidden))
	assert.False(t, IsValidation(ErrForbidden))
}
