package service

import (
	"testing"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeRoom(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, stranger, observer := f.user("owner"), f.user("stranger"), f.user("observer")
	b := f.board(owner)
	l := f.list(owner, b.ID, models.Unlimited)
	c := f.card(owner, l.ID, "c")
	f.addMember(owner, b.ID, observer, permission.RoleObserver)

	for _, room := range []realtime.Room{realtime.BoardRoom(b.ID), realtime.CardRoom(c.ID)} {
		boardID, err := f.svc.Access.AuthorizeRoom(f.ctx, owner, room)
		require.NoError(t, err, room.String())
		assert.Equal(t, b.ID, boardID, room.String())

		boardID, err = f.svc.Access.AuthorizeRoom(f.ctx, observer, room)
		require.NoError(t, err, room.String())
		assert.Equal(t, b.ID, boardID, room.String())

		_, err = f.svc.Access.AuthorizeRoom(f.ctx, stranger, room)
		assert.ErrorIs(t, err, ErrForbidden, room.String())
	}

	_, err := f.svc.Access.AuthorizeRoom(f.ctx, owner, realtime.CardRoom(c.ID+100))
	assert.True(t, IsNotFound(err))
	_, err = f.svc.Access.AuthorizeRoom(f.ctx, owner, realtime.BoardRoom(b.ID+100))
	assert.True(t, IsNotFound(err))
}
