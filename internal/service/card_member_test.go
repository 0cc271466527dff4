package service

import (
	"testing"

	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignMemberSendsMailAfterCommit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("worker")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, u, permission.RoleMember)
	l := f.list(owner, b.ID, models.Unlimited)
	c := f.card(owner, l.ID, "Fix <login>")

	cm, err := f.svc.CardMembers.Assign(f.ctx, owner, c.ID, AssignInput{BoardMemberID: v.ID, SendNotification: true})
	require.NoError(t, err)
	assert.Equal(t, v.ID, cm.BoardMemberID)
	assert.Equal(t, models.EventCardMemberAssign, f.lastActivity(b.ID).Event)

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "worker@example.com", msg.To)
	assert.Contains(t, msg.HTML, "Fix &lt;login&gt;")

	_, err = f.svc.CardMembers.Assign(f.ctx, owner, c.ID, AssignInput{BoardMemberID: v.ID, SendNotification: true})
	assert.True(t, IsValidation(err))
	assert.Len(t, f.mailer.sent, 1)
}

func TestAssignRejectsRevokedMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("gone")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, u, permission.RoleMember)
	_, err := f.svc.Members.Remove(f.ctx, owner, v.ID)
	require.NoError(t, err)
	l := f.list(owner, b.ID, models.Unlimited)
	c := f.card(owner, l.ID, "c")

	_, err = f.svc.CardMembers.Assign(f.ctx, owner, c.ID, AssignInput{BoardMemberID: v.ID})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "board_user_id")
}

func TestDeassignMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, u := f.user("owner"), f.user("worker")
	b := f.board(owner)
	v := f.addMember(owner, b.ID, u, permission.RoleMember)
	l := f.list(owner, b.ID, models.Unlimited)
	c := f.card(owner, l.ID, "c")

	err := f.svc.CardMembers.Deassign(f.ctx, owner, c.ID, v.ID)
	assert.True(t, IsNotFound(err))

	_, err = f.svc.CardMembers.Assign(f.ctx, owner, c.ID, AssignInput{BoardMemberID: v.ID})
	require.NoError(t, err)
	assert.Empty(t, f.mailer.sent)

	require.NoError(t, f.svc.CardMembers.Deassign(f.ctx, owner, c.ID, v.ID))
	d, err := f.svc.Cards.Get(f.ctx, owner, c.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, d.Members)
	assert.Equal(t, models.EventCardMemberDeassign, f.lastActivity(b.ID).Event)
}
