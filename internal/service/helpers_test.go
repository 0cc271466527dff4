package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/mail"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/lalith-99/kanban/internal/repository/memory"
	"github.com/lalith-99/kanban/internal/storage"
	"github.com/stretchr/testify/require"
)

type published struct {
	Room    realtime.Room
	Event   string
	Payload any
}

type recordingPublisher struct {
	mu      sync.Mutex
	events  []published
	evicted []string
}

// Evict records "board-id:user-id".
func (p *recordingPublisher) Evict(boardID int64, userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evicted = append(p.evicted, realtime.BoardRoom(boardID).String()+":"+userID.String())
	return nil
}

func (p *recordingPublisher) Publish(room realtime.Room, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Room: room, Event: event, Payload: payload})
	return nil
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.evicted = nil
}

// names returns "room:event" for everything published since the last reset.
func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Room.String()+":"+e.Event)
	}
	return out
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(msg mail.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	svc    *Services
	pub    *recordingPublisher
	mailer *recordingMailer
	files  *storage.Local
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  memory.New(),
		pub:    &recordingPublisher{},
		mailer: &recordingMailer{},
		files:  files,
	}
	f.svc = New(Deps{
		Store:     f.store,
		Publisher: f.pub,
		Files:     f.files,
		Mailer:    f.mailer,
	})
	return f
}

func (f *fixture) user(name string) uuid.UUID {
	f.t.Helper()
	u := &models.User{Email: name + "@example.com", DisplayName: name}
	require.NoError(f.t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		return tx.Users().Create(f.ctx, u)
	}))
	return u.ID
}

func (f *fixture) board(owner uuid.UUID) *models.Board {
	f.t.Helper()
	b, err := f.svc.Boards.Create(f.ctx, owner, CreateBoardInput{Title: "Roadmap"})
	require.NoError(f.t, err)
	return b
}

func (f *fixture) roles(boardID int64) map[string]models.BoardRole {
	f.t.Helper()
	out := map[string]models.BoardRole{}
	require.NoError(f.t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		roles, err := tx.Roles().ListByBoard(f.ctx, boardID)
		for _, r := range roles {
			out[r.Name] = r
		}
		return err
	}))
	return out
}

func (f *fixture) addMember(owner uuid.UUID, boardID int64, user uuid.UUID, role string) *MemberView {
	f.t.Helper()
	r, ok := f.roles(boardID)[role]
	require.True(f.t, ok, "role %s", role)
	v, err := f.svc.Members.Add(f.ctx, owner, boardID, AddMemberInput{UserID: &user, RoleID: r.ID})
	require.NoError(f.t, err)
	return v
}

func (f *fixture) list(owner uuid.UUID, boardID int64, wip int) *models.BoardList {
	f.t.Helper()
	l, err := f.svc.Lists.Create(f.ctx, owner, boardID, CreateListInput{Title: "Todo", WIPLimit: &wip})
	require.NoError(f.t, err)
	return l
}

func (f *fixture) card(owner uuid.UUID, listID int64, title string) *models.Card {
	f.t.Helper()
	c, err := f.svc.Cards.Create(f.ctx, owner, listID, CreateCardInput{Title: title})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) getCard(id int64) *models.Card {
	f.t.Helper()
	var c *models.Card
	require.NoError(f.t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		var err error
		c, err = tx.Cards().GetByID(f.ctx, id)
		return err
	}))
	return c
}

func (f *fixture) activityCount(boardID int64) int {
	f.t.Helper()
	var total int
	require.NoError(f.t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		var err error
		_, total, err = tx.Activities().Query(f.ctx, repository.ActivityFilter{BoardID: boardID})
		return err
	}))
	return total
}

// lastActivity returns the newest entry on the board.
func (f *fixture) lastActivity(boardID int64) models.Activity {
	f.t.Helper()
	var items []models.Activity
	require.NoError(f.t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		var err error
		items, _, err = tx.Activities().Query(f.ctx, repository.ActivityFilter{
			BoardID: boardID, SortBy: "id", Desc: true, Limit: 1,
		})
		return err
	}))
	require.NotEmpty(f.t, items)
	return items[0]
}

// failingActivities wraps a store so every activity insert fails.
type failingActivities struct {
	repository.Store
}

var errActivityDown = errors.New("activity log unavailable")

func (s failingActivities) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Tx) error {
		return fn(failingTx{tx})
	})
}

type failingTx struct {
	repository.Tx
}

func (t failingTx) Activities() repository.ActivityRepository {
	return failingActivityRepo{t.Tx.Activities()}
}

type failingActivityRepo struct {
	repository.ActivityRepository
}

func (failingActivityRepo) Create(context.Context, *models.Activity) error {
	return errActivityDown
}

func activityQuery(perPage, page int) activity.Query {
	return activity.Query{PerPage: perPage, Page: page}
}
