// Package service holds the command services for every board aggregate and the
// permission resolver they share.
//
// Every command follows the same steps: load the target, resolve the actor,
// check one permission, apply the change, record activity, commit, then
// publish. The first five happen inside one repository.Store.WithTx call.
// Realtime events, file purges and mails are queued on an outbox during the
// transaction and only run once it has committed.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/mail"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/lalith-99/kanban/internal/storage"
	"go.uber.org/zap"
)

type Deps struct {
	Store     repository.Store
	Publisher realtime.Publisher
	Files     storage.Storage
	Mailer    mail.Dispatcher
	Logger    *zap.Logger
	// Now stamps activity and archive times. Defaults to time.Now.
	Now func() time.Time
}

type Services struct {
	Resolver    *Resolver
	Boards      *BoardService
	Lists       *ListService
	Cards       *CardService
	CardMembers *CardMemberService
	Comments    *CommentService
	Dates       *DateService
	Checklists  *ChecklistService
	Members     *MemberService
	Files       *FileService
	Access      *AccessService
}

func New(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.Mailer == nil {
		d.Mailer = nopMailer{}
	}

	c := &core{
		store:     d.Store,
		resolver:  NewResolver(d.Store, d.Logger),
		recorder:  activity.NewRecorder(d.Now),
		publisher: d.Publisher,
		files:     d.Files,
		mailer:    d.Mailer,
		logger:    d.Logger,
		now:       d.Now,
	}

	return &Services{
		Resolver:    c.resolver,
		Boards:      &BoardService{c},
		Lists:       &ListService{c},
		Cards:       &CardService{c},
		CardMembers: &CardMemberService{c},
		Comments:    &CommentService{c},
		Dates:       &DateService{c},
		Checklists:  &ChecklistService{c},
		Members:     &MemberService{c},
		Files:       &FileService{c},
		Access:      &AccessService{c},
	}
}

type core struct {
	store     repository.Store
	resolver  *Resolver
	recorder  *activity.Recorder
	publisher realtime.Publisher
	files     storage.Storage
	mailer    mail.Dispatcher
	logger    *zap.Logger
	now       func() time.Time
}

type pendingEvent struct {
	room    realtime.Room
	event   string
	payload any
}

type pendingEvict struct {
	boardID int64
	userID  uuid.UUID
}

// outbox collects side effects that must not run before commit.
type outbox struct {
	evicts []pendingEvict
	events []pendingEvent
	files  []string
	trees  []string
	mails  []mail.Message
}

// publish queues an event. payload is encoded at flush time, so it may still
// be filled in after the call.
func (o *outbox) publish(room realtime.Room, event string, payload any) {
	o.events = append(o.events, pendingEvent{room: room, event: event, payload: payload})
}

// evict queues removal of userID's connections from the board's rooms.
// uuid.Nil evicts every connection.
func (o *outbox) evict(boardID int64, userID uuid.UUID) {
	o.evicts = append(o.evicts, pendingEvict{boardID: boardID, userID: userID})
}

func (o *outbox) purgeFile(p string) { o.files = append(o.files, p) }
func (o *outbox) purgeTree(p string) { o.trees = append(o.trees, p) }
func (o *outbox) mail(m mail.Message) { o.mails = append(o.mails, m) }

// run executes fn as one unit of work and flushes the outbox after commit.
func (c *core) run(ctx context.Context, fn func(tx repository.Tx, out *outbox) error) error {
	out := &outbox{}
	err := c.store.WithTx(ctx, func(tx repository.Tx) error {
		return fn(tx, out)
	})
	if err != nil {
		return err
	}
	c.flush(out)
	return nil
}

// view runs a read-only unit of work.
func (c *core) view(ctx context.Context, fn func(tx repository.Tx) error) error {
	return c.store.WithTx(ctx, fn)
}

// flush never fails the command: the change is already committed.
// Evictions run after the command's own events, so an evicted client still
// sees the change that removed it.
func (c *core) flush(out *outbox) {
	for _, ev := range out.events {
		if err := c.publisher.Publish(ev.room, ev.event, ev.payload); err != nil {
			c.logger.Warn("publish failed",
				zap.String("room", ev.room.String()),
				zap.String("event", ev.event),
				zap.Error(err),
			)
		}
	}
	for _, ev := range out.evicts {
		if err := c.publisher.Evict(ev.boardID, ev.userID); err != nil {
			c.logger.Warn("evict failed",
				zap.Int64("board_id", ev.boardID),
				zap.String("user_id", ev.userID.String()),
				zap.Error(err),
			)
		}
	}
	for _, p := range out.files {
		if err := c.files.Delete(p); err != nil {
			c.logger.Error("purge file failed", zap.String("path", p), zap.Error(err))
		}
	}
	for _, p := range out.trees {
		if err := c.files.DeleteTree(p); err != nil {
			c.logger.Error("purge directory failed", zap.String("path", p), zap.Error(err))
		}
	}
	for _, m := range out.mails {
		c.mailer.Send(m)
	}
}

// record appends an activity entry. Card-scoped entries are also streamed to
// the card room.
func (c *core) record(ctx context.Context, tx repository.Tx, out *outbox, e activity.Entry) (*models.Activity, error) {
	a, err := c.recorder.Record(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	if e.CardID != nil {
		out.publish(realtime.CardRoom(*e.CardID), realtime.EventCardActivity, a)
	}
	return a, nil
}

func (c *core) loadCard(ctx context.Context, tx repository.Tx, id int64) (*models.Card, error) {
	card, err := tx.Cards().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, notFound("card")
	}
	return card, nil
}

func (c *core) loadList(ctx context.Context, tx repository.Tx, id int64) (*models.BoardList, error) {
	l, err := tx.Lists().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, notFound("list")
	}
	return l, nil
}

// Realtime payloads. Board-room events about a card carry its list and card
// so clients can find the entity without another lookup.

type entityEvent struct {
	ListID int64 `json:"list_id,omitempty"`
	CardID int64 `json:"card_id,omitempty"`
	Entity any   `json:"entity"`
}

type deleteEvent struct {
	ListID   int64 `json:"list_id,omitempty"`
	CardID   int64 `json:"card_id,omitempty"`
	EntityID int64 `json:"entity_id"`
}

type orderEvent struct {
	ListID      int64   `json:"list_id,omitempty"`
	ChecklistID int64   `json:"checklist_id,omitempty"`
	Order       []int64 `json:"order"`
}

type nopPublisher struct{}

func (nopPublisher) Publish(realtime.Room, string, any) error { return nil }
func (nopPublisher) Evict(int64, uuid.UUID) error { return nil }

type nopMailer struct{}

func (nopMailer) Send(mail.Message) {}
