package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/lalith-99/kanban/internal/storage"
)

type ListService struct{ *core }

// ListWithCards is a list and its visible cards in position order.
type ListWithCards struct {
	models.BoardList
	Cards []models.Card `json:"cards"`
}

type CreateListInput struct {
	Title    string `json:"title"`
	WIPLimit *int   `json:"wip_limit"`
}

const wipMessage = "WIP limit is lower than the number of cards in the list."

func validWIP(limit int) error {
	if limit < models.Unlimited {
		return invalid("wip_limit", "Must be -1 (unlimited) or a positive number.")
	}
	return nil
}

func (s *ListService) Create(ctx context.Context, userID uuid.UUID, boardID int64, in CreateListInput) (*models.BoardList, error) {
	if err := requireText("title", in.Title); err != nil {
		return nil, err
	}
	wip := models.Unlimited
	if in.WIPLimit != nil {
		if err := validWIP(*in.WIPLimit); err != nil {
			return nil, err
		}
		wip = *in.WIPLimit
	}

	var list *models.BoardList
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		m, err := s.resolver.Resolve(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.ListCreate); err != nil {
			return err
		}

		pos, err := tx.Lists().MaxPosition(ctx, boardID)
		if err != nil {
			return err
		}
		list = &models.BoardList{BoardID: boardID, Title: in.Title, Position: pos + 1, WIPLimit: wip}
		if err := tx.Lists().Create(ctx, list); err != nil {
			return err
		}

		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  boardID,
			MemberID: m.ActorID(),
			Event:    models.EventListCreate,
			EntityID: activity.ID(list.ID),
			Changes:  &activity.Changes{To: map[string]any{"title": list.Title}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(boardID), realtime.EventListNew, ListWithCards{BoardList: *list, Cards: []models.Card{}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListByBoard returns the board's active lists, each with its non-archived
// cards.
func (s *ListService) ListByBoard(ctx context.Context, userID uuid.UUID, boardID int64) ([]ListWithCards, error) {
	var result []ListWithCards
	err := s.view(ctx, func(tx repository.Tx) error {
		if _, err := s.resolver.Resolve(ctx, tx, boardID, userID); err != nil {
			return err
		}
		lists, err := tx.Lists().ListByBoard(ctx, boardID, false)
		if err != nil {
			return err
		}
		result = make([]ListWithCards, 0, len(lists))
		for _, l := range lists {
			cards, err := tx.Cards().ListByList(ctx, l.ID, false)
			if err != nil {
				return err
			}
			result = append(result, ListWithCards{BoardList: l, Cards: cards})
		}
		return nil
	})
	return result, err
}

// Update applies a list patch. An Archived change runs the archive or revert
// transition first; title and WIP changes are recorded together as one
// list.update entry.
func (s *ListService) Update(ctx context.Context, userID uuid.UUID, listID int64, p models.ListPatch) (*models.BoardList, error) {
	var list *models.BoardList
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		l, err := s.loadList(ctx, tx, listID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, l.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.ListEdit); err != nil {
			return err
		}
		list = l

		if p.Archived != nil && *p.Archived != l.Archived {
			if *p.Archived {
				err = s.archive(ctx, tx, out, m, l)
			} else {
				err = s.revert(ctx, tx, out, m, l)
			}
			if err != nil {
				return err
			}
		}

		changes := &activity.Changes{}
		if p.Title != nil && *p.Title != l.Title {
			if err := requireText("title", *p.Title); err != nil {
				return err
			}
			changes.Set("title", l.Title, *p.Title)
			l.Title = *p.Title
		}
		if p.WIPLimit != nil && *p.WIPLimit != l.WIPLimit {
			if err := validWIP(*p.WIPLimit); err != nil {
				return err
			}
			active, err := tx.Cards().CountActive(ctx, l.ID)
			if err != nil {
				return err
			}
			next := *l
			next.WIPLimit = *p.WIPLimit
			if next.WIPLimit != models.Unlimited && active > next.WIPLimit {
				return invalid("wip_limit", wipMessage)
			}
			changes.Set("wip_limit", l.WIPLimit, next.WIPLimit)
			l.WIPLimit = next.WIPLimit
		}
		if changes.Empty() {
			return nil
		}

		if err := tx.Lists().Update(ctx, l); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  l.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventListUpdate,
			EntityID: activity.ID(l.ID),
			Changes:  changes,
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(l.BoardID), realtime.EventListUpdate, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Delete archives an active list and purges an archived one along with its
// cards and their files.
func (s *ListService) Delete(ctx context.Context, userID uuid.UUID, listID int64) (models.Lifecycle, error) {
	var next models.Lifecycle
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		l, err := s.loadList(ctx, tx, listID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, l.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.ListDelete); err != nil {
			return err
		}

		next = l.State().OnDelete()
		if next == models.StateArchived {
			return s.archive(ctx, tx, out, m, l)
		}

		files, err := tx.Files().ListByList(ctx, l.ID)
		if err != nil {
			return err
		}
		if err := tx.Lists().Delete(ctx, l.ID); err != nil {
			return err
		}
		for _, f := range files {
			out.purgeFile(storage.FilePath(f.BoardID, f.CardID, f.FileName))
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  l.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventListDelete,
			EntityID: activity.ID(l.ID),
			Changes:  &activity.Changes{From: map[string]any{"title": l.Title}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(l.BoardID), realtime.EventListDelete, deleteEvent{ListID: l.ID, EntityID: l.ID})
		return nil
	})
	return next, err
}

// Revert brings an archived list back together with the cards its archive
// hid. It fails when those cards would exceed the WIP limit.
func (s *ListService) Revert(ctx context.Context, userID uuid.UUID, listID int64) (*ListWithCards, error) {
	var result *ListWithCards
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		l, err := s.loadList(ctx, tx, listID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, l.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.ListEdit); err != nil {
			return err
		}
		if !l.State().CanRevert() {
			return invalid("archived", "List is not archived.")
		}
		if err := s.revert(ctx, tx, out, m, l); err != nil {
			return err
		}
		cards, err := tx.Cards().ListByList(ctx, l.ID, false)
		if err != nil {
			return err
		}
		result = &ListWithCards{BoardList: *l, Cards: cards}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ListService) archive(ctx context.Context, tx repository.Tx, out *outbox, m *Member, l *models.BoardList) error {
	now := s.now().UTC()
	l.Archived = true
	l.ArchivedOn = &now
	if err := tx.Lists().Update(ctx, l); err != nil {
		return err
	}
	if _, err := tx.Cards().ArchiveByList(ctx, l.ID, now); err != nil {
		return err
	}
	if _, err := s.record(ctx, tx, out, activity.Entry{
		BoardID:  l.BoardID,
		MemberID: m.ActorID(),
		Event:    models.EventListArchive,
		EntityID: activity.ID(l.ID),
		Changes:  &activity.Changes{To: map[string]any{"title": l.Title}},
	}); err != nil {
		return err
	}
	out.publish(realtime.BoardRoom(l.BoardID), realtime.EventListDelete, deleteEvent{ListID: l.ID, EntityID: l.ID})
	return nil
}

func (s *ListService) revert(ctx context.Context, tx repository.Tx, out *outbox, m *Member, l *models.BoardList) error {
	if l.WIPLimit != models.Unlimited {
		active, err := tx.Cards().CountActive(ctx, l.ID)
		if err != nil {
			return err
		}
		hidden, err := tx.Cards().CountArchivedByList(ctx, l.ID)
		if err != nil {
			return err
		}
		if active+hidden > l.WIPLimit {
			return invalid("wip_limit", wipMessage)
		}
	}

	l.Archived = false
	l.ArchivedOn = nil
	if err := tx.Lists().Update(ctx, l); err != nil {
		return err
	}
	if _, err := tx.Cards().RevertByList(ctx, l.ID); err != nil {
		return err
	}
	if _, err := s.record(ctx, tx, out, activity.Entry{
		BoardID:  l.BoardID,
		MemberID: m.ActorID(),
		Event:    models.EventListRevert,
		EntityID: activity.ID(l.ID),
		Changes:  &activity.Changes{To: map[string]any{"title": l.Title}},
	}); err != nil {
		return err
	}

	cards, err := tx.Cards().ListByList(ctx, l.ID, false)
	if err != nil {
		return err
	}
	out.publish(realtime.BoardRoom(l.BoardID), realtime.EventListNew, ListWithCards{BoardList: *l, Cards: cards})
	return nil
}

// ReorderCards sets card positions to their index in order. IDs that are not
// cards of this list are skipped.
func (s *ListService) ReorderCards(ctx context.Context, userID uuid.UUID, listID int64, order []int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		l, err := s.loadList(ctx, tx, listID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, l.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.ListEdit); err != nil {
			return err
		}

		for i, id := range order {
			c, err := tx.Cards().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if c == nil || c.ListID != l.ID {
				continue
			}
			if err := tx.Cards().SetPosition(ctx, id, i); err != nil {
				return err
			}
		}

		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  l.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardReorder,
			EntityID: activity.ID(l.ID),
			Changes:  &activity.Changes{To: map[string]any{"order": order}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(l.BoardID), realtime.EventCardUpdateOrder, orderEvent{ListID: l.ID, Order: order})
		return nil
	})
}
