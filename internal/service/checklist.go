package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
)

type ChecklistService struct{ *core }

type ChecklistItemInput struct {
	Title            string     `json:"title"`
	AssignedMemberID *int64     `json:"assigned_board_user_id"`
	DueDate          *time.Time `json:"due_date"`
}

// checklistScope is a checklist with the card it hangs off and the resolved
// actor.
type checklistScope struct {
	checklist *models.Checklist
	card      *models.Card
	member    *Member
}

func (s *ChecklistService) scope(ctx context.Context, tx repository.Tx, userID uuid.UUID, checklistID int64) (*checklistScope, error) {
	cl, err := tx.Checklists().GetByID(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if cl == nil {
		return nil, notFound("checklist")
	}
	card, err := s.loadCard(ctx, tx, cl.CardID)
	if err != nil {
		return nil, err
	}
	m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
	if err != nil {
		return nil, err
	}
	return &checklistScope{checklist: cl, card: card, member: m}, nil
}

func (s *ChecklistService) itemScope(ctx context.Context, tx repository.Tx, userID uuid.UUID, itemID int64) (*models.ChecklistItem, *checklistScope, error) {
	item, err := tx.Checklists().GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, notFound("checklist item")
	}
	sc, err := s.scope(ctx, tx, userID, item.ChecklistID)
	if err != nil {
		return nil, nil, err
	}
	return item, sc, nil
}

// entry fills in the fields every checklist activity shares.
func (sc *checklistScope) entry(event models.Event, entityID int64, changes *activity.Changes) activity.Entry {
	return activity.Entry{
		BoardID:  sc.card.BoardID,
		MemberID: sc.member.ActorID(),
		Event:    event,
		EntityID: activity.ID(entityID),
		CardID:   activity.ID(sc.card.ID),
		Changes:  changes,
	}
}

// publishChecklist sends the checklist with its current items to the board
// room.
func (s *ChecklistService) publishChecklist(ctx context.Context, tx repository.Tx, out *outbox, sc *checklistScope, event string) error {
	items, err := tx.Checklists().ListItems(ctx, sc.checklist.ID)
	if err != nil {
		return err
	}
	cl := *sc.checklist
	cl.Items = items
	out.publish(realtime.BoardRoom(sc.card.BoardID), event, entityEvent{
		ListID: sc.card.ListID,
		CardID: sc.card.ID,
		Entity: cl,
	})
	return nil
}

// checkAssignee verifies id is an active member of the board.
func checkAssignee(ctx context.Context, tx repository.Tx, boardID int64, id *int64) error {
	if id == nil {
		return nil
	}
	bm, err := tx.Members().GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if bm == nil || bm.BoardID != boardID || bm.IsDeleted {
		return invalid("assigned_board_user_id", "Board user not exists.")
	}
	return nil
}

func (s *ChecklistService) Create(ctx context.Context, userID uuid.UUID, cardID int64, title string) (*models.Checklist, error) {
	if err := requireText("title", title); err != nil {
		return nil, err
	}

	var cl *models.Checklist
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.ChecklistCreate); err != nil {
			return err
		}

		cl = &models.Checklist{BoardID: card.BoardID, CardID: card.ID, Title: title, Items: []models.ChecklistItem{}}
		if err := tx.Checklists().Create(ctx, cl); err != nil {
			return err
		}
		sc := &checklistScope{checklist: cl, card: card, member: m}
		if _, err := s.record(ctx, tx, out, sc.entry(models.EventChecklistCreate, cl.ID,
			&activity.Changes{To: map[string]any{"title": cl.Title}})); err != nil {
			return err
		}
		return s.publishChecklist(ctx, tx, out, sc, realtime.EventChecklistNew)
	})
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func (s *ChecklistService) Update(ctx context.Context, userID uuid.UUID, checklistID int64, p models.ChecklistPatch) (*models.Checklist, error) {
	var cl *models.Checklist
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		sc, err := s.scope(ctx, tx, userID, checklistID)
		if err != nil {
			return err
		}
		if err := sc.member.require(permission.ChecklistEdit); err != nil {
			return err
		}
		cl = sc.checklist
		if p.Title == nil || *p.Title == cl.Title {
			return nil
		}
		if err := requireText("title", *p.Title); err != nil {
			return err
		}

		changes := activity.Diff("title", cl.Title, *p.Title)
		cl.Title = *p.Title
		if err := tx.Checklists().Update(ctx, cl); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, sc.entry(models.EventChecklistUpdate, cl.ID, changes)); err != nil {
			return err
		}
		return s.publishChecklist(ctx, tx, out, sc, realtime.EventChecklistUpdate)
	})
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func (s *ChecklistService) Delete(ctx context.Context, userID uuid.UUID, checklistID int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		sc, err := s.scope(ctx, tx, userID, checklistID)
		if err != nil {
			return err
		}
		if err := sc.member.require(permission.ChecklistEdit); err != nil {
			return err
		}
		if err := tx.Checklists().Delete(ctx, sc.checklist.ID); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, sc.entry(models.EventChecklistDelete, sc.checklist.ID,
			&activity.Changes{From: map[string]any{"title": sc.checklist.Title}})); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(sc.card.BoardID), realtime.EventChecklistDelete, deleteEvent{
			ListID:   sc.card.ListID,
			CardID:   sc.card.ID,
			EntityID: sc.checklist.ID,
		})
		return nil
	})
}

func (s *ChecklistService) CreateItem(ctx context.Context, userID uuid.UUID, checklistID int64, in ChecklistItemInput) (*models.ChecklistItem, error) {
	if err := requireText("title", in.Title); err != nil {
		return nil, err
	}

	var item *models.ChecklistItem
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		sc, err := s.scope(ctx, tx, userID, checklistID)
		if err != nil {
			return err
		}
		if err := sc.member.require(permission.ChecklistEdit); err != nil {
			return err
		}
		if err := checkAssignee(ctx, tx, sc.card.BoardID, in.AssignedMemberID); err != nil {
			return err
		}

		pos, err := tx.Checklists().MaxItemPosition(ctx, checklistID)
		if err != nil {
			return err
		}
		item = &models.ChecklistItem{
			ChecklistID:      checklistID,
			Title:            in.Title,
			AssignedMemberID: in.AssignedMemberID,
			DueDate:          in.DueDate,
			Position:         pos + 1,
		}
		if err := tx.Checklists().CreateItem(ctx, item); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, sc.entry(models.EventChecklistItemCreate, item.ID,
			&activity.Changes{To: map[string]any{"title": item.Title}})); err != nil {
			return err
		}
		return s.publishChecklist(ctx, tx, out, sc, realtime.EventChecklistUpdate)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem applies an item patch. Members with only the mark permission may
// send a patch that changes nothing but Completed.
//
// Completing stamps the actor and time; un-completing clears both. Marking,
// assignment, due date and title each get their own activity.
func (s *ChecklistService) UpdateItem(ctx context.Context, userID uuid.UUID, itemID int64, p models.ChecklistItemPatch) (*models.ChecklistItem, error) {
	var result *models.ChecklistItem
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		item, sc, err := s.itemScope(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		m := sc.member
		switch {
		case m.HasPermission(permission.ChecklistEdit):
		case m.HasPermission(permission.ChecklistItemMark):
			if !p.OnlyCompletion() {
				return ErrForbidden
			}
		default:
			return ErrForbidden
		}
		if err := checkAssignee(ctx, tx, sc.card.BoardID, p.AssignedMemberID); err != nil {
			return err
		}
		result = item

		var entries []activity.Entry
		if p.Completed != nil && *p.Completed != item.Completed {
			item.Completed = *p.Completed
			if item.Completed {
				now := s.now().UTC()
				item.MarkedCompleteBy = m.ActorID()
				item.MarkedCompleteOn = &now
			} else {
				item.MarkedCompleteBy = nil
				item.MarkedCompleteOn = nil
			}
			entries = append(entries, sc.entry(models.EventChecklistItemMarked, item.ID,
				&activity.Changes{To: map[string]any{"title": item.Title, "completed": item.Completed}}))
		}
		if p.AssignedMemberID != nil && (item.AssignedMemberID == nil || *item.AssignedMemberID != *p.AssignedMemberID) {
			entries = append(entries, sc.entry(models.EventChecklistItemAssign, item.ID,
				&activity.Changes{To: map[string]any{"board_user_id": *p.AssignedMemberID}}))
			item.AssignedMemberID = p.AssignedMemberID
		}
		if p.DueDate != nil && (item.DueDate == nil || !item.DueDate.Equal(*p.DueDate)) {
			entries = append(entries, sc.entry(models.EventChecklistItemDue, item.ID,
				activity.Diff("due_date", formatDate(item.DueDate), formatDate(p.DueDate))))
			item.DueDate = p.DueDate
		}
		if p.Title != nil && *p.Title != item.Title {
			if err := requireText("title", *p.Title); err != nil {
				return err
			}
			entries = append(entries, sc.entry(models.EventChecklistItemUpdate, item.ID,
				activity.Diff("title", item.Title, *p.Title)))
			item.Title = *p.Title
		}
		if len(entries) == 0 {
			return nil
		}

		if err := tx.Checklists().UpdateItem(ctx, item); err != nil {
			return err
		}
		for _, e := range entries {
			if _, err := s.record(ctx, tx, out, e); err != nil {
				return err
			}
		}
		return s.publishChecklist(ctx, tx, out, sc, realtime.EventChecklistUpdate)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ChecklistService) DeleteItem(ctx context.Context, userID uuid.UUID, itemID int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		item, sc, err := s.itemScope(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := sc.member.require(permission.ChecklistEdit); err != nil {
			return err
		}
		if err := tx.Checklists().DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, sc.entry(models.EventChecklistItemDelete, item.ID,
			&activity.Changes{From: map[string]any{"title": item.Title}})); err != nil {
			return err
		}
		return s.publishChecklist(ctx, tx, out, sc, realtime.EventChecklistUpdate)
	})
}

// ReorderItems sets item positions to their index in order. IDs that are not
// items of this checklist are skipped.
func (s *ChecklistService) ReorderItems(ctx context.Context, userID uuid.UUID, checklistID int64, order []int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		sc, err := s.scope(ctx, tx, userID, checklistID)
		if err != nil {
			return err
		}
		if err := sc.member.require(permission.ChecklistEdit); err != nil {
			return err
		}
		for i, id := range order {
			item, err := tx.Checklists().GetItem(ctx, id)
			if err != nil {
				return err
			}
			if item == nil || item.ChecklistID != checklistID {
				continue
			}
			if err := tx.Checklists().SetItemPosition(ctx, id, i); err != nil {
				return err
			}
		}
		if _, err := s.record(ctx, tx, out, sc.entry(models.EventChecklistUpdate, checklistID,
			&activity.Changes{To: map[string]any{"order": order}})); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(sc.card.BoardID), realtime.EventChecklistUpdate, orderEvent{
			ChecklistID: checklistID,
			Order:       order,
		})
		return nil
	})
}
