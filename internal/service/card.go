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

type CardService struct{ *core }

type CreateCardInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CardDetail is a card with everything hanging off it and its most recent
// activity.
type CardDetail struct {
	models.Card
	Members    []models.CardMember `json:"assigned_members"`
	Dates      []models.CardDate   `json:"dates"`
	Checklists []models.Checklist  `json:"checklists"`
	Files      []models.CardFile   `json:"files"`
	Activities []models.Activity   `json:"activities"`
}

const (
	msgOtherBoard = "Cannot move card to other board!"
	msgListFull   = "List has reached its WIP limit."
	msgArchived   = "List is archived."
)

// acceptsCard checks that l can take one more active card.
func acceptsCard(ctx context.Context, tx repository.Tx, l *models.BoardList, field string) error {
	if l.Archived {
		return invalid(field, msgArchived)
	}
	if l.WIPLimit == models.Unlimited {
		return nil
	}
	active, err := tx.Cards().CountActive(ctx, l.ID)
	if err != nil {
		return err
	}
	if l.AtCapacity(active) {
		return invalid(field, msgListFull)
	}
	return nil
}

func (s *CardService) Create(ctx context.Context, userID uuid.UUID, listID int64, in CreateCardInput) (*models.Card, error) {
	if err := requireText("title", in.Title); err != nil {
		return nil, err
	}

	var card *models.Card
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		l, err := s.loadList(ctx, tx, listID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, l.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardEdit); err != nil {
			return err
		}
		if err := acceptsCard(ctx, tx, l, "list_id"); err != nil {
			return err
		}

		pos, err := tx.Cards().MaxPosition(ctx, l.ID)
		if err != nil {
			return err
		}
		card = &models.Card{
			BoardID:     l.BoardID,
			ListID:      l.ID,
			Title:       in.Title,
			Description: in.Description,
			Position:    pos + 1,
		}
		if err := tx.Cards().Create(ctx, card); err != nil {
			return err
		}

		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  card.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardCreate,
			EntityID: activity.ID(card.ID),
			CardID:   activity.ID(card.ID),
			Changes:  &activity.Changes{To: map[string]any{"title": card.Title, "list_id": l.ID}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(card.BoardID), realtime.EventCardNew, entityEvent{
			ListID: card.ListID,
			CardID: card.ID,
			Entity: card,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Get returns the card detail with its latest activityCount entries.
func (s *CardService) Get(ctx context.Context, userID uuid.UUID, cardID int64, activityCount int) (*CardDetail, error) {
	var d *CardDetail
	err := s.view(ctx, func(tx repository.Tx) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		if _, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID); err != nil {
			return err
		}

		d = &CardDetail{Card: *card}
		if d.Members, err = tx.CardMembers().ListByCard(ctx, card.ID); err != nil {
			return err
		}
		if d.Dates, err = tx.Dates().ListByCard(ctx, card.ID); err != nil {
			return err
		}
		if d.Checklists, err = tx.Checklists().ListByCard(ctx, card.ID); err != nil {
			return err
		}
		if d.Files, err = tx.Files().ListByCard(ctx, card.ID); err != nil {
			return err
		}

		page, err := s.recorder.Query(ctx, tx, activity.Query{
			BoardID: card.BoardID,
			CardID:  activity.ID(card.ID),
			PerPage: activityCount,
		})
		if err != nil {
			return err
		}
		d.Activities = page.Items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *CardService) Activities(ctx context.Context, userID uuid.UUID, cardID int64, q activity.Query) (*activity.Page, error) {
	var page *activity.Page
	err := s.view(ctx, func(tx repository.Tx) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		if _, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID); err != nil {
			return err
		}
		q.BoardID = card.BoardID
		q.CardID = activity.ID(card.ID)
		page, err = s.recorder.Query(ctx, tx, q)
		return err
	})
	return page, err
}

// Update applies a card patch. A list move, an archive toggle and a title
// change each get their own activity; remaining field changes are grouped
// into one card.update entry.
func (s *CardService) Update(ctx context.Context, userID uuid.UUID, cardID int64, p models.CardPatch) (*models.Card, error) {
	var card *models.Card
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		c, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, c.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardEdit); err != nil {
			return err
		}
		card = c
		oldListID := c.ListID

		var entries []activity.Entry
		track := func(event models.Event, changes *activity.Changes) {
			entries = append(entries, activity.Entry{Event: event, Changes: changes})
		}

		if p.ListID != nil && *p.ListID != c.ListID {
			changes, err := s.move(ctx, tx, c, *p.ListID, p.Position == nil)
			if err != nil {
				return err
			}
			track(models.EventCardMove, changes)
		}

		if p.Archived != nil && *p.Archived != c.Archived {
			if *p.Archived {
				now := s.now().UTC()
				c.Archived = true
				c.ArchivedOn = &now
				track(models.EventCardArchive, &activity.Changes{To: map[string]any{"title": c.Title}})
			} else {
				l, err := s.loadList(ctx, tx, c.ListID)
				if err != nil {
					return err
				}
				if err := acceptsCard(ctx, tx, l, "archived"); err != nil {
					return err
				}
				c.Archived = false
				c.ArchivedOn = nil
				track(models.EventCardRevert, &activity.Changes{To: map[string]any{"title": c.Title}})
			}
		}

		if p.Title != nil && *p.Title != c.Title {
			if err := requireText("title", *p.Title); err != nil {
				return err
			}
			track(models.EventCardChangeTitle, activity.Diff("title", c.Title, *p.Title))
			c.Title = *p.Title
		}

		rest := &activity.Changes{}
		if p.Description != nil && *p.Description != c.Description {
			rest.Set("description", c.Description, *p.Description)
			c.Description = *p.Description
		}
		if p.Position != nil && *p.Position != c.Position {
			rest.Set("position", c.Position, *p.Position)
			c.Position = *p.Position
		}
		if !rest.Empty() {
			track(models.EventCardUpdate, rest)
		}

		if len(entries) == 0 {
			return nil
		}
		if err := tx.Cards().Update(ctx, c); err != nil {
			return err
		}
		for _, e := range entries {
			e.BoardID = c.BoardID
			e.MemberID = m.ActorID()
			e.EntityID = activity.ID(c.ID)
			e.CardID = activity.ID(c.ID)
			if _, err := s.record(ctx, tx, out, e); err != nil {
				return err
			}
		}
		out.publish(realtime.BoardRoom(c.BoardID), realtime.EventCardUpdate, entityEvent{
			ListID: oldListID,
			CardID: c.ID,
			Entity: c,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// move validates the target list and points c at it. When appendToEnd is set
// the card is placed after the target's last card.
func (s *CardService) move(ctx context.Context, tx repository.Tx, c *models.Card, targetID int64, appendToEnd bool) (*activity.Changes, error) {
	target, err := tx.Lists().GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, invalid("list_id", "List not exists.")
	}
	if target.BoardID != c.BoardID {
		return nil, invalid("list_id", msgOtherBoard)
	}
	if c.Archived {
		if target.Archived {
			return nil, invalid("list_id", msgArchived)
		}
	} else if err := acceptsCard(ctx, tx, target, "list_id"); err != nil {
		return nil, err
	}

	current, err := s.loadList(ctx, tx, c.ListID)
	if err != nil {
		return nil, err
	}

	if appendToEnd {
		pos, err := tx.Cards().MaxPosition(ctx, target.ID)
		if err != nil {
			return nil, err
		}
		c.Position = pos + 1
	}
	c.ListID = target.ID
	if c.ArchivedByList {
		c.ArchivedByList = false
		if !c.Archived {
			c.ArchivedOn = nil
		}
	}

	return &activity.Changes{
		From: map[string]any{"id": current.ID, "title": current.Title},
		To:   map[string]any{"id": target.ID, "title": target.Title},
	}, nil
}

// Delete archives an active card and purges an archived one with its files.
func (s *CardService) Delete(ctx context.Context, userID uuid.UUID, cardID int64) (models.Lifecycle, error) {
	var next models.Lifecycle
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		c, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, c.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardDelete); err != nil {
			return err
		}

		next = c.State().OnDelete()
		entry := activity.Entry{
			BoardID:  c.BoardID,
			MemberID: m.ActorID(),
			EntityID: activity.ID(c.ID),
		}

		switch next {
		case models.StateArchived:
			now := s.now().UTC()
			c.Archived = true
			c.ArchivedOn = &now
			if err := tx.Cards().Update(ctx, c); err != nil {
				return err
			}
			entry.Event = models.EventCardArchive
			entry.CardID = activity.ID(c.ID)
			entry.Changes = &activity.Changes{To: map[string]any{"title": c.Title}}
		case models.StatePurged:
			if err := tx.Cards().Delete(ctx, c.ID); err != nil {
				return err
			}
			out.purgeTree(storage.CardPath(c.BoardID, c.ID))
			// The card's own entries are gone; this one lives on the board.
			entry.Event = models.EventCardDelete
			entry.Changes = &activity.Changes{From: map[string]any{"title": c.Title, "list_id": c.ListID}}
		}

		if _, err := s.record(ctx, tx, out, entry); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(c.BoardID), realtime.EventCardDelete, deleteEvent{
			ListID:   c.ListID,
			CardID:   c.ID,
			EntityID: c.ID,
		})
		return nil
	})
	return next, err
}
