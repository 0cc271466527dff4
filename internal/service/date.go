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

type DateService struct{ *core }

type DateInput struct {
	DtFrom      *time.Time `json:"dt_from"`
	DtTo        time.Time  `json:"dt_to"`
	Description string     `json:"description"`
	Complete    bool       `json:"complete"`
}

const dateLayout = "2006-01-02 15:04:05"

func checkRange(from *time.Time, to time.Time) error {
	if to.IsZero() {
		return invalid("dt_to", "Missing data for required field.")
	}
	if from != nil && from.After(to) {
		return invalid("dt_from", "Start date must not be after the end date.")
	}
	return nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

// loadDate resolves a date with its card and the actor.
func (s *DateService) loadDate(ctx context.Context, tx repository.Tx, userID uuid.UUID, dateID int64) (*models.CardDate, *models.Card, *Member, error) {
	d, err := tx.Dates().GetByID(ctx, dateID)
	if err != nil {
		return nil, nil, nil, err
	}
	if d == nil {
		return nil, nil, nil, notFound("card date")
	}
	card, err := s.loadCard(ctx, tx, d.CardID)
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return d, card, m, nil
}

func (s *DateService) List(ctx context.Context, userID uuid.UUID, cardID int64) ([]models.CardDate, error) {
	var dates []models.CardDate
	err := s.view(ctx, func(tx repository.Tx) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		if _, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID); err != nil {
			return err
		}
		dates, err = tx.Dates().ListByCard(ctx, card.ID)
		return err
	})
	return dates, err
}

func (s *DateService) Create(ctx context.Context, userID uuid.UUID, cardID int64, in DateInput) (*models.CardDate, error) {
	if err := checkRange(in.DtFrom, in.DtTo); err != nil {
		return nil, err
	}

	var d *models.CardDate
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardAddDate); err != nil {
			return err
		}

		d = &models.CardDate{
			BoardID:     card.BoardID,
			CardID:      card.ID,
			DtFrom:      in.DtFrom,
			DtTo:        in.DtTo,
			Description: in.Description,
			Complete:    in.Complete,
		}
		if err := tx.Dates().Create(ctx, d); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  card.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardDateCreate,
			EntityID: activity.ID(d.ID),
			CardID:   activity.ID(card.ID),
			Changes: &activity.Changes{To: map[string]any{
				"dt_from":     formatDate(d.DtFrom),
				"dt_to":       formatDate(&d.DtTo),
				"description": d.Description,
			}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(card.BoardID), realtime.EventCardDateNew, entityEvent{
			ListID: card.ListID,
			CardID: card.ID,
			Entity: d,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DateService) Update(ctx context.Context, userID uuid.UUID, dateID int64, p models.DatePatch) (*models.CardDate, error) {
	var result *models.CardDate
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		d, card, m, err := s.loadDate(ctx, tx, userID, dateID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardEditDate); err != nil {
			return err
		}
		result = d

		changes := &activity.Changes{}
		if p.DtFrom != nil && (d.DtFrom == nil || !p.DtFrom.Equal(*d.DtFrom)) {
			changes.Set("dt_from", formatDate(d.DtFrom), formatDate(p.DtFrom))
			d.DtFrom = p.DtFrom
		}
		if p.DtTo != nil && !p.DtTo.Equal(d.DtTo) {
			changes.Set("dt_to", formatDate(&d.DtTo), formatDate(p.DtTo))
			d.DtTo = *p.DtTo
		}
		if p.Description != nil && *p.Description != d.Description {
			changes.Set("description", d.Description, *p.Description)
			d.Description = *p.Description
		}
		if p.Complete != nil && *p.Complete != d.Complete {
			changes.Set("complete", d.Complete, *p.Complete)
			d.Complete = *p.Complete
		}
		if changes.Empty() {
			return nil
		}
		if err := checkRange(d.DtFrom, d.DtTo); err != nil {
			return err
		}

		if err := tx.Dates().Update(ctx, d); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  card.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardDateUpdate,
			EntityID: activity.ID(d.ID),
			CardID:   activity.ID(card.ID),
			Changes:  changes,
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(card.BoardID), realtime.EventCardDateUpdate, entityEvent{
			ListID: card.ListID,
			CardID: card.ID,
			Entity: d,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *DateService) Delete(ctx context.Context, userID uuid.UUID, dateID int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		d, card, m, err := s.loadDate(ctx, tx, userID, dateID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardEditDate); err != nil {
			return err
		}
		if err := tx.Dates().Delete(ctx, d.ID); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  card.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardDateDelete,
			EntityID: activity.ID(d.ID),
			CardID:   activity.ID(card.ID),
			Changes: &activity.Changes{From: map[string]any{
				"dt_from":     formatDate(d.DtFrom),
				"dt_to":       formatDate(&d.DtTo),
				"description": d.Description,
			}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(card.BoardID), realtime.EventCardDateDelete, deleteEvent{
			ListID:   card.ListID,
			CardID:   card.ID,
			EntityID: d.ID,
		})
		return nil
	})
}
