package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
)

// CommentService manages card comments. A comment is owned by a card.comment
// activity entry and is returned as that entry with Comment set.
type CommentService struct{ *core }

func (s *CommentService) Create(ctx context.Context, userID uuid.UUID, cardID int64, text string) (*models.Activity, error) {
	if err := requireText("comment", text); err != nil {
		return nil, err
	}

	var a *models.Activity
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardComment); err != nil {
			return err
		}

		a, err = s.record(ctx, tx, out, activity.Entry{
			BoardID:  card.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardComment,
			EntityID: activity.ID(card.ID),
			CardID:   activity.ID(card.ID),
		})
		if err != nil {
			return err
		}
		comment := &models.CardComment{
			BoardID:    card.BoardID,
			ActivityID: a.ID,
			AuthorID:   m.ActorID(),
			Comment:    text,
		}
		if err := tx.Comments().Create(ctx, comment); err != nil {
			return err
		}
		a.Comment = comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// load resolves a comment, its owning entry and the actor, and checks that
// the actor wrote the comment or is a board admin.
func (s *CommentService) load(ctx context.Context, tx repository.Tx, userID uuid.UUID, commentID int64) (*models.CardComment, *models.Activity, *Member, error) {
	comment, err := tx.Comments().GetByID(ctx, commentID)
	if err != nil {
		return nil, nil, nil, err
	}
	if comment == nil {
		return nil, nil, nil, notFound("comment")
	}
	owner, err := tx.Activities().GetByID(ctx, comment.ActivityID)
	if err != nil {
		return nil, nil, nil, err
	}
	if owner == nil {
		return nil, nil, nil, notFound("comment")
	}
	m, err := s.resolver.Resolve(ctx, tx, comment.BoardID, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	author := comment.AuthorID != nil && m.Record != nil && *comment.AuthorID == m.Record.ID
	if !author && !m.IsAdmin() {
		return nil, nil, nil, ErrForbidden
	}
	return comment, owner, m, nil
}

func (s *CommentService) Update(ctx context.Context, userID uuid.UUID, commentID int64, p models.CommentPatch) (*models.Activity, error) {
	var owner *models.Activity
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		comment, a, m, err := s.load(ctx, tx, userID, commentID)
		if err != nil {
			return err
		}
		owner = a
		if p.Comment == nil || *p.Comment == comment.Comment {
			return nil
		}
		if err := requireText("comment", *p.Comment); err != nil {
			return err
		}

		before := comment.Comment
		now := s.now().UTC()
		comment.Comment = *p.Comment
		comment.UpdatedOn = &now
		if err := tx.Comments().Update(ctx, comment); err != nil {
			return err
		}
		owner.Comment = comment

		e := activity.Entry{
			BoardID:  comment.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardCommentUpdate,
			EntityID: activity.ID(comment.ID),
			CardID:   owner.CardID,
			Changes:  activity.Diff("comment", before, comment.Comment),
		}
		if _, err := s.recorder.Record(ctx, tx, e); err != nil {
			return err
		}
		if owner.CardID != nil {
			out.publish(realtime.CardRoom(*owner.CardID), realtime.EventCardActivityUpdate, owner)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// Delete removes the comment by deleting the entry that owns it, and records
// the removal.
func (s *CommentService) Delete(ctx context.Context, userID uuid.UUID, commentID int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		comment, owner, m, err := s.load(ctx, tx, userID, commentID)
		if err != nil {
			return err
		}
		if err := tx.Activities().Delete(ctx, owner.ID); err != nil {
			return err
		}

		e := activity.Entry{
			BoardID:  comment.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardCommentDelete,
			EntityID: activity.ID(comment.ID),
			CardID:   owner.CardID,
			Changes:  &activity.Changes{From: map[string]any{"comment": comment.Comment}},
		}
		if _, err := s.recorder.Record(ctx, tx, e); err != nil {
			return err
		}
		if owner.CardID != nil {
			out.publish(realtime.CardRoom(*owner.CardID), realtime.EventCardActivityDelete, owner.ID)
		}
		return nil
	})
}
