package service

import (
	"context"
	"fmt"
	"html"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/mail"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
)

type CardMemberService struct{ *core }

type AssignInput struct {
	BoardMemberID    int64 `json:"board_user_id"`
	SendNotification bool  `json:"send_notification"`
}

func (s *CardMemberService) Assign(ctx context.Context, userID uuid.UUID, cardID int64, in AssignInput) (*models.CardMember, error) {
	var assignment *models.CardMember
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardAssignMember); err != nil {
			return err
		}

		target, err := tx.Members().GetByID(ctx, in.BoardMemberID)
		if err != nil {
			return err
		}
		if target == nil || target.BoardID != card.BoardID || target.IsDeleted {
			return invalid("board_user_id", "Board user not exists.")
		}
		existing, err := tx.CardMembers().Get(ctx, card.ID, target.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return invalid("board_user_id", "Member already assigned to this card.")
		}

		assignment = &models.CardMember{CardID: card.ID, BoardMemberID: target.ID}
		if err := tx.CardMembers().Create(ctx, assignment); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  card.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardMemberAssign,
			EntityID: activity.ID(target.ID),
			CardID:   activity.ID(card.ID),
			Changes:  &activity.Changes{To: map[string]any{"board_user_id": target.ID}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(card.BoardID), realtime.EventCardMemberAssigned, entityEvent{
			ListID: card.ListID,
			CardID: card.ID,
			Entity: assignment,
		})

		if in.SendNotification {
			user, err := tx.Users().GetByID(ctx, target.UserID)
			if err != nil {
				return err
			}
			if user != nil && user.Email != "" {
				out.mail(assignmentMail(user, &m.Board, card))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func assignmentMail(u *models.User, b *models.Board, c *models.Card) mail.Message {
	subject := fmt.Sprintf("You have been assigned to %q", c.Title)
	text := fmt.Sprintf("Hi %s,\n\nYou have been assigned to the card %q on the board %q.\n", u.DisplayName, c.Title, b.Title)
	body := fmt.Sprintf("<p>Hi %s,</p><p>You have been assigned to the card <b>%s</b> on the board <b>%s</b>.</p>",
		html.EscapeString(u.DisplayName), html.EscapeString(c.Title), html.EscapeString(b.Title))
	return mail.Message{To: u.Email, Subject: subject, HTML: body, Text: text}
}

// Deassign removes the assignment of boardMemberID from the card.
func (s *CardMemberService) Deassign(ctx context.Context, userID uuid.UUID, cardID, boardMemberID int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		card, err := s.loadCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		m, err := s.resolver.Resolve(ctx, tx, card.BoardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.CardDeassignMember); err != nil {
			return err
		}

		cm, err := tx.CardMembers().Get(ctx, card.ID, boardMemberID)
		if err != nil {
			return err
		}
		if cm == nil {
			return notFound("card member")
		}
		if err := tx.CardMembers().Delete(ctx, cm.ID); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  card.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventCardMemberDeassign,
			EntityID: activity.ID(boardMemberID),
			CardID:   activity.ID(card.ID),
			Changes:  &activity.Changes{From: map[string]any{"board_user_id": boardMemberID}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(card.BoardID), realtime.EventCardMemberDeassigned, deleteEvent{
			ListID:   card.ListID,
			CardID:   card.ID,
			EntityID: cm.ID,
		})
		return nil
	})
}
