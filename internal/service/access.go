package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
)

// AccessService answers room subscription requests with the same membership
// rule REST reads use. It satisfies realtime.Authorizer.
type AccessService struct{ *core }

func (s *AccessService) AuthorizeRoom(ctx context.Context, userID uuid.UUID, room realtime.Room) (int64, error) {
	var boardID int64
	err := s.view(ctx, func(tx repository.Tx) error {
		boardID = room.ID
		if room.Namespace == realtime.NamespaceCard {
			card, err := s.loadCard(ctx, tx, room.ID)
			if err != nil {
				return err
			}
			boardID = card.BoardID
		}
		board, err := tx.Boards().GetByID(ctx, boardID)
		if err != nil {
			return err
		}
		if board == nil {
			return notFound("board")
		}
		ok, err := s.resolver.CanAccessBoard(ctx, tx, board, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return boardID, nil
}
