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

type BoardService struct{ *core }

type CreateBoardInput struct {
	Title           string `json:"title"`
	BackgroundImage string `json:"background_image"`
	BackgroundColor string `json:"background_color"`
}

// Create makes a board owned by userID together with its default roles and
// the owner's Admin membership.
func (s *BoardService) Create(ctx context.Context, userID uuid.UUID, in CreateBoardInput) (*models.Board, error) {
	if err := requireText("title", in.Title); err != nil {
		return nil, err
	}

	var board *models.Board
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return notFound("user")
		}

		board = &models.Board{
			OwnerID:         userID,
			Title:           in.Title,
			BackgroundImage: in.BackgroundImage,
			BackgroundColor: in.BackgroundColor,
		}
		if err := tx.Boards().Create(ctx, board); err != nil {
			return err
		}

		owner, _, err := s.resolver.Bootstrap(ctx, tx, board)
		if err != nil {
			return err
		}

		_, err = s.record(ctx, tx, out, activity.Entry{
			BoardID:  board.ID,
			MemberID: activity.ID(owner.ID),
			Event:    models.EventBoardCreate,
			EntityID: activity.ID(board.ID),
			Changes:  &activity.Changes{To: map[string]any{"title": board.Title}},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardService) Get(ctx context.Context, userID uuid.UUID, boardID int64) (*models.Board, error) {
	var board *models.Board
	err := s.view(ctx, func(tx repository.Tx) error {
		m, err := s.resolver.Resolve(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		board = &m.Board
		return nil
	})
	return board, err
}

// Claims returns the caller's resolved membership: role, permission rows and
// ownership.
func (s *BoardService) Claims(ctx context.Context, userID uuid.UUID, boardID int64) (*Member, error) {
	var m *Member
	err := s.view(ctx, func(tx repository.Tx) error {
		var err error
		m, err = s.resolver.Resolve(ctx, tx, boardID, userID)
		return err
	})
	return m, err
}

func (s *BoardService) ListForUser(ctx context.Context, userID uuid.UUID, archived bool) ([]models.Board, error) {
	var boards []models.Board
	err := s.view(ctx, func(tx repository.Tx) error {
		var err error
		boards, err = tx.Boards().ListForUser(ctx, userID, archived)
		return err
	})
	return boards, err
}

// Update applies a board patch. A title change and a background change are
// recorded as separate activities.
func (s *BoardService) Update(ctx context.Context, userID uuid.UUID, boardID int64, p models.BoardPatch) (*models.Board, error) {
	var board *models.Board
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		m, err := s.resolver.Resolve(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.BoardUpdate); err != nil {
			return err
		}
		if p.Title != nil {
			if err := requireText("title", *p.Title); err != nil {
				return err
			}
		}

		b := m.Board
		board = &b

		var entries []activity.Entry
		if p.Title != nil && *p.Title != b.Title {
			entries = append(entries, activity.Entry{
				Event:   models.EventBoardChangeTitle,
				Changes: activity.Diff("title", b.Title, *p.Title),
			})
			b.Title = *p.Title
		}

		bg := &activity.Changes{}
		if p.BackgroundImage != nil && *p.BackgroundImage != b.BackgroundImage {
			bg.Set("background_image", b.BackgroundImage, *p.BackgroundImage)
			b.BackgroundImage = *p.BackgroundImage
		}
		if p.BackgroundColor != nil && *p.BackgroundColor != b.BackgroundColor {
			bg.Set("background_color", b.BackgroundColor, *p.BackgroundColor)
			b.BackgroundColor = *p.BackgroundColor
		}
		if !bg.Empty() {
			entries = append(entries, activity.Entry{Event: models.EventBoardUpdate, Changes: bg})
		}

		if len(entries) == 0 {
			return nil
		}
		if err := tx.Boards().Update(ctx, board); err != nil {
			return err
		}
		for _, e := range entries {
			e.BoardID = b.ID
			e.MemberID = m.ActorID()
			e.EntityID = activity.ID(b.ID)
			if _, err := s.record(ctx, tx, out, e); err != nil {
				return err
			}
		}
		out.publish(realtime.BoardRoom(b.ID), realtime.EventBoardUpdate, board)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// Delete archives an active board and purges an archived one, including its
// uploaded files. It returns the state the board moved to.
func (s *BoardService) Delete(ctx context.Context, userID uuid.UUID, boardID int64) (models.Lifecycle, error) {
	var next models.Lifecycle
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		m, err := s.resolver.Resolve(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		if !m.IsOwner() {
			return ErrForbidden
		}

		b := m.Board
		next = b.State().OnDelete()
		switch next {
		case models.StateArchived:
			now := s.now().UTC()
			b.Archived = true
			b.ArchivedOn = &now
			if err := tx.Boards().Update(ctx, &b); err != nil {
				return err
			}
			if _, err := s.record(ctx, tx, out, activity.Entry{
				BoardID:  b.ID,
				MemberID: m.ActorID(),
				Event:    models.EventBoardArchive,
				EntityID: activity.ID(b.ID),
				Changes:  &activity.Changes{To: map[string]any{"title": b.Title}},
			}); err != nil {
				return err
			}
		case models.StatePurged:
			// The board's own log goes with it, so nothing is recorded.
			if err := tx.Boards().Delete(ctx, b.ID); err != nil {
				return err
			}
			out.purgeTree(storage.BoardPath(b.ID))
			out.evict(b.ID, uuid.Nil)
		}

		out.publish(realtime.BoardRoom(b.ID), realtime.EventBoardDelete, deleteEvent{EntityID: b.ID})
		return nil
	})
	return next, err
}

func (s *BoardService) Revert(ctx context.Context, userID uuid.UUID, boardID int64) (*models.Board, error) {
	var board *models.Board
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		m, err := s.resolver.Resolve(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		if !m.IsOwner() {
			return ErrForbidden
		}
		b := m.Board
		if !b.State().CanRevert() {
			return invalid("archived", "Board is not archived.")
		}

		b.Archived = false
		b.ArchivedOn = nil
		if err := tx.Boards().Update(ctx, &b); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  b.ID,
			MemberID: m.ActorID(),
			Event:    models.EventBoardRevert,
			EntityID: activity.ID(b.ID),
			Changes:  &activity.Changes{To: map[string]any{"title": b.Title}},
		}); err != nil {
			return err
		}
		board = &b
		out.publish(realtime.BoardRoom(b.ID), realtime.EventBoardUpdate, board)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// TransferOwner hands the board to another active member. Only the current
// owner may do this; both keep their roles.
func (s *BoardService) TransferOwner(ctx context.Context, userID uuid.UUID, boardID, memberID int64) (*models.Board, error) {
	var board *models.Board
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		m, err := s.resolver.Resolve(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		if !m.IsOwner() {
			return ErrForbidden
		}

		target, err := tx.Members().GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		if target == nil || target.BoardID != boardID || target.IsDeleted {
			return invalid("board_user_id", "Board user not exists.")
		}
		if target.UserID == userID {
			return invalid("board_user_id", "You already own this board.")
		}

		if m.Record != nil && m.Record.IsOwner {
			prev := *m.Record
			prev.IsOwner = false
			if err := tx.Members().Update(ctx, &prev); err != nil {
				return err
			}
		}
		target.IsOwner = true
		if err := tx.Members().Update(ctx, target); err != nil {
			return err
		}

		b := m.Board
		from := b.OwnerID
		b.OwnerID = target.UserID
		if err := tx.Boards().Update(ctx, &b); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  b.ID,
			MemberID: m.ActorID(),
			Event:    models.EventBoardChangeOwner,
			EntityID: activity.ID(target.ID),
			Changes:  activity.Diff("owner_id", from.String(), b.OwnerID.String()),
		}); err != nil {
			return err
		}
		board = &b
		out.publish(realtime.BoardRoom(b.ID), realtime.EventBoardUpdate, board)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// ReorderLists sets list positions to their index in order. IDs that are not
// lists of this board are skipped.
func (s *BoardService) ReorderLists(ctx context.Context, userID uuid.UUID, boardID int64, order []int64) error {
	return s.run(ctx, func(tx repository.Tx, out *outbox) error {
		m, err := s.resolver.Resolve(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		if err := m.require(permission.ListEdit); err != nil {
			return err
		}

		for i, id := range order {
			l, err := tx.Lists().GetByID(ctx, id)
			if err != nil {
				return err
			}
			if l == nil || l.BoardID != boardID {
				continue
			}
			if err := tx.Lists().SetPosition(ctx, id, i); err != nil {
				return err
			}
		}

		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  boardID,
			MemberID: m.ActorID(),
			Event:    models.EventListReorder,
			EntityID: activity.ID(boardID),
			Changes:  &activity.Changes{To: map[string]any{"order": order}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(boardID), realtime.EventListUpdateOrder, orderEvent{Order: order})
		return nil
	})
}

// Activities reads one page of the board's log.
func (s *BoardService) Activities(ctx context.Context, userID uuid.UUID, boardID int64, q activity.Query) (*activity.Page, error) {
	var page *activity.Page
	err := s.view(ctx, func(tx repository.Tx) error {
		if _, err := s.resolver.Resolve(ctx, tx, boardID, userID); err != nil {
			return err
		}
		q.BoardID = boardID
		q.CardID = nil
		var err error
		page, err = s.recorder.Query(ctx, tx, q)
		return err
	})
	return page, err
}
