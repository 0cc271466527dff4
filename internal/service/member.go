package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/realtime"
	"github.com/lalith-99/kanban/internal/repository"
)

// MemberService manages board access grants. Every mutation requires the
// actor to hold an admin role on the board; ownership alone is not enough.
type MemberService struct{ *core }

// MemberView is a membership row joined with its user and role names.
type MemberView struct {
	models.BoardMember
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	RoleName    string `json:"role_name"`
}

// AddMemberInput identifies the user by ID or, when UserID is nil, by email.
type AddMemberInput struct {
	UserID *uuid.UUID `json:"user_id"`
	Email  string     `json:"email"`
	RoleID int64      `json:"board_role_id"`
}

func (s *MemberService) describe(ctx context.Context, tx repository.Tx, bm *models.BoardMember) (*MemberView, error) {
	v := &MemberView{BoardMember: *bm}
	u, err := tx.Users().GetByID(ctx, bm.UserID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		v.Email = u.Email
		v.DisplayName = u.DisplayName
	}
	role, err := tx.Roles().GetByID(ctx, bm.RoleID)
	if err != nil {
		return nil, err
	}
	if role != nil {
		v.RoleName = role.Name
	}
	return v, nil
}

func (s *MemberService) List(ctx context.Context, userID uuid.UUID, boardID int64) ([]MemberView, error) {
	var result []MemberView
	err := s.view(ctx, func(tx repository.Tx) error {
		if _, err := s.resolver.Resolve(ctx, tx, boardID, userID); err != nil {
			return err
		}
		rows, err := tx.Members().ListByBoard(ctx, boardID)
		if err != nil {
			return err
		}
		result = make([]MemberView, 0, len(rows))
		for i := range rows {
			v, err := s.describe(ctx, tx, &rows[i])
			if err != nil {
				return err
			}
			result = append(result, *v)
		}
		return nil
	})
	return result, err
}

func (s *MemberService) Roles(ctx context.Context, userID uuid.UUID, boardID int64) ([]models.BoardRole, error) {
	var roles []models.BoardRole
	err := s.view(ctx, func(tx repository.Tx) error {
		if _, err := s.resolver.Resolve(ctx, tx, boardID, userID); err != nil {
			return err
		}
		var err error
		roles, err = tx.Roles().ListByBoard(ctx, boardID)
		return err
	})
	return roles, err
}

func boardRole(ctx context.Context, tx repository.Tx, boardID, roleID int64) (*models.BoardRole, error) {
	role, err := tx.Roles().GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil || role.BoardID != boardID {
		return nil, invalid("board_role_id", "Role not exists.")
	}
	return role, nil
}

// Add grants a user access to the board. A user with any existing row,
// including a revoked one, is rejected; revoked members are brought back with
// Activate.
func (s *MemberService) Add(ctx context.Context, userID uuid.UUID, boardID int64, in AddMemberInput) (*MemberView, error) {
	var result *MemberView
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		m, err := s.resolver.Resolve(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		if !m.IsAdmin() {
			return ErrForbidden
		}

		var user *models.User
		if in.UserID != nil {
			user, err = tx.Users().GetByID(ctx, *in.UserID)
		} else {
			user, err = tx.Users().GetByEmail(ctx, in.Email)
		}
		if err != nil {
			return err
		}
		if user == nil {
			return invalid("user_id", "User not exists.")
		}
		role, err := boardRole(ctx, tx, boardID, in.RoleID)
		if err != nil {
			return err
		}

		existing, err := tx.Members().GetByBoardAndUser(ctx, boardID, user.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return invalid("user_id", "User is already a member of this board.")
		}

		bm := &models.BoardMember{BoardID: boardID, UserID: user.ID, RoleID: role.ID}
		if err := tx.Members().Create(ctx, bm); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  boardID,
			MemberID: m.ActorID(),
			Event:    models.EventMemberAdd,
			EntityID: activity.ID(bm.ID),
			Changes: &activity.Changes{To: map[string]any{
				"member": user.DisplayName,
				"role":   role.Name,
			}},
		}); err != nil {
			return err
		}

		result = &MemberView{BoardMember: *bm, Email: user.Email, DisplayName: user.DisplayName, RoleName: role.Name}
		out.publish(realtime.BoardRoom(boardID), realtime.EventMemberNew, result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// adminTarget loads a membership and checks the actor may manage it.
func (s *MemberService) adminTarget(ctx context.Context, tx repository.Tx, userID uuid.UUID, memberID int64) (*models.BoardMember, *Member, error) {
	target, err := tx.Members().GetByID(ctx, memberID)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, notFound("board member")
	}
	m, err := s.resolver.Resolve(ctx, tx, target.BoardID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !m.IsAdmin() {
		return nil, nil, ErrForbidden
	}
	return target, m, nil
}

// UpdateRole rebinds a member to another role of the same board. Changing
// one's own role or the owner's role is a validation error.
func (s *MemberService) UpdateRole(ctx context.Context, userID uuid.UUID, memberID, roleID int64) (*MemberView, error) {
	var result *MemberView
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		target, m, err := s.adminTarget(ctx, tx, userID, memberID)
		if err != nil {
			return err
		}
		if target.UserID == userID {
			return invalid("board_user_id", "You cannot change your own role.")
		}
		if target.IsOwner || target.UserID == m.Board.OwnerID {
			return invalid("board_user_id", "The owner's role cannot be changed.")
		}
		role, err := boardRole(ctx, tx, target.BoardID, roleID)
		if err != nil {
			return err
		}

		before, err := s.describe(ctx, tx, target)
		if err != nil {
			return err
		}
		if target.RoleID == role.ID {
			result = before
			return nil
		}

		target.RoleID = role.ID
		if err := tx.Members().Update(ctx, target); err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  target.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventMemberChangeRole,
			EntityID: activity.ID(target.ID),
			Changes: &activity.Changes{
				From: map[string]any{"member": before.DisplayName, "role": before.RoleName},
				To:   map[string]any{"member": before.DisplayName, "role": role.Name},
			},
		}); err != nil {
			return err
		}

		after := *before
		after.BoardMember = *target
		after.RoleName = role.Name
		result = &after
		out.publish(realtime.BoardRoom(target.BoardID), realtime.EventMemberUpdate, result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove revokes an active member's access, or deletes the row of a member
// whose access was already revoked. It returns the state the member moved to.
func (s *MemberService) Remove(ctx context.Context, userID uuid.UUID, memberID int64) (models.Lifecycle, error) {
	var next models.Lifecycle
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		target, m, err := s.adminTarget(ctx, tx, userID, memberID)
		if err != nil {
			return err
		}
		if target.UserID == userID {
			return invalid("board_user_id", "You cannot remove yourself from the board.")
		}
		if target.IsOwner || target.UserID == m.Board.OwnerID {
			return invalid("board_user_id", "The owner cannot be removed.")
		}

		v, err := s.describe(ctx, tx, target)
		if err != nil {
			return err
		}
		entry := activity.Entry{
			BoardID:  target.BoardID,
			MemberID: m.ActorID(),
			EntityID: activity.ID(target.ID),
			Changes:  &activity.Changes{From: map[string]any{"member": v.DisplayName, "role": v.RoleName}},
		}

		next = models.StateOf(target.IsDeleted).OnDelete()
		if next == models.StateArchived {
			target.IsDeleted = true
			if err := tx.Members().Update(ctx, target); err != nil {
				return err
			}
			entry.Event = models.EventMemberAccessRevoke
		} else {
			if err := tx.Members().Delete(ctx, target.ID); err != nil {
				return err
			}
			entry.Event = models.EventMemberDelete
		}

		if _, err := s.record(ctx, tx, out, entry); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(target.BoardID), realtime.EventMemberDelete, deleteEvent{EntityID: target.ID})
		out.evict(target.BoardID, target.UserID)
		return nil
	})
	return next, err
}

// Activate restores a revoked member.
func (s *MemberService) Activate(ctx context.Context, userID uuid.UUID, memberID int64) (*MemberView, error) {
	var result *MemberView
	err := s.run(ctx, func(tx repository.Tx, out *outbox) error {
		target, m, err := s.adminTarget(ctx, tx, userID, memberID)
		if err != nil {
			return err
		}
		if !target.IsDeleted {
			return invalid("board_user_id", "Member is not revoked.")
		}
		current, err := tx.Members().GetByBoardAndUser(ctx, target.BoardID, target.UserID)
		if err != nil {
			return err
		}
		if current != nil && current.ID != target.ID && !current.IsDeleted {
			return invalid("board_user_id", "User is already a member of this board.")
		}

		target.IsDeleted = false
		if err := tx.Members().Update(ctx, target); err != nil {
			return err
		}
		result, err = s.describe(ctx, tx, target)
		if err != nil {
			return err
		}
		if _, err := s.record(ctx, tx, out, activity.Entry{
			BoardID:  target.BoardID,
			MemberID: m.ActorID(),
			Event:    models.EventMemberRevert,
			EntityID: activity.ID(target.ID),
			Changes:  &activity.Changes{To: map[string]any{"member": result.DisplayName, "role": result.RoleName}},
		}); err != nil {
			return err
		}
		out.publish(realtime.BoardRoom(target.BoardID), realtime.EventMemberNew, result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
