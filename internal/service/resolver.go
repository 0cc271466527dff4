package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/repository"
	"go.uber.org/zap"
)

// Member is a resolved actor on one board.
//
// Record is the actor's membership row. It can be nil or soft-deleted only
// for the board owner, who keeps implicit access regardless of row state.
type Member struct {
	Board  models.Board
	Record *models.BoardMember
	Role   *models.BoardRole
	UserID uuid.UUID
}

func (m *Member) IsOwner() bool {
	return m.Board.OwnerID == m.UserID
}

func (m *Member) active() bool {
	return m.Record != nil && !m.Record.IsDeleted
}

// HasPermission answers for the owner unconditionally, denies everything to
// a soft-deleted member, and otherwise reads the role's row for name. A
// missing row denies.
func (m *Member) HasPermission(name permission.Name) bool {
	if m.IsOwner() {
		return true
	}
	if !m.active() || m.Role == nil {
		return false
	}
	return m.Role.Allows(name)
}

// IsAdmin gates member management. Ownership does not imply it: the owner
// needs an active row bound to an admin role like everyone else.
func (m *Member) IsAdmin() bool {
	return m.active() && m.Role != nil && m.Role.IsAdmin
}

// ActorID is the membership ID recorded on activity entries.
func (m *Member) ActorID() *int64 {
	if m.Record == nil {
		return nil
	}
	id := m.Record.ID
	return &id
}

func (m *Member) require(name permission.Name) error {
	if !m.HasPermission(name) {
		return ErrForbidden
	}
	return nil
}

type Resolver struct {
	store  repository.Store
	logger *zap.Logger
}

func NewResolver(store repository.Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve loads the board and the actor's membership on it.
//
// It fails with ErrNotMember when the user has no row at all and with
// ErrForbidden when the row is soft-deleted, unless the user owns the board.
func (r *Resolver) Resolve(ctx context.Context, tx repository.Tx, boardID int64, userID uuid.UUID) (*Member, error) {
	board, err := tx.Boards().GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, notFound("board")
	}
	return r.resolveOn(ctx, tx, board, userID)
}

func (r *Resolver) resolveOn(ctx context.Context, tx repository.Tx, board *models.Board, userID uuid.UUID) (*Member, error) {
	rec, err := tx.Members().GetByBoardAndUser(ctx, board.ID, userID)
	if err != nil {
		return nil, err
	}

	m := &Member{Board: *board, Record: rec, UserID: userID}
	if rec != nil {
		role, err := tx.Roles().GetByID(ctx, rec.RoleID)
		if err != nil {
			return nil, err
		}
		m.Role = role
	}

	switch {
	case m.IsOwner():
		return m, nil
	case rec == nil:
		return nil, ErrNotMember
	case rec.IsDeleted:
		return nil, ErrForbidden
	}
	return m, nil
}

// CanAccessBoard is the yes/no form of Resolve.
func (r *Resolver) CanAccessBoard(ctx context.Context, tx repository.Tx, board *models.Board, userID uuid.UUID) (bool, error) {
	if board.OwnerID == userID {
		return true, nil
	}
	rec, err := tx.Members().GetByBoardAndUser(ctx, board.ID, userID)
	if err != nil {
		return false, err
	}
	return rec != nil && !rec.IsDeleted, nil
}

var bootstrapRoles = []struct {
	name    string
	isAdmin bool
}{
	{permission.RoleAdmin, true},
	{permission.RoleMember, false},
	{permission.RoleObserver, false},
}

// Bootstrap creates the three default roles for a new board and binds the
// owner to Admin. It runs inside the board-creation transaction.
func (r *Resolver) Bootstrap(ctx context.Context, tx repository.Tx, board *models.Board) (*models.BoardMember, *models.BoardRole, error) {
	var admin *models.BoardRole

	for _, def := range bootstrapRoles {
		role := &models.BoardRole{BoardID: board.ID, Name: def.name, IsAdmin: def.isAdmin}
		for _, name := range permission.All() {
			role.Permissions = append(role.Permissions, models.BoardRolePermission{
				Name:  name,
				Allow: permission.DefaultAllow(def.name, name),
			})
		}
		role.IndexPermissions()
		if err := tx.Roles().Create(ctx, role); err != nil {
			return nil, nil, fmt.Errorf("bootstrap %s role: %w", def.name, err)
		}
		if def.isAdmin {
			admin = role
		}
	}

	owner := &models.BoardMember{
		BoardID: board.ID,
		UserID:  board.OwnerID,
		RoleID:  admin.ID,
		IsOwner: true,
	}
	if err := tx.Members().Create(ctx, owner); err != nil {
		return nil, nil, fmt.Errorf("bootstrap owner membership: %w", err)
	}
	return owner, admin, nil
}

type ReconcileReport struct {
	Roles   int   `json:"roles"`
	Added   int   `json:"added"`
	Removed int64 `json:"removed"`
}

// Reconcile brings every role's permission rows in line with the current
// enumeration. Retired names are removed across all roles in one statement;
// missing names are inserted with DefaultAllow. Existing rows are never
// rewritten, so running it twice, or next to live traffic, changes nothing
// the second time.
func (r *Resolver) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	err := r.store.WithTx(ctx, func(tx repository.Tx) error {
		removed, err := tx.Roles().DeletePermissionsNotIn(ctx, permission.All())
		if err != nil {
			return err
		}
		report.Removed = removed

		roles, err := tx.Roles().ListAll(ctx)
		if err != nil {
			return err
		}
		report.Roles = len(roles)

		for _, role := range roles {
			missing, _ := permission.Diff(role.Names())
			for _, name := range missing {
				inserted, err := tx.Roles().AddPermission(ctx, role.ID, name, permission.DefaultAllow(role.Name, name))
				if err != nil {
					return err
				}
				if inserted {
					report.Added++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile permissions: %w", err)
	}

	r.logger.Info("permissions reconciled",
		zap.Int("roles", report.Roles),
		zap.Int("added", report.Added),
		zap.Int64("removed", report.Removed),
	)
	return report, nil
}
