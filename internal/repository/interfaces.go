package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
)

// Conventions shared by every implementation:
//
//   - context.Context is the first parameter on every method.
//   - Single-row getters return nil, nil when the row does not exist.
//   - List methods return an empty slice, never nil, so JSON shows [].
//   - Create methods fill in the generated ID and timestamps on the value
//     they are given.

// Store hands out units of work. Every command runs inside exactly one
// WithTx call: if fn returns an error, nothing it wrote is kept.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is a single transaction. Repositories obtained from it are only valid
// until fn returns.
type Tx interface {
	Users() UserRepository
	Boards() BoardRepository
	Roles() RoleRepository
	Members() MemberRepository
	Lists() ListRepository
	Cards() CardRepository
	CardMembers() CardMemberRepository
	Checklists() ChecklistRepository
	Comments() CommentRepository
	Dates() DateRepository
	Files() FileRepository
	Activities() ActivityRepository
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type BoardRepository interface {
	Create(ctx context.Context, b *models.Board) error
	GetByID(ctx context.Context, id int64) (*models.Board, error)
	// Update writes owner, title, background and archive fields.
	Update(ctx context.Context, b *models.Board) error
	// Delete removes the board and, through cascades, everything it owns.
	Delete(ctx context.Context, id int64) error
	// ListForUser returns boards the user owns or holds an active membership on.
	ListForUser(ctx context.Context, userID uuid.UUID, archived bool) ([]models.Board, error)
}

type RoleRepository interface {
	// Create inserts the role and its Permissions rows.
	Create(ctx context.Context, r *models.BoardRole) error
	GetByID(ctx context.Context, id int64) (*models.BoardRole, error)
	ListByBoard(ctx context.Context, boardID int64) ([]models.BoardRole, error)
	// ListAll returns every role on every board, with permissions.
	ListAll(ctx context.Context) ([]models.BoardRole, error)
	// AddPermission inserts a row unless one with the same (role, name)
	// exists; it reports whether a row was inserted.
	AddPermission(ctx context.Context, roleID int64, name permission.Name, allow bool) (bool, error)
	// DeletePermissionsNotIn removes rows whose name is outside keep, across
	// all roles at once, and returns how many rows went.
	DeletePermissionsNotIn(ctx context.Context, keep []permission.Name) (int64, error)
}

type MemberRepository interface {
	Create(ctx context.Context, m *models.BoardMember) error
	GetByID(ctx context.Context, id int64) (*models.BoardMember, error)
	// GetByBoardAndUser prefers the active row when soft-deleted rows also exist.
	GetByBoardAndUser(ctx context.Context, boardID int64, userID uuid.UUID) (*models.BoardMember, error)
	ListByBoard(ctx context.Context, boardID int64) ([]models.BoardMember, error)
	// Update writes role, owner and soft-delete fields.
	Update(ctx context.Context, m *models.BoardMember) error
	Delete(ctx context.Context, id int64) error
}

type ListRepository interface {
	Create(ctx context.Context, l *models.BoardList) error
	GetByID(ctx context.Context, id int64) (*models.BoardList, error)
	ListByBoard(ctx context.Context, boardID int64, includeArchived bool) ([]models.BoardList, error)
	Update(ctx context.Context, l *models.BoardList) error
	Delete(ctx context.Context, id int64) error
	// MaxPosition returns the highest position on the board, 0 when empty.
	MaxPosition(ctx context.Context, boardID int64) (int, error)
	SetPosition(ctx context.Context, id int64, position int) error
}

type CardRepository interface {
	Create(ctx context.Context, c *models.Card) error
	GetByID(ctx context.Context, id int64) (*models.Card, error)
	// ListByList returns cards ordered by position. Without includeArchived
	// it skips cards that are archived or hidden by their list.
	ListByList(ctx context.Context, listID int64, includeArchived bool) ([]models.Card, error)
	Update(ctx context.Context, c *models.Card) error
	Delete(ctx context.Context, id int64) error
	MaxPosition(ctx context.Context, listID int64) (int, error)
	SetPosition(ctx context.Context, id int64, position int) error
	// CountActive counts cards that count against the WIP limit.
	CountActive(ctx context.Context, listID int64) (int, error)
	// CountArchivedByList counts cards a list revert would bring back.
	CountArchivedByList(ctx context.Context, listID int64) (int, error)
	// ArchiveByList flags every non-archived card in the list.
	ArchiveByList(ctx context.Context, listID int64, at time.Time) (int64, error)
	// RevertByList clears the flag set by ArchiveByList.
	RevertByList(ctx context.Context, listID int64) (int64, error)
}

type CardMemberRepository interface {
	Create(ctx context.Context, cm *models.CardMember) error
	Get(ctx context.Context, cardID, memberID int64) (*models.CardMember, error)
	ListByCard(ctx context.Context, cardID int64) ([]models.CardMember, error)
	Delete(ctx context.Context, id int64) error
}

type ChecklistRepository interface {
	Create(ctx context.Context, c *models.Checklist) error
	GetByID(ctx context.Context, id int64) (*models.Checklist, error)
	// ListByCard returns checklists with Items populated.
	ListByCard(ctx context.Context, cardID int64) ([]models.Checklist, error)
	Update(ctx context.Context, c *models.Checklist) error
	Delete(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item *models.ChecklistItem) error
	GetItem(ctx context.Context, id int64) (*models.ChecklistItem, error)
	ListItems(ctx context.Context, checklistID int64) ([]models.ChecklistItem, error)
	UpdateItem(ctx context.Context, item *models.ChecklistItem) error
	DeleteItem(ctx context.Context, id int64) error
	MaxItemPosition(ctx context.Context, checklistID int64) (int, error)
	SetItemPosition(ctx context.Context, id int64, position int) error
}

// CommentRepository has no Delete: a comment is removed by deleting the
// activity that owns it.
type CommentRepository interface {
	Create(ctx context.Context, c *models.CardComment) error
	GetByID(ctx context.Context, id int64) (*models.CardComment, error)
	Update(ctx context.Context, c *models.CardComment) error
}

type DateRepository interface {
	Create(ctx context.Context, d *models.CardDate) error
	GetByID(ctx context.Context, id int64) (*models.CardDate, error)
	ListByCard(ctx context.Context, cardID int64) ([]models.CardDate, error)
	Update(ctx context.Context, d *models.CardDate) error
	Delete(ctx context.Context, id int64) error
}

type FileRepository interface {
	Create(ctx context.Context, f *models.CardFile) error
	GetByID(ctx context.Context, id int64) (*models.CardFile, error)
	ListByCard(ctx context.Context, cardID int64) ([]models.CardFile, error)
	ListByList(ctx context.Context, listID int64) ([]models.CardFile, error)
	Delete(ctx context.Context, id int64) error
}

// ActivityFilter is an already-validated activity query. SortBy must be a
// column name the caller has checked against its whitelist.
type ActivityFilter struct {
	BoardID      int64
	CardID       *int64
	CommentsOnly bool
	From         *time.Time
	To           *time.Time
	MemberID     *int64
	SortBy       string
	Desc         bool
	Limit        int
	Offset       int
}

type ActivityRepository interface {
	Create(ctx context.Context, a *models.Activity) error
	// GetByID returns the entry with Comment populated when it owns one.
	GetByID(ctx context.Context, id int64) (*models.Activity, error)
	// Delete is only used to remove a comment's activity (and with it the
	// comment). Everything else in the log is append-only.
	Delete(ctx context.Context, id int64) error
	// Query returns one page of matches, with Comment populated for comment
	// entries, plus the total match count.
	Query(ctx context.Context, f ActivityFilter) ([]models.Activity, int, error)
}
