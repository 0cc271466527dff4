package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/permission"
)

// User is an account known to the identity provider.
//
// Users keep UUID keys because their IDs arrive from outside (JWT claims).
// Everything scoped to a board uses bigserial int64 keys.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Board is the top-level workspace. Everything below it (roles, members,
// lists, cards, activity) is owned by the board and cascades with it.
type Board struct {
	ID              int64      `json:"id"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	Title           string     `json:"title"`
	BackgroundImage string     `json:"background_image"`
	BackgroundColor string     `json:"background_color"`
	Archived        bool       `json:"archived"`
	ArchivedOn      *time.Time `json:"archived_on"`
	CreatedOn       time.Time  `json:"created_on"`
}

func (b *Board) State() Lifecycle { return StateOf(b.Archived) }

// BoardRole is a named permission bundle. Permissions is populated by the
// repository on reads, which also indexes it for Allows.
type BoardRole struct {
	ID          int64                 `json:"id"`
	BoardID     int64                 `json:"board_id"`
	Name        string                `json:"name"`
	IsAdmin     bool                  `json:"is_admin"`
	Permissions []BoardRolePermission `json:"permissions"`

	allowed map[permission.Name]bool
}

// IndexPermissions rebuilds the lookup Allows reads from Permissions. Call it
// after Permissions changes.
func (r *BoardRole) IndexPermissions() {
	r.allowed = make(map[permission.Name]bool, len(r.Permissions))
	for _, p := range r.Permissions {
		r.allowed[p.Name] = p.Allow
	}
}

// Allows looks up one permission row. A missing row means deny. A role that
// was never indexed is indexed on a copy for this call only.
func (r BoardRole) Allows(name permission.Name) bool {
	if r.allowed == nil {
		r.IndexPermissions()
	}
	return r.allowed[name]
}

// Names returns the permission names the role currently has rows for.
func (r BoardRole) Names() []permission.Name {
	out := make([]permission.Name, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, p.Name)
	}
	return out
}

type BoardRolePermission struct {
	ID          int64           `json:"id"`
	BoardRoleID int64           `json:"board_role_id"`
	Name        permission.Name `json:"name"`
	Allow       bool            `json:"allow"`
}

// BoardMember is a user's access grant on one board (board_users table).
// A soft-deleted member keeps its row but has no access.
type BoardMember struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"board_id"`
	UserID    uuid.UUID `json:"user_id"`
	RoleID    int64     `json:"board_role_id"`
	IsOwner   bool      `json:"is_owner"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedOn time.Time `json:"created_on"`
}

// BoardList is a column on a board. WIPLimit of -1 means unlimited.
type BoardList struct {
	ID         int64      `json:"id"`
	BoardID    int64      `json:"board_id"`
	Title      string     `json:"title"`
	Position   int        `json:"position"`
	WIPLimit   int        `json:"wip_limit"`
	Archived   bool       `json:"archived"`
	ArchivedOn *time.Time `json:"archived_on"`
	CreatedOn  time.Time  `json:"created_on"`
}

func (l *BoardList) State() Lifecycle { return StateOf(l.Archived) }

// Unlimited is the WIPLimit value that disables the limit.
const Unlimited = -1

// AtCapacity reports whether a list holding active cards can take one more.
func (l *BoardList) AtCapacity(active int) bool {
	return l.WIPLimit != Unlimited && active >= l.WIPLimit
}

// Card carries BoardID directly so permission checks do not have to walk
// card -> list -> board.
//
// ArchivedByList is set when the parent list is archived. It is independent
// of Archived: a card archived on its own stays archived when the list is
// reverted.
type Card struct {
	ID             int64      `json:"id"`
	BoardID        int64      `json:"board_id"`
	ListID         int64      `json:"list_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Position       int        `json:"position"`
	Archived       bool       `json:"archived"`
	ArchivedByList bool       `json:"archived_by_list"`
	ArchivedOn     *time.Time `json:"archived_on"`
	CreatedOn      time.Time  `json:"created_on"`
}

func (c *Card) State() Lifecycle { return StateOf(c.Archived) }

// CardMember assigns a board member to a card.
type CardMember struct {
	ID            int64     `json:"id"`
	CardID        int64     `json:"card_id"`
	BoardMemberID int64     `json:"board_user_id"`
	CreatedOn     time.Time `json:"created_on"`
}

type Checklist struct {
	ID        int64           `json:"id"`
	BoardID   int64           `json:"board_id"`
	CardID    int64           `json:"card_id"`
	Title     string          `json:"title"`
	CreatedOn time.Time       `json:"created_on"`
	Items     []ChecklistItem `json:"items,omitempty"`
}

// ChecklistItem: MarkedCompleteBy and MarkedCompleteOn always change together
// with Completed.
type ChecklistItem struct {
	ID               int64      `json:"id"`
	ChecklistID      int64      `json:"checklist_id"`
	Title            string     `json:"title"`
	Completed        bool       `json:"completed"`
	MarkedCompleteBy *int64     `json:"marked_complete_board_user_id"`
	MarkedCompleteOn *time.Time `json:"marked_complete_on"`
	AssignedMemberID *int64     `json:"assigned_board_user_id"`
	DueDate          *time.Time `json:"due_date"`
	Position         int        `json:"position"`
}

// CardComment is owned by its Activity row: deleting the activity deletes the
// comment.
type CardComment struct {
	ID         int64      `json:"id"`
	BoardID    int64      `json:"board_id"`
	ActivityID int64      `json:"activity_id"`
	AuthorID   *int64     `json:"board_user_id"`
	Comment    string     `json:"comment"`
	CreatedOn  time.Time  `json:"created_on"`
	UpdatedOn  *time.Time `json:"updated_on"`
}

type CardDate struct {
	ID          int64      `json:"id"`
	BoardID     int64      `json:"board_id"`
	CardID      int64      `json:"card_id"`
	DtFrom      *time.Time `json:"dt_from"`
	DtTo        time.Time  `json:"dt_to"`
	Description string     `json:"description"`
	Complete    bool       `json:"complete"`
	CreatedOn   time.Time  `json:"created_on"`
}

// CardFile is the metadata row for an uploaded blob stored under
// {board_id}/{card_id}/{file_name}.
type CardFile struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"board_id"`
	CardID    int64     `json:"card_id"`
	FileName  string    `json:"file_name"`
	CreatedOn time.Time `json:"created_on"`
}

// Activity is one append-only audit entry.
//
// MemberID is nullable because purging a member keeps the audit trail and
// clears the actor reference. CardID is nil for board-level entries, and for
// entries describing a card that has been hard-deleted (EntityID carries the
// card ID instead).
type Activity struct {
	ID         int64           `json:"id"`
	BoardID    int64           `json:"board_id"`
	CardID     *int64          `json:"card_id"`
	MemberID   *int64          `json:"board_user_id"`
	ActivityOn time.Time       `json:"activity_on"`
	Event      Event           `json:"event"`
	EntityID   *int64          `json:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	Comment    *CardComment    `json:"comment,omitempty"`
}
