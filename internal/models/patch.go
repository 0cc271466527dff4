package models

import "time"

// Patch types list every field a client may change on an aggregate. A nil
// pointer means "leave as is". Decoding a request body into one of these
// drops any key not listed here, so clients can send extra fields without
// error and without reaching the row.

type BoardPatch struct {
	Title           *string `json:"title"`
	BackgroundImage *string `json:"background_image"`
	BackgroundColor *string `json:"background_color"`
}

// ListPatch archives or reverts the list when Archived differs from its
// current flag.
type ListPatch struct {
	Title    *string `json:"title"`
	WIPLimit *int    `json:"wip_limit"`
	Archived *bool   `json:"archived"`
}

// CardPatch moves a card when ListID differs from its current list, and
// archives or reverts it when Archived differs from its current flag.
type CardPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ListID      *int64  `json:"list_id"`
	Position    *int    `json:"position"`
	Archived    *bool   `json:"archived"`
}

type CommentPatch struct {
	Comment *string `json:"comment"`
}

type ChecklistPatch struct {
	Title *string `json:"title"`
}

type ChecklistItemPatch struct {
	Title            *string    `json:"title"`
	Completed        *bool      `json:"completed"`
	AssignedMemberID *int64     `json:"assigned_board_user_id"`
	DueDate          *time.Time `json:"due_date"`
}

// OnlyCompletion reports whether the patch touches nothing but Completed.
// Members limited to marking items may only send this kind of patch.
func (p ChecklistItemPatch) OnlyCompletion() bool {
	return p.Completed != nil && p.Title == nil && p.AssignedMemberID == nil && p.DueDate == nil
}

type DatePatch struct {
	DtFrom      *time.Time `json:"dt_from"`
	DtTo        *time.Time `json:"dt_to"`
	Description *string    `json:"description"`
	Complete    *bool      `json:"complete"`
}
