// Package permission defines the closed set of board-scoped capabilities a role
// can grant, and the default allow policy for the built-in roles.
//
// Permission names are stored as rows (board_role_permissions.name), so the
// string values are part of the persisted format. Renaming a constant's value
// retires the old name: the next reconciliation pass deletes rows carrying it
// and inserts rows for the new one.
package permission

import "sort"

// Name is a permission identifier such as "card.edit".
type Name string

const (
	CardEdit           Name = "card.edit"
	CardComment        Name = "card.comment"
	CardDelete         Name = "card.delete"
	CardAssignMember   Name = "card.assign_member"
	CardDeassignMember Name = "card.deassign_member"
	CardAddDate        Name = "card.add_date"
	CardEditDate       Name = "card.edit_date"

	ListCreate Name = "list.create"
	ListEdit   Name = "list.edit"
	ListDelete Name = "list.delete"

	BoardUpdate Name = "board.update"
	BoardDelete Name = "board.delete"

	ChecklistCreate   Name = "checklist.create"
	ChecklistEdit     Name = "checklist.edit"
	ChecklistItemMark Name = "checklist_item.mark"

	FileUpload   Name = "file.upload"
	FileDownload Name = "file.download"
	FileDelete   Name = "file.delete"
)

// Built-in role names created for every board.
const (
	RoleAdmin    = "Admin"
	RoleMember   = "Member"
	RoleObserver = "Observer"
)

// MemberDenied is the one permission the Member role does not get by default.
const MemberDenied = BoardDelete

var all = []Name{
	CardEdit,
	CardComment,
	CardDelete,
	CardAssignMember,
	CardDeassignMember,
	CardAddDate,
	CardEditDate,
	ListCreate,
	ListEdit,
	ListDelete,
	BoardUpdate,
	BoardDelete,
	ChecklistCreate,
	ChecklistEdit,
	ChecklistItemMark,
	FileUpload,
	FileDownload,
	FileDelete,
}

var known = func() map[Name]bool {
	m := make(map[Name]bool, len(all))
	for _, n := range all {
		m[n] = true
	}
	return m
}()

// All returns every permission name in declaration order.
// The returned slice is a copy.
func All() []Name {
	out := make([]Name, len(all))
	copy(out, all)
	return out
}

// Valid reports whether n is part of the current enumeration.
func Valid(n Name) bool {
	return known[n]
}

// DefaultAllow is the allow value a role gets for a permission, both when the
// role is bootstrapped and when reconciliation inserts a missing row.
//
//   - Observer: deny everything.
//   - Member: allow everything except MemberDenied.
//   - Admin and any custom role: allow everything.
func DefaultAllow(role string, n Name) bool {
	switch role {
	case RoleObserver:
		return false
	case RoleMember:
		return n != MemberDenied
	default:
		return true
	}
}

// Defaults returns the full permission matrix for a role name.
func Defaults(role string) map[Name]bool {
	m := make(map[Name]bool, len(all))
	for _, n := range all {
		m[n] = DefaultAllow(role, n)
	}
	return m
}

// Diff compares a role's stored permission names against the enumeration.
// missing holds names that need a row, retired holds stored names that are no
// longer valid. Both are sorted so callers get a stable order.
func Diff(have []Name) (missing, retired []Name) {
	seen := make(map[Name]bool, len(have))
	for _, n := range have {
		seen[n] = true
		if !known[n] {
			retired = append(retired, n)
		}
	}
	for _, n := range all {
		if !seen[n] {
			missing = append(missing, n)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	sort.Slice(retired, func(i, j int) bool { return retired[i] < retired[j] })
	return missing, retired
}
