package models

// Lifecycle is the delete state of a board, list or card.
//
//	active --delete--> archived --delete--> purged
//	          <--revert--
//
// Purged rows no longer exist; the state is only ever returned by OnDelete.
type Lifecycle string

const (
	StateActive   Lifecycle = "active"
	StateArchived Lifecycle = "archived"
	StatePurged   Lifecycle = "purged"
)

// StateOf maps the stored archived flag to a lifecycle state.
func StateOf(archived bool) Lifecycle {
	if archived {
		return StateArchived
	}
	return StateActive
}

// OnDelete is the state a delete request moves to. Purged is terminal.
func (s Lifecycle) OnDelete() Lifecycle {
	switch s {
	case StateActive:
		return StateArchived
	default:
		return StatePurged
	}
}

// CanRevert reports whether a revert request is valid from s.
func (s Lifecycle) CanRevert() bool {
	return s == StateArchived
}
