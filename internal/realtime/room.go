// Package realtime fans committed changes out to websocket clients grouped
// into rooms.
//
// There are two room namespaces: board rooms carry topology changes (lists,
// cards, members) and card rooms carry the activity stream of one card. A
// client is in at most one room per namespace; joining another room of the
// same namespace leaves the previous one.
//
// Delivery is best effort. Nothing is queued for clients that are offline or
// too slow to drain their buffer.
package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

type Namespace string

const (
	NamespaceBoard Namespace = "board"
	NamespaceCard  Namespace = "card"
)

func (n Namespace) Valid() bool {
	return n == NamespaceBoard || n == NamespaceCard
}

type Room struct {
	Namespace Namespace
	ID        int64
}

func BoardRoom(id int64) Room { return Room{Namespace: NamespaceBoard, ID: id} }
func CardRoom(id int64) Room  { return Room{Namespace: NamespaceCard, ID: id} }

// String is the wire name, e.g. "board-12".
func (r Room) String() string {
	return fmt.Sprintf("%s-%d", r.Namespace, r.ID)
}

// ParseRoom is the inverse of Room.String.
func ParseRoom(s string) (Room, error) {
	ns, id, ok := strings.Cut(s, "-")
	if !ok {
		return Room{}, fmt.Errorf("invalid room %q", s)
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Room{}, fmt.Errorf("invalid room id in %q", s)
	}
	room := Room{Namespace: Namespace(ns), ID: n}
	if !room.Namespace.Valid() {
		return Room{}, fmt.Errorf("unknown room namespace %q", ns)
	}
	return room, nil
}

// Event names sent to clients.
const (
	EventBoardUpdate = "board.update"
	EventBoardDelete = "board.delete"

	EventMemberNew    = "member.new"
	EventMemberUpdate = "member.update"
	EventMemberDelete = "member.delete"

	EventListNew         = "list.new"
	EventListUpdate      = "list.update"
	EventListDelete      = "list.delete"
	EventListUpdateOrder = "list.update_order"

	EventCardNew         = "card.new"
	EventCardUpdate      = "card.update"
	EventCardDelete      = "card.delete"
	EventCardUpdateOrder = "card.update_order"

	EventCardActivity       = "card.activity"
	EventCardActivityUpdate = "card.activity.update"
	EventCardActivityDelete = "card.activity.delete"

	EventCardMemberAssigned   = "card.member.assigned"
	EventCardMemberDeassigned = "card.member.deassigned"

	EventCardDateNew    = "card.date.new"
	EventCardDateUpdate = "card.date.update"
	EventCardDateDelete = "card.date.delete"

	EventChecklistNew    = "checklist.new"
	EventChecklistUpdate = "checklist.update"
	EventChecklistDelete = "checklist.delete"

	EventFileNew    = "file.new"
	EventFileDelete = "file.delete"
)
