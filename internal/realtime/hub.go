package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher is what command services see of the fanout layer. Hub and
// RedisBroker both implement it.
type Publisher interface {
	Publish(room Room, event string, payload any) error
	// Evict drops userID's connections from every room of boardID and
	// tells them why. uuid.Nil evicts everyone on the board.
	Evict(boardID int64, userID uuid.UUID) error
}

// Envelope is the message format on the wire, both to clients and across
// instances through redis.
type Envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope encodes payload for room.
func NewEnvelope(room Room, event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Envelope{Room: room.String(), Event: event, Payload: raw}, nil
}

const clientBuffer = 16

// EventAccessRevoked is sent to a connection evicted from a room.
const EventAccessRevoked = "access.revoked"

// Client is one connection's view of the hub. Its active rooms, and the
// board each of them belongs to, are only read or written with the hub lock
// held.
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID

	send   chan []byte
	active map[Namespace]Room
	boards map[Namespace]int64
}

func NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		send:   make(chan []byte, clientBuffer),
		active: make(map[Namespace]Room, 2),
		boards: make(map[Namespace]int64, 2),
	}
}

// offer queues a message for this client only, dropping it when the buffer
// is full.
func (c *Client) offer(room Room, event string, payload any) {
	env, err := NewEnvelope(room, event, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Messages is the outbound stream for the connection's writer.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

type Hub struct {
	mu      sync.RWMutex
	rooms   map[Room]map[*Client]struct{}
	clients map[*Client]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:   make(map[Room]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister removes c from every room and closes its stream.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	for _, room := range c.active {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	close(c.send)
}

// Join makes room the client's active room in its namespace, leaving the
// previous one. boardID is the board the room belongs to, as resolved when
// the subscription was authorized. It returns the room that was left, if any.
func (h *Hub) Join(c *Client, room Room, boardID int64) (left *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := c.active[room.Namespace]; ok {
		if prev == room {
			c.boards[room.Namespace] = boardID
			return nil
		}
		h.leaveLocked(c, prev)
		left = &prev
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.active[room.Namespace] = room
	c.boards[room.Namespace] = boardID
	return left
}

func (h *Hub) Leave(c *Client, room Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.active[room.Namespace] == room {
		h.leaveLocked(c, room)
	}
}

func (h *Hub) Evict(boardID int64, userID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := 0
	for c := range h.clients {
		if userID != uuid.Nil && c.UserID != userID {
			continue
		}
		for ns, room := range c.active {
			if c.boards[ns] != boardID {
				continue
			}
			h.leaveLocked(c, room)
			c.offer(room, EventAccessRevoked, nil)
			evicted++
		}
	}
	if evicted > 0 {
		h.logger.Info("evicted realtime subscriptions",
			zap.Int64("board_id", boardID),
			zap.String("user_id", userID.String()),
			zap.Int("rooms", evicted),
		)
	}
	return nil
}

func (h *Hub) leaveLocked(c *Client, room Room) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.active, room.Namespace)
	delete(c.boards, room.Namespace)
}

// Rooms returns the client's active rooms.
func (h *Hub) Rooms(c *Client) []Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Room, 0, len(c.active))
	for _, ns := range []Namespace{NamespaceBoard, NamespaceCard} {
		if r, ok := c.active[ns]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Size is the number of clients currently in room.
func (h *Hub) Size(room Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) Publish(room Room, event string, payload any) error {
	env, err := NewEnvelope(room, event, payload)
	if err != nil {
		return err
	}
	return h.Deliver(room, env)
}

// Deliver sends an already-built envelope to the local members of room. A
// client whose buffer is full misses the message.
func (h *Hub) Deliver(room Room, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped realtime event for slow clients",
			zap.String("room", env.Room),
			zap.String("event", env.Event),
			zap.Int("dropped", dropped),
		)
	}
	return nil
}
