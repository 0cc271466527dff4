package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Authorizer decides whether a user may join a room and returns the board
// the room belongs to. The check is the same membership check REST calls go
// through.
type Authorizer interface {
	AuthorizeRoom(ctx context.Context, userID uuid.UUID, room Room) (boardID int64, err error)
}

// Client -> server messages:
//
//	{"action":"subscribe","namespace":"board","id":12}
//	{"action":"unsubscribe","namespace":"card","id":40}
type inbound struct {
	Action    string    `json:"action"`
	Namespace Namespace `json:"namespace"`
	ID        int64     `json:"id"`
}

type WSHandler struct {
	hub      *Hub
	auth     Authorizer
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler accepts connections from allowedOrigins. An empty list allows
// any origin, which is only meant for development.
func NewWSHandler(hub *Hub, auth Authorizer, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub:    hub,
		auth:   auth,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Serve upgrades an already-authenticated request and blocks until the
// connection closes.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(userID)
	h.hub.Register(client)
	log := h.logger.With(zap.String("conn_id", client.ID.String()), zap.String("user_id", userID.String()))
	log.Debug("websocket connected")

	go h.writePump(conn, client, log)
	h.readPump(r.Context(), conn, client, log)

	h.hub.Unregister(client)
	log.Debug("websocket disconnected")
}

func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, client *Client, log *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		h.handle(ctx, client, msg, log)
	}
}

type subscribedReply struct {
	Rooms []string `json:"rooms"`
}

func (h *WSHandler) handle(ctx context.Context, client *Client, msg inbound, log *zap.Logger) {
	room := Room{Namespace: msg.Namespace, ID: msg.ID}
	if !room.Namespace.Valid() || room.ID <= 0 {
		h.reply(client, room, "error", map[string]string{"message": "invalid room"})
		return
	}

	switch msg.Action {
	case "subscribe":
		boardID, err := h.auth.AuthorizeRoom(ctx, client.UserID, room)
		if err != nil {
			h.reply(client, room, "error", map[string]string{"message": "forbidden"})
			return
		}
		h.hub.Join(client, room, boardID)
		log.Debug("joined room", zap.String("room", room.String()), zap.Int("size", h.hub.Size(room)))
		reply := subscribedReply{}
		for _, r := range h.hub.Rooms(client) {
			reply.Rooms = append(reply.Rooms, r.String())
		}
		h.reply(client, room, "subscribed", reply)
	case "unsubscribe":
		h.hub.Leave(client, room)
		h.reply(client, room, "unsubscribed", nil)
	default:
		h.reply(client, room, "error", map[string]string{"message": "unknown action"})
	}
}

// reply writes a control message to the client only.
func (h *WSHandler) reply(client *Client, room Room, event string, payload any) {
	client.offer(room, event, payload)
}

func (h *WSHandler) writePump(conn *websocket.Conn, client *Client, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
