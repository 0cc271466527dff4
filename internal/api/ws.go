package api

import (
	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/realtime"
)

// WSHandler upgrades GET /v1/ws. Browsers cannot set headers on a websocket
// handshake, so the token usually arrives as ?token=.
type WSHandler struct {
	ws *realtime.WSHandler
}

func NewWSHandler(ws *realtime.WSHandler) *WSHandler {
	return &WSHandler{ws: ws}
}

func (h *WSHandler) Serve(c *gin.Context) {
	h.ws.Serve(c.Writer, c.Request, middleware.GetUserID(c))
}
