package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/service"
	"go.uber.org/zap"
)

// MemberHandler manages board memberships. Every write needs an admin
// membership on the board; reads only need access.
type MemberHandler struct {
	svc    *service.Services
	logger *zap.Logger
}

func NewMemberHandler(svc *service.Services, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{svc: svc, logger: logger}
}

type roleRequest struct {
	RoleID int64 `json:"board_role_id" binding:"required"`
}

// List handles GET /v1/boards/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	members, err := h.svc.Members.List(c.Request.Context(), middleware.GetUserID(c), boardID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// Roles handles GET /v1/boards/:id/roles
func (h *MemberHandler) Roles(c *gin.Context) {
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	roles, err := h.svc.Members.Roles(c.Request.Context(), middleware.GetUserID(c), boardID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// Add handles POST /v1/boards/:id/members. The body names the user by
// user_id or by email.
func (h *MemberHandler) Add(c *gin.Context) {
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AddMemberInput
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.svc.Members.Add(c.Request.Context(), middleware.GetUserID(c), boardID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// UpdateRole handles PATCH /v1/members/:id
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	v, err := h.svc.Members.UpdateRole(c.Request.Context(), middleware.GetUserID(c), id, req.RoleID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Remove handles DELETE /v1/members/:id. The first call revokes access,
// the second deletes the row.
func (h *MemberHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	state, err := h.svc.Members.Remove(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse{State: state})
}

// Activate handles POST /v1/members/:id/activate
func (h *MemberHandler) Activate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.Members.Activate(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
