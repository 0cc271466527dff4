package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/kanban/internal/activity"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/permission"
	"github.com/lalith-99/kanban/internal/service"
	"go.uber.org/zap"
)

type BoardHandler struct {
	svc    *service.Services
	logger *zap.Logger
}

func NewBoardHandler(svc *service.Services, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{svc: svc, logger: logger}
}

// claimsResponse is the caller's resolved standing on a board.
type claimsResponse struct {
	BoardID     int64               `json:"board_id"`
	UserID      uuid.UUID           `json:"user_id"`
	IsOwner     bool                `json:"is_owner"`
	IsAdmin     bool                `json:"is_admin"`
	Member      *models.BoardMember `json:"member"`
	Role        *models.BoardRole   `json:"role"`
	Permissions []permission.Name   `json:"permissions"`
}

type transferRequest struct {
	MemberID int64 `json:"board_user_id" binding:"required"`
}

// Create handles POST /v1/boards
func (h *BoardHandler) Create(c *gin.Context) {
	var req service.CreateBoardInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.svc.Boards.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// List handles GET /v1/boards?archived=true
func (h *BoardHandler) List(c *gin.Context) {
	archived, _ := strconv.ParseBool(c.Query("archived"))
	boards, err := h.svc.Boards.ListForUser(c.Request.Context(), middleware.GetUserID(c), archived)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, boards)
}

// Get handles GET /v1/boards/:id
func (h *BoardHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Boards.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Claims handles GET /v1/boards/:id/claims
func (h *BoardHandler) Claims(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Boards.Claims(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := claimsResponse{
		BoardID:     m.Board.ID,
		UserID:      m.UserID,
		IsOwner:     m.IsOwner(),
		IsAdmin:     m.IsAdmin(),
		Member:      m.Record,
		Role:        m.Role,
		Permissions: []permission.Name{},
	}
	for _, name := range permission.All() {
		if m.HasPermission(name) {
			resp.Permissions = append(resp.Permissions, name)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Update handles PATCH /v1/boards/:id
func (h *BoardHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.BoardPatch
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.svc.Boards.Update(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Delete handles DELETE /v1/boards/:id. The first call archives, the second
// removes the board for good.
func (h *BoardHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	state, err := h.svc.Boards.Delete(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse{State: state})
}

// Revert handles POST /v1/boards/:id/revert
func (h *BoardHandler) Revert(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Boards.Revert(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// TransferOwner handles POST /v1/boards/:id/owner
func (h *BoardHandler) TransferOwner(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req transferRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.svc.Boards.TransferOwner(c.Request.Context(), middleware.GetUserID(c), id, req.MemberID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ReorderLists handles PUT /v1/boards/:id/lists/order
func (h *BoardHandler) ReorderLists(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req orderRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Boards.ReorderLists(c.Request.Context(), middleware.GetUserID(c), id, req.Order); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Activities handles GET /v1/boards/:id/activities
func (h *BoardHandler) Activities(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := h.svc.Boards.Activities(c.Request.Context(), middleware.GetUserID(c), id, activityQuery(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// activityQuery reads the feed parameters. Anything unparsable is dropped
// and left for activity.Query to default.
func activityQuery(c *gin.Context) activity.Query {
	q := activity.Query{
		Type:   c.Query("type"),
		SortBy: c.Query("sort_by"),
		Order:  c.Query("order"),
		From:   queryTime(c, "dt_from"),
		To:     queryTime(c, "dt_to"),
	}
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.PerPage, _ = strconv.Atoi(c.Query("per_page"))
	if v, err := strconv.ParseInt(c.Query("board_user_id"), 10, 64); err == nil {
		q.MemberID = &v
	}
	return q
}

// queryTime accepts RFC 3339 or a bare date.
func queryTime(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
