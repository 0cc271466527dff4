package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/service"
	"go.uber.org/zap"
)

type ListHandler struct {
	svc    *service.Services
	logger *zap.Logger
}

func NewListHandler(svc *service.Services, logger *zap.Logger) *ListHandler {
	return &ListHandler{svc: svc, logger: logger}
}

// ListByBoard handles GET /v1/boards/:id/lists
func (h *ListHandler) ListByBoard(c *gin.Context) {
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	lists, err := h.svc.Lists.ListByBoard(c.Request.Context(), middleware.GetUserID(c), boardID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

// Create handles POST /v1/boards/:id/lists
func (h *ListHandler) Create(c *gin.Context) {
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CreateListInput
	if !bindJSON(c, &req) {
		return
	}
	l, err := h.svc.Lists.Create(c.Request.Context(), middleware.GetUserID(c), boardID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// Update handles PATCH /v1/lists/:id
func (h *ListHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.ListPatch
	if !bindJSON(c, &req) {
		return
	}
	l, err := h.svc.Lists.Update(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// Delete handles DELETE /v1/lists/:id
func (h *ListHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	state, err := h.svc.Lists.Delete(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse{State: state})
}

// Revert handles POST /v1/lists/:id/revert
func (h *ListHandler) Revert(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := h.svc.Lists.Revert(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// ReorderCards handles PUT /v1/lists/:id/cards/order
func (h *ListHandler) ReorderCards(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req orderRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Lists.ReorderCards(c.Request.Context(), middleware.GetUserID(c), id, req.Order); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
