package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/service"
	"go.uber.org/zap"
)

type ChecklistHandler struct {
	svc    *service.Services
	logger *zap.Logger
}

func NewChecklistHandler(svc *service.Services, logger *zap.Logger) *ChecklistHandler {
	return &ChecklistHandler{svc: svc, logger: logger}
}

type checklistRequest struct {
	Title string `json:"title"`
}

// Create handles POST /v1/cards/:id/checklists
func (h *ChecklistHandler) Create(c *gin.Context) {
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req checklistRequest
	if !bindJSON(c, &req) {
		return
	}
	cl, err := h.svc.Checklists.Create(c.Request.Context(), middleware.GetUserID(c), cardID, req.Title)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cl)
}

// Update handles PATCH /v1/checklists/:id
func (h *ChecklistHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.ChecklistPatch
	if !bindJSON(c, &req) {
		return
	}
	cl, err := h.svc.Checklists.Update(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

// Delete handles DELETE /v1/checklists/:id
func (h *ChecklistHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Checklists.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateItem handles POST /v1/checklists/:id/items
func (h *ChecklistHandler) CreateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ChecklistItemInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Checklists.CreateItem(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ReorderItems handles PUT /v1/checklists/:id/items/order
func (h *ChecklistHandler) ReorderItems(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req orderRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Checklists.ReorderItems(c.Request.Context(), middleware.GetUserID(c), id, req.Order); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateItem handles PATCH /v1/checklist-items/:id. A body carrying only
// "completed" needs no more than the mark permission.
func (h *ChecklistHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.ChecklistItemPatch
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Checklists.UpdateItem(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /v1/checklist-items/:id
func (h *ChecklistHandler) DeleteItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Checklists.DeleteItem(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
