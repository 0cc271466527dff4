package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/service"
	"go.uber.org/zap"
)

// defaultCardActivities is how much history GET /v1/cards/:id embeds when
// the client does not say.
const defaultCardActivities = 10

type CardHandler struct {
	svc    *service.Services
	logger *zap.Logger
}

func NewCardHandler(svc *service.Services, logger *zap.Logger) *CardHandler {
	return &CardHandler{svc: svc, logger: logger}
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// Create handles POST /v1/lists/:id/cards
func (h *CardHandler) Create(c *gin.Context) {
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CreateCardInput
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.svc.Cards.Create(c.Request.Context(), middleware.GetUserID(c), listID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

// Get handles GET /v1/cards/:id?activities=N
func (h *CardHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	count := defaultCardActivities
	if n, err := strconv.Atoi(c.Query("activities")); err == nil && n >= 0 {
		count = n
	}
	d, err := h.svc.Cards.Get(c.Request.Context(), middleware.GetUserID(c), id, count)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Update handles PATCH /v1/cards/:id. A list_id moves the card, archived
// toggles it, and both may come in one request.
func (h *CardHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CardPatch
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.svc.Cards.Update(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// Delete handles DELETE /v1/cards/:id
func (h *CardHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	state, err := h.svc.Cards.Delete(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse{State: state})
}

// Activities handles GET /v1/cards/:id/activities
func (h *CardHandler) Activities(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := h.svc.Cards.Activities(c.Request.Context(), middleware.GetUserID(c), id, activityQuery(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Assign handles POST /v1/cards/:id/members
func (h *CardHandler) Assign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AssignInput
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.svc.CardMembers.Assign(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

// Deassign handles DELETE /v1/cards/:id/members/:member_id
func (h *CardHandler) Deassign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(c, "member_id")
	if !ok {
		return
	}
	if err := h.svc.CardMembers.Deassign(c.Request.Context(), middleware.GetUserID(c), id, memberID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateComment handles POST /v1/cards/:id/comments. The response is the
// comment's activity entry.
func (h *CardHandler) CreateComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.Comments.Create(c.Request.Context(), middleware.GetUserID(c), id, req.Comment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateComment handles PATCH /v1/comments/:id
func (h *CardHandler) UpdateComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CommentPatch
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.Comments.Update(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteComment handles DELETE /v1/comments/:id
func (h *CardHandler) DeleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Comments.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDates handles GET /v1/cards/:id/dates
func (h *CardHandler) ListDates(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dates, err := h.svc.Dates.List(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dates)
}

// CreateDate handles POST /v1/cards/:id/dates
func (h *CardHandler) CreateDate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.DateInput
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.svc.Dates.Create(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// UpdateDate handles PATCH /v1/dates/:id
func (h *CardHandler) UpdateDate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.DatePatch
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.svc.Dates.Update(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeleteDate handles DELETE /v1/dates/:id
func (h *CardHandler) DeleteDate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Dates.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
