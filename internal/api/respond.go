package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/service"
	"go.uber.org/zap"
)

// respondError maps a service error onto a status code. Anything outside the
// service taxonomy is logged and reported as a bare 500.
//
//	*service.NotFoundError    404
//	service.ErrForbidden      403 (ErrNotMember included)
//	*service.ValidationError  400 {"message":"validation_error","errors":{field: [msg]}}
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var nf *service.NotFoundError
	var ve *service.ValidationError
	switch {
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "forbidden"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"message": "validation_error", "errors": ve.Fields})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

// bindJSON decodes the body into dst and answers 400 itself on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body", "error": err.Error()})
		return false
	}
	return true
}

// pathID reads a positive integer path parameter and answers 400 itself when
// it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid " + name})
		return 0, false
	}
	return id, true
}

type stateResponse struct {
	State models.Lifecycle `json:"state"`
}

type orderRequest struct {
	Order []int64 `json:"order" binding:"required"`
}
