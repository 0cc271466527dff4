package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/observ"
	"github.com/lalith-99/kanban/internal/repository"
	"github.com/lalith-99/kanban/internal/service"
	"go.uber.org/zap"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type RouterConfig struct {
	Services  *service.Services
	Store     repository.Store
	JWTSecret string
	JWTTTL    time.Duration
	// WS is optional; without it /v1/ws is not registered.
	WS     *WSHandler
	Health HealthChecker
	Logger *zap.Logger
}

// NewRouter wires every handler onto a gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(observ.GinLogger(logger), gin.Recovery())

	// Health check is public so load balancers can reach it.
	r.GET("/v1/health", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health.Health(c.Request.Context()); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := NewAuthHandler(cfg.Store, cfg.JWTSecret, cfg.JWTTTL, logger)
	r.POST("/v1/auth/signup", authH.Signup)
	r.POST("/v1/auth/login", authH.Login)

	boards := NewBoardHandler(cfg.Services, logger)
	lists := NewListHandler(cfg.Services, logger)
	cards := NewCardHandler(cfg.Services, logger)
	checklists := NewChecklistHandler(cfg.Services, logger)
	members := NewMemberHandler(cfg.Services, logger)
	files := NewFileHandler(cfg.Services, logger)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/users/me", authH.Me)
	if cfg.WS != nil {
		v1.GET("/ws", cfg.WS.Serve)
	}

	v1.GET("/boards", boards.List)
	v1.POST("/boards", boards.Create)
	v1.GET("/boards/:id", boards.Get)
	v1.PATCH("/boards/:id", boards.Update)
	v1.DELETE("/boards/:id", boards.Delete)
	v1.POST("/boards/:id/revert", boards.Revert)
	v1.POST("/boards/:id/owner", boards.TransferOwner)
	v1.GET("/boards/:id/claims", boards.Claims)
	v1.GET("/boards/:id/activities", boards.Activities)
	v1.PUT("/boards/:id/lists/order", boards.ReorderLists)
	v1.GET("/boards/:id/lists", lists.ListByBoard)
	v1.POST("/boards/:id/lists", lists.Create)
	v1.GET("/boards/:id/members", members.List)
	v1.POST("/boards/:id/members", members.Add)
	v1.GET("/boards/:id/roles", members.Roles)

	v1.PATCH("/members/:id", members.UpdateRole)
	v1.DELETE("/members/:id", members.Remove)
	v1.POST("/members/:id/activate", members.Activate)

	v1.PATCH("/lists/:id", lists.Update)
	v1.DELETE("/lists/:id", lists.Delete)
	v1.POST("/lists/:id/revert", lists.Revert)
	v1.PUT("/lists/:id/cards/order", lists.ReorderCards)
	v1.POST("/lists/:id/cards", cards.Create)

	v1.GET("/cards/:id", cards.Get)
	v1.PATCH("/cards/:id", cards.Update)
	v1.DELETE("/cards/:id", cards.Delete)
	v1.GET("/cards/:id/activities", cards.Activities)
	v1.POST("/cards/:id/members", cards.Assign)
	v1.DELETE("/cards/:id/members/:member_id", cards.Deassign)
	v1.POST("/cards/:id/comments", cards.CreateComment)
	v1.GET("/cards/:id/dates", cards.ListDates)
	v1.POST("/cards/:id/dates", cards.CreateDate)
	v1.POST("/cards/:id/checklists", checklists.Create)
	v1.GET("/cards/:id/files", files.List)
	v1.POST("/cards/:id/files", files.Upload)

	v1.PATCH("/comments/:id", cards.UpdateComment)
	v1.DELETE("/comments/:id", cards.DeleteComment)
	v1.PATCH("/dates/:id", cards.UpdateDate)
	v1.DELETE("/dates/:id", cards.DeleteDate)

	v1.PATCH("/checklists/:id", checklists.Update)
	v1.DELETE("/checklists/:id", checklists.Delete)
	v1.POST("/checklists/:id/items", checklists.CreateItem)
	v1.PUT("/checklists/:id/items/order", checklists.ReorderItems)
	v1.PATCH("/checklist-items/:id", checklists.UpdateItem)
	v1.DELETE("/checklist-items/:id", checklists.DeleteItem)

	v1.GET("/files/:id", files.Download)
	v1.DELETE("/files/:id", files.Delete)

	return r
}
