package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/auth"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/models"
	"github.com/lalith-99/kanban/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles signup and login, the only public endpoints besides
// the health check. They stand in for an external identity provider: the
// rest of the service only ever sees the user ID inside the token.
type AuthHandler struct {
	store     repository.Store
	jwtSecret string
	ttl       time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(store repository.Store, jwtSecret string, ttl time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		store:     store,
		jwtSecret: jwtSecret,
		ttl:       ttl,
		logger:    logger,
	}
}

type signupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// authResponse is what both signup and login return. Clients send the token
// as "Authorization: Bearer <token>", or as ?token= on the websocket.
type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	email := strings.ToLower(req.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "signup failed"})
		return
	}

	var user *models.User
	taken := false
	err = h.store.WithTx(c.Request.Context(), func(tx repository.Tx) error {
		existing, err := tx.Users().GetByEmail(c.Request.Context(), email)
		if err != nil {
			return err
		}
		if existing != nil {
			taken = true
			return nil
		}
		user = &models.User{Email: email, DisplayName: req.DisplayName, PasswordHash: string(hash)}
		return tx.Users().Create(c.Request.Context(), user)
	})
	if err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "signup failed"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
		return
	}

	h.issue(c, http.StatusCreated, user)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	var user *models.User
	err := h.store.WithTx(c.Request.Context(), func(tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByEmail(c.Request.Context(), strings.ToLower(req.Email))
		return err
	})
	if err != nil {
		h.logger.Error("failed to find user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}

	// Same answer for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}

	h.issue(c, http.StatusOK, user)
}

// Me handles GET /v1/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var user *models.User
	err := h.store.WithTx(c.Request.Context(), func(tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(c.Request.Context(), userID)
		return err
	})
	if err != nil {
		h.logger.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to get user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateToken(user.ID, user.Email, h.jwtSecret, h.ttl)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to issue token"})
		return
	}
	c.JSON(status, authResponse{Token: token, User: user})
}
