package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/http/middleware"
	"github.com/pankaj085/lotuslynx/internal/service"
)

// AuthHandler exposes registration and token endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	Logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Logger: logger}
}

// Register creates an account and returns its public representation.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusCreated, user.Public())
}

// Login exchanges form credentials for a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Username and password are required."})
		return
	}

	resp, err := h.Auth.Login(c.Request.Context(), username, password)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token into a fresh pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Refresh token is required."})
		return
	}

	resp, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Could not validate credentials."})
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// respondServiceError maps service errors to responses. Internal errors
// are logged and never echoed to the client.
func respondServiceError(c *gin.Context, logger *zap.Logger, err error) {
	if svcErr, ok := err.(*service.Error); ok {
		c.JSON(svcErr.Status, gin.H{"error": svcErr.Code, "error_description": svcErr.Description})
		return
	}
	if logger == nil {
		logger = zap.L()
	}
	logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Internal server error."})
}
