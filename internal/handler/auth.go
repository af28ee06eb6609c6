package handler

import (
	"net/http"

	"github.com/credentia/degreechain/internal/auth"
	"github.com/credentia/degreechain/internal/verifier"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler issues authority session tokens.
type AuthHandler struct {
	creds     *auth.CredentialStore
	tokens    *auth.TokenIssuer
	verifiers *verifier.Registry
	logger    *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(creds *auth.CredentialStore, tokens *auth.TokenIssuer, verifiers *verifier.Registry, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{creds: creds, tokens: tokens, verifiers: verifiers, logger: logger}
}

// Register mounts the auth routes on the given router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
}

type loginRequest struct {
	Verifier string `json:"verifier" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login: exchanges authority credentials for a
// session token.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authority login is not configured"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verifier and password are required"})
		return
	}

	displayName, err := h.verifiers.Resolve(req.Verifier)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := h.creds.Check(req.Verifier, req.Password); err != nil {
		h.logger.Warn("authority login failed", zap.String("verifier", req.Verifier))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(req.Verifier, displayName)
	if err != nil {
		h.logger.Error("issue authority token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"authority_name": displayName,
	})
}
