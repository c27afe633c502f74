package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/handler/http/middleware"
)

type TokenIssuer interface {
	GenerateToken(subject string) (string, error)
}

type AuthHandler struct {
	tokens TokenIssuer
}

func NewAuthHandler(tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
	}
}

type tokenResponse struct {
	Token   string `json:"token"`
	Subject string `json:"subject"`
}

// Refresh trades a valid token for a fresh one with a new expiry. It must sit
// behind the auth middleware.
func (h *AuthHandler) Refresh(c *gin.Context) {
	subject, ok := middleware.GetClientID(c)
	if !ok || subject == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token, err := h.tokens.GenerateToken(subject)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		Token:   token,
		Subject: subject,
	})
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/refresh", h.Refresh)
	}
}
