package handlers

import (
	"crypto/subtle"
	"net/http"

	"trxbetbot/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues JWT tokens to the chat front-end. The front-end is a
// trusted process holding a shared secret; it requests a token per user it
// acts for.
type AuthHandler struct {
	apiSecret string
}

func NewAuthHandler(apiSecret string) *AuthHandler {
	return &AuthHandler{
		apiSecret: apiSecret,
	}
}

// IssueToken exchanges the shared secret for a user-scoped token.
// POST /auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req struct {
		OwnerID int64  `json:"owner_id" binding:"required"`
		Secret  string `json:"secret" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.apiSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		return
	}

	token, err := auth.GenerateToken(req.OwnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
