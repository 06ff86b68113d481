package handlers

import (
	"errors"
	"net/http"

	"trxbetbot/internal/auth"
	"trxbetbot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AutoBetHandler struct {
	autoBetService *services.AutoBetService
}

func NewAutoBetHandler(autoBetService *services.AutoBetService) *AutoBetHandler {
	return &AutoBetHandler{
		autoBetService: autoBetService,
	}
}

type enableAutoBetRequest struct {
	Chars     string `json:"chars" binding:"required"`
	AmountTRX string `json:"amount_trx" binding:"required"`
	ChatID    int64  `json:"chat_id"`
}

// Enable stores a recurring-bet configuration and starts its timer
// POST /api/autobet
func (h *AutoBetHandler) Enable(c *gin.Context) {
	ownerID, exists := auth.GetOwnerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req enableAutoBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.AmountTRX)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_trx"})
		return
	}

	cfg, err := h.autoBetService.Enable(c.Request.Context(), ownerID, req.Chars, amount, req.ChatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrInvalidChars) || errors.Is(err, services.ErrInvalidStakeRange) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

// Disable removes the caller's recurring-bet configuration and stops its timer
// DELETE /api/autobet
func (h *AutoBetHandler) Disable(c *gin.Context) {
	ownerID, exists := auth.GetOwnerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.autoBetService.Disable(c.Request.Context(), ownerID); err != nil {
		if errors.Is(err, services.ErrNotActive) {
			c.JSON(http.StatusNotFound, gin.H{"error": "automatic betting is not enabled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to disable automatic betting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"disabled": true})
}
