package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"trxbetbot/internal/auth"
	"trxbetbot/internal/repository"
	"trxbetbot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BetHandler struct {
	betService *services.BetService
	repo       *repository.LedgerRepository
}

func NewBetHandler(betService *services.BetService, repo *repository.LedgerRepository) *BetHandler {
	return &BetHandler{
		betService: betService,
		repo:       repo,
	}
}

type placeBetRequest struct {
	Chars     string `json:"chars" binding:"required"`
	AmountTRX string `json:"amount_trx"`
	ChatID    int64  `json:"chat_id"`
}

// PlaceBet places a new bet on a fresh deposit wallet
// POST /api/bets
func (h *BetHandler) PlaceBet(c *gin.Context) {
	ownerID, exists := auth.GetOwnerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount := decimal.Zero
	if req.AmountTRX != "" {
		parsed, err := decimal.NewFromString(req.AmountTRX)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_trx"})
			return
		}
		amount = parsed
	}

	bet, err := h.betService.PlaceBet(c.Request.Context(), services.PlaceBetRequest{
		OwnerID:   ownerID,
		Chars:     req.Chars,
		AmountTRX: amount,
		ChatID:    req.ChatID,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrInvalidChars) || errors.Is(err, services.ErrInvalidStakeRange) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.betService.Quote(bet.ChosenChars)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"bet":   bet,
		"quote": quote,
	})
}

// GetQuote returns the odds for a character selection without placing a bet
// GET /api/bets/quote?chars=0a
func (h *BetHandler) GetQuote(c *gin.Context) {
	quote, err := h.betService.Quote(c.Query("chars"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetPendingBet returns the caller's currently pending bet
// GET /api/bets/pending
func (h *BetHandler) GetPendingBet(c *gin.Context) {
	ownerID, exists := auth.GetOwnerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bet, err := h.repo.GetPendingBetByOwner(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending bet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pending bet"})
		return
	}

	c.JSON(http.StatusOK, bet)
}

// ListBets returns the caller's bet history, newest first
// GET /api/bets
func (h *BetHandler) ListBets(c *gin.Context) {
	ownerID, exists := auth.GetOwnerID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	bets, err := h.repo.ListBetsByOwner(c.Request.Context(), ownerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bets"})
		return
	}

	c.JSON(http.StatusOK, bets)
}
