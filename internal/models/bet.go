package models

import (
	"time"

	"github.com/google/uuid"
)

type BetStatus string

const (
	BetStatusPending      BetStatus = "PENDING"
	BetStatusResolvedWin  BetStatus = "RESOLVED_WIN"
	BetStatusResolvedLoss BetStatus = "RESOLVED_LOSS"
	BetStatusRefunded     BetStatus = "REFUNDED"
	BetStatusExpired      BetStatus = "EXPIRED_TIMEOUT"
)

// Terminal reports whether a bet in this status can never change again.
func (s BetStatus) Terminal() bool {
	return s != BetStatusPending
}

// Bet represents a single wager backed by a single-use deposit wallet.
// The outcome columns stay NULL until the bet leaves PENDING.
type Bet struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     int64     `gorm:"not null;index" json:"owner_id"`
	Address     string    `gorm:"size:64;not null;uniqueIndex" json:"address"`
	PrivateKey  string    `gorm:"size:128;not null" json:"-"`
	ChosenChars string    `gorm:"size:16;not null" json:"chosen_chars"`
	ChatID      int64     `gorm:"not null" json:"chat_id"`
	Status      BetStatus `gorm:"size:32;not null;default:PENDING;index" json:"status"`

	// AmountSun is the observed deposit in Sun. Zero until funds arrive.
	AmountSun int64 `gorm:"not null;default:0" json:"amount_sun"`

	SenderAddress *string    `gorm:"size:64" json:"sender_address"`
	FundingTxID   *string    `gorm:"size:128" json:"funding_tx_id"`
	BlockNumber   *int64     `json:"block_number"`
	BlockHash     *string    `gorm:"size:128" json:"block_hash"`
	WinningsSun   *int64     `json:"winnings_sun"`
	PayoutTxID    *string    `gorm:"size:128" json:"payout_tx_id"`
	ResolvedAt    *time.Time `json:"resolved_at"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Bet) TableName() string {
	return "bets"
}
