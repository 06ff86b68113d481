package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringBetConfig holds the saved parameters for a user's automatic bets.
// One row per user; removed on explicit stop. Reloaded into the scheduler at
// process start so automatic betting survives restarts.
type RecurringBetConfig struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OwnerID     int64           `gorm:"uniqueIndex;not null" json:"owner_id"`
	ChosenChars string          `gorm:"size:16;not null" json:"chosen_chars"`
	AmountTRX   decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amount_trx"`
	// ChatID is the placement template: the chat the original enable command
	// came from, reused for every re-placed bet and its notifications.
	ChatID  int64 `gorm:"not null" json:"chat_id"`
	Version int16 `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (RecurringBetConfig) TableName() string {
	return "recurring_bet_configs"
}
