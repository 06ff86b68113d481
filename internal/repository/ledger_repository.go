// Package repository implements the ledger store: the durable record of bets
// and recurring-bet configurations. It is the single source of truth for bet
// state; the schedulers only hold transient handles derived from it.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trxbetbot/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrStoreUnavailable wraps any persistence failure so callers can abort
	// the in-flight operation without inspecting driver errors.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBetAlreadyFinalized is returned when a terminal-state transition is
	// attempted on a bet that already left PENDING.
	ErrBetAlreadyFinalized = errors.New("bet already finalized")
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateOrReplacePendingBet persists a freshly placed bet. A user has at most
// one pending bet: when one already exists its row is overwritten with the new
// placement instead of creating a second. Resolved bets are never touched,
// they are the audit trail.
func (r *LedgerRepository) CreateOrReplacePendingBet(ctx context.Context, bet *models.Bet) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Bet
		err := tx.Where("owner_id = ? AND status = ?", bet.OwnerID, models.BetStatusPending).
			First(&existing).Error

		switch {
		case err == nil:
			bet.ID = existing.ID
			bet.CreatedAt = existing.CreatedAt
			return tx.Model(&models.Bet{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"address":      bet.Address,
					"private_key":  bet.PrivateKey,
					"chosen_chars": bet.ChosenChars,
					"chat_id":      bet.ChatID,
					"amount_sun":   0,
				}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(bet).Error
		default:
			return err
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetPendingBetByOwner returns the owner's pending bet, if any.
func (r *LedgerRepository) GetPendingBetByOwner(ctx context.Context, ownerID int64) (*models.Bet, error) {
	var bet models.Bet
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, models.BetStatusPending).
		First(&bet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &bet, nil
}

// GetBetByID returns a bet by its id.
func (r *LedgerRepository) GetBetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error) {
	var bet models.Bet
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&bet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &bet, nil
}

// ListBetsByOwner returns the owner's bet history, newest first.
func (r *LedgerRepository) ListBetsByOwner(ctx context.Context, ownerID int64, limit int) ([]models.Bet, error) {
	var bets []models.Bet
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return bets, nil
}

// FinalizeBet writes the outcome columns and moves the bet into the given
// terminal state. The transition is guarded on the row still being PENDING,
// so a bet can be finalized exactly once.
func (r *LedgerRepository) FinalizeBet(ctx context.Context, bet *models.Bet, status models.BetStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}

	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND status = ?", bet.ID, models.BetStatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"amount_sun":     bet.AmountSun,
			"sender_address": bet.SenderAddress,
			"funding_tx_id":  bet.FundingTxID,
			"block_number":   bet.BlockNumber,
			"block_hash":     bet.BlockHash,
			"winnings_sun":   bet.WinningsSun,
			"payout_tx_id":   bet.PayoutTxID,
			"resolved_at":    now,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBetAlreadyFinalized
	}

	bet.Status = status
	bet.ResolvedAt = &now
	return nil
}

// MarkExpired transitions a pending bet whose polling window elapsed without
// a deposit into the EXPIRED_TIMEOUT terminal state.
func (r *LedgerRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND status = ?", id, models.BetStatusPending).
		Update("status", models.BetStatusExpired)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBetAlreadyFinalized
	}
	return nil
}

// UpsertRecurringConfig creates or updates the owner's recurring-bet config.
func (r *LedgerRepository) UpsertRecurringConfig(ctx context.Context, cfg *models.RecurringBetConfig) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chosen_chars", "amount_trx", "chat_id", "version", "updated_at",
		}),
	}).Create(cfg).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteRecurringConfig removes the owner's recurring-bet config. The bool
// reports whether a config existed.
func (r *LedgerRepository) DeleteRecurringConfig(ctx context.Context, ownerID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&models.RecurringBetConfig{})
	if res.Error != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListRecurringConfigs returns every persisted recurring-bet config. Called
// once at process start to re-arm the scheduler.
func (r *LedgerRepository) ListRecurringConfigs(ctx context.Context) ([]models.RecurringBetConfig, error) {
	var configs []models.RecurringBetConfig
	err := r.db.WithContext(ctx).Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return configs, nil
}
