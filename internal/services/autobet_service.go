package services

import (
	"context"
	"fmt"

	"trxbetbot/internal/config"
	"trxbetbot/internal/models"
	"trxbetbot/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecurringScheduler arms and cancels the periodic timers that re-place
// automatic bets.
type RecurringScheduler interface {
	Arm(cfg models.RecurringBetConfig)
	Disarm(ownerID int64) bool
}

// AutoBetService manages automatic betting: persisted per-user configurations
// that re-place the same bet on a fixed cadence.
type AutoBetService struct {
	repo     *repository.LedgerRepository
	sched    RecurringScheduler
	settings *config.Settings
	log      *zap.SugaredLogger
}

func NewAutoBetService(
	repo *repository.LedgerRepository,
	sched RecurringScheduler,
	settings *config.Settings,
	log *zap.SugaredLogger,
) *AutoBetService {
	return &AutoBetService{
		repo:     repo,
		sched:    sched,
		settings: settings,
		log:      log,
	}
}

// Enable stores (or replaces) the owner's recurring-bet config and arms its
// timer.
func (s *AutoBetService) Enable(ctx context.Context, ownerID int64, chars string, amount decimal.Decimal, chatID int64) (*models.RecurringBetConfig, error) {
	normalized, err := NormalizeChosenChars(chars)
	if err != nil {
		return nil, err
	}

	min := s.settings.MinStakeTRX()
	max := s.settings.MaxStakeTRX()
	if amount.LessThan(min) || amount.GreaterThan(max) {
		return nil, fmt.Errorf("%w: %s TRX not in [%s, %s]",
			ErrInvalidStakeRange, amount, min, max)
	}

	if chatID == 0 {
		chatID = ownerID
	}

	cfg := &models.RecurringBetConfig{
		OwnerID:     ownerID,
		ChosenChars: normalized,
		AmountTRX:   amount,
		ChatID:      chatID,
		Version:     1,
	}

	if err := s.repo.UpsertRecurringConfig(ctx, cfg); err != nil {
		return nil, err
	}

	s.sched.Arm(*cfg)

	s.log.Infow("automatic betting enabled",
		"owner_id", ownerID,
		"chosen_chars", normalized,
		"amount_trx", amount,
	)
	return cfg, nil
}

// Disable removes the owner's recurring-bet config and cancels its timer.
// Returns ErrNotActive when automatic betting was never enabled.
func (s *AutoBetService) Disable(ctx context.Context, ownerID int64) error {
	existed, err := s.repo.DeleteRecurringConfig(ctx, ownerID)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotActive
	}

	s.sched.Disarm(ownerID)
	s.log.Infow("automatic betting disabled", "owner_id", ownerID)
	return nil
}

// ReloadAll re-arms a timer for every persisted config. Called once at
// process start; this is how automatic betting survives restarts.
func (s *AutoBetService) ReloadAll(ctx context.Context) (int, error) {
	configs, err := s.repo.ListRecurringConfigs(ctx)
	if err != nil {
		return 0, err
	}

	for _, cfg := range configs {
		s.sched.Arm(cfg)
	}

	if len(configs) > 0 {
		s.log.Infow("recurring bets reloaded", "count", len(configs))
	}
	return len(configs), nil
}
