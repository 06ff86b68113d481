package jobs

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trxbetbot/internal/config"
	"trxbetbot/internal/models"
	"trxbetbot/internal/services"

	"go.uber.org/zap"
)

// BetPlacer places a bet. Implemented by services.BetService; injected
// directly instead of being looked up at fire time.
type BetPlacer interface {
	PlaceBet(ctx context.Context, req services.PlaceBetRequest) (*models.Bet, error)
}

// RecurringScheduler re-places a saved bet on a fixed cadence, one timer per
// enabled user. Timers are transient; the persisted RecurringBetConfig rows
// are what survives a restart.
type RecurringScheduler struct {
	placer   BetPlacer
	notifier services.Notifier
	settings *config.Settings
	log      *zap.SugaredLogger

	mu     sync.Mutex
	timers map[int64]chan struct{}
	wg     sync.WaitGroup
}

func NewRecurringScheduler(
	placer BetPlacer,
	notifier services.Notifier,
	settings *config.Settings,
	log *zap.SugaredLogger,
) *RecurringScheduler {
	return &RecurringScheduler{
		placer:   placer,
		notifier: notifier,
		settings: settings,
		log:      log,
		timers:   make(map[int64]chan struct{}),
	}
}

// Arm starts (or restarts) the timer for a recurring-bet config. The first
// placement fires after a random offset so reloading many configs at process
// start does not place every bet at once.
func (r *RecurringScheduler) Arm(cfg models.RecurringBetConfig) {
	cancel := make(chan struct{})

	r.mu.Lock()
	if old, ok := r.timers[cfg.OwnerID]; ok {
		close(old)
	}
	r.timers[cfg.OwnerID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(cfg, cancel)

	r.log.Infow("recurring bet armed",
		"owner_id", cfg.OwnerID,
		"chosen_chars", cfg.ChosenChars,
		"amount_trx", cfg.AmountTRX,
	)
}

// Disarm cancels the owner's timer, if one is armed.
func (r *RecurringScheduler) Disarm(ownerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok := r.timers[ownerID]
	if !ok {
		return false
	}
	delete(r.timers, ownerID)
	close(cancel)
	return true
}

// Active returns the number of armed timers.
func (r *RecurringScheduler) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop cancels every timer and waits for in-flight placements to finish.
func (r *RecurringScheduler) Stop() {
	r.mu.Lock()
	for owner, cancel := range r.timers {
		close(cancel)
		delete(r.timers, owner)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *RecurringScheduler) run(cfg models.RecurringBetConfig, cancel chan struct{}) {
	defer r.wg.Done()

	interval := r.settings.RecurringInterval()

	select {
	case <-time.After(initialOffset(interval)):
	case <-cancel:
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.placeOnce(cfg)
		select {
		case <-ticker.C:
		case <-cancel:
			return
		}
	}
}

// placeOnce fires one placement tick. Failures surface like manual placement
// failures and never disable the configuration.
func (r *RecurringScheduler) placeOnce(cfg models.RecurringBetConfig) {
	ctx := context.Background()

	bet, err := r.placer.PlaceBet(ctx, services.PlaceBetRequest{
		OwnerID:   cfg.OwnerID,
		Chars:     cfg.ChosenChars,
		AmountTRX: cfg.AmountTRX,
		ChatID:    cfg.ChatID,
	})
	if err != nil {
		r.log.Warnw("recurring placement failed",
			"owner_id", cfg.OwnerID,
			"err", err,
		)
		if nerr := r.notifier.Notify(cfg.ChatID,
			"Your automatic bet could not be placed: "+err.Error()); nerr != nil {
			r.log.Warnw("failed to notify user", "chat_id", cfg.ChatID, "err", nerr)
		}
		return
	}

	r.log.Infow("recurring bet placed",
		"owner_id", cfg.OwnerID,
		"bet_id", bet.ID,
		"address", bet.Address,
	)
}

// initialOffset spreads the first tick of freshly armed timers over at most
// a minute, never longer than the interval itself.
func initialOffset(interval time.Duration) time.Duration {
	max := time.Minute
	if interval < max {
		max = interval
	}
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
