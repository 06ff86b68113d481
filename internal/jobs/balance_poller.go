// Package jobs contains the background schedulers of the bet engine: the
// per-bet balance poller and the recurring-bet timers.
package jobs

import (
	"context"
	"sync"
	"time"

	"trxbetbot/internal/blockchain"
	"trxbetbot/internal/config"
	"trxbetbot/internal/models"
	"trxbetbot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver settles a funded bet. Implemented by services.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, bet *models.Bet, observedBalance int64) error
}

// probe is the live scheduling handle of one pending bet. It exists only in
// memory; the bet row in the ledger is the durable state.
type probe struct {
	bet      models.Bet
	cancel   chan struct{}
	deadline time.Time
}

// BalancePoller watches the deposit addresses of pending bets. One goroutine
// per bet probes the balance on a fixed interval until either funds arrive
// (hand-off to the resolver) or the deadline passes (bet expires).
//
// The probe is removed from the registry before the resolver is invoked, so
// resolution happens at most once per bet even if ticks overlap.
type BalancePoller struct {
	chain    blockchain.Gateway
	resolver Resolver
	repo     *repository.LedgerRepository
	settings *config.Settings
	log      *zap.SugaredLogger

	mu     sync.Mutex
	probes map[uuid.UUID]*probe
	wg     sync.WaitGroup
}

func NewBalancePoller(
	chain blockchain.Gateway,
	resolver Resolver,
	repo *repository.LedgerRepository,
	settings *config.Settings,
	log *zap.SugaredLogger,
) *BalancePoller {
	return &BalancePoller{
		chain:    chain,
		resolver: resolver,
		repo:     repo,
		settings: settings,
		log:      log,
		probes:   make(map[uuid.UUID]*probe),
	}
}

// Arm starts a balance probe for a pending bet. An existing probe for the
// same bet is disarmed first (placement replaces a prior pending bet).
func (b *BalancePoller) Arm(bet *models.Bet) {
	p := &probe{
		bet:      *bet,
		cancel:   make(chan struct{}),
		deadline: time.Now().Add(b.settings.PollTimeout()),
	}

	b.mu.Lock()
	if old, ok := b.probes[bet.ID]; ok {
		close(old.cancel)
	}
	b.probes[bet.ID] = p
	b.mu.Unlock()

	b.wg.Add(1)
	go b.run(p)

	b.log.Infow("probe armed",
		"bet_id", bet.ID,
		"address", bet.Address,
		"deadline", p.deadline,
	)
}

// Disarm cancels the probe for a bet, if one is armed. Idempotent; it does
// not interrupt a tick already in flight.
func (b *BalancePoller) Disarm(betID uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.probes[betID]
	if !ok {
		return false
	}
	delete(b.probes, betID)
	close(p.cancel)
	return true
}

// Active returns the number of armed probes.
func (b *BalancePoller) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.probes)
}

// Stop disarms every probe and waits for in-flight ticks to finish.
func (b *BalancePoller) Stop() {
	b.mu.Lock()
	for id, p := range b.probes {
		close(p.cancel)
		delete(b.probes, id)
	}
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *BalancePoller) run(p *probe) {
	defer b.wg.Done()

	select {
	case <-time.After(b.settings.PollInitialDelay()):
	case <-p.cancel:
		return
	}

	ticker := time.NewTicker(b.settings.PollInterval())
	defer ticker.Stop()

	for {
		if b.tick(p) {
			return
		}
		select {
		case <-ticker.C:
		case <-p.cancel:
			return
		}
	}
}

// tick probes the balance once. Returns true when the probe is finished.
func (b *BalancePoller) tick(p *probe) bool {
	ctx := context.Background()

	if time.Now().After(p.deadline) {
		if !b.disarm(p) {
			return true
		}
		if err := b.repo.MarkExpired(ctx, p.bet.ID); err != nil {
			b.log.Errorw("failed to expire bet", "bet_id", p.bet.ID, "err", err)
		}
		b.log.Infow("bet expired with no deposit",
			"bet_id", p.bet.ID,
			"address", p.bet.Address,
		)
		return true
	}

	balance, err := b.chain.GetBalance(ctx, p.bet.Address)
	if err != nil {
		// Transient gateway failure: the next tick retries.
		b.log.Warnw("balance probe failed",
			"bet_id", p.bet.ID,
			"address", p.bet.Address,
			"err", err,
		)
		return false
	}

	if balance == 0 {
		return false
	}

	// Disarm before any resolution side effect begins. If the probe was
	// already removed by a concurrent path, the hand-off is not ours.
	if !b.disarm(p) {
		return true
	}

	b.log.Infow("deposit detected",
		"bet_id", p.bet.ID,
		"address", p.bet.Address,
		"balance_sun", balance,
	)

	bet := p.bet
	if err := b.resolver.Resolve(ctx, &bet, balance); err != nil {
		b.log.Errorw("bet resolution failed",
			"bet_id", p.bet.ID,
			"address", p.bet.Address,
			"err", err,
		)
	}
	return true
}

// disarm removes this exact probe from the registry. Returns false when the
// probe was already replaced or cancelled.
func (b *BalancePoller) disarm(p *probe) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.probes[p.bet.ID]
	if !ok || current != p {
		return false
	}
	delete(b.probes, p.bet.ID)
	close(p.cancel)
	return true
}
