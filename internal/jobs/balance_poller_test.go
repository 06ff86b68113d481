package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trxbetbot/internal/blockchain"
	"trxbetbot/internal/config"
	"trxbetbot/internal/database"
	"trxbetbot/internal/logger"
	"trxbetbot/internal/models"
	"trxbetbot/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func fastSettings(t *testing.T) *config.Settings {
	settings, err := config.LoadSettings("")
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	settings.Set("poll_initial_delay", "1ms")
	settings.Set("poll_interval", "5ms")
	settings.Set("poll_timeout", "1h")
	return settings
}

// pollChain serves scripted balance probes. Only GetBalance is exercised by
// the poller.
type pollChain struct {
	mu       sync.Mutex
	balances []int64
	errs     []error
	calls    int
}

func (c *pollChain) GetBalance(ctx context.Context, address string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return 0, c.errs[i]
	}
	if i >= len(c.balances) {
		return c.balances[len(c.balances)-1], nil
	}
	return c.balances[i], nil
}

func (c *pollChain) CreateAccount(ctx context.Context) (*blockchain.Account, error) {
	return nil, errors.New("not scripted")
}

func (c *pollChain) GetInboundTransactions(ctx context.Context, address string) ([]blockchain.AccountTx, error) {
	return nil, errors.New("not scripted")
}

func (c *pollChain) GetTransactionInfo(ctx context.Context, txID string) (*blockchain.TxInfo, error) {
	return nil, errors.New("not scripted")
}

func (c *pollChain) GetBlock(ctx context.Context, number int64) (*blockchain.Block, error) {
	return nil, errors.New("not scripted")
}

func (c *pollChain) Transfer(ctx context.Context, from blockchain.TransferContext, toAddress string, amountSun int64) (*blockchain.TransferResult, error) {
	return nil, errors.New("not scripted")
}

// countingResolver records hand-offs from the poller.
type countingResolver struct {
	mu       sync.Mutex
	calls    int
	lastBet  models.Bet
	lastSun  int64
	notified chan struct{}
}

func newCountingResolver() *countingResolver {
	return &countingResolver{notified: make(chan struct{}, 16)}
}

func (r *countingResolver) Resolve(ctx context.Context, bet *models.Bet, observedBalance int64) error {
	r.mu.Lock()
	r.calls++
	r.lastBet = *bet
	r.lastSun = observedBalance
	r.mu.Unlock()
	r.notified <- struct{}{}
	return nil
}

func (r *countingResolver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func pendingBet(t *testing.T, repo *repository.LedgerRepository) *models.Bet {
	bet := &models.Bet{
		ID:          uuid.New(),
		OwnerID:     1,
		Address:     "TBetWallet",
		PrivateKey:  "betkey",
		ChosenChars: "0a",
		ChatID:      1,
		Status:      models.BetStatusPending,
	}
	if err := repo.CreateOrReplacePendingBet(context.Background(), bet); err != nil {
		t.Fatalf("failed to place bet: %v", err)
	}
	return bet
}

func waitFor(t *testing.T, ch chan struct{}) {
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the resolver")
	}
}

func TestPollerHandsOffDeposit(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &pollChain{balances: []int64{0, 0, 50_000_000}}
	resolver := newCountingResolver()
	poller := NewBalancePoller(chain, resolver, repo, fastSettings(t), logger.NewNop())
	defer poller.Stop()

	bet := pendingBet(t, repo)
	poller.Arm(bet)

	waitFor(t, resolver.notified)

	if resolver.lastBet.ID != bet.ID {
		t.Errorf("resolver got bet %s, expected %s", resolver.lastBet.ID, bet.ID)
	}
	if resolver.lastSun != 50_000_000 {
		t.Errorf("resolver got balance %d, expected 50000000", resolver.lastSun)
	}

	// The probe is gone once the hand-off happened
	if poller.Active() != 0 {
		t.Errorf("expected 0 active probes, got %d", poller.Active())
	}
}

func TestPollerResolvesAtMostOnce(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &pollChain{balances: []int64{50_000_000}}
	resolver := newCountingResolver()
	poller := NewBalancePoller(chain, resolver, repo, fastSettings(t), logger.NewNop())
	defer poller.Stop()

	poller.Arm(pendingBet(t, repo))

	waitFor(t, resolver.notified)

	// Give any stray tick a chance to misfire
	time.Sleep(50 * time.Millisecond)

	if resolver.count() != 1 {
		t.Errorf("expected exactly one resolution, got %d", resolver.count())
	}
}

func TestPollerRetriesGatewayErrors(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &pollChain{
		balances: []int64{0, 0, 50_000_000},
		errs:     []error{errors.New("node down"), errors.New("node down")},
	}
	resolver := newCountingResolver()
	poller := NewBalancePoller(chain, resolver, repo, fastSettings(t), logger.NewNop())
	defer poller.Stop()

	poller.Arm(pendingBet(t, repo))

	// Transient failures must not kill the probe
	waitFor(t, resolver.notified)
}

func TestPollerExpiresWithoutDeposit(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &pollChain{balances: []int64{0}}
	resolver := newCountingResolver()

	settings := fastSettings(t)
	settings.Set("poll_timeout", "0s")

	poller := NewBalancePoller(chain, resolver, repo, settings, logger.NewNop())
	defer poller.Stop()

	bet := pendingBet(t, repo)
	poller.Arm(bet)

	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := repo.GetBetByID(context.Background(), bet.ID)
		if err != nil {
			t.Fatalf("GetBetByID failed: %v", err)
		}
		if stored.Status == models.BetStatusExpired {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("bet never expired, status %s", stored.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if resolver.count() != 0 {
		t.Errorf("expired bet must not reach the resolver, got %d calls", resolver.count())
	}
	if poller.Active() != 0 {
		t.Errorf("expected 0 active probes, got %d", poller.Active())
	}
}

func TestPollerDisarm(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &pollChain{balances: []int64{0}}
	resolver := newCountingResolver()

	settings := fastSettings(t)
	settings.Set("poll_initial_delay", "1h")

	poller := NewBalancePoller(chain, resolver, repo, settings, logger.NewNop())
	defer poller.Stop()

	bet := pendingBet(t, repo)
	poller.Arm(bet)

	if poller.Active() != 1 {
		t.Fatalf("expected 1 active probe, got %d", poller.Active())
	}
	if !poller.Disarm(bet.ID) {
		t.Error("expected Disarm to report an armed probe")
	}
	if poller.Disarm(bet.ID) {
		t.Error("expected second Disarm to be a no-op")
	}
	if poller.Active() != 0 {
		t.Errorf("expected 0 active probes, got %d", poller.Active())
	}
}

func TestPollerRearmReplacesProbe(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &pollChain{balances: []int64{0}}
	resolver := newCountingResolver()

	settings := fastSettings(t)
	settings.Set("poll_initial_delay", "1h")

	poller := NewBalancePoller(chain, resolver, repo, settings, logger.NewNop())
	defer poller.Stop()

	bet := pendingBet(t, repo)
	poller.Arm(bet)
	poller.Arm(bet)

	if poller.Active() != 1 {
		t.Errorf("expected re-arm to replace the probe, got %d active", poller.Active())
	}
}
