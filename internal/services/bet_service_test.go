package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"trxbetbot/internal/blockchain"
	"trxbetbot/internal/config"
	"trxbetbot/internal/database"
	"trxbetbot/internal/logger"
	"trxbetbot/internal/models"
	"trxbetbot/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
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

func testSettings(t *testing.T) *config.Settings {
	settings, err := config.LoadSettings("")
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	return settings
}

type transferCall struct {
	From   string
	To     string
	Amount int64
}

// fakeChain is a scripted Gateway for tests.
type fakeChain struct {
	mu sync.Mutex

	balance  int64
	inbound  []blockchain.AccountTx
	txInfo   *blockchain.TxInfo
	block    *blockchain.Block
	failFrom map[string]bool

	accounts  int
	transfers []transferCall
}

func (f *fakeChain) CreateAccount(ctx context.Context) (*blockchain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts++
	return &blockchain.Account{
		Address:    fmt.Sprintf("TFakeAddress%d", f.accounts),
		PublicKey:  "pub",
		PrivateKey: fmt.Sprintf("priv%d", f.accounts),
	}, nil
}

func (f *fakeChain) GetBalance(ctx context.Context, address string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, nil
}

func (f *fakeChain) GetInboundTransactions(ctx context.Context, address string) ([]blockchain.AccountTx, error) {
	return f.inbound, nil
}

func (f *fakeChain) GetTransactionInfo(ctx context.Context, txID string) (*blockchain.TxInfo, error) {
	if f.txInfo == nil {
		return nil, errors.New("no transaction info")
	}
	return f.txInfo, nil
}

func (f *fakeChain) GetBlock(ctx context.Context, number int64) (*blockchain.Block, error) {
	if f.block == nil {
		return nil, errors.New("no block")
	}
	return f.block, nil
}

func (f *fakeChain) Transfer(ctx context.Context, from blockchain.TransferContext, toAddress string, amountSun int64) (*blockchain.TransferResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFrom[from.Address] {
		return nil, errors.New("transfer rejected")
	}
	f.transfers = append(f.transfers, transferCall{From: from.Address, To: toAddress, Amount: amountSun})
	return &blockchain.TransferResult{TxID: fmt.Sprintf("transfer-%d", len(f.transfers))}, nil
}

// fakeProbes records armed bets.
type fakeProbes struct {
	mu    sync.Mutex
	armed []models.Bet
}

func (f *fakeProbes) Arm(bet *models.Bet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed = append(f.armed, *bet)
}

func (f *fakeProbes) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.armed)
}

// fakeNotifier records delivered messages.
type fakeNotifier struct {
	mu       sync.Mutex
	messages map[int64][]string
	operator []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{messages: make(map[int64][]string)}
}

func (f *fakeNotifier) Notify(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[chatID] = append(f.messages[chatID], text)
	return nil
}

func (f *fakeNotifier) NotifyOperator(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.operator = append(f.operator, text)
	return nil
}

func (f *fakeNotifier) operatorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.operator)
}

func TestNormalizeChosenChars(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a0", "0a", false},
		{"aab", "ab", false},
		{"f", "f", false},
		{"0123456789abcde", "0123456789abcde", false},
		{"", "", true},
		{"xyz", "", true},
		{"A", "", true},
		{"0a ", "", true},
		{"0123456789abcdef", "", true}, // full alphabet always wins
	}

	for _, tc := range cases {
		got, err := NormalizeChosenChars(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidChars) {
				t.Errorf("NormalizeChosenChars(%q): expected ErrInvalidChars, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeChosenChars(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeChosenChars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPlaceBet(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &fakeChain{}
	probes := &fakeProbes{}
	svc := NewBetService(repo, chain, probes, testSettings(t), logger.NewNop())

	bet, err := svc.PlaceBet(context.Background(), PlaceBetRequest{
		OwnerID: 1,
		Chars:   "a0",
	})
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	if bet.ChosenChars != "0a" {
		t.Errorf("expected normalized chars 0a, got %s", bet.ChosenChars)
	}
	if bet.Address == "" || bet.PrivateKey == "" {
		t.Error("bet is missing its deposit wallet")
	}
	if bet.ChatID != 1 {
		t.Errorf("expected chat id to default to owner id, got %d", bet.ChatID)
	}
	if bet.Status != models.BetStatusPending {
		t.Errorf("expected PENDING, got %s", bet.Status)
	}

	stored, err := repo.GetPendingBetByOwner(context.Background(), 1)
	if err != nil {
		t.Fatalf("bet was not persisted: %v", err)
	}
	if stored.ID != bet.ID {
		t.Errorf("stored bet id mismatch")
	}

	if probes.count() != 1 {
		t.Errorf("expected 1 armed probe, got %d", probes.count())
	}
}

func TestPlaceBetValidation(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &fakeChain{}
	svc := NewBetService(repo, chain, &fakeProbes{}, testSettings(t), logger.NewNop())

	_, err := svc.PlaceBet(context.Background(), PlaceBetRequest{OwnerID: 1, Chars: "zz"})
	if !errors.Is(err, ErrInvalidChars) {
		t.Errorf("expected ErrInvalidChars, got %v", err)
	}

	// Stated stake below the minimum is rejected up front
	_, err = svc.PlaceBet(context.Background(), PlaceBetRequest{
		OwnerID:   1,
		Chars:     "a",
		AmountTRX: decimal.NewFromInt(5),
	})
	if !errors.Is(err, ErrInvalidStakeRange) {
		t.Errorf("expected ErrInvalidStakeRange, got %v", err)
	}

	// No wallet gets issued for a rejected placement
	if chain.accounts != 0 {
		t.Errorf("expected no wallets issued, got %d", chain.accounts)
	}
}

func TestPlaceBetReplacesPending(t *testing.T) {
	repo := repository.NewLedgerRepository(setupTestDB(t))
	chain := &fakeChain{}
	probes := &fakeProbes{}
	svc := NewBetService(repo, chain, probes, testSettings(t), logger.NewNop())
	ctx := context.Background()

	first, err := svc.PlaceBet(ctx, PlaceBetRequest{OwnerID: 1, Chars: "a"})
	if err != nil {
		t.Fatalf("first placement failed: %v", err)
	}
	second, err := svc.PlaceBet(ctx, PlaceBetRequest{OwnerID: 1, Chars: "b"})
	if err != nil {
		t.Fatalf("second placement failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("replacement should reuse the pending row")
	}
	if second.Address == first.Address {
		t.Errorf("replacement should issue a fresh wallet")
	}
	if probes.count() != 2 {
		t.Errorf("expected probe re-armed, got %d arms", probes.count())
	}
}

func TestQuote(t *testing.T) {
	svc := NewBetService(nil, &fakeChain{}, &fakeProbes{}, testSettings(t), logger.NewNop())

	quote, err := svc.Quote("a0")
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if quote.CharCount != 2 {
		t.Errorf("expected 2 chars, got %d", quote.CharCount)
	}
	if !quote.Leverage.Equal(decimal.NewFromFloat(7.6)) {
		t.Errorf("expected leverage 7.6, got %s", quote.Leverage)
	}
	if !quote.ChancePct.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("expected 12.5%% chance, got %s", quote.ChancePct)
	}

	if _, err := svc.Quote("0123456789abcdef"); !errors.Is(err, ErrInvalidChars) {
		t.Errorf("expected ErrInvalidChars for the full alphabet, got %v", err)
	}
}
