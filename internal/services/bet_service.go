package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"trxbetbot/internal/blockchain"
	"trxbetbot/internal/config"
	"trxbetbot/internal/models"
	"trxbetbot/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ValidChars is the alphabet a bet can be placed on: the last character of a
// block hash is always one of these.
const ValidChars = "0123456789abcdef"

// ProbeScheduler arms a balance probe for a freshly placed bet.
type ProbeScheduler interface {
	Arm(bet *models.Bet)
}

// PlaceBetRequest carries everything needed to place a bet. AmountTRX is the
// stake the user intends to send; zero means unknown (the deposit decides).
type PlaceBetRequest struct {
	OwnerID   int64
	Chars     string
	AmountTRX decimal.Decimal
	ChatID    int64
}

// BetQuote describes the odds of a placed bet for presentation.
type BetQuote struct {
	ChosenChars string          `json:"chosen_chars"`
	CharCount   int             `json:"char_count"`
	ChancePct   decimal.Decimal `json:"chance_pct"`
	Leverage    decimal.Decimal `json:"leverage"`
	MinStakeTRX decimal.Decimal `json:"min_stake_trx"`
	MaxStakeTRX decimal.Decimal `json:"max_stake_trx"`
	FeeTRX      decimal.Decimal `json:"fee_trx"`
}

// BetService places bets: it issues a single-use wallet, records the pending
// bet, and arms the balance probe that drives the rest of the lifecycle.
type BetService struct {
	repo     *repository.LedgerRepository
	chain    blockchain.Gateway
	probes   ProbeScheduler
	settings *config.Settings
	log      *zap.SugaredLogger
}

func NewBetService(
	repo *repository.LedgerRepository,
	chain blockchain.Gateway,
	probes ProbeScheduler,
	settings *config.Settings,
	log *zap.SugaredLogger,
) *BetService {
	return &BetService{
		repo:     repo,
		chain:    chain,
		probes:   probes,
		settings: settings,
		log:      log,
	}
}

// NormalizeChosenChars validates the raw character selection and returns it
// sorted and deduplicated. Only lower-case hex digits are accepted, and the
// full alphabet is rejected because it would always win.
func NormalizeChosenChars(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: no characters given", ErrInvalidChars)
	}

	seen := make(map[rune]bool)
	for _, c := range raw {
		if !strings.ContainsRune(ValidChars, c) {
			return "", fmt.Errorf("%w: %q is not one of %q", ErrInvalidChars, string(c), ValidChars)
		}
		seen[c] = true
	}

	if len(seen) > config.MaxChosenChars {
		return "", fmt.Errorf("%w: at most %d characters", ErrInvalidChars, config.MaxChosenChars)
	}

	chars := make([]rune, 0, len(seen))
	for c := range seen {
		chars = append(chars, c)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return string(chars), nil
}

// PlaceBet creates a pending bet on a fresh single-use wallet and arms its
// balance probe. A prior pending bet of the same owner is replaced.
func (s *BetService) PlaceBet(ctx context.Context, req PlaceBetRequest) (*models.Bet, error) {
	chars, err := NormalizeChosenChars(req.Chars)
	if err != nil {
		return nil, err
	}

	if !req.AmountTRX.IsZero() {
		min := s.settings.MinStakeTRX()
		max := s.settings.MaxStakeTRX()
		if req.AmountTRX.LessThan(min) || req.AmountTRX.GreaterThan(max) {
			return nil, fmt.Errorf("%w: %s TRX not in [%s, %s]",
				ErrInvalidStakeRange, req.AmountTRX, min, max)
		}
	}

	account, err := s.chain.CreateAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create betting wallet: %w", err)
	}

	chatID := req.ChatID
	if chatID == 0 {
		chatID = req.OwnerID
	}

	bet := &models.Bet{
		ID:          uuid.New(),
		OwnerID:     req.OwnerID,
		Address:     account.Address,
		PrivateKey:  account.PrivateKey,
		ChosenChars: chars,
		ChatID:      chatID,
		Status:      models.BetStatusPending,
	}

	if err := s.repo.CreateOrReplacePendingBet(ctx, bet); err != nil {
		return nil, err
	}

	s.probes.Arm(bet)

	s.log.Infow("bet placed",
		"owner_id", bet.OwnerID,
		"address", bet.Address,
		"chosen_chars", bet.ChosenChars,
	)
	return bet, nil
}

// Quote computes the presentation odds for a character selection.
func (s *BetService) Quote(chars string) (*BetQuote, error) {
	normalized, err := NormalizeChosenChars(chars)
	if err != nil {
		return nil, err
	}

	count := len(normalized)
	leverage, ok := s.settings.Leverage(count)
	if !ok {
		return nil, fmt.Errorf("%w: no leverage for %d characters", ErrInvalidChars, count)
	}

	chance := decimal.NewFromInt(int64(count)).
		Div(decimal.NewFromInt(int64(len(ValidChars)))).
		Mul(decimal.NewFromInt(100))

	return &BetQuote{
		ChosenChars: normalized,
		CharCount:   count,
		ChancePct:   chance,
		Leverage:    leverage,
		MinStakeTRX: s.settings.MinStakeTRX(),
		MaxStakeTRX: s.settings.MaxStakeTRX(),
		FeeTRX:      s.settings.HouseFeeTRX(),
	}, nil
}
