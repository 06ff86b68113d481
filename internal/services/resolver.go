package services

import (
	"context"
	"fmt"
	"strings"

	"trxbetbot/internal/blockchain"
	"trxbetbot/internal/config"
	"trxbetbot/internal/models"
	"trxbetbot/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Resolver decides and settles the outcome of one funded bet. Its transfers
// are irreversible, so the poller disarms the probe before calling Resolve:
// a bet reaches this code at most once.
type Resolver struct {
	repo     *repository.LedgerRepository
	chain    blockchain.Gateway
	settings *config.Settings
	notifier Notifier

	houseAddress    string
	housePrivateKey string

	log *zap.SugaredLogger
}

func NewResolver(
	repo *repository.LedgerRepository,
	chain blockchain.Gateway,
	settings *config.Settings,
	notifier Notifier,
	houseAddress, housePrivateKey string,
	log *zap.SugaredLogger,
) *Resolver {
	return &Resolver{
		repo:            repo,
		chain:           chain,
		settings:        settings,
		notifier:        notifier,
		houseAddress:    houseAddress,
		housePrivateKey: housePrivateKey,
		log:             log,
	}
}

// Resolve settles a funded bet: it identifies the funding transaction,
// refunds out-of-range stakes, derives the outcome from the block hash of
// the funding transaction, pays out winnings, and sweeps the single-use
// wallet to the house. The bet record is finalized with the outcome.
func (r *Resolver) Resolve(ctx context.Context, bet *models.Bet, observedBalance int64) error {
	funding, err := r.findFundingTx(ctx, bet)
	if err != nil {
		r.operatorf("cannot resolve deposit for bet address %s (owner %d): %v",
			bet.Address, bet.OwnerID, err)
		return err
	}

	bet.AmountSun = observedBalance
	bet.SenderAddress = &funding.Sender
	bet.FundingTxID = &funding.TxID

	amountTRX := blockchain.FromSun(observedBalance)
	min := r.settings.MinStakeTRX()
	max := r.settings.MaxStakeTRX()

	// Out-of-range stakes break the leverage calibration and are refunded
	// in full instead of gambled.
	if amountTRX.LessThan(min) || amountTRX.GreaterThan(max) {
		return r.refund(ctx, bet, observedBalance, amountTRX, min, max)
	}

	info, err := r.chain.GetTransactionInfo(ctx, funding.TxID)
	if err != nil {
		r.operatorf("cannot fetch funding tx %s for bet address %s: %v",
			funding.TxID, bet.Address, err)
		return fmt.Errorf("failed to look up funding transaction: %w", err)
	}

	block, err := r.chain.GetBlock(ctx, info.BlockNumber)
	if err != nil {
		r.operatorf("cannot fetch block %d for bet address %s: %v",
			info.BlockNumber, bet.Address, err)
		return fmt.Errorf("failed to look up resolving block: %w", err)
	}

	bet.BlockNumber = &block.Number
	hash := block.Hash
	bet.BlockHash = &hash

	lastChar := hash[len(hash)-1:]
	won := strings.Contains(bet.ChosenChars, lastChar)

	r.log.Infow("bet outcome decided",
		"address", bet.Address,
		"funding_tx", funding.TxID,
		"block", block.Number,
		"block_hash", hash,
		"last_char", lastChar,
		"chosen_chars", bet.ChosenChars,
		"won", won,
	)

	if won {
		if err := r.payout(ctx, bet, observedBalance, funding.Sender); err != nil {
			return err
		}
	}

	// Sweep the deposit to the house wallet whether the bet won or lost.
	sweepErr := r.sweep(ctx, bet, observedBalance)
	if sweepErr != nil {
		if !won {
			// Nothing has moved yet, abort without mutating the bet.
			r.operatorf("cannot sweep lost bet %s (address %s): %v",
				bet.ID, bet.Address, sweepErr)
			return sweepErr
		}
		// The payout already reached the user: a reconciliation fault, not
		// a reason to unwind the win.
		r.log.Errorw("partial settlement: payout sent but sweep failed",
			"bet_id", bet.ID,
			"address", bet.Address,
			"payout_tx", deref(bet.PayoutTxID),
			"err", sweepErr,
		)
		r.operatorf("partial settlement for bet %s: payout tx %s succeeded but sweep of %d Sun from %s failed: %v",
			bet.ID, deref(bet.PayoutTxID), observedBalance, bet.Address, sweepErr)
	}

	status := models.BetStatusResolvedLoss
	if won {
		status = models.BetStatusResolvedWin
	}
	if err := r.finalize(ctx, bet, status); err != nil {
		return err
	}

	r.notifyOutcome(bet, won, lastChar)
	return nil
}

// findFundingTx locates the native-currency transfer that funded the bet
// address. Token transfers carry an asset name and are skipped.
func (r *Resolver) findFundingTx(ctx context.Context, bet *models.Bet) (*blockchain.AccountTx, error) {
	txs, err := r.chain.GetInboundTransactions(ctx, bet.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbound transactions: %w", err)
	}

	var funding *blockchain.AccountTx
	for i := range txs {
		if txs[i].Asset == "" {
			funding = &txs[i]
		}
	}
	if funding == nil || funding.TxID == "" || funding.Sender == "" {
		return nil, ErrUnresolvableInboundTx
	}
	return funding, nil
}

// refund returns an out-of-range deposit to its sender in full.
func (r *Resolver) refund(ctx context.Context, bet *models.Bet, balance int64, amount, min, max decimal.Decimal) error {
	from := blockchain.TransferContext{Address: bet.Address, PrivateKey: bet.PrivateKey}
	result, err := r.chain.Transfer(ctx, from, *bet.SenderAddress, balance)
	if err != nil {
		r.operatorf("cannot refund %s TRX from bet address %s to %s: %v",
			amount, bet.Address, *bet.SenderAddress, err)
		return fmt.Errorf("failed to refund out-of-range stake: %w", err)
	}

	r.log.Infow("out-of-range stake refunded",
		"address", bet.Address,
		"amount_trx", amount,
		"refund_tx", result.TxID,
	)

	if err := r.finalize(ctx, bet, models.BetStatusRefunded); err != nil {
		return err
	}

	r.notify(bet.ChatID, fmt.Sprintf(
		"Your deposit of %s TRX is outside the %s-%s TRX stake window. "+
			"The whole amount was returned to the wallet it was sent from.",
		amount, min, max))
	return nil
}

// payout transfers the winnings from the house wallet to the sender. A
// failed payout aborts the resolution: a win must never be recorded unpaid.
func (r *Resolver) payout(ctx context.Context, bet *models.Bet, balance int64, sender string) error {
	k := len(bet.ChosenChars)
	leverage, ok := r.settings.Leverage(k)
	if !ok {
		err := fmt.Errorf("no leverage configured for %d characters", k)
		r.operatorf("bet %s unresolvable: %v", bet.ID, err)
		return err
	}

	winnings := decimal.NewFromInt(balance).Mul(leverage).Floor().IntPart()

	from := blockchain.TransferContext{Address: r.houseAddress, PrivateKey: r.housePrivateKey}
	result, err := r.chain.Transfer(ctx, from, sender, winnings)
	if err != nil {
		r.operatorf("cannot pay out %d Sun for winning bet %s (address %s): %v",
			winnings, bet.ID, bet.Address, err)
		return fmt.Errorf("failed to pay out winnings: %w", err)
	}

	bet.WinningsSun = &winnings
	bet.PayoutTxID = &result.TxID

	r.log.Infow("winnings paid",
		"bet_id", bet.ID,
		"winnings_sun", winnings,
		"leverage", leverage,
		"payout_tx", result.TxID,
	)
	return nil
}

// sweep moves the deposit from the single-use wallet to the house wallet.
func (r *Resolver) sweep(ctx context.Context, bet *models.Bet, balance int64) error {
	from := blockchain.TransferContext{Address: bet.Address, PrivateKey: bet.PrivateKey}
	result, err := r.chain.Transfer(ctx, from, r.houseAddress, balance)
	if err != nil {
		return fmt.Errorf("failed to sweep bet wallet: %w", err)
	}
	r.log.Infow("deposit swept to house",
		"address", bet.Address,
		"amount_sun", balance,
		"sweep_tx", result.TxID,
	)
	return nil
}

func (r *Resolver) finalize(ctx context.Context, bet *models.Bet, status models.BetStatus) error {
	if err := r.repo.FinalizeBet(ctx, bet, status); err != nil {
		// Funds may already have moved; the record must not be lost silently.
		r.operatorf("bet %s settled on chain but could not be finalized as %s: %v",
			bet.ID, status, err)
		return err
	}
	return nil
}

func (r *Resolver) notifyOutcome(bet *models.Bet, won bool, lastChar string) {
	if won {
		winnings := blockchain.FromSun(deref64(bet.WinningsSun))
		r.notify(bet.ChatID, fmt.Sprintf(
			"You won! The resolving block hash ends in %q and you bet on %q. "+
				"%s TRX are on the way to your wallet.",
			lastChar, bet.ChosenChars, winnings))
		return
	}
	r.notify(bet.ChatID, fmt.Sprintf(
		"You lost. The resolving block hash ends in %q but you bet on %q. "+
			"Better luck next time!",
		lastChar, bet.ChosenChars))
}

func (r *Resolver) notify(chatID int64, text string) {
	if err := r.notifier.Notify(chatID, text); err != nil {
		r.log.Warnw("failed to notify user", "chat_id", chatID, "err", err)
	}
}

func (r *Resolver) operatorf(format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	r.log.Errorw("resolution fault", "detail", text)
	if err := r.notifier.NotifyOperator(text); err != nil {
		r.log.Warnw("failed to notify operator", "err", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func deref64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
