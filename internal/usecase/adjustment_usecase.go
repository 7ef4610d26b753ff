package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/infrastructure/metrics"
)

// AdjustmentUseCase is the single path through which transaction mutations
// reach an account's persisted current balance. Every mutating collaborator
// computes its deltas here and applies them inside its own store transaction.
type AdjustmentUseCase struct {
	accountRepo AccountRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewAdjustmentUseCase creates a new AdjustmentUseCase.
func NewAdjustmentUseCase(accountRepo AccountRepository, m *metrics.Metrics, logger zerolog.Logger) *AdjustmentUseCase {
	return &AdjustmentUseCase{
		accountRepo: accountRepo,
		metrics:     m,
		logger:      logger,
	}
}

// ComputeAdjustments derives the minimal signed deltas moving the affected
// accounts from the old posting's contribution to the new one's: a reversal
// of what was previously applied plus an application of the new values.
// Deltas on the same account are netted; zero deltas are dropped.
func (uc *AdjustmentUseCase) ComputeAdjustments(category domain.EventCategory, oldPosting, newPosting domain.Posting) []domain.BalanceDelta {
	var deltas []domain.BalanceDelta

	if reversal := domain.PostingContribution(category, oldPosting).Neg(); !reversal.IsZero() {
		deltas = append(deltas, domain.BalanceDelta{AccountID: oldPosting.AccountID, Delta: reversal})
	}

	if application := domain.PostingContribution(category, newPosting); !application.IsZero() {
		deltas = append(deltas, domain.BalanceDelta{AccountID: newPosting.AccountID, Delta: application})
	}

	return NetDeltas(deltas)
}

// ComputeTransferAdjustments derives the deltas for creating or reversing a
// transfer. Pass nil for the side that does not exist.
func (uc *AdjustmentUseCase) ComputeTransferAdjustments(oldTransfer, newTransfer *domain.Transfer) []domain.BalanceDelta {
	var deltas []domain.BalanceDelta

	if oldTransfer != nil {
		deltas = append(deltas,
			domain.BalanceDelta{AccountID: oldTransfer.FromAccountID, Delta: oldTransfer.Amount},
			domain.BalanceDelta{AccountID: oldTransfer.ToAccountID, Delta: oldTransfer.Amount.Neg()},
		)
	}

	if newTransfer != nil {
		deltas = append(deltas,
			domain.BalanceDelta{AccountID: newTransfer.FromAccountID, Delta: newTransfer.Amount.Neg()},
			domain.BalanceDelta{AccountID: newTransfer.ToAccountID, Delta: newTransfer.Amount},
		)
	}

	return NetDeltas(deltas)
}

// PaymentAdjustmentImpact resolves the delta when only a settlement
// payment's amount changed.
func (uc *AdjustmentUseCase) PaymentAdjustmentImpact(category domain.EventCategory, amountDelta decimal.Decimal) decimal.Decimal {
	return domain.PaymentAdjustmentImpact(category, amountDelta)
}

// NetDeltas merges deltas per account and drops the ones that net to zero.
// Applying the netted list is equivalent to applying the raw list.
func NetDeltas(deltas []domain.BalanceDelta) []domain.BalanceDelta {
	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0, len(deltas))

	for _, delta := range deltas {
		if _, seen := totals[delta.AccountID]; !seen {
			order = append(order, delta.AccountID)
		}
		totals[delta.AccountID] = totals[delta.AccountID].Add(delta.Delta)
	}

	netted := make([]domain.BalanceDelta, 0, len(order))
	for _, accountID := range order {
		if totals[accountID].IsZero() {
			continue
		}
		netted = append(netted, domain.BalanceDelta{AccountID: accountID, Delta: totals[accountID]})
	}

	return netted
}

// Apply lands every delta or none, inside the caller's transaction. The
// affected accounts are locked in sorted id order before the read-modify-
// write, so concurrent mutations on the same account serialize.
func (uc *AdjustmentUseCase) Apply(ctx context.Context, tx Transaction, deltas []domain.BalanceDelta) error {
	deltas = NetDeltas(deltas)
	if len(deltas) == 0 {
		return nil
	}

	ids := make([]string, 0, len(deltas))
	byAccount := make(map[string]decimal.Decimal, len(deltas))
	for _, delta := range deltas {
		ids = append(ids, delta.AccountID)
		byAccount[delta.AccountID] = delta.Delta
	}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		uc.fail(err, ids)
		return err
	}

	if len(accounts) != len(ids) {
		uc.fail(domain.ErrAccountNotFound, ids)
		return domain.ErrAccountNotFound
	}

	now := time.Now().UTC()
	for _, account := range accounts {
		if err := account.Usable(); err != nil {
			uc.fail(err, ids)
			return err
		}

		delta := byAccount[account.ID]
		newBalance := account.ApplyDelta(delta)

		if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
			uc.fail(err, ids)
			return err
		}

		if uc.metrics != nil {
			uc.metrics.AdjustmentsApplied.Inc()
			amount, _ := delta.Abs().Float64()
			uc.metrics.AdjustmentAmount.Observe(amount)
		}

		uc.logger.Debug().
			Str("account_id", account.ID).
			Str("delta", delta.String()).
			Str("balance", newBalance.String()).
			Msg("balance adjusted")
	}

	return nil
}

func (uc *AdjustmentUseCase) fail(err error, accountIDs []string) {
	if uc.metrics != nil {
		uc.metrics.AdjustmentFailures.Inc()
	}
	uc.logger.Error().
		Err(err).
		Strs("account_ids", accountIDs).
		Str("operation", "apply_balance_adjustment").
		Msg("balance adjustment failed")
}
