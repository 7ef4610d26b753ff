package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/infrastructure/metrics"
)

// TransactionUseCase owns the lifecycle of expenses, incomes, payments and
// transfers. Every mutation persists the record and applies its balance
// deltas through the adjustment engine inside one store transaction, so the
// record and the account balance move together or not at all.
type TransactionUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	adjuster    *AdjustmentUseCase
	idGen       IDGenerator
	retrier     Retrier
	cache       Cache
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	adjuster *AdjustmentUseCase,
	idGen IDGenerator,
	retrier Retrier,
	cache Cache,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		adjuster:    adjuster,
		idGen:       idGen,
		retrier:     retrier,
		cache:       cache,
		metrics:     m,
		logger:      logger,
	}
}

// PostingInput is the shared shape of expense and income mutations.
type PostingInput struct {
	CompanyID   string
	AccountID   string
	Amount      decimal.Decimal
	Status      domain.PostingStatus
	Date        time.Time
	Reference   string
	Description string
	ContactName string
}

func (in PostingInput) validate() error {
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}
	return domain.ValidateStatus(in.Status)
}

func (in PostingInput) posting() domain.Posting {
	return domain.Posting{AccountID: in.AccountID, Amount: in.Amount, Status: in.Status}
}

// CreateExpense records an expense and, if paid, debits the bank account.
func (uc *TransactionUseCase) CreateExpense(ctx context.Context, input PostingInput) (*domain.Expense, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expense := &domain.Expense{
		ID:          uc.idGen.Generate(),
		CompanyID:   input.CompanyID,
		AccountID:   input.AccountID,
		Amount:      input.Amount,
		Status:      input.Status,
		Date:        input.Date,
		Reference:   input.Reference,
		Description: input.Description,
		ContactName: input.ContactName,
		CreatedAt:   now,
	}

	deltas := uc.adjuster.ComputeAdjustments(domain.CategoryExpense, domain.Posting{}, input.posting())

	err := uc.mutate(ctx, domain.CategoryExpense, "create", deltas, func(tx Transaction) error {
		return uc.txnRepo.CreateExpense(ctx, tx, expense)
	})
	if err != nil {
		return nil, err
	}

	return expense, nil
}

// UpdateExpense edits an expense, reversing the old contribution and
// applying the new one as a single netted adjustment.
func (uc *TransactionUseCase) UpdateExpense(ctx context.Context, id string, input PostingInput) (*domain.Expense, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	expense, err := uc.txnRepo.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.CompanyID != input.CompanyID || expense.DeletedAt != nil {
		return nil, domain.ErrTransactionNotFound
	}

	oldPosting := domain.Posting{AccountID: expense.AccountID, Amount: expense.Amount, Status: expense.Status}
	deltas := uc.adjuster.ComputeAdjustments(domain.CategoryExpense, oldPosting, input.posting())

	expense.AccountID = input.AccountID
	expense.Amount = input.Amount
	expense.Status = input.Status
	expense.Date = input.Date
	expense.Reference = input.Reference
	expense.Description = input.Description
	expense.ContactName = input.ContactName

	err = uc.mutate(ctx, domain.CategoryExpense, "update", deltas, func(tx Transaction) error {
		return uc.txnRepo.UpdateExpense(ctx, tx, expense)
	})
	if err != nil {
		return nil, err
	}

	return expense, nil
}

// DeleteExpense soft-deletes an expense and reverses its contribution.
func (uc *TransactionUseCase) DeleteExpense(ctx context.Context, companyID, id string) error {
	expense, err := uc.txnRepo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if expense.CompanyID != companyID || expense.DeletedAt != nil {
		return domain.ErrTransactionNotFound
	}

	oldPosting := domain.Posting{AccountID: expense.AccountID, Amount: expense.Amount, Status: expense.Status}
	deltas := uc.adjuster.ComputeAdjustments(domain.CategoryExpense, oldPosting, domain.Posting{})

	now := time.Now().UTC()

	return uc.mutate(ctx, domain.CategoryExpense, "delete", deltas, func(tx Transaction) error {
		return uc.txnRepo.DeleteExpense(ctx, tx, id, now)
	})
}

// CreateIncome records an income and, if paid, credits the bank account.
func (uc *TransactionUseCase) CreateIncome(ctx context.Context, input PostingInput) (*domain.Income, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	income := &domain.Income{
		ID:          uc.idGen.Generate(),
		CompanyID:   input.CompanyID,
		AccountID:   input.AccountID,
		Amount:      input.Amount,
		Status:      input.Status,
		Date:        input.Date,
		Reference:   input.Reference,
		Description: input.Description,
		ContactName: input.ContactName,
		CreatedAt:   now,
	}

	deltas := uc.adjuster.ComputeAdjustments(domain.CategoryIncome, domain.Posting{}, input.posting())

	err := uc.mutate(ctx, domain.CategoryIncome, "create", deltas, func(tx Transaction) error {
		return uc.txnRepo.CreateIncome(ctx, tx, income)
	})
	if err != nil {
		return nil, err
	}

	return income, nil
}

// UpdateIncome edits an income record.
func (uc *TransactionUseCase) UpdateIncome(ctx context.Context, id string, input PostingInput) (*domain.Income, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	income, err := uc.txnRepo.GetIncome(ctx, id)
	if err != nil {
		return nil, err
	}
	if income.CompanyID != input.CompanyID || income.DeletedAt != nil {
		return nil, domain.ErrTransactionNotFound
	}

	oldPosting := domain.Posting{AccountID: income.AccountID, Amount: income.Amount, Status: income.Status}
	deltas := uc.adjuster.ComputeAdjustments(domain.CategoryIncome, oldPosting, input.posting())

	income.AccountID = input.AccountID
	income.Amount = input.Amount
	income.Status = input.Status
	income.Date = input.Date
	income.Reference = input.Reference
	income.Description = input.Description
	income.ContactName = input.ContactName

	err = uc.mutate(ctx, domain.CategoryIncome, "update", deltas, func(tx Transaction) error {
		return uc.txnRepo.UpdateIncome(ctx, tx, income)
	})
	if err != nil {
		return nil, err
	}

	return income, nil
}

// DeleteIncome soft-deletes an income record and reverses its contribution.
func (uc *TransactionUseCase) DeleteIncome(ctx context.Context, companyID, id string) error {
	income, err := uc.txnRepo.GetIncome(ctx, id)
	if err != nil {
		return err
	}
	if income.CompanyID != companyID || income.DeletedAt != nil {
		return domain.ErrTransactionNotFound
	}

	oldPosting := domain.Posting{AccountID: income.AccountID, Amount: income.Amount, Status: income.Status}
	deltas := uc.adjuster.ComputeAdjustments(domain.CategoryIncome, oldPosting, domain.Posting{})

	now := time.Now().UTC()

	return uc.mutate(ctx, domain.CategoryIncome, "delete", deltas, func(tx Transaction) error {
		return uc.txnRepo.DeleteIncome(ctx, tx, id, now)
	})
}

// AllocationInput describes one settlement inside a payment.
type AllocationInput struct {
	Type        domain.AllocationType
	BalanceType domain.BalanceType
	PaidAmount  decimal.Decimal
	ReferenceID string
}

// CreatePaymentInput describes a payment and its optional allocations.
type CreatePaymentInput struct {
	CompanyID   string
	AccountID   string
	Type        domain.PaymentType
	Amount      decimal.Decimal
	Date        time.Time
	Reference   string
	ContactName string
	Allocations []AllocationInput
}

// CreatePayment records a payment. An itemized payment contributes through
// its allocations; a standalone payment contributes through its own row.
// Either way the settled records never also count via their direct status.
func (uc *TransactionUseCase) CreatePayment(ctx context.Context, input CreatePaymentInput) (*domain.Payment, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:          uc.idGen.Generate(),
		CompanyID:   input.CompanyID,
		AccountID:   input.AccountID,
		Type:        input.Type,
		Amount:      input.Amount,
		Date:        input.Date,
		Reference:   input.Reference,
		ContactName: input.ContactName,
		CreatedAt:   now,
	}

	allocations := make([]domain.PaymentAllocation, 0, len(input.Allocations))
	for _, a := range input.Allocations {
		if err := domain.ValidateAmount(a.PaidAmount); err != nil {
			return nil, err
		}
		allocations = append(allocations, domain.PaymentAllocation{
			ID:          uc.idGen.Generate(),
			PaymentID:   payment.ID,
			Type:        a.Type,
			BalanceType: a.BalanceType,
			PaidAmount:  a.PaidAmount,
			ReferenceID: a.ReferenceID,
			CreatedAt:   now,
		})
	}

	deltas := uc.paymentDeltas(payment, allocations)

	err := uc.mutate(ctx, domain.CategoryPayment, "create", deltas, func(tx Transaction) error {
		return uc.txnRepo.CreatePayment(ctx, tx, payment, allocations)
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// DeletePayment soft-deletes a payment, reversing either its standalone
// contribution or the sum of its allocations' contributions.
func (uc *TransactionUseCase) DeletePayment(ctx context.Context, companyID, id string) error {
	payment, err := uc.txnRepo.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	if payment.CompanyID != companyID || payment.DeletedAt != nil {
		return domain.ErrTransactionNotFound
	}

	allocations, err := uc.txnRepo.AllocationsByPayment(ctx, id)
	if err != nil {
		return err
	}

	deltas := uc.paymentDeltas(payment, allocations)
	for i := range deltas {
		deltas[i].Delta = deltas[i].Delta.Neg()
	}

	now := time.Now().UTC()

	return uc.mutate(ctx, domain.CategoryPayment, "delete", deltas, func(tx Transaction) error {
		return uc.txnRepo.DeletePayment(ctx, tx, id, now)
	})
}

// CreateTransferInput describes an inter-account transfer.
type CreateTransferInput struct {
	CompanyID     string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Date          time.Time
	Reference     string
	Description   string
}

// CreateTransfer moves money between two accounts of the same company.
func (uc *TransactionUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*domain.Transfer, error) {
	now := time.Now().UTC()
	transfer := &domain.Transfer{
		ID:            uc.idGen.Generate(),
		CompanyID:     input.CompanyID,
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Date:          input.Date,
		Reference:     input.Reference,
		Description:   input.Description,
		CreatedAt:     now,
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	deltas := uc.adjuster.ComputeTransferAdjustments(nil, transfer)

	err := uc.mutate(ctx, domain.CategoryTransfer, "create", deltas, func(tx Transaction) error {
		return uc.txnRepo.CreateTransfer(ctx, tx, transfer)
	})
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

// DeleteTransfer reverses a transfer on both accounts.
func (uc *TransactionUseCase) DeleteTransfer(ctx context.Context, companyID, id string) error {
	transfer, err := uc.txnRepo.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer.CompanyID != companyID || transfer.DeletedAt != nil {
		return domain.ErrTransactionNotFound
	}

	deltas := uc.adjuster.ComputeTransferAdjustments(transfer, nil)

	now := time.Now().UTC()

	return uc.mutate(ctx, domain.CategoryTransfer, "delete", deltas, func(tx Transaction) error {
		return uc.txnRepo.DeleteTransfer(ctx, tx, id, now)
	})
}

// paymentDeltas resolves a payment's balance contribution: the allocations
// when itemized, the payment row itself when standalone.
func (uc *TransactionUseCase) paymentDeltas(payment *domain.Payment, allocations []domain.PaymentAllocation) []domain.BalanceDelta {
	if len(allocations) == 0 {
		posting := domain.Posting{
			AccountID: payment.AccountID,
			Amount:    payment.Amount,
			Status:    domain.StatusPaid,
			Type:      payment.Type,
		}
		return uc.adjuster.ComputeAdjustments(domain.CategoryPayment, domain.Posting{}, posting)
	}

	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(domain.AllocationContribution(a, payment.Type))
	}

	return NetDeltas([]domain.BalanceDelta{{AccountID: payment.AccountID, Delta: total}})
}

// mutate runs the record mutation and its balance deltas in one store
// transaction. Any failure rolls back both; transient failures such as lock
// deadlocks restart the whole transaction through the retrier.
func (uc *TransactionUseCase) mutate(
	ctx context.Context,
	category domain.EventCategory,
	operation string,
	deltas []domain.BalanceDelta,
	persist func(tx Transaction) error,
) error {
	run := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := persist(tx); err != nil {
			uc.logger.Error().
				Err(err).
				Str("category", string(category)).
				Str("operation", operation).
				Msg("transaction mutation failed")
			return err
		}

		if err := uc.adjuster.Apply(ctx, tx, deltas); err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, run)
	} else {
		err = run()
	}
	if err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsMutated.WithLabelValues(string(category), operation).Inc()
	}

	if uc.cache != nil {
		for _, delta := range deltas {
			_ = uc.cache.Delete(ctx, ReconciliationCacheKey(delta.AccountID))
		}
	}

	return nil
}
