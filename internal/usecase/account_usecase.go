package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/infrastructure/metrics"
)

// AccountUseCase handles bank account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator, m *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating a bank account.
type CreateAccountInput struct {
	CompanyID      string
	Name           string
	Currency       string
	OpeningBalance decimal.Decimal
}

// CreateAccount creates a new account. The current balance starts at the
// opening balance and is only ever moved by the adjustment engine.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		CompanyID:      input.CompanyID,
		Name:           input.Name,
		Currency:       input.Currency,
		OpeningBalance: input.OpeningBalance,
		CurrentBalance: input.OpeningBalance,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account within the caller's company scope.
func (uc *AccountUseCase) GetAccount(ctx context.Context, companyID, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := account.BelongsTo(companyID); err != nil {
		return nil, err
	}
	if account.DeletedAt != nil {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	CompanyID string
	Limit     int
	Offset    int
}

// ListAccounts lists the company's accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.accountRepo.List(ctx, input.CompanyID, input.Limit, input.Offset)
}

// DeleteAccount soft-deletes an account. Deleted accounts reject further
// adjustments and disappear from statements.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, companyID, id string) error {
	account, err := uc.GetAccount(ctx, companyID, id)
	if err != nil {
		return err
	}

	return uc.accountRepo.SoftDelete(ctx, account.ID, time.Now().UTC())
}
