package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/norvantechnology/hisab/internal/domain"
)

// AccountRepository defines data access for bank accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, companyID string, limit, offset int) ([]*domain.Account, error)
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
}

// LedgerRepository issues the per-category statement fetches. Every fetch is
// restricted to one account, non-deleted rows and the optional date range;
// the direct invoice/posting fetches additionally exclude rows settled via
// allocations, and the payments fetch excludes itemized payments.
type LedgerRepository interface {
	Transfers(ctx context.Context, accountID string, r domain.DateRange) ([]*domain.Transfer, error)
	DirectIncomes(ctx context.Context, accountID string, r domain.DateRange) ([]*domain.Income, error)
	DirectExpenses(ctx context.Context, accountID string, r domain.DateRange) ([]*domain.Expense, error)
	DirectSales(ctx context.Context, accountID string, r domain.DateRange) ([]*domain.Sale, error)
	DirectPurchases(ctx context.Context, accountID string, r domain.DateRange) ([]*domain.Purchase, error)
	StandalonePayments(ctx context.Context, accountID string, r domain.DateRange) ([]*domain.Payment, error)
	Allocations(ctx context.Context, accountID string, r domain.DateRange) ([]domain.AllocationEntry, error)
}

// TransactionRepository persists the mutable transaction records this
// service owns write access to.
type TransactionRepository interface {
	CreateExpense(ctx context.Context, tx Transaction, e *domain.Expense) error
	GetExpense(ctx context.Context, id string) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, tx Transaction, e *domain.Expense) error
	DeleteExpense(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error

	CreateIncome(ctx context.Context, tx Transaction, i *domain.Income) error
	GetIncome(ctx context.Context, id string) (*domain.Income, error)
	UpdateIncome(ctx context.Context, tx Transaction, i *domain.Income) error
	DeleteIncome(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error

	CreateTransfer(ctx context.Context, tx Transaction, t *domain.Transfer) error
	GetTransfer(ctx context.Context, id string) (*domain.Transfer, error)
	DeleteTransfer(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error

	CreatePayment(ctx context.Context, tx Transaction, p *domain.Payment, allocations []domain.PaymentAllocation) error
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	AllocationsByPayment(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error)
	DeletePayment(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation when the store reports a transient failure,
// such as a deadlock between concurrent balance adjustments.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// DocumentRenderer turns an ordered, balance-annotated event set into a
// binary statement document.
type DocumentRenderer interface {
	RenderStatement(account *domain.Account, events []domain.LedgerEvent, filterDescription string) ([]byte, error)
}
