package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingStatus tells whether a record has actually affected cash.
type PostingStatus string

const (
	StatusPending PostingStatus = "pending"
	StatusPaid    PostingStatus = "paid"
)

// PaymentType distinguishes money received from money paid out.
type PaymentType string

const (
	PaymentReceipt PaymentType = "receipt"
	PaymentOut     PaymentType = "payment"
)

// AllocationType names the record category an allocation settles.
type AllocationType string

const (
	AllocationSale           AllocationType = "sale"
	AllocationPurchase       AllocationType = "purchase"
	AllocationExpense        AllocationType = "expense"
	AllocationIncome         AllocationType = "income"
	AllocationCurrentBalance AllocationType = "current_balance"
)

// Known reports whether the allocation type is part of the documented
// enumeration. Unknown types fall back to the payment-type sign.
func (t AllocationType) Known() bool {
	switch t {
	case AllocationSale, AllocationPurchase, AllocationExpense, AllocationIncome, AllocationCurrentBalance:
		return true
	}
	return false
}

// BalanceType qualifies current-balance allocations.
type BalanceType string

const (
	BalanceReceivable BalanceType = "receivable"
	BalancePayable    BalanceType = "payable"
)

// Transfer moves money between two bank accounts of the same company.
type Transfer struct {
	ID            string
	CompanyID     string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Date          time.Time
	Reference     string
	Description   string
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// Validate validates a transfer before it is persisted.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// Expense is a direct outgoing posting against a bank account.
type Expense struct {
	ID          string
	CompanyID   string
	AccountID   string
	Amount      decimal.Decimal
	Status      PostingStatus
	Date        time.Time
	Reference   string
	Description string
	ContactName string
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// Income is a direct incoming posting against a bank account.
type Income struct {
	ID          string
	CompanyID   string
	AccountID   string
	Amount      decimal.Decimal
	Status      PostingStatus
	Date        time.Time
	Reference   string
	Description string
	ContactName string
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// Sale is an invoice that can be settled directly or via allocations,
// never both.
type Sale struct {
	ID            string
	CompanyID     string
	AccountID     string
	NetReceivable decimal.Decimal
	Status        PostingStatus
	InvoiceNumber string
	InvoiceDate   time.Time
	CustomerName  string
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// Purchase is a supplier invoice, mirroring Sale on the payable side.
type Purchase struct {
	ID            string
	CompanyID     string
	AccountID     string
	NetPayable    decimal.Decimal
	Status        PostingStatus
	InvoiceNumber string
	InvoiceDate   time.Time
	SupplierName  string
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// Payment is a standalone money movement on a bank account. Its allocation
// rows, if any, attribute parts of the amount to settled records.
type Payment struct {
	ID          string
	CompanyID   string
	AccountID   string
	Type        PaymentType
	Amount      decimal.Decimal
	Date        time.Time
	Reference   string
	ContactName string
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// PaymentAllocation attributes part of a payment to one settled record.
type PaymentAllocation struct {
	ID          string
	PaymentID   string
	Type        AllocationType
	BalanceType BalanceType
	PaidAmount  decimal.Decimal
	// ReferenceID is the id of the settled sale/purchase/expense/income row.
	// Empty for current-balance allocations.
	ReferenceID string
	CreatedAt   time.Time
}

// AllocationEntry is an allocation joined with the fields of its parent
// payment that the ledger needs: date, direction and display metadata.
type AllocationEntry struct {
	Allocation       PaymentAllocation
	PaymentType      PaymentType
	PaymentDate      time.Time
	PaymentReference string
	PaymentCreatedAt time.Time
	ContactName      string
}
