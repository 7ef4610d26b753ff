package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a bank account whose current balance is maintained
// incrementally as transactions are posted, edited or reversed.
type Account struct {
	ID             string
	CompanyID      string
	Name           string
	Currency       string
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// Usable reports whether the account may appear on statements or receive
// balance adjustments.
func (a *Account) Usable() error {
	if a.DeletedAt != nil {
		return ErrAccountDeleted
	}
	if !a.Active {
		return ErrAccountInactive
	}
	return nil
}

// BelongsTo checks the caller's company scope. A mismatch is reported as
// not-found so account ids cannot be probed across companies.
func (a *Account) BelongsTo(companyID string) error {
	if a.CompanyID != companyID {
		return ErrAccountNotFound
	}
	return nil
}

// ApplyDelta returns the balance after a signed adjustment.
func (a *Account) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return a.CurrentBalance.Add(delta)
}
