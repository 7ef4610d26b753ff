package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventCategory is the closed set of ledger-contributing event kinds.
type EventCategory string

const (
	CategoryTransfer   EventCategory = "transfer"
	CategoryIncome     EventCategory = "direct_income"
	CategoryExpense    EventCategory = "direct_expense"
	CategorySale       EventCategory = "direct_sale"
	CategoryPurchase   EventCategory = "direct_purchase"
	CategoryPayment    EventCategory = "payment"
	CategoryAllocation EventCategory = "payment_allocation"
)

// AllCategories returns every ledger category in a fixed order.
func AllCategories() []EventCategory {
	return []EventCategory{
		CategoryTransfer,
		CategoryIncome,
		CategoryExpense,
		CategorySale,
		CategoryPurchase,
		CategoryPayment,
		CategoryAllocation,
	}
}

// ParseCategory validates a category string from a filter.
func ParseCategory(s string) (EventCategory, error) {
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// BalanceImpact labels an event's effect on the account balance.
type BalanceImpact string

const (
	ImpactCredit  BalanceImpact = "credit"
	ImpactDebit   BalanceImpact = "debit"
	ImpactNeutral BalanceImpact = "neutral"
)

// LedgerEvent is the computed statement line. It is never persisted; the
// aggregator derives it from the underlying record on every read.
type LedgerEvent struct {
	Category    EventCategory
	ID          string
	Date        time.Time
	CreatedAt   time.Time
	Reference   string
	Description string
	Counterpart string
	// Amount is signed from the perspective account's point of view.
	Amount decimal.Decimal
	// SourceID/SourceType identify the originating record when the event
	// was derived through an allocation.
	SourceID   string
	SourceType AllocationType
	// Payment linkage, set for allocation-derived events.
	PaymentID        string
	PaymentReference string
	// BalanceAfter is filled in by the running balance pass.
	BalanceAfter decimal.Decimal
}

// Direction labels the event for display: "in" or "out".
func (e LedgerEvent) Direction() string {
	if e.Amount.IsNegative() {
		return "out"
	}
	return "in"
}

// Impact classifies the event's effect on the balance.
func (e LedgerEvent) Impact() BalanceImpact {
	switch {
	case e.Amount.IsPositive():
		return ImpactCredit
	case e.Amount.IsNegative():
		return ImpactDebit
	default:
		return ImpactNeutral
	}
}

// Before orders events by (date, createdAt, id). The id tiebreak keeps the
// statement order reproducible when two records share both timestamps.
func (e LedgerEvent) Before(other LedgerEvent) bool {
	if !e.Date.Equal(other.Date) {
		return e.Date.Before(other.Date)
	}
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.ID < other.ID
}

// DateRange is an optional closed statement window.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Validate checks range ordering.
func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return ErrInvalidDateRange
	}
	return nil
}
