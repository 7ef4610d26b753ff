package domain

import "github.com/shopspring/decimal"

// This file is the single sign table for the whole engine. Every path that
// turns a record into a balance contribution goes through one of these
// functions; no caller applies its own sign convention.

// Posting carries the balance-affecting fields of a mutable transaction
// record, as seen before or after a mutation.
type Posting struct {
	AccountID string
	Amount    decimal.Decimal
	Status    PostingStatus
	// Type is only consulted for CategoryPayment.
	Type PaymentType
}

// PostingContribution resolves the signed contribution a posting makes to
// its bank account. Pending or unassigned postings contribute nothing.
func PostingContribution(cat EventCategory, p Posting) decimal.Decimal {
	if p.Status != StatusPaid || p.AccountID == "" {
		return decimal.Zero
	}

	switch cat {
	case CategoryIncome, CategorySale:
		return p.Amount
	case CategoryExpense, CategoryPurchase:
		return p.Amount.Neg()
	case CategoryPayment:
		if p.Type == PaymentReceipt {
			return p.Amount
		}
		return p.Amount.Neg()
	}

	return decimal.Zero
}

// TransferContribution resolves a transfer's signed contribution from the
// perspective account's side. Returns zero when neither leg matches.
func TransferContribution(t *Transfer, perspectiveAccountID string) decimal.Decimal {
	switch perspectiveAccountID {
	case t.FromAccountID:
		return t.Amount.Neg()
	case t.ToAccountID:
		return t.Amount
	}
	return decimal.Zero
}

// AllocationContribution resolves an allocation's signed contribution to the
// paying account. Unknown allocation types inherit the payment direction;
// callers may detect that case with AllocationType.Known.
func AllocationContribution(a PaymentAllocation, paymentType PaymentType) decimal.Decimal {
	switch a.Type {
	case AllocationSale, AllocationIncome:
		return a.PaidAmount
	case AllocationPurchase, AllocationExpense:
		return a.PaidAmount.Neg()
	case AllocationCurrentBalance:
		if a.BalanceType == BalanceReceivable {
			return a.PaidAmount
		}
		return a.PaidAmount.Neg()
	default:
		if paymentType == PaymentReceipt {
			return a.PaidAmount
		}
		return a.PaidAmount.Neg()
	}
}

// PaymentAdjustmentImpact resolves the balance delta when only a settlement
// payment's amount changes, not the underlying invoice: the bank received or
// paid more or less than before.
func PaymentAdjustmentImpact(cat EventCategory, amountDelta decimal.Decimal) decimal.Decimal {
	switch cat {
	case CategoryExpense, CategoryPurchase:
		return amountDelta.Neg()
	default:
		return amountDelta
	}
}

// BalanceDelta is one signed adjustment to apply to an account.
type BalanceDelta struct {
	AccountID string
	Delta     decimal.Decimal
}

// The Event constructors below pair the sign table with display fields so
// the aggregator depends only on the LedgerEvent shape.

// Event derives the statement line for a transfer from one account's side.
func (t *Transfer) Event(perspectiveAccountID string) LedgerEvent {
	counterpart := t.ToAccountID
	if perspectiveAccountID == t.ToAccountID {
		counterpart = t.FromAccountID
	}

	return LedgerEvent{
		Category:    CategoryTransfer,
		ID:          t.ID,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
		Reference:   t.Reference,
		Description: t.Description,
		Counterpart: counterpart,
		Amount:      TransferContribution(t, perspectiveAccountID),
	}
}

// Event derives the statement line for a direct-paid expense.
func (e *Expense) Event() LedgerEvent {
	return LedgerEvent{
		Category:    CategoryExpense,
		ID:          e.ID,
		Date:        e.Date,
		CreatedAt:   e.CreatedAt,
		Reference:   e.Reference,
		Description: e.Description,
		Counterpart: e.ContactName,
		Amount:      PostingContribution(CategoryExpense, Posting{AccountID: e.AccountID, Amount: e.Amount, Status: e.Status}),
	}
}

// Event derives the statement line for a direct-paid income.
func (i *Income) Event() LedgerEvent {
	return LedgerEvent{
		Category:    CategoryIncome,
		ID:          i.ID,
		Date:        i.Date,
		CreatedAt:   i.CreatedAt,
		Reference:   i.Reference,
		Description: i.Description,
		Counterpart: i.ContactName,
		Amount:      PostingContribution(CategoryIncome, Posting{AccountID: i.AccountID, Amount: i.Amount, Status: i.Status}),
	}
}

// Event derives the statement line for a directly settled sale.
func (s *Sale) Event() LedgerEvent {
	return LedgerEvent{
		Category:    CategorySale,
		ID:          s.ID,
		Date:        s.InvoiceDate,
		CreatedAt:   s.CreatedAt,
		Reference:   s.InvoiceNumber,
		Description: "sale invoice " + s.InvoiceNumber,
		Counterpart: s.CustomerName,
		Amount:      PostingContribution(CategorySale, Posting{AccountID: s.AccountID, Amount: s.NetReceivable, Status: s.Status}),
	}
}

// Event derives the statement line for a directly settled purchase.
func (p *Purchase) Event() LedgerEvent {
	return LedgerEvent{
		Category:    CategoryPurchase,
		ID:          p.ID,
		Date:        p.InvoiceDate,
		CreatedAt:   p.CreatedAt,
		Reference:   p.InvoiceNumber,
		Description: "purchase invoice " + p.InvoiceNumber,
		Counterpart: p.SupplierName,
		Amount:      PostingContribution(CategoryPurchase, Posting{AccountID: p.AccountID, Amount: p.NetPayable, Status: p.Status}),
	}
}

// Event derives the statement line for a standalone payment.
func (p *Payment) Event() LedgerEvent {
	return LedgerEvent{
		Category:    CategoryPayment,
		ID:          p.ID,
		Date:        p.Date,
		CreatedAt:   p.CreatedAt,
		Reference:   p.Reference,
		Description: string(p.Type) + " " + p.Reference,
		Counterpart: p.ContactName,
		Amount:      PostingContribution(CategoryPayment, Posting{AccountID: p.AccountID, Amount: p.Amount, Status: StatusPaid, Type: p.Type}),
	}
}

// Event derives the statement line for a payment allocation, carrying the
// linkage back to both the payment and the record it settled.
func (a AllocationEntry) Event() LedgerEvent {
	return LedgerEvent{
		Category:         CategoryAllocation,
		ID:               a.Allocation.ID,
		Date:             a.PaymentDate,
		CreatedAt:        a.PaymentCreatedAt,
		Reference:        a.PaymentReference,
		Description:      string(a.Allocation.Type) + " settlement",
		Counterpart:      a.ContactName,
		Amount:           AllocationContribution(a.Allocation, a.PaymentType),
		SourceID:         a.Allocation.ReferenceID,
		SourceType:       a.Allocation.Type,
		PaymentID:        a.Allocation.PaymentID,
		PaymentReference: a.PaymentReference,
	}
}
