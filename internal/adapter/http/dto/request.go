package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/usecase"
)

// CreateAccountRequest represents a request to create a bank account.
type CreateAccountRequest struct {
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(companyID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		CompanyID:      companyID,
		Name:           r.Name,
		Currency:       r.Currency,
		OpeningBalance: r.OpeningBalance,
	}
}

// PostingRequest is the shared request shape for expenses and incomes.
type PostingRequest struct {
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Date        time.Time       `json:"date"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	ContactName string          `json:"contact_name,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PostingRequest) ToUseCaseInput(companyID string) usecase.PostingInput {
	return usecase.PostingInput{
		CompanyID:   companyID,
		AccountID:   r.AccountID,
		Amount:      r.Amount,
		Status:      domain.PostingStatus(r.Status),
		Date:        r.Date,
		Reference:   r.Reference,
		Description: r.Description,
		ContactName: r.ContactName,
	}
}

// AllocationRequest represents one settlement inside a payment request.
type AllocationRequest struct {
	Type        string          `json:"type"`
	BalanceType string          `json:"balance_type,omitempty"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	ReferenceID string          `json:"reference_id,omitempty"`
}

// CreatePaymentRequest represents a request to record a payment.
type CreatePaymentRequest struct {
	AccountID   string              `json:"account_id"`
	Type        string              `json:"type"`
	Amount      decimal.Decimal     `json:"amount"`
	Date        time.Time           `json:"date"`
	Reference   string              `json:"reference,omitempty"`
	ContactName string              `json:"contact_name,omitempty"`
	Allocations []AllocationRequest `json:"allocations,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePaymentRequest) ToUseCaseInput(companyID string) usecase.CreatePaymentInput {
	allocations := make([]usecase.AllocationInput, len(r.Allocations))
	for i, a := range r.Allocations {
		allocations[i] = usecase.AllocationInput{
			Type:        domain.AllocationType(a.Type),
			BalanceType: domain.BalanceType(a.BalanceType),
			PaidAmount:  a.PaidAmount,
			ReferenceID: a.ReferenceID,
		}
	}

	return usecase.CreatePaymentInput{
		CompanyID:   companyID,
		AccountID:   r.AccountID,
		Type:        domain.PaymentType(r.Type),
		Amount:      r.Amount,
		Date:        r.Date,
		Reference:   r.Reference,
		ContactName: r.ContactName,
		Allocations: allocations,
	}
}

// CreateTransferRequest represents a request to move money between accounts.
type CreateTransferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Reference     string          `json:"reference,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(companyID string) usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		CompanyID:     companyID,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        r.Amount,
		Date:          r.Date,
		Reference:     r.Reference,
		Description:   r.Description,
	}
}
