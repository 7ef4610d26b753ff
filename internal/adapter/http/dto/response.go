package dto

import (
	"time"

	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/usecase"
)

// Monetary amounts are rendered with two decimal places at this boundary
// only; everything upstream works on exact decimals.

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Currency       string    `json:"currency"`
	OpeningBalance string    `json:"opening_balance"`
	CurrentBalance string    `json:"current_balance"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Currency:       a.Currency,
		OpeningBalance: a.OpeningBalance.StringFixed(2),
		CurrentBalance: a.CurrentBalance.StringFixed(2),
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// EventResponse represents one statement line.
type EventResponse struct {
	Category         string    `json:"category"`
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	Reference        string    `json:"reference,omitempty"`
	Description      string    `json:"description,omitempty"`
	Counterpart      string    `json:"counterpart,omitempty"`
	Amount           string    `json:"amount"`
	Direction        string    `json:"direction"`
	Impact           string    `json:"impact"`
	BalanceAfter     string    `json:"balance_after"`
	SourceID         string    `json:"source_id,omitempty"`
	SourceType       string    `json:"source_type,omitempty"`
	PaymentID        string    `json:"payment_id,omitempty"`
	PaymentReference string    `json:"payment_reference,omitempty"`
}

// EventFromDomain converts a ledger event to a response line.
func EventFromDomain(e domain.LedgerEvent) EventResponse {
	return EventResponse{
		Category:         string(e.Category),
		ID:               e.ID,
		Date:             e.Date,
		Reference:        e.Reference,
		Description:      e.Description,
		Counterpart:      e.Counterpart,
		Amount:           e.Amount.StringFixed(2),
		Direction:        e.Direction(),
		Impact:           string(e.Impact()),
		BalanceAfter:     e.BalanceAfter.StringFixed(2),
		SourceID:         e.SourceID,
		SourceType:       string(e.SourceType),
		PaymentID:        e.PaymentID,
		PaymentReference: e.PaymentReference,
	}
}

// EventsFromDomain converts ledger events to response lines.
func EventsFromDomain(events []domain.LedgerEvent) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, e := range events {
		result[i] = EventFromDomain(e)
	}
	return result
}

// SummaryResponse represents statement totals.
type SummaryResponse struct {
	OpeningBalance string `json:"opening_balance"`
	TotalInflows   string `json:"total_inflows"`
	TotalOutflows  string `json:"total_outflows"`
	CurrentBalance string `json:"current_balance"`
}

// SummaryFromDomain converts a statement summary.
func SummaryFromDomain(s usecase.Summary) SummaryResponse {
	return SummaryResponse{
		OpeningBalance: s.OpeningBalance.StringFixed(2),
		TotalInflows:   s.TotalInflows.StringFixed(2),
		TotalOutflows:  s.TotalOutflows.StringFixed(2),
		CurrentBalance: s.CurrentBalance.StringFixed(2),
	}
}

// StatementResponse represents a paginated statement.
type StatementResponse struct {
	Account    *AccountResponse `json:"account"`
	Events     []EventResponse  `json:"events"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	Summary    SummaryResponse  `json:"summary"`
}

// StatementFromDomain converts a statement.
func StatementFromDomain(s *usecase.Statement) *StatementResponse {
	return &StatementResponse{
		Account:    AccountFromDomain(s.Account),
		Events:     EventsFromDomain(s.Events),
		Page:       s.Page,
		PageSize:   s.PageSize,
		Total:      s.Total,
		TotalPages: s.TotalPages,
		Summary:    SummaryFromDomain(s.Summary),
	}
}

// TrackingSummaryResponse represents tracking totals.
type TrackingSummaryResponse struct {
	TotalTransactions int    `json:"total_transactions"`
	TotalCredits      string `json:"total_credits"`
	TotalDebits       string `json:"total_debits"`
	NetBalance        string `json:"net_balance"`
}

// TrackingResponse represents the transaction tracking view.
type TrackingResponse struct {
	Account    *AccountResponse        `json:"account"`
	Events     []EventResponse         `json:"events"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"total_pages"`
	Summary    TrackingSummaryResponse `json:"summary"`
}

// TrackingFromDomain converts a tracking result.
func TrackingFromDomain(t *usecase.Tracking) *TrackingResponse {
	return &TrackingResponse{
		Account:    AccountFromDomain(t.Account),
		Events:     EventsFromDomain(t.Events),
		Page:       t.Page,
		PageSize:   t.PageSize,
		Total:      t.Total,
		TotalPages: t.TotalPages,
		Summary: TrackingSummaryResponse{
			TotalTransactions: t.Summary.TotalTransactions,
			TotalCredits:      t.Summary.TotalCredits.StringFixed(2),
			TotalDebits:       t.Summary.TotalDebits.StringFixed(2),
			NetBalance:        t.Summary.NetBalance.StringFixed(2),
		},
	}
}

// ReconciliationResponse reports a drift check.
type ReconciliationResponse struct {
	AccountID         string    `json:"account_id"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	IsReconciled      bool      `json:"is_reconciled"`
	CheckedAt         time.Time `json:"checked_at"`
}

// ReconciliationFromDomain converts a reconciliation result.
func ReconciliationFromDomain(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   r.RecordedBalance.StringFixed(2),
		CalculatedBalance: r.CalculatedBalance.StringFixed(2),
		Difference:        r.Difference.StringFixed(2),
		IsReconciled:      r.IsReconciled,
		CheckedAt:         r.CheckedAt,
	}
}

// PostingResponse represents an expense or income record.
type PostingResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	Date        time.Time `json:"date"`
	Reference   string    `json:"reference,omitempty"`
	Description string    `json:"description,omitempty"`
	ContactName string    `json:"contact_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExpenseFromDomain converts an expense record.
func ExpenseFromDomain(e *domain.Expense) *PostingResponse {
	return &PostingResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Amount:      e.Amount.StringFixed(2),
		Status:      string(e.Status),
		Date:        e.Date,
		Reference:   e.Reference,
		Description: e.Description,
		ContactName: e.ContactName,
		CreatedAt:   e.CreatedAt,
	}
}

// IncomeFromDomain converts an income record.
func IncomeFromDomain(i *domain.Income) *PostingResponse {
	return &PostingResponse{
		ID:          i.ID,
		AccountID:   i.AccountID,
		Amount:      i.Amount.StringFixed(2),
		Status:      string(i.Status),
		Date:        i.Date,
		Reference:   i.Reference,
		Description: i.Description,
		ContactName: i.ContactName,
		CreatedAt:   i.CreatedAt,
	}
}

// PaymentResponse represents a payment record.
type PaymentResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Date        time.Time `json:"date"`
	Reference   string    `json:"reference,omitempty"`
	ContactName string    `json:"contact_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentFromDomain converts a payment record.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:          p.ID,
		AccountID:   p.AccountID,
		Type:        string(p.Type),
		Amount:      p.Amount.StringFixed(2),
		Date:        p.Date,
		Reference:   p.Reference,
		ContactName: p.ContactName,
		CreatedAt:   p.CreatedAt,
	}
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID            string    `json:"id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        string    `json:"amount"`
	Date          time.Time `json:"date"`
	Reference     string    `json:"reference,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	return &TransferResponse{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount.StringFixed(2),
		Date:          t.Date,
		Reference:     t.Reference,
		Description:   t.Description,
		CreatedAt:     t.CreatedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
