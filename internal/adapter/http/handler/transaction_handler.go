package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/norvantechnology/hisab/internal/adapter/http/dto"
	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateExpense(ctx context.Context, input usecase.PostingInput) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, id string, input usecase.PostingInput) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, companyID, id string) error

	CreateIncome(ctx context.Context, input usecase.PostingInput) (*domain.Income, error)
	UpdateIncome(ctx context.Context, id string, input usecase.PostingInput) (*domain.Income, error)
	DeleteIncome(ctx context.Context, companyID, id string) error

	CreatePayment(ctx context.Context, input usecase.CreatePaymentInput) (*domain.Payment, error)
	DeletePayment(ctx context.Context, companyID, id string) error

	CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*domain.Transfer, error)
	DeleteTransfer(ctx context.Context, companyID, id string) error
}

// TransactionHandler handles the write-side transaction endpoints.
type TransactionHandler struct {
	txnUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txnUC TransactionService) *TransactionHandler {
	return &TransactionHandler{txnUC: txnUC}
}

// CreateExpense records a new expense.
func (h *TransactionHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	var req dto.PostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	expense, err := h.txnUC.CreateExpense(r.Context(), req.ToUseCaseInput(companyID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create expense", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ExpenseFromDomain(expense))
}

// UpdateExpense replaces an expense's amount, status, date or account.
func (h *TransactionHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing expense ID", "")
		return
	}

	var req dto.PostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	expense, err := h.txnUC.UpdateExpense(r.Context(), id, req.ToUseCaseInput(companyID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update expense", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpenseFromDomain(expense))
}

// DeleteExpense soft-deletes an expense and reverses its balance effect.
func (h *TransactionHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "failed to delete expense", h.txnUC.DeleteExpense)
}

// CreateIncome records a new income.
func (h *TransactionHandler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	var req dto.PostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	income, err := h.txnUC.CreateIncome(r.Context(), req.ToUseCaseInput(companyID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create income", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.IncomeFromDomain(income))
}

// UpdateIncome replaces an income's amount, status, date or account.
func (h *TransactionHandler) UpdateIncome(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing income ID", "")
		return
	}

	var req dto.PostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	income, err := h.txnUC.UpdateIncome(r.Context(), id, req.ToUseCaseInput(companyID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update income", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.IncomeFromDomain(income))
}

// DeleteIncome soft-deletes an income and reverses its balance effect.
func (h *TransactionHandler) DeleteIncome(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "failed to delete income", h.txnUC.DeleteIncome)
}

// CreatePayment records a standalone or itemized payment.
func (h *TransactionHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	var req dto.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	payment, err := h.txnUC.CreatePayment(r.Context(), req.ToUseCaseInput(companyID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create payment", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentFromDomain(payment))
}

// DeletePayment soft-deletes a payment and reverses its balance effect.
func (h *TransactionHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "failed to delete payment", h.txnUC.DeletePayment)
}

// CreateTransfer moves money between two accounts.
func (h *TransactionHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transfer, err := h.txnUC.CreateTransfer(r.Context(), req.ToUseCaseInput(companyID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// DeleteTransfer soft-deletes a transfer and restores both balances.
func (h *TransactionHandler) DeleteTransfer(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "failed to delete transfer", h.txnUC.DeleteTransfer)
}

func (h *TransactionHandler) delete(w http.ResponseWriter, r *http.Request, msg string, fn func(ctx context.Context, companyID, id string) error) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing ID", "")
		return
	}

	if err := fn(r.Context(), companyID, id); err != nil {
		writeError(w, mapDomainError(err), msg, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
