package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/norvantechnology/hisab/internal/adapter/http/dto"
	"github.com/norvantechnology/hisab/internal/usecase"
)

// StatementService defines the behavior needed by StatementHandler.
type StatementService interface {
	GetStatement(ctx context.Context, input usecase.StatementInput) (*usecase.Statement, error)
	ExportStatement(ctx context.Context, input usecase.ExportInput) ([]byte, error)
	GetTransactionTracking(ctx context.Context, input usecase.TrackingInput) (*usecase.Tracking, error)
	ReconcileAccount(ctx context.Context, companyID, accountID string) (*usecase.ReconciliationResult, error)
}

// StatementHandler serves the read-side account views.
type StatementHandler struct {
	statementUC StatementService
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(statementUC StatementService) *StatementHandler {
	return &StatementHandler{statementUC: statementUC}
}

// GetStatement returns the paginated, balance-annotated account statement.
func (h *StatementHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	dateRange, err := parseDateRange(r)
	if err != nil {
		writeError(w, mapDomainError(err), "invalid date range", err.Error())
		return
	}

	categories, err := parseCategories(r)
	if err != nil {
		writeError(w, mapDomainError(err), "invalid category filter", err.Error())
		return
	}

	statement, err := h.statementUC.GetStatement(r.Context(), usecase.StatementInput{
		CompanyID:  companyID,
		AccountID:  accountID,
		Range:      dateRange,
		Categories: categories,
		// Zero values defer to domain.ValidatePagination, the single
		// owner of the pagination defaults.
		Page:     parseIntQuery(r, "page", 0),
		PageSize: parseIntQuery(r, "page_size", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get statement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromDomain(statement))
}

// Export streams the full statement as a downloadable document.
func (h *StatementHandler) Export(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	dateRange, err := parseDateRange(r)
	if err != nil {
		writeError(w, mapDomainError(err), "invalid date range", err.Error())
		return
	}

	categories, err := parseCategories(r)
	if err != nil {
		writeError(w, mapDomainError(err), "invalid category filter", err.Error())
		return
	}

	document, err := h.statementUC.ExportStatement(r.Context(), usecase.ExportInput{
		CompanyID:  companyID,
		AccountID:  accountID,
		Range:      dateRange,
		Categories: categories,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to export statement", err.Error())
		return
	}

	filename := fmt.Sprintf("statement-%s-%s.csv", accountID, time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(document)
}

// Tracking returns the chronological transaction view with per-row impact.
func (h *StatementHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	dateRange, err := parseDateRange(r)
	if err != nil {
		writeError(w, mapDomainError(err), "invalid date range", err.Error())
		return
	}

	tracking, err := h.statementUC.GetTransactionTracking(r.Context(), usecase.TrackingInput{
		CompanyID:       companyID,
		AccountID:       accountID,
		Range:           dateRange,
		IncludePayments: r.URL.Query().Get("include_payments") != "false",
		Page:            parseIntQuery(r, "page", 0),
		PageSize:        parseIntQuery(r, "page_size", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction tracking", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TrackingFromDomain(tracking))
}

// Reconcile compares the recorded balance against the recomputed one.
func (h *StatementHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	companyID, err := requestCompanyID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing company scope", err.Error())
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.statementUC.ReconcileAccount(r.Context(), companyID, accountID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(result))
}
