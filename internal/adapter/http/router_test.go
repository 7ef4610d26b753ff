package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/norvantechnology/hisab/internal/adapter/http/handler"
	apimiddleware "github.com/norvantechnology/hisab/internal/adapter/http/middleware"
	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_MissingCompanyHeaderRejected(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected missing company header to be rejected, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"name":"Main","currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.CompanyIDHeader, "co-1")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"DELETE /api/v1/accounts/{id}",
		"GET /api/v1/accounts/{id}/statement",
		"GET /api/v1/accounts/{id}/statement/export",
		"GET /api/v1/accounts/{id}/tracking",
		"GET /api/v1/accounts/{id}/reconciliation",
		"POST /api/v1/expenses/",
		"PUT /api/v1/expenses/{id}",
		"DELETE /api/v1/expenses/{id}",
		"POST /api/v1/incomes/",
		"PUT /api/v1/incomes/{id}",
		"DELETE /api/v1/incomes/{id}",
		"POST /api/v1/payments/",
		"DELETE /api/v1/payments/{id}",
		"POST /api/v1/transfers/",
		"DELETE /api/v1/transfers/{id}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:      &handler.HealthHandler{},
		AccountHandler:     handler.NewAccountHandler(&stubAccountService{}),
		StatementHandler:   handler.NewStatementHandler(&stubStatementService{}),
		TransactionHandler: handler.NewTransactionHandler(&stubTransactionService{}),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAccountService struct{}

func (stubAccountService) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "acc"}, nil
}

func (stubAccountService) GetAccount(ctx context.Context, companyID, id string) (*domain.Account, error) {
	return &domain.Account{ID: id}, nil
}

func (stubAccountService) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

func (stubAccountService) DeleteAccount(ctx context.Context, companyID, id string) error {
	return nil
}

type stubStatementService struct{}

func (stubStatementService) GetStatement(ctx context.Context, input usecase.StatementInput) (*usecase.Statement, error) {
	return &usecase.Statement{Account: &domain.Account{ID: input.AccountID}}, nil
}

func (stubStatementService) ExportStatement(ctx context.Context, input usecase.ExportInput) ([]byte, error) {
	return []byte("csv"), nil
}

func (stubStatementService) GetTransactionTracking(ctx context.Context, input usecase.TrackingInput) (*usecase.Tracking, error) {
	return &usecase.Tracking{Account: &domain.Account{ID: input.AccountID}}, nil
}

func (stubStatementService) ReconcileAccount(ctx context.Context, companyID, accountID string) (*usecase.ReconciliationResult, error) {
	return &usecase.ReconciliationResult{AccountID: accountID}, nil
}

type stubTransactionService struct{}

func (stubTransactionService) CreateExpense(ctx context.Context, input usecase.PostingInput) (*domain.Expense, error) {
	return &domain.Expense{ID: "exp"}, nil
}

func (stubTransactionService) UpdateExpense(ctx context.Context, id string, input usecase.PostingInput) (*domain.Expense, error) {
	return &domain.Expense{ID: id}, nil
}

func (stubTransactionService) DeleteExpense(ctx context.Context, companyID, id string) error {
	return nil
}

func (stubTransactionService) CreateIncome(ctx context.Context, input usecase.PostingInput) (*domain.Income, error) {
	return &domain.Income{ID: "inc"}, nil
}

func (stubTransactionService) UpdateIncome(ctx context.Context, id string, input usecase.PostingInput) (*domain.Income, error) {
	return &domain.Income{ID: id}, nil
}

func (stubTransactionService) DeleteIncome(ctx context.Context, companyID, id string) error {
	return nil
}

func (stubTransactionService) CreatePayment(ctx context.Context, input usecase.CreatePaymentInput) (*domain.Payment, error) {
	return &domain.Payment{ID: "pay"}, nil
}

func (stubTransactionService) DeletePayment(ctx context.Context, companyID, id string) error {
	return nil
}

func (stubTransactionService) CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*domain.Transfer, error) {
	return &domain.Transfer{ID: "transfer"}, nil
}

func (stubTransactionService) DeleteTransfer(ctx context.Context, companyID, id string) error {
	return nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
