package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/norvantechnology/hisab/internal/adapter/http/handler"
	"github.com/norvantechnology/hisab/internal/adapter/http/middleware"
	"github.com/norvantechnology/hisab/internal/infrastructure/auth"
	"github.com/norvantechnology/hisab/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	StatementHandler   *handler.StatementHandler
	TransactionHandler *handler.TransactionHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	RateLimiter        *middleware.RateLimiter
	JWTManager         *auth.JWTManager
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Company scope comes from the JWT when auth is enabled, from
		// the X-Company-ID header otherwise.
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		} else {
			r.Use(middleware.HeaderCompanyMiddleware)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts and their read-side views
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Delete("/{id}", cfg.AccountHandler.Delete)
			r.Get("/{id}/statement", cfg.StatementHandler.GetStatement)
			r.Get("/{id}/statement/export", cfg.StatementHandler.Export)
			r.Get("/{id}/tracking", cfg.StatementHandler.Tracking)
			r.Get("/{id}/reconciliation", cfg.StatementHandler.Reconcile)
		})

		// Expenses
		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.CreateExpense)
			r.Put("/{id}", cfg.TransactionHandler.UpdateExpense)
			r.Delete("/{id}", cfg.TransactionHandler.DeleteExpense)
		})

		// Incomes
		r.Route("/incomes", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.CreateIncome)
			r.Put("/{id}", cfg.TransactionHandler.UpdateIncome)
			r.Delete("/{id}", cfg.TransactionHandler.DeleteIncome)
		})

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.CreatePayment)
			r.Delete("/{id}", cfg.TransactionHandler.DeletePayment)
		})

		// Transfers
		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.CreateTransfer)
			r.Delete("/{id}", cfg.TransactionHandler.DeleteTransfer)
		})
	})

	return r
}
