package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Statement metrics
	StatementsServed  *prometheus.CounterVec
	StatementEvents   prometheus.Histogram
	StatementFailures *prometheus.CounterVec

	// Balance adjustment metrics
	AdjustmentsApplied prometheus.Counter
	AdjustmentFailures prometheus.Counter
	AdjustmentAmount   prometheus.Histogram

	// Sign resolver metrics
	AllocationSignFallbacks prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter

	// Transaction metrics
	TransactionsMutated *prometheus.CounterVec

	// Reconciliation metrics
	DriftDetected prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		StatementsServed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hisab_statements_served_total",
				Help: "Total statements served by mode",
			},
			[]string{"mode"},
		),
		StatementEvents: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hisab_statement_events",
			Help:    "Number of ledger events per statement",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		}),
		StatementFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hisab_statement_failures_total",
				Help: "Total statement aggregation failures by category",
			},
			[]string{"category"},
		),

		AdjustmentsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hisab_balance_adjustments_applied_total",
			Help: "Total balance deltas applied to accounts",
		}),
		AdjustmentFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hisab_balance_adjustment_failures_total",
			Help: "Total failed balance adjustment applications",
		}),
		AdjustmentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hisab_balance_adjustment_amount",
			Help:    "Absolute balance adjustment amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		AllocationSignFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hisab_allocation_sign_fallbacks_total",
			Help: "Allocations with unrecognized types resolved via the payment-type sign",
		}),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hisab_accounts_created_total",
			Help: "Total bank accounts created",
		}),

		TransactionsMutated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hisab_transactions_mutated_total",
				Help: "Total transaction mutations by category and operation",
			},
			[]string{"category", "operation"},
		),

		DriftDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hisab_reconciliation_drift_total",
			Help: "Reconciliation checks that found a current balance drift",
		}),
	}
}
