package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/infrastructure/metrics"
)

// StatementUseCase answers statement, export and tracking queries by
// aggregating the seven ledger categories into one ordered stream.
type StatementUseCase struct {
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
	renderer    DocumentRenderer
	cache       Cache
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewStatementUseCase creates a new StatementUseCase. Cache, metrics and
// renderer are optional.
func NewStatementUseCase(
	accountRepo AccountRepository,
	ledgerRepo LedgerRepository,
	renderer DocumentRenderer,
	cache Cache,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *StatementUseCase {
	return &StatementUseCase{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		renderer:    renderer,
		cache:       cache,
		metrics:     m,
		logger:      logger,
	}
}

// Summary aggregates a statement's totals. Inflows and outflows are summed
// from the signed amounts directly, never derived from running balances.
type Summary struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalInflows   decimal.Decimal `json:"total_inflows"`
	TotalOutflows  decimal.Decimal `json:"total_outflows"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

// ComputeRunningBalance walks the ordered events once, annotating each with
// the balance after it and summing inflows and outflows. An empty event set
// yields the opening balance and zero totals.
func ComputeRunningBalance(openingBalance decimal.Decimal, events []domain.LedgerEvent) ([]domain.LedgerEvent, Summary) {
	summary := Summary{
		OpeningBalance: openingBalance,
		TotalInflows:   decimal.Zero,
		TotalOutflows:  decimal.Zero,
		CurrentBalance: openingBalance,
	}

	balance := openingBalance
	for i := range events {
		balance = balance.Add(events[i].Amount)
		events[i].BalanceAfter = balance

		if events[i].Amount.IsPositive() {
			summary.TotalInflows = summary.TotalInflows.Add(events[i].Amount)
		} else if events[i].Amount.IsNegative() {
			summary.TotalOutflows = summary.TotalOutflows.Add(events[i].Amount.Abs())
		}
	}

	summary.CurrentBalance = balance

	return events, summary
}

// StatementInput represents a statement request.
type StatementInput struct {
	CompanyID  string
	AccountID  string
	Range      domain.DateRange
	Categories []domain.EventCategory
	Page       int
	PageSize   int
}

// Statement is a paginated, balance-annotated slice of the account ledger.
type Statement struct {
	Account    *domain.Account
	Events     []domain.LedgerEvent
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	Summary    Summary
}

// GetStatement aggregates, orders and paginates the account's ledger events.
func (uc *StatementUseCase) GetStatement(ctx context.Context, input StatementInput) (*Statement, error) {
	account, events, opening, err := uc.loadStatement(ctx, input.CompanyID, input.AccountID, input.Range, input.Categories)
	if err != nil {
		return nil, err
	}

	events, summary := ComputeRunningBalance(opening, events)
	// The persisted balance is authoritative for the summary; a filtered
	// statement's last running balance is not the account balance.
	summary.CurrentBalance = account.CurrentBalance

	page, pageSize := domain.ValidatePagination(input.Page, input.PageSize)
	total := len(events)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if uc.metrics != nil {
		uc.metrics.StatementsServed.WithLabelValues("statement").Inc()
		uc.metrics.StatementEvents.Observe(float64(total))
	}

	return &Statement{
		Account:    account,
		Events:     pageOf(events, page, pageSize),
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		Summary:    summary,
	}, nil
}

// ExportInput represents an unpaginated export request.
type ExportInput struct {
	CompanyID  string
	AccountID  string
	Range      domain.DateRange
	Categories []domain.EventCategory
}

// ExportStatement aggregates the full event set and hands it to the document
// rendering collaborator.
func (uc *StatementUseCase) ExportStatement(ctx context.Context, input ExportInput) ([]byte, error) {
	account, events, opening, err := uc.loadStatement(ctx, input.CompanyID, input.AccountID, input.Range, input.Categories)
	if err != nil {
		return nil, err
	}

	events, _ = ComputeRunningBalance(opening, events)

	if uc.metrics != nil {
		uc.metrics.StatementsServed.WithLabelValues("export").Inc()
	}

	return uc.renderer.RenderStatement(account, events, describeFilter(input.Range, input.Categories))
}

// TrackingInput represents a transaction tracking request.
type TrackingInput struct {
	CompanyID       string
	AccountID       string
	Range           domain.DateRange
	IncludePayments bool
	Page            int
	PageSize        int
}

// TrackingSummary aggregates the tracking view's totals.
type TrackingSummary struct {
	TotalTransactions int             `json:"total_transactions"`
	TotalCredits      decimal.Decimal `json:"total_credits"`
	TotalDebits       decimal.Decimal `json:"total_debits"`
	NetBalance        decimal.Decimal `json:"net_balance"`
}

// Tracking is the drill-down view with payment linkage metadata.
type Tracking struct {
	Account    *domain.Account
	Events     []domain.LedgerEvent
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	Summary    TrackingSummary
}

// GetTransactionTracking returns the ledger stream with settlement linkage.
// With IncludePayments false the payment and allocation categories are
// omitted and only directly posted records remain.
func (uc *StatementUseCase) GetTransactionTracking(ctx context.Context, input TrackingInput) (*Tracking, error) {
	categories := domain.AllCategories()
	if !input.IncludePayments {
		categories = []domain.EventCategory{
			domain.CategoryTransfer,
			domain.CategoryIncome,
			domain.CategoryExpense,
			domain.CategorySale,
			domain.CategoryPurchase,
		}
	}

	account, events, opening, err := uc.loadStatement(ctx, input.CompanyID, input.AccountID, input.Range, categories)
	if err != nil {
		return nil, err
	}

	events, balanceSummary := ComputeRunningBalance(opening, events)

	summary := TrackingSummary{
		TotalTransactions: len(events),
		TotalCredits:      balanceSummary.TotalInflows,
		TotalDebits:       balanceSummary.TotalOutflows,
		NetBalance:        balanceSummary.TotalInflows.Sub(balanceSummary.TotalOutflows),
	}

	page, pageSize := domain.ValidatePagination(input.Page, input.PageSize)
	total := len(events)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if uc.metrics != nil {
		uc.metrics.StatementsServed.WithLabelValues("tracking").Inc()
	}

	return &Tracking{
		Account:    account,
		Events:     pageOf(events, page, pageSize),
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		Summary:    summary,
	}, nil
}

// ReconciliationResult reports how far an account's persisted balance has
// drifted from the balance recomputed over its full event stream.
type ReconciliationResult struct {
	AccountID         string          `json:"account_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// ReconciliationCacheKey is the cache key for an account's drift check.
// Mutation collaborators delete it after adjusting the balance.
func ReconciliationCacheKey(accountID string) string {
	return "reconcile:" + accountID
}

// ReconcileAccount recomputes openingBalance plus the sum of every posted
// contribution and compares it to the persisted current balance.
func (uc *StatementUseCase) ReconcileAccount(ctx context.Context, companyID, accountID string) (*ReconciliationResult, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, ReconciliationCacheKey(accountID)); err == nil && cached != "" {
			var result ReconciliationResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return &result, nil
			}
		}
	}

	account, events, opening, err := uc.loadStatement(ctx, companyID, accountID, domain.DateRange{}, nil)
	if err != nil {
		return nil, err
	}

	_, summary := ComputeRunningBalance(opening, events)

	diff := account.CurrentBalance.Sub(summary.CurrentBalance)
	result := &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   account.CurrentBalance,
		CalculatedBalance: summary.CurrentBalance,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		CheckedAt:         time.Now().UTC(),
	}

	if !result.IsReconciled {
		if uc.metrics != nil {
			uc.metrics.DriftDetected.Inc()
		}
		uc.logger.Error().
			Str("account_id", accountID).
			Str("recorded", result.RecordedBalance.String()).
			Str("calculated", result.CalculatedBalance.String()).
			Msg("current balance drift detected")
	}

	if uc.cache != nil {
		if payload, err := json.Marshal(result); err == nil {
			_ = uc.cache.Set(ctx, ReconciliationCacheKey(accountID), string(payload), ReconciliationCacheTTL)
		}
	}

	return result, nil
}

// loadStatement validates scope and fetches the full ordered event set,
// along with the balance the requested window opens with.
func (uc *StatementUseCase) loadStatement(
	ctx context.Context,
	companyID, accountID string,
	r domain.DateRange,
	categories []domain.EventCategory,
) (*domain.Account, []domain.LedgerEvent, decimal.Decimal, error) {
	if err := r.Validate(); err != nil {
		return nil, nil, decimal.Zero, err
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, nil, decimal.Zero, err
	}
	if err := account.BelongsTo(companyID); err != nil {
		return nil, nil, decimal.Zero, err
	}
	if err := account.Usable(); err != nil {
		return nil, nil, decimal.Zero, err
	}

	events, err := uc.fetchEvents(ctx, accountID, r, categories)
	if err != nil {
		return nil, nil, decimal.Zero, err
	}

	opening, err := uc.openingAt(ctx, account, r.From)
	if err != nil {
		return nil, nil, decimal.Zero, err
	}

	return account, events, opening, nil
}

// openingAt resolves the balance a statement window starts from. Without a
// From bound this is the account's opening balance; with one it is that
// balance plus every contribution dated before the bound, across all
// categories, so the first in-range balanceAfter lines up with the account's
// real balance at that point.
func (uc *StatementUseCase) openingAt(ctx context.Context, account *domain.Account, from *time.Time) (decimal.Decimal, error) {
	if from == nil {
		return account.OpeningBalance, nil
	}

	prior, err := uc.fetchEvents(ctx, account.ID, domain.DateRange{To: from}, nil)
	if err != nil {
		return decimal.Zero, err
	}

	opening := account.OpeningBalance
	for _, e := range prior {
		if e.Date.Before(*from) {
			opening = opening.Add(e.Amount)
		}
	}
	return opening, nil
}

// fetchEvents runs one fetch per requested category concurrently, joins the
// results and stable-sorts them into the canonical statement order. Any
// category failure aborts the whole aggregation.
func (uc *StatementUseCase) fetchEvents(
	ctx context.Context,
	accountID string,
	r domain.DateRange,
	categories []domain.EventCategory,
) ([]domain.LedgerEvent, error) {
	if len(categories) == 0 {
		categories = domain.AllCategories()
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		events   []domain.LedgerEvent
		firstErr error
	)

	for _, category := range categories {
		wg.Add(1)

		go func(category domain.EventCategory) {
			defer wg.Done()

			fetched, err := uc.fetchCategory(ctx, accountID, r, category)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if uc.metrics != nil {
					uc.metrics.StatementFailures.WithLabelValues(string(category)).Inc()
				}
				uc.logger.Error().
					Err(err).
					Str("account_id", accountID).
					Str("category", string(category)).
					Msg("category fetch failed")

				if firstErr == nil {
					firstErr = fmt.Errorf("fetch %s events: %w", category, err)
				}

				return
			}

			events = append(events, fetched...)
		}(category)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Before(events[j])
	})

	return events, nil
}

func (uc *StatementUseCase) fetchCategory(
	ctx context.Context,
	accountID string,
	r domain.DateRange,
	category domain.EventCategory,
) ([]domain.LedgerEvent, error) {
	switch category {
	case domain.CategoryTransfer:
		transfers, err := uc.ledgerRepo.Transfers(ctx, accountID, r)
		if err != nil {
			return nil, err
		}
		events := make([]domain.LedgerEvent, 0, len(transfers))
		for _, t := range transfers {
			events = append(events, t.Event(accountID))
		}
		return events, nil

	case domain.CategoryIncome:
		incomes, err := uc.ledgerRepo.DirectIncomes(ctx, accountID, r)
		if err != nil {
			return nil, err
		}
		events := make([]domain.LedgerEvent, 0, len(incomes))
		for _, i := range incomes {
			events = append(events, i.Event())
		}
		return events, nil

	case domain.CategoryExpense:
		expenses, err := uc.ledgerRepo.DirectExpenses(ctx, accountID, r)
		if err != nil {
			return nil, err
		}
		events := make([]domain.LedgerEvent, 0, len(expenses))
		for _, e := range expenses {
			events = append(events, e.Event())
		}
		return events, nil

	case domain.CategorySale:
		sales, err := uc.ledgerRepo.DirectSales(ctx, accountID, r)
		if err != nil {
			return nil, err
		}
		events := make([]domain.LedgerEvent, 0, len(sales))
		for _, s := range sales {
			events = append(events, s.Event())
		}
		return events, nil

	case domain.CategoryPurchase:
		purchases, err := uc.ledgerRepo.DirectPurchases(ctx, accountID, r)
		if err != nil {
			return nil, err
		}
		events := make([]domain.LedgerEvent, 0, len(purchases))
		for _, p := range purchases {
			events = append(events, p.Event())
		}
		return events, nil

	case domain.CategoryPayment:
		payments, err := uc.ledgerRepo.StandalonePayments(ctx, accountID, r)
		if err != nil {
			return nil, err
		}
		events := make([]domain.LedgerEvent, 0, len(payments))
		for _, p := range payments {
			events = append(events, p.Event())
		}
		return events, nil

	case domain.CategoryAllocation:
		entries, err := uc.ledgerRepo.Allocations(ctx, accountID, r)
		if err != nil {
			return nil, err
		}
		events := make([]domain.LedgerEvent, 0, len(entries))
		for _, entry := range entries {
			if !entry.Allocation.Type.Known() {
				if uc.metrics != nil {
					uc.metrics.AllocationSignFallbacks.Inc()
				}
				uc.logger.Warn().
					Str("allocation_id", entry.Allocation.ID).
					Str("allocation_type", string(entry.Allocation.Type)).
					Msg("unrecognized allocation type, using payment-type sign")
			}
			events = append(events, entry.Event())
		}
		return events, nil
	}

	return nil, domain.ErrInvalidCategory
}

func pageOf(events []domain.LedgerEvent, page, pageSize int) []domain.LedgerEvent {
	offset := (page - 1) * pageSize
	if offset >= len(events) {
		return []domain.LedgerEvent{}
	}

	end := offset + pageSize
	if end > len(events) {
		end = len(events)
	}

	return events[offset:end]
}

func describeFilter(r domain.DateRange, categories []domain.EventCategory) string {
	var parts []string

	if r.From != nil {
		parts = append(parts, "from "+r.From.Format("2006-01-02"))
	}
	if r.To != nil {
		parts = append(parts, "to "+r.To.Format("2006-01-02"))
	}
	if len(categories) > 0 && len(categories) < len(domain.AllCategories()) {
		names := make([]string, len(categories))
		for i, c := range categories {
			names[i] = string(c)
		}
		parts = append(parts, "categories "+strings.Join(names, ","))
	}

	if len(parts) == 0 {
		return "all transactions"
	}

	return strings.Join(parts, ", ")
}
