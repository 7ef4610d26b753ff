package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norvantechnology/hisab/internal/domain"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func day(n int) time.Time {
	return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC)
}

func at(n, hour int) time.Time {
	return time.Date(2024, 3, n, hour, 0, 0, 0, time.UTC)
}

func testAccount(opening, current string) *domain.Account {
	return &domain.Account{
		ID:             "acc-1",
		CompanyID:      "co-1",
		Name:           "Main",
		Currency:       "USD",
		OpeningBalance: d(opening),
		CurrentBalance: d(current),
		Active:         true,
	}
}

func newStatementUC(accountRepo AccountRepository, ledgerRepo LedgerRepository, renderer DocumentRenderer, cache Cache) *StatementUseCase {
	return NewStatementUseCase(accountRepo, ledgerRepo, renderer, cache, nil, zerolog.Nop())
}

// Mirrors the reference scenario: a paid expense of 200 on day 1 and a sale
// of 500 settled through an allocation on day 2. The sale must appear once,
// via the allocation path only.
func statementFixture() (*fakeAccountRepo, *fakeLedgerRepo) {
	accountRepo := newFakeAccountRepo(testAccount("1000", "1300"))
	ledgerRepo := &fakeLedgerRepo{
		expenses: []*domain.Expense{{
			ID: "exp-1", CompanyID: "co-1", AccountID: "acc-1",
			Amount: d("200"), Status: domain.StatusPaid,
			Date: day(1), CreatedAt: at(1, 9), Reference: "EXP-001",
		}},
		sales: []*domain.Sale{{
			ID: "sale-1", CompanyID: "co-1", AccountID: "acc-1",
			NetReceivable: d("500"), Status: domain.StatusPaid,
			InvoiceDate: day(2), CreatedAt: at(2, 9), InvoiceNumber: "INV-001", CustomerName: "Acme",
		}},
		payments: []*domain.Payment{{
			ID: "pay-1", CompanyID: "co-1", AccountID: "acc-1",
			Type: domain.PaymentReceipt, Amount: d("500"),
			Date: day(2), CreatedAt: at(2, 10), Reference: "PAY-001", ContactName: "Acme",
		}},
		allocations: []domain.AllocationEntry{{
			Allocation: domain.PaymentAllocation{
				ID: "alloc-1", PaymentID: "pay-1",
				Type: domain.AllocationSale, PaidAmount: d("500"), ReferenceID: "sale-1",
			},
			PaymentType:      domain.PaymentReceipt,
			PaymentDate:      day(2),
			PaymentCreatedAt: at(2, 10),
			PaymentReference: "PAY-001",
			ContactName:      "Acme",
		}},
	}
	return accountRepo, ledgerRepo
}

func TestGetStatement_ReferenceScenario(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)

	statement, err := uc.GetStatement(context.Background(), StatementInput{
		CompanyID: "co-1",
		AccountID: "acc-1",
	})
	require.NoError(t, err)

	require.Len(t, statement.Events, 2)

	expense := statement.Events[0]
	assert.Equal(t, domain.CategoryExpense, expense.Category)
	assert.True(t, expense.Amount.Equal(d("-200")), "amount = %s", expense.Amount)
	assert.True(t, expense.BalanceAfter.Equal(d("800")), "balanceAfter = %s", expense.BalanceAfter)

	settlement := statement.Events[1]
	assert.Equal(t, domain.CategoryAllocation, settlement.Category)
	assert.True(t, settlement.Amount.Equal(d("500")), "amount = %s", settlement.Amount)
	assert.True(t, settlement.BalanceAfter.Equal(d("1300")), "balanceAfter = %s", settlement.BalanceAfter)
	assert.Equal(t, "sale-1", settlement.SourceID)

	assert.True(t, statement.Summary.TotalInflows.Equal(d("500")))
	assert.True(t, statement.Summary.TotalOutflows.Equal(d("200")))
	assert.True(t, statement.Summary.CurrentBalance.Equal(d("1300")))
	assert.True(t, statement.Summary.OpeningBalance.Equal(d("1000")))
}

func TestGetStatement_NoDoubleCounting(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)

	statement, err := uc.GetStatement(context.Background(), StatementInput{
		CompanyID: "co-1",
		AccountID: "acc-1",
	})
	require.NoError(t, err)

	saleAppearances := 0
	for _, ev := range statement.Events {
		require.NotEqual(t, domain.CategorySale, ev.Category, "allocation-settled sale leaked through the direct path")
		require.NotEqual(t, domain.CategoryPayment, ev.Category, "itemized payment leaked through the standalone path")
		if ev.SourceID == "sale-1" {
			saleAppearances++
		}
	}
	assert.Equal(t, 1, saleAppearances)
}

func TestGetStatement_OrderingDeterminism(t *testing.T) {
	accountRepo := newFakeAccountRepo(testAccount("0", "0"))
	// Two incomes on the same date distinguished only by createdAt, plus a
	// later transfer.
	ledgerRepo := &fakeLedgerRepo{
		incomes: []*domain.Income{
			{ID: "inc-b", CompanyID: "co-1", AccountID: "acc-1", Amount: d("10"), Status: domain.StatusPaid, Date: day(1), CreatedAt: at(1, 17)},
			{ID: "inc-a", CompanyID: "co-1", AccountID: "acc-1", Amount: d("20"), Status: domain.StatusPaid, Date: day(1), CreatedAt: at(1, 9)},
		},
		transfers: []*domain.Transfer{
			{ID: "tr-1", CompanyID: "co-1", FromAccountID: "acc-1", ToAccountID: "acc-2", Amount: d("5"), Date: day(2), CreatedAt: at(2, 9)},
		},
	}
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)

	var previous []string
	for run := 0; run < 5; run++ {
		statement, err := uc.GetStatement(context.Background(), StatementInput{CompanyID: "co-1", AccountID: "acc-1"})
		require.NoError(t, err)

		ids := make([]string, len(statement.Events))
		for i, ev := range statement.Events {
			ids[i] = ev.ID
		}

		require.Equal(t, []string{"inc-a", "inc-b", "tr-1"}, ids)
		if previous != nil {
			require.Equal(t, previous, ids)
		}
		previous = ids
	}
}

func TestGetStatement_PaginationConsistency(t *testing.T) {
	accountRepo := newFakeAccountRepo(testAccount("0", "0"))
	ledgerRepo := &fakeLedgerRepo{}
	for i := 1; i <= 7; i++ {
		ledgerRepo.incomes = append(ledgerRepo.incomes, &domain.Income{
			ID: "inc-" + string(rune('a'+i-1)), CompanyID: "co-1", AccountID: "acc-1",
			Amount: d("10"), Status: domain.StatusPaid, Date: day(i), CreatedAt: at(i, 9),
		})
	}
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)

	full, err := uc.GetStatement(context.Background(), StatementInput{CompanyID: "co-1", AccountID: "acc-1", PageSize: 100})
	require.NoError(t, err)
	require.Equal(t, 7, full.Total)

	var concatenated []domain.LedgerEvent
	for page := 1; page <= 3; page++ {
		partial, err := uc.GetStatement(context.Background(), StatementInput{
			CompanyID: "co-1", AccountID: "acc-1", Page: page, PageSize: 3,
		})
		require.NoError(t, err)
		require.Equal(t, 7, partial.Total)
		require.Equal(t, 3, partial.TotalPages)
		concatenated = append(concatenated, partial.Events...)
	}

	require.Equal(t, full.Events, concatenated)
}

func TestGetStatement_CategoryFilter(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)

	statement, err := uc.GetStatement(context.Background(), StatementInput{
		CompanyID:  "co-1",
		AccountID:  "acc-1",
		Categories: []domain.EventCategory{domain.CategoryExpense},
	})
	require.NoError(t, err)
	require.Len(t, statement.Events, 1)
	assert.Equal(t, domain.CategoryExpense, statement.Events[0].Category)
}

func TestGetStatement_DateRangeFilter(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)

	from := day(2)
	statement, err := uc.GetStatement(context.Background(), StatementInput{
		CompanyID: "co-1",
		AccountID: "acc-1",
		Range:     domain.DateRange{From: &from},
	})
	require.NoError(t, err)
	require.Len(t, statement.Events, 1)
	assert.Equal(t, domain.CategoryAllocation, statement.Events[0].Category)
}

func TestGetStatement_DateRangeBalancesSeedAtRangeStart(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)

	// The day-1 expense is outside the window but still happened: the
	// in-range settlement must land on 1300, not opening + 500.
	from := day(2)
	statement, err := uc.GetStatement(context.Background(), StatementInput{
		CompanyID: "co-1",
		AccountID: "acc-1",
		Range:     domain.DateRange{From: &from},
	})
	require.NoError(t, err)

	require.Len(t, statement.Events, 1)
	assert.True(t, statement.Summary.OpeningBalance.Equal(d("800")), "openingBalance = %s", statement.Summary.OpeningBalance)
	assert.True(t, statement.Events[0].BalanceAfter.Equal(d("1300")), "balanceAfter = %s", statement.Events[0].BalanceAfter)
	assert.True(t, statement.Summary.CurrentBalance.Equal(d("1300")))
}

func TestExportStatement_DateRangeBalancesSeedAtRangeStart(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	renderer := &fakeRenderer{}
	uc := newStatementUC(accountRepo, ledgerRepo, renderer, nil)

	from := day(2)
	_, err := uc.ExportStatement(context.Background(), ExportInput{
		CompanyID: "co-1",
		AccountID: "acc-1",
		Range:     domain.DateRange{From: &from},
	})
	require.NoError(t, err)

	require.Len(t, renderer.lastEvents, 1)
	assert.True(t, renderer.lastEvents[0].BalanceAfter.Equal(d("1300")), "balanceAfter = %s", renderer.lastEvents[0].BalanceAfter)
}

func TestGetStatement_Errors(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)
	ctx := context.Background()

	t.Run("unknown account", func(t *testing.T) {
		_, err := uc.GetStatement(ctx, StatementInput{CompanyID: "co-1", AccountID: "missing"})
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("foreign company scope reads as not found", func(t *testing.T) {
		_, err := uc.GetStatement(ctx, StatementInput{CompanyID: "co-2", AccountID: "acc-1"})
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("deleted account", func(t *testing.T) {
		deletedAt := day(3)
		accountRepo.accounts["acc-1"].DeletedAt = &deletedAt
		defer func() { accountRepo.accounts["acc-1"].DeletedAt = nil }()

		_, err := uc.GetStatement(ctx, StatementInput{CompanyID: "co-1", AccountID: "acc-1"})
		require.ErrorIs(t, err, domain.ErrAccountDeleted)
	})

	t.Run("inactive account", func(t *testing.T) {
		accountRepo.accounts["acc-1"].Active = false
		defer func() { accountRepo.accounts["acc-1"].Active = true }()

		_, err := uc.GetStatement(ctx, StatementInput{CompanyID: "co-1", AccountID: "acc-1"})
		require.ErrorIs(t, err, domain.ErrAccountInactive)
	})

	t.Run("inverted date range", func(t *testing.T) {
		from, to := day(5), day(1)
		_, err := uc.GetStatement(ctx, StatementInput{
			CompanyID: "co-1", AccountID: "acc-1",
			Range: domain.DateRange{From: &from, To: &to},
		})
		require.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("category fetch failure aborts aggregation", func(t *testing.T) {
		ledgerRepo.failCategory = domain.CategorySale
		ledgerRepo.failErr = errors.New("db down")
		defer func() { ledgerRepo.failErr = nil }()

		_, err := uc.GetStatement(ctx, StatementInput{CompanyID: "co-1", AccountID: "acc-1"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "db down")
	})
}

func TestComputeRunningBalance(t *testing.T) {
	t.Run("empty event set", func(t *testing.T) {
		events, summary := ComputeRunningBalance(d("250"), nil)
		assert.Empty(t, events)
		assert.True(t, summary.CurrentBalance.Equal(d("250")))
		assert.True(t, summary.TotalInflows.IsZero())
		assert.True(t, summary.TotalOutflows.IsZero())
	})

	t.Run("prefix sums", func(t *testing.T) {
		events := []domain.LedgerEvent{
			{Amount: d("-200")},
			{Amount: d("500")},
			{Amount: d("-50.25")},
		}

		annotated, summary := ComputeRunningBalance(d("1000"), events)

		require.Len(t, annotated, 3)
		assert.True(t, annotated[0].BalanceAfter.Equal(d("800")))
		assert.True(t, annotated[1].BalanceAfter.Equal(d("1300")))
		assert.True(t, annotated[2].BalanceAfter.Equal(d("1249.75")))
		assert.True(t, summary.TotalInflows.Equal(d("500")))
		assert.True(t, summary.TotalOutflows.Equal(d("250.25")))
		assert.True(t, summary.CurrentBalance.Equal(d("1249.75")))
	})
}

func TestExportStatement(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	renderer := &fakeRenderer{}
	uc := newStatementUC(accountRepo, ledgerRepo, renderer, nil)

	from := day(1)
	doc, err := uc.ExportStatement(context.Background(), ExportInput{
		CompanyID: "co-1",
		AccountID: "acc-1",
		Range:     domain.DateRange{From: &from},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("document for acc-1"), doc)

	// The renderer receives the full balance-annotated set, not a page.
	require.Len(t, renderer.lastEvents, 2)
	assert.True(t, renderer.lastEvents[1].BalanceAfter.Equal(d("1300")))
	assert.Contains(t, renderer.lastFilter, "from 2024-03-01")
}

func TestGetTransactionTracking(t *testing.T) {
	accountRepo, ledgerRepo := statementFixture()
	uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)
	ctx := context.Background()

	t.Run("with payments", func(t *testing.T) {
		tracking, err := uc.GetTransactionTracking(ctx, TrackingInput{
			CompanyID: "co-1", AccountID: "acc-1", IncludePayments: true,
		})
		require.NoError(t, err)
		require.Len(t, tracking.Events, 2)

		settlement := tracking.Events[1]
		assert.Equal(t, "pay-1", settlement.PaymentID)
		assert.Equal(t, "PAY-001", settlement.PaymentReference)
		assert.Equal(t, domain.ImpactCredit, settlement.Impact())
		assert.Equal(t, domain.ImpactDebit, tracking.Events[0].Impact())

		assert.Equal(t, 2, tracking.Summary.TotalTransactions)
		assert.True(t, tracking.Summary.TotalCredits.Equal(d("500")))
		assert.True(t, tracking.Summary.TotalDebits.Equal(d("200")))
		assert.True(t, tracking.Summary.NetBalance.Equal(d("300")))
	})

	t.Run("without payments", func(t *testing.T) {
		tracking, err := uc.GetTransactionTracking(ctx, TrackingInput{
			CompanyID: "co-1", AccountID: "acc-1", IncludePayments: false,
		})
		require.NoError(t, err)
		require.Len(t, tracking.Events, 1)
		assert.Equal(t, domain.CategoryExpense, tracking.Events[0].Category)
	})
}

func TestReconcileAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciled account", func(t *testing.T) {
		accountRepo, ledgerRepo := statementFixture()
		cache := newFakeCache()
		uc := newStatementUC(accountRepo, ledgerRepo, nil, cache)

		result, err := uc.ReconcileAccount(ctx, "co-1", "acc-1")
		require.NoError(t, err)
		assert.True(t, result.IsReconciled)
		assert.True(t, result.Difference.IsZero())
		assert.True(t, result.CalculatedBalance.Equal(d("1300")))

		// Second call is served from cache.
		cached, err := uc.ReconcileAccount(ctx, "co-1", "acc-1")
		require.NoError(t, err)
		assert.Equal(t, result.CheckedAt.Unix(), cached.CheckedAt.Unix())
	})

	t.Run("drifted account", func(t *testing.T) {
		accountRepo, ledgerRepo := statementFixture()
		accountRepo.accounts["acc-1"].CurrentBalance = d("1400")
		uc := newStatementUC(accountRepo, ledgerRepo, nil, nil)

		result, err := uc.ReconcileAccount(ctx, "co-1", "acc-1")
		require.NoError(t, err)
		assert.False(t, result.IsReconciled)
		assert.True(t, result.Difference.Equal(d("100")))
	})
}
