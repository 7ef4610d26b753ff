package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/norvantechnology/hisab/internal/domain"
)

func TestRenderStatement(t *testing.T) {
	account := &domain.Account{
		Name:           "Main Checking",
		Currency:       "USD",
		OpeningBalance: decimal.RequireFromString("1000"),
	}
	events := []domain.LedgerEvent{
		{
			Category:     domain.CategoryExpense,
			ID:           "exp-1",
			Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Reference:    "EXP-001",
			Amount:       decimal.RequireFromString("-200"),
			BalanceAfter: decimal.RequireFromString("800"),
		},
		{
			Category:     domain.CategoryAllocation,
			ID:           "alloc-1",
			Date:         time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Counterpart:  "Acme Corp",
			Amount:       decimal.RequireFromString("500"),
			BalanceAfter: decimal.RequireFromString("1300"),
		},
	}

	doc, err := NewCSVRenderer().RenderStatement(account, events, "from 2024-03-01 to 2024-03-31")
	if err != nil {
		t.Fatalf("RenderStatement failed: %v", err)
	}

	reader := csv.NewReader(bytes.NewReader(doc))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}

	// 4 header rows, column row, 2 event rows; the blank separator line is
	// skipped by the reader.
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	if rows[0][1] != "Main Checking" {
		t.Fatalf("expected account name header, got %v", rows[0])
	}
	if rows[3][1] != "from 2024-03-01 to 2024-03-31" {
		t.Fatalf("expected filter header, got %v", rows[3])
	}

	expense := rows[5]
	if expense[1] != "direct_expense" || expense[5] != "-200.00" || expense[6] != "out" || expense[7] != "800.00" {
		t.Fatalf("unexpected expense row: %v", expense)
	}

	allocation := rows[6]
	if allocation[1] != "payment_allocation" || allocation[4] != "Acme Corp" || allocation[7] != "1300.00" {
		t.Fatalf("unexpected allocation row: %v", allocation)
	}
}

func TestRenderStatement_NoFilter(t *testing.T) {
	account := &domain.Account{Name: "Main", Currency: "USD"}

	doc, err := NewCSVRenderer().RenderStatement(account, nil, "")
	if err != nil {
		t.Fatalf("RenderStatement failed: %v", err)
	}

	reader := csv.NewReader(bytes.NewReader(doc))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}

	// 3 header rows and the column row
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
}
