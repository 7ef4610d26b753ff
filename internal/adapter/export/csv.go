package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/norvantechnology/hisab/internal/domain"
)

// CSVRenderer renders account statements as CSV documents.
type CSVRenderer struct{}

// NewCSVRenderer creates a new CSVRenderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// RenderStatement writes the full annotated event set as CSV. The header
// block carries the account identity and the applied filter so an exported
// file is self-describing.
func (r *CSVRenderer) RenderStatement(account *domain.Account, events []domain.LedgerEvent, filterDescription string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := [][]string{
		{"Account", account.Name},
		{"Currency", account.Currency},
		{"Opening Balance", account.OpeningBalance.StringFixed(2)},
	}
	if filterDescription != "" {
		header = append(header, []string{"Filter", filterDescription})
	}
	header = append(header, []string{})

	for _, row := range header {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write header row: %w", err)
		}
	}

	columns := []string{"Date", "Category", "Reference", "Description", "Counterpart", "Amount", "Direction", "Balance After"}
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write column row: %w", err)
	}

	for _, e := range events {
		row := []string{
			e.Date.UTC().Format(time.RFC3339),
			string(e.Category),
			e.Reference,
			e.Description,
			e.Counterpart,
			e.Amount.StringFixed(2),
			e.Direction(),
			e.BalanceAfter.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write event row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush document: %w", err)
	}

	return buf.Bytes(), nil
}
