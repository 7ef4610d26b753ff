package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/norvantechnology/hisab/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository. Every query is
// scoped to one account and non-deleted rows; the direct fetches exclude
// records that were settled through allocations, and the payments fetch
// excludes itemized payments. De-duplication lives here, in the SQL, so the
// aggregator can blindly union the seven categories.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// rangeArgs turns the optional date window into nullable query arguments.
// The queries treat a NULL bound as unbounded.
func rangeArgs(r domain.DateRange) (pgtype.Timestamptz, pgtype.Timestamptz) {
	var from, to pgtype.Timestamptz
	if r.From != nil {
		from = timeToPgTimestamptz(*r.From)
	}
	if r.To != nil {
		to = timeToPgTimestamptz(*r.To)
	}
	return from, to
}

// Transfers fetches transfers touching the account on either side.
func (r *LedgerRepository) Transfers(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Transfer, error) {
	query := `
		SELECT id, company_id, from_account_id, to_account_id, amount, date, reference, description, created_at
		FROM transfers
		WHERE (from_account_id = $1 OR to_account_id = $1)
		  AND deleted_at IS NULL
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date <= $3)
	`

	from, to := rangeArgs(rng)
	rows, err := r.pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*domain.Transfer
	for rows.Next() {
		var (
			t      domain.Transfer
			amount pgtype.Numeric
		)
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.FromAccountID, &t.ToAccountID, &amount, &t.Date, &t.Reference, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Amount = numericToDecimal(amount)
		transfers = append(transfers, &t)
	}

	return transfers, rows.Err()
}

// DirectIncomes fetches paid incomes not settled through an allocation.
func (r *LedgerRepository) DirectIncomes(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Income, error) {
	query := `
		SELECT i.id, i.company_id, i.account_id, i.amount, i.status, i.date, i.reference, i.description, i.contact_name, i.created_at
		FROM incomes i
		WHERE i.account_id = $1
		  AND i.deleted_at IS NULL
		  AND i.status = 'paid'
		  AND NOT EXISTS (
			SELECT 1
			FROM payment_allocations pa
			JOIN payments p ON p.id = pa.payment_id AND p.deleted_at IS NULL
			WHERE pa.reference_id = i.id AND pa.type = 'income'
		  )
		  AND ($2::timestamptz IS NULL OR i.date >= $2)
		  AND ($3::timestamptz IS NULL OR i.date <= $3)
	`

	from, to := rangeArgs(rng)
	rows, err := r.pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incomes []*domain.Income
	for rows.Next() {
		var (
			i      domain.Income
			amount pgtype.Numeric
		)
		if err := rows.Scan(&i.ID, &i.CompanyID, &i.AccountID, &amount, &i.Status, &i.Date, &i.Reference, &i.Description, &i.ContactName, &i.CreatedAt); err != nil {
			return nil, err
		}
		i.Amount = numericToDecimal(amount)
		incomes = append(incomes, &i)
	}

	return incomes, rows.Err()
}

// DirectExpenses fetches paid expenses not settled through an allocation.
func (r *LedgerRepository) DirectExpenses(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Expense, error) {
	query := `
		SELECT e.id, e.company_id, e.account_id, e.amount, e.status, e.date, e.reference, e.description, e.contact_name, e.created_at
		FROM expenses e
		WHERE e.account_id = $1
		  AND e.deleted_at IS NULL
		  AND e.status = 'paid'
		  AND NOT EXISTS (
			SELECT 1
			FROM payment_allocations pa
			JOIN payments p ON p.id = pa.payment_id AND p.deleted_at IS NULL
			WHERE pa.reference_id = e.id AND pa.type = 'expense'
		  )
		  AND ($2::timestamptz IS NULL OR e.date >= $2)
		  AND ($3::timestamptz IS NULL OR e.date <= $3)
	`

	from, to := rangeArgs(rng)
	rows, err := r.pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*domain.Expense
	for rows.Next() {
		var (
			e      domain.Expense
			amount pgtype.Numeric
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.AccountID, &amount, &e.Status, &e.Date, &e.Reference, &e.Description, &e.ContactName, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Amount = numericToDecimal(amount)
		expenses = append(expenses, &e)
	}

	return expenses, rows.Err()
}

// DirectSales fetches settled sales invoices not covered by allocations.
func (r *LedgerRepository) DirectSales(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Sale, error) {
	query := `
		SELECT s.id, s.company_id, s.account_id, s.net_receivable, s.status, s.invoice_number, s.invoice_date, s.customer_name, s.created_at
		FROM sales s
		WHERE s.account_id = $1
		  AND s.deleted_at IS NULL
		  AND s.status = 'paid'
		  AND NOT EXISTS (
			SELECT 1
			FROM payment_allocations pa
			JOIN payments p ON p.id = pa.payment_id AND p.deleted_at IS NULL
			WHERE pa.reference_id = s.id AND pa.type = 'sale'
		  )
		  AND ($2::timestamptz IS NULL OR s.invoice_date >= $2)
		  AND ($3::timestamptz IS NULL OR s.invoice_date <= $3)
	`

	from, to := rangeArgs(rng)
	rows, err := r.pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*domain.Sale
	for rows.Next() {
		var (
			s      domain.Sale
			amount pgtype.Numeric
		)
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.AccountID, &amount, &s.Status, &s.InvoiceNumber, &s.InvoiceDate, &s.CustomerName, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.NetReceivable = numericToDecimal(amount)
		sales = append(sales, &s)
	}

	return sales, rows.Err()
}

// DirectPurchases fetches settled purchase invoices not covered by
// allocations.
func (r *LedgerRepository) DirectPurchases(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Purchase, error) {
	query := `
		SELECT p.id, p.company_id, p.account_id, p.net_payable, p.status, p.invoice_number, p.invoice_date, p.supplier_name, p.created_at
		FROM purchases p
		WHERE p.account_id = $1
		  AND p.deleted_at IS NULL
		  AND p.status = 'paid'
		  AND NOT EXISTS (
			SELECT 1
			FROM payment_allocations pa
			JOIN payments pay ON pay.id = pa.payment_id AND pay.deleted_at IS NULL
			WHERE pa.reference_id = p.id AND pa.type = 'purchase'
		  )
		  AND ($2::timestamptz IS NULL OR p.invoice_date >= $2)
		  AND ($3::timestamptz IS NULL OR p.invoice_date <= $3)
	`

	from, to := rangeArgs(rng)
	rows, err := r.pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []*domain.Purchase
	for rows.Next() {
		var (
			p      domain.Purchase
			amount pgtype.Numeric
		)
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.AccountID, &amount, &p.Status, &p.InvoiceNumber, &p.InvoiceDate, &p.SupplierName, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.NetPayable = numericToDecimal(amount)
		purchases = append(purchases, &p)
	}

	return purchases, rows.Err()
}

// StandalonePayments fetches payments without allocation rows. Itemized
// payments contribute through their allocations instead.
func (r *LedgerRepository) StandalonePayments(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Payment, error) {
	query := `
		SELECT p.id, p.company_id, p.account_id, p.type, p.amount, p.date, p.reference, p.contact_name, p.created_at
		FROM payments p
		WHERE p.account_id = $1
		  AND p.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM payment_allocations pa WHERE pa.payment_id = p.id
		  )
		  AND ($2::timestamptz IS NULL OR p.date >= $2)
		  AND ($3::timestamptz IS NULL OR p.date <= $3)
	`

	from, to := rangeArgs(rng)
	rows, err := r.pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		var (
			p      domain.Payment
			amount pgtype.Numeric
		)
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.AccountID, &p.Type, &amount, &p.Date, &p.Reference, &p.ContactName, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Amount = numericToDecimal(amount)
		payments = append(payments, &p)
	}

	return payments, rows.Err()
}

// Allocations fetches allocation rows joined with their parent payment's
// date, direction and display fields.
func (r *LedgerRepository) Allocations(ctx context.Context, accountID string, rng domain.DateRange) ([]domain.AllocationEntry, error) {
	query := `
		SELECT pa.id, pa.payment_id, pa.type, pa.balance_type, pa.paid_amount, pa.reference_id, pa.created_at,
		       p.type, p.date, p.reference, p.created_at, p.contact_name
		FROM payment_allocations pa
		JOIN payments p ON p.id = pa.payment_id
		WHERE p.account_id = $1
		  AND p.deleted_at IS NULL
		  AND ($2::timestamptz IS NULL OR p.date >= $2)
		  AND ($3::timestamptz IS NULL OR p.date <= $3)
	`

	from, to := rangeArgs(rng)
	rows, err := r.pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AllocationEntry
	for rows.Next() {
		var (
			entry       domain.AllocationEntry
			paidAmount  pgtype.Numeric
			balanceType pgtype.Text
			referenceID pgtype.Text
		)
		err := rows.Scan(
			&entry.Allocation.ID,
			&entry.Allocation.PaymentID,
			&entry.Allocation.Type,
			&balanceType,
			&paidAmount,
			&referenceID,
			&entry.Allocation.CreatedAt,
			&entry.PaymentType,
			&entry.PaymentDate,
			&entry.PaymentReference,
			&entry.PaymentCreatedAt,
			&entry.ContactName,
		)
		if err != nil {
			return nil, err
		}
		entry.Allocation.PaidAmount = numericToDecimal(paidAmount)
		entry.Allocation.BalanceType = domain.BalanceType(balanceType.String)
		entry.Allocation.ReferenceID = referenceID.String
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
