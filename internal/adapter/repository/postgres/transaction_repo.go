package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/norvantechnology/hisab/internal/domain"
	"github.com/norvantechnology/hisab/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository. Writes go
// through the caller's transaction so the record and its balance adjustment
// commit together; reads go through the pool.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// CreateExpense inserts an expense row.
func (r *TransactionRepository) CreateExpense(ctx context.Context, tx usecase.Transaction, e *domain.Expense) error {
	query := `
		INSERT INTO expenses (id, company_id, account_id, amount, status, date, reference, description, contact_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		e.ID, e.CompanyID, e.AccountID, decimalToNumeric(e.Amount), e.Status,
		e.Date, e.Reference, e.Description, e.ContactName, timeToPgTimestamptz(e.CreatedAt),
	)

	return err
}

// GetExpense retrieves an expense by ID, deleted rows included.
func (r *TransactionRepository) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	query := `
		SELECT id, company_id, account_id, amount, status, date, reference, description, contact_name, created_at, deleted_at
		FROM expenses WHERE id = $1
	`

	var (
		e         domain.Expense
		amount    pgtype.Numeric
		deletedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.CompanyID, &e.AccountID, &amount, &e.Status,
		&e.Date, &e.Reference, &e.Description, &e.ContactName, &e.CreatedAt, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	e.Amount = numericToDecimal(amount)
	e.DeletedAt = timePtr(deletedAt)

	return &e, nil
}

// UpdateExpense rewrites the mutable fields of an expense.
func (r *TransactionRepository) UpdateExpense(ctx context.Context, tx usecase.Transaction, e *domain.Expense) error {
	query := `
		UPDATE expenses
		SET account_id = $2, amount = $3, status = $4, date = $5, reference = $6, description = $7, contact_name = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		e.ID, e.AccountID, decimalToNumeric(e.Amount), e.Status,
		e.Date, e.Reference, e.Description, e.ContactName,
	)

	return err
}

// DeleteExpense soft-deletes an expense row.
func (r *TransactionRepository) DeleteExpense(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time) error {
	query := `UPDATE expenses SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query, id, timeToPgTimestamptz(deletedAt))

	return err
}

// CreateIncome inserts an income row.
func (r *TransactionRepository) CreateIncome(ctx context.Context, tx usecase.Transaction, i *domain.Income) error {
	query := `
		INSERT INTO incomes (id, company_id, account_id, amount, status, date, reference, description, contact_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		i.ID, i.CompanyID, i.AccountID, decimalToNumeric(i.Amount), i.Status,
		i.Date, i.Reference, i.Description, i.ContactName, timeToPgTimestamptz(i.CreatedAt),
	)

	return err
}

// GetIncome retrieves an income by ID, deleted rows included.
func (r *TransactionRepository) GetIncome(ctx context.Context, id string) (*domain.Income, error) {
	query := `
		SELECT id, company_id, account_id, amount, status, date, reference, description, contact_name, created_at, deleted_at
		FROM incomes WHERE id = $1
	`

	var (
		i         domain.Income
		amount    pgtype.Numeric
		deletedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&i.ID, &i.CompanyID, &i.AccountID, &amount, &i.Status,
		&i.Date, &i.Reference, &i.Description, &i.ContactName, &i.CreatedAt, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	i.Amount = numericToDecimal(amount)
	i.DeletedAt = timePtr(deletedAt)

	return &i, nil
}

// UpdateIncome rewrites the mutable fields of an income.
func (r *TransactionRepository) UpdateIncome(ctx context.Context, tx usecase.Transaction, i *domain.Income) error {
	query := `
		UPDATE incomes
		SET account_id = $2, amount = $3, status = $4, date = $5, reference = $6, description = $7, contact_name = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		i.ID, i.AccountID, decimalToNumeric(i.Amount), i.Status,
		i.Date, i.Reference, i.Description, i.ContactName,
	)

	return err
}

// DeleteIncome soft-deletes an income row.
func (r *TransactionRepository) DeleteIncome(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time) error {
	query := `UPDATE incomes SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query, id, timeToPgTimestamptz(deletedAt))

	return err
}

// CreateTransfer inserts a transfer row.
func (r *TransactionRepository) CreateTransfer(ctx context.Context, tx usecase.Transaction, t *domain.Transfer) error {
	query := `
		INSERT INTO transfers (id, company_id, from_account_id, to_account_id, amount, date, reference, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		t.ID, t.CompanyID, t.FromAccountID, t.ToAccountID, decimalToNumeric(t.Amount),
		t.Date, t.Reference, t.Description, timeToPgTimestamptz(t.CreatedAt),
	)

	return err
}

// GetTransfer retrieves a transfer by ID, deleted rows included.
func (r *TransactionRepository) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	query := `
		SELECT id, company_id, from_account_id, to_account_id, amount, date, reference, description, created_at, deleted_at
		FROM transfers WHERE id = $1
	`

	var (
		t         domain.Transfer
		amount    pgtype.Numeric
		deletedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.CompanyID, &t.FromAccountID, &t.ToAccountID, &amount,
		&t.Date, &t.Reference, &t.Description, &t.CreatedAt, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	t.Amount = numericToDecimal(amount)
	t.DeletedAt = timePtr(deletedAt)

	return &t, nil
}

// DeleteTransfer soft-deletes a transfer row.
func (r *TransactionRepository) DeleteTransfer(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time) error {
	query := `UPDATE transfers SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query, id, timeToPgTimestamptz(deletedAt))

	return err
}

// CreatePayment inserts a payment and its allocation rows in one statement
// batch on the caller's transaction.
func (r *TransactionRepository) CreatePayment(ctx context.Context, tx usecase.Transaction, p *domain.Payment, allocations []domain.PaymentAllocation) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO payments (id, company_id, account_id, type, amount, date, reference, contact_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := pgxTx.Exec(ctx, query,
		p.ID, p.CompanyID, p.AccountID, p.Type, decimalToNumeric(p.Amount),
		p.Date, p.Reference, p.ContactName, timeToPgTimestamptz(p.CreatedAt),
	)
	if err != nil {
		return err
	}

	if len(allocations) == 0 {
		return nil
	}

	allocQuery := `
		INSERT INTO payment_allocations (id, payment_id, type, balance_type, paid_amount, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, a := range allocations {
		batch.Queue(allocQuery,
			a.ID, a.PaymentID, a.Type, nullableText(string(a.BalanceType)),
			decimalToNumeric(a.PaidAmount), nullableText(a.ReferenceID), timeToPgTimestamptz(a.CreatedAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range allocations {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// GetPayment retrieves a payment by ID, deleted rows included.
func (r *TransactionRepository) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	query := `
		SELECT id, company_id, account_id, type, amount, date, reference, contact_name, created_at, deleted_at
		FROM payments WHERE id = $1
	`

	var (
		p         domain.Payment
		amount    pgtype.Numeric
		deletedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.CompanyID, &p.AccountID, &p.Type, &amount,
		&p.Date, &p.Reference, &p.ContactName, &p.CreatedAt, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	p.Amount = numericToDecimal(amount)
	p.DeletedAt = timePtr(deletedAt)

	return &p, nil
}

// AllocationsByPayment retrieves the allocation rows of one payment.
func (r *TransactionRepository) AllocationsByPayment(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	query := `
		SELECT id, payment_id, type, balance_type, paid_amount, reference_id, created_at
		FROM payment_allocations WHERE payment_id = $1
	`

	rows, err := r.pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []domain.PaymentAllocation
	for rows.Next() {
		var (
			a           domain.PaymentAllocation
			paidAmount  pgtype.Numeric
			balanceType pgtype.Text
			referenceID pgtype.Text
		)
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.Type, &balanceType, &paidAmount, &referenceID, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.PaidAmount = numericToDecimal(paidAmount)
		a.BalanceType = domain.BalanceType(balanceType.String)
		a.ReferenceID = referenceID.String
		allocations = append(allocations, a)
	}

	return allocations, rows.Err()
}

// DeletePayment soft-deletes a payment. Its allocation rows stay in place;
// every read joins on the payment's deleted_at.
func (r *TransactionRepository) DeletePayment(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time) error {
	query := `UPDATE payments SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query, id, timeToPgTimestamptz(deletedAt))

	return err
}

func nullableText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
