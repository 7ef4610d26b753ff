package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/norvantechnology/hisab/internal/domain"
)

// The fakes below honor the repository contracts the real postgres layer
// implements in SQL: non-deleted rows only, paid-only for direct categories,
// date range filters, and the allocation anti-join.

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeTxManager struct {
	beginErr error
	last     *fakeTx
}

func (m *fakeTxManager) Begin(ctx context.Context) (Transaction, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	m.last = &fakeTx{}
	return m.last, nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account

	updateErr error
	lockErr   error
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		repo.accounts[a.ID] = a
	}
	return repo
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error) {
	if r.lockErr != nil {
		return nil, r.lockErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if a, ok := r.accounts[id]; ok {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (r *fakeAccountRepo) UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.CurrentBalance = balance
		a.UpdatedAt = updatedAt
	}
	return nil
}

func (r *fakeAccountRepo) List(ctx context.Context, companyID string, limit, offset int) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []*domain.Account
	for _, a := range r.accounts {
		if a.CompanyID == companyID && a.DeletedAt == nil {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (r *fakeAccountRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.DeletedAt = &deletedAt
	}
	return nil
}

func (r *fakeAccountRepo) balance(id string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id].CurrentBalance
}

type fakeLedgerRepo struct {
	transfers   []*domain.Transfer
	incomes     []*domain.Income
	expenses    []*domain.Expense
	sales       []*domain.Sale
	purchases   []*domain.Purchase
	payments    []*domain.Payment
	allocations []domain.AllocationEntry

	failCategory domain.EventCategory
	failErr      error
}

func inRange(date time.Time, r domain.DateRange) bool {
	if r.From != nil && date.Before(*r.From) {
		return false
	}
	if r.To != nil && date.After(*r.To) {
		return false
	}
	return true
}

// allocatedIDs mirrors the SQL anti-join: ids of records referenced by at
// least one allocation row.
func (r *fakeLedgerRepo) allocatedIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, entry := range r.allocations {
		if entry.Allocation.ReferenceID != "" {
			ids[entry.Allocation.ReferenceID] = true
		}
	}
	return ids
}

func (r *fakeLedgerRepo) fail(category domain.EventCategory) error {
	if r.failCategory == category && r.failErr != nil {
		return r.failErr
	}
	return nil
}

func (r *fakeLedgerRepo) Transfers(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Transfer, error) {
	if err := r.fail(domain.CategoryTransfer); err != nil {
		return nil, err
	}
	var out []*domain.Transfer
	for _, t := range r.transfers {
		if t.DeletedAt == nil && (t.FromAccountID == accountID || t.ToAccountID == accountID) && inRange(t.Date, rng) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) DirectIncomes(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Income, error) {
	if err := r.fail(domain.CategoryIncome); err != nil {
		return nil, err
	}
	allocated := r.allocatedIDs()
	var out []*domain.Income
	for _, i := range r.incomes {
		if i.DeletedAt == nil && i.AccountID == accountID && i.Status == domain.StatusPaid && !allocated[i.ID] && inRange(i.Date, rng) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) DirectExpenses(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Expense, error) {
	if err := r.fail(domain.CategoryExpense); err != nil {
		return nil, err
	}
	allocated := r.allocatedIDs()
	var out []*domain.Expense
	for _, e := range r.expenses {
		if e.DeletedAt == nil && e.AccountID == accountID && e.Status == domain.StatusPaid && !allocated[e.ID] && inRange(e.Date, rng) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) DirectSales(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Sale, error) {
	if err := r.fail(domain.CategorySale); err != nil {
		return nil, err
	}
	allocated := r.allocatedIDs()
	var out []*domain.Sale
	for _, s := range r.sales {
		if s.DeletedAt == nil && s.AccountID == accountID && s.Status == domain.StatusPaid && !allocated[s.ID] && inRange(s.InvoiceDate, rng) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) DirectPurchases(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Purchase, error) {
	if err := r.fail(domain.CategoryPurchase); err != nil {
		return nil, err
	}
	allocated := r.allocatedIDs()
	var out []*domain.Purchase
	for _, p := range r.purchases {
		if p.DeletedAt == nil && p.AccountID == accountID && p.Status == domain.StatusPaid && !allocated[p.ID] && inRange(p.InvoiceDate, rng) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) StandalonePayments(ctx context.Context, accountID string, rng domain.DateRange) ([]*domain.Payment, error) {
	if err := r.fail(domain.CategoryPayment); err != nil {
		return nil, err
	}
	itemized := make(map[string]bool)
	for _, entry := range r.allocations {
		itemized[entry.Allocation.PaymentID] = true
	}
	var out []*domain.Payment
	for _, p := range r.payments {
		if p.DeletedAt == nil && p.AccountID == accountID && !itemized[p.ID] && inRange(p.Date, rng) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) Allocations(ctx context.Context, accountID string, rng domain.DateRange) ([]domain.AllocationEntry, error) {
	if err := r.fail(domain.CategoryAllocation); err != nil {
		return nil, err
	}
	paymentAccounts := make(map[string]string)
	for _, p := range r.payments {
		if p.DeletedAt == nil {
			paymentAccounts[p.ID] = p.AccountID
		}
	}
	var out []domain.AllocationEntry
	for _, entry := range r.allocations {
		if paymentAccounts[entry.Allocation.PaymentID] == accountID && inRange(entry.PaymentDate, rng) {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeTransactionRepo struct {
	mu          sync.Mutex
	expenses    map[string]*domain.Expense
	incomes     map[string]*domain.Income
	transfers   map[string]*domain.Transfer
	payments    map[string]*domain.Payment
	allocations map[string][]domain.PaymentAllocation

	createErr error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{
		expenses:    make(map[string]*domain.Expense),
		incomes:     make(map[string]*domain.Income),
		transfers:   make(map[string]*domain.Transfer),
		payments:    make(map[string]*domain.Payment),
		allocations: make(map[string][]domain.PaymentAllocation),
	}
}

func (r *fakeTransactionRepo) CreateExpense(ctx context.Context, tx Transaction, e *domain.Expense) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *e
	r.expenses[e.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.expenses[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) UpdateExpense(ctx context.Context, tx Transaction, e *domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *e
	r.expenses[e.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) DeleteExpense(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.expenses[id]; ok {
		e.DeletedAt = &deletedAt
	}
	return nil
}

func (r *fakeTransactionRepo) CreateIncome(ctx context.Context, tx Transaction, i *domain.Income) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *i
	r.incomes[i.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) GetIncome(ctx context.Context, id string) (*domain.Income, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.incomes[id]; ok {
		copied := *i
		return &copied, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) UpdateIncome(ctx context.Context, tx Transaction, i *domain.Income) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *i
	r.incomes[i.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) DeleteIncome(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.incomes[id]; ok {
		i.DeletedAt = &deletedAt
	}
	return nil
}

func (r *fakeTransactionRepo) CreateTransfer(ctx context.Context, tx Transaction, t *domain.Transfer) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *t
	r.transfers[t.ID] = &copied
	return nil
}

func (r *fakeTransactionRepo) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.transfers[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) DeleteTransfer(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.transfers[id]; ok {
		t.DeletedAt = &deletedAt
	}
	return nil
}

func (r *fakeTransactionRepo) CreatePayment(ctx context.Context, tx Transaction, p *domain.Payment, allocations []domain.PaymentAllocation) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.payments[p.ID] = &copied
	r.allocations[p.ID] = allocations
	return nil
}

func (r *fakeTransactionRepo) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) AllocationsByPayment(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocations[paymentID], nil
}

func (r *fakeTransactionRepo) DeletePayment(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		p.DeletedAt = &deletedAt
	}
	return nil
}

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%03d", g.n)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deleted = append(c.deleted, key)
	return nil
}

type fakeRenderer struct {
	lastFilter string
	lastEvents []domain.LedgerEvent
}

func (r *fakeRenderer) RenderStatement(account *domain.Account, events []domain.LedgerEvent, filterDescription string) ([]byte, error) {
	r.lastFilter = filterDescription
	r.lastEvents = events
	return []byte("document for " + account.ID), nil
}
