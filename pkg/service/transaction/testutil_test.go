package transaction_test

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
	"github.com/marcus-alicia/blesta-sub002/pkg/provider"
	"github.com/marcus-alicia/blesta-sub002/pkg/repository"
)

// In-memory store backing the repository fakes. The unit-of-work fake
// snapshots it before each top-level Do and restores on error, mirroring a
// database rollback.
type memStore struct {
	transactions map[uuid.UUID]*domain.Transaction
	applied      map[appliedKey]domain.AppliedAmount
	invoices     map[uuid.UUID]*domain.Invoice // Due is derived, Total is source of truth

	// invoice ids in the order locking reads took them
	lockOrder []uuid.UUID
}

type appliedKey struct {
	tx  uuid.UUID
	inv uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		transactions: make(map[uuid.UUID]*domain.Transaction),
		applied:      make(map[appliedKey]domain.AppliedAmount),
		invoices:     make(map[uuid.UUID]*domain.Invoice),
	}
}

func (s *memStore) clone() *memStore {
	cp := newMemStore()
	for id, tx := range s.transactions {
		c := *tx
		cp.transactions[id] = &c
	}
	for k, row := range s.applied {
		cp.applied[k] = row
	}
	for id, inv := range s.invoices {
		c := *inv
		cp.invoices[id] = &c
	}
	return cp
}

func (s *memStore) restore(from *memStore) {
	s.transactions = from.transactions
	s.applied = from.applied
	s.invoices = from.invoices
}

func (s *memStore) appliedToTransaction(id uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for k, row := range s.applied {
		if k.tx == id {
			sum = sum.Add(row.Amount)
		}
	}
	return sum
}

func (s *memStore) appliedToInvoice(id uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for k, row := range s.applied {
		if k.inv == id {
			sum = sum.Add(row.Amount)
		}
	}
	return sum
}

// unit of work

type memUow struct {
	store *memStore
	inTx  bool

	// non-nil makes SetClosed fail for that invoice, to exercise rollback
	failClose map[uuid.UUID]error
}

func (u *memUow) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.inTx {
		return fn(u)
	}
	snapshot := u.store.clone()
	err := fn(&memUow{store: u.store, inTx: true, failClose: u.failClose})
	if err != nil {
		u.store.restore(snapshot)
	}
	return err
}

func (u *memUow) TransactionRepository() (repository.TransactionRepository, error) {
	return &memTxRepo{store: u.store}, nil
}

func (u *memUow) AppliedAmountRepository() (repository.AppliedAmountRepository, error) {
	return &memAppliedRepo{store: u.store}, nil
}

func (u *memUow) InvoiceRepository() (provider.InvoiceRepository, error) {
	return &memInvoiceRepo{store: u.store, failClose: u.failClose}, nil
}

// transaction repository

type memTxRepo struct {
	store *memStore
}

func (r *memTxRepo) Create(_ context.Context, tx *domain.Transaction) error {
	c := *tx
	r.store.transactions[tx.ID] = &c
	return nil
}

func (r *memTxRepo) Update(_ context.Context, id uuid.UUID, update dto.TransactionUpdate) error {
	tx, ok := r.store.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if update.Amount != nil {
		tx.Amount = *update.Amount
	}
	if update.Currency != nil {
		tx.Currency = *update.Currency
	}
	if update.Type != nil {
		tx.Type = *update.Type
	}
	if update.TypeID != nil {
		tx.TypeID = update.TypeID
	}
	if update.AccountID != nil {
		tx.AccountID = update.AccountID
	}
	if update.GatewayID != nil {
		tx.GatewayID = update.GatewayID
	}
	if update.GatewayTransactionID != nil {
		tx.GatewayTransactionID = update.GatewayTransactionID
	}
	if update.ParentTransactionID != nil {
		tx.ParentTransactionID = update.ParentTransactionID
	}
	if update.ReferenceID != nil {
		tx.ReferenceID = update.ReferenceID
	}
	if update.Message != nil {
		tx.Message = *update.Message
	}
	if update.Status != nil {
		tx.Status = *update.Status
	}
	if update.DateAdded != nil {
		tx.DateAdded = *update.DateAdded
	}
	return nil
}

func (r *memTxRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.store.transactions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.transactions, id)
	return nil
}

func (r *memTxRepo) Get(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, ok := r.store.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *tx
	c.AppliedAmount = r.store.appliedToTransaction(id)
	return &c, nil
}

func (r *memTxRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return r.Get(ctx, id)
}

func (r *memTxRepo) GetByGatewayTransactionID(ctx context.Context, gatewayTxID string) (*domain.Transaction, error) {
	for id, tx := range r.store.transactions {
		if tx.GatewayTransactionID != nil && *tx.GatewayTransactionID == gatewayTxID {
			return r.Get(ctx, id)
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTxRepo) Search(ctx context.Context, q dto.TransactionSearch) ([]domain.Transaction, int64, error) {
	var matched []domain.Transaction
	for id, tx := range r.store.transactions {
		if tx.CompanyID != q.CompanyID {
			continue
		}
		if q.ClientID != nil && tx.ClientID != *q.ClientID {
			continue
		}
		if q.Status != "" && q.Status != "all" && string(tx.Status) != q.Status {
			continue
		}
		if q.Type != nil && tx.Type != *q.Type {
			continue
		}
		if q.ExternalID != "" && !matchesExternal(tx, q.ExternalID) {
			continue
		}
		c, _ := r.Get(ctx, id)
		if q.Applied != nil && !matchesApplied(c, *q.Applied) {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].DateAdded.After(matched[j].DateAdded)
	})

	total := int64(len(matched))
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchesExternal(tx *domain.Transaction, needle string) bool {
	needle = strings.ToLower(needle)
	if tx.GatewayTransactionID != nil && strings.Contains(strings.ToLower(*tx.GatewayTransactionID), needle) {
		return true
	}
	return tx.ReferenceID != nil && strings.Contains(strings.ToLower(*tx.ReferenceID), needle)
}

func matchesApplied(tx *domain.Transaction, filter domain.AppliedFilter) bool {
	switch filter {
	case domain.FullyApplied:
		return tx.AppliedAmount.GreaterThanOrEqual(tx.Amount)
	case domain.PartiallyApplied:
		return tx.AppliedAmount.IsPositive() && tx.AppliedAmount.LessThan(tx.Amount)
	case domain.NotApplied:
		return tx.AppliedAmount.IsZero()
	}
	return true
}

func (r *memTxRepo) ListWithCredit(ctx context.Context, clientID uuid.UUID, currency string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for id, tx := range r.store.transactions {
		if tx.ClientID != clientID || tx.Status != domain.StatusApproved {
			continue
		}
		if currency != "" && tx.Currency != currency {
			continue
		}
		c, _ := r.Get(ctx, id)
		if c.Amount.GreaterThan(c.AppliedAmount) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateAdded.Before(out[j].DateAdded)
	})
	return out, nil
}

// applied amount repository

type memAppliedRepo struct {
	store *memStore
}

func (r *memAppliedRepo) Upsert(_ context.Context, row domain.AppliedAmount) error {
	key := appliedKey{tx: row.TransactionID, inv: row.InvoiceID}
	if existing, ok := r.store.applied[key]; ok {
		existing.Amount = existing.Amount.Add(row.Amount)
		existing.Date = row.Date
		r.store.applied[key] = existing
		return nil
	}
	r.store.applied[key] = row
	return nil
}

func (r *memAppliedRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]domain.AppliedAmount, error) {
	var out []domain.AppliedAmount
	for k, row := range r.store.applied {
		if k.tx == transactionID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memAppliedRepo) SumByTransaction(_ context.Context, transactionID uuid.UUID) (decimal.Decimal, error) {
	return r.store.appliedToTransaction(transactionID), nil
}

func (r *memAppliedRepo) SumByInvoice(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	return r.store.appliedToInvoice(invoiceID), nil
}

func (r *memAppliedRepo) Delete(_ context.Context, transactionID uuid.UUID, invoiceIDs []uuid.UUID) error {
	for k := range r.store.applied {
		if k.tx != transactionID {
			continue
		}
		if invoiceIDs == nil || containsID(invoiceIDs, k.inv) {
			delete(r.store.applied, k)
		}
	}
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// invoice repository

type memInvoiceRepo struct {
	store     *memStore
	failClose map[uuid.UUID]error
}

func (r *memInvoiceRepo) Get(_ context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, ok := r.store.invoices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *inv
	c.Due = inv.Total.Sub(r.store.appliedToInvoice(id))
	return &c, nil
}

func (r *memInvoiceRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store.lockOrder = append(r.store.lockOrder, id)
	return inv, nil
}

func (r *memInvoiceRepo) Paid(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	return r.store.appliedToInvoice(id), nil
}

func (r *memInvoiceRepo) ListOpen(ctx context.Context, clientID uuid.UUID, currency string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for id, inv := range r.store.invoices {
		if inv.ClientID != clientID || !inv.Status.Payable() {
			continue
		}
		if currency != "" && inv.Currency != currency {
			continue
		}
		c, _ := r.Get(ctx, id)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateDue.Before(out[j].DateDue) })
	return out, nil
}

func (r *memInvoiceRepo) SetClosed(_ context.Context, id uuid.UUID) error {
	if err := r.failClose[id]; err != nil {
		return err
	}
	inv, ok := r.store.invoices[id]
	if !ok {
		return domain.ErrNotFound
	}
	covered := r.store.appliedToInvoice(id).GreaterThanOrEqual(inv.Total)
	switch {
	case covered && inv.Status.Payable():
		inv.Status = domain.InvoiceClosed
	case !covered && inv.Status == domain.InvoiceClosed:
		inv.Status = domain.InvoiceActive
	}
	return nil
}

// collaborators

type memClients struct {
	ids map[uuid.UUID]bool
}

func (c *memClients) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return c.ids[id], nil
}

type memRefs struct {
	gateways map[uuid.UUID]bool
	types    map[uuid.UUID]bool
}

func (r *memRefs) GatewayExists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.gateways[id], nil
}

func (r *memRefs) TransactionTypeExists(_ context.Context, id uuid.UUID) (bool, error) {
	return r.types[id], nil
}

type auditRecord struct {
	transactionID uuid.UUID
	diff          domain.FieldDiff
}

type memAudit struct {
	records []auditRecord
}

func (a *memAudit) Record(_ context.Context, transactionID uuid.UUID, diff domain.FieldDiff) error {
	a.records = append(a.records, auditRecord{transactionID: transactionID, diff: diff})
	return nil
}

type staticPrecision struct {
	byCode map[string]int32
}

func (p *staticPrecision) Precision(_ context.Context, _ uuid.UUID, code string) int32 {
	if prec, ok := p.byCode[code]; ok {
		return prec
	}
	return 2
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func daysFromNow(n int) time.Time {
	return time.Now().UTC().AddDate(0, 0, n)
}
