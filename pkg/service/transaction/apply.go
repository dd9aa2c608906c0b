package transaction

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/ledger"
	"github.com/marcus-alicia/blesta-sub002/pkg/repository"
)

// Apply consumes portions of a transaction's value against invoices. The
// whole batch is validated against one snapshot and written inside one store
// transaction: either every positive entry lands and every touched invoice
// has its closure recomputed, or nothing is written.
func (s *Service) Apply(ctx context.Context, transactionID uuid.UUID, entries []ledger.ApplyEntry, date *time.Time) error {
	logger := s.logger.With("transaction_id", transactionID)

	_ = s.bus.Publish(ctx, newEvent(EventBeforeApply, transactionID, uuid.Nil))

	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		return s.applyInUow(ctx, uow, transactionID, entries, date)
	})
	if err != nil {
		var verrs domain.ValidationErrors
		if !errors.As(err, &verrs) {
			logger.Error("Apply failed", "error", err)
		}
		return err
	}

	_ = s.bus.Publish(ctx, newEvent(EventAfterApply, transactionID, uuid.Nil))
	logger.Info("transaction applied", "entries", len(entries))
	return nil
}

// Unapply reverses applications of a transaction: all of them when
// invoiceIDs is nil, else only the listed invoices. Matched rows are removed
// whole and every affected invoice has its status recomputed, re-opening it
// if it is no longer fully covered.
func (s *Service) Unapply(ctx context.Context, transactionID uuid.UUID, invoiceIDs []uuid.UUID) error {
	logger := s.logger.With("transaction_id", transactionID)

	_ = s.bus.Publish(ctx, newEvent(EventBeforeUnapply, transactionID, uuid.Nil))

	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		return s.unapplyInUow(ctx, uow, transactionID, invoiceIDs)
	})
	if err != nil {
		logger.Error("Unapply failed", "error", err)
		return err
	}

	_ = s.bus.Publish(ctx, newEvent(EventAfterUnapply, transactionID, uuid.Nil))
	logger.Info("transaction unapplied", "invoice_filter", len(invoiceIDs))
	return nil
}

// Credits returns the client's available credit per currency: every approved
// transaction whose value is not fully consumed, each credit rounded at the
// currency's precision, zero credits dropped. currencyCode narrows to one
// currency when non-empty.
func (s *Service) Credits(ctx context.Context, companyID, clientID uuid.UUID, currencyCode string) (ledger.Credits, error) {
	var txs []domain.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		txs, err = repo.ListWithCredit(ctx, clientID, currencyCode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ledger.CreditsOf(txs, func(code string) int32 {
		return s.precision.Precision(ctx, companyID, code)
	}), nil
}

// ApplyFromCredits settles a client's open invoices from available credit.
// Candidate invoices are the client's open invoices in the target currency,
// oldest due first, unless want names specific invoices; in that case every
// named invoice must exist and share currencyCode, which is then required.
//
// The computed plan is executed as one apply per source transaction inside a
// single store transaction: a validation failure mid-sequence rolls back
// every application already made in the same sequence and propagates. The
// returned plan reflects what was (or would have been) applied.
func (s *Service) ApplyFromCredits(
	ctx context.Context,
	companyID, clientID uuid.UUID,
	currencyCode string,
	want map[uuid.UUID]decimal.Decimal,
	order ledger.SourceOrder,
) (ledger.Plan, error) {
	logger := s.logger.With("client_id", clientID, "currency", currencyCode)

	credits, err := s.Credits(ctx, companyID, clientID, currencyCode)
	if err != nil {
		return nil, err
	}

	invoices, verrs, err := s.candidateInvoices(ctx, clientID, currencyCode, want)
	if err != nil {
		return nil, err
	}
	if err := verrs.ErrOrNil(); err != nil {
		return nil, err
	}

	precisionOf := func(code string) int32 {
		return s.precision.Precision(ctx, companyID, code)
	}
	plan := ledger.Allocate(credits, invoices, want, precisionOf, order)
	if len(plan) == 0 {
		logger.Info("no credit to apply")
		return plan, nil
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		for _, sp := range plan {
			if err := s.applyInUow(ctx, uow, sp.TransactionID, sp.Entries, nil); err != nil {
				// The store transaction rolls back every apply made
				// earlier in this sequence.
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("ApplyFromCredits failed, batch rolled back", "error", err)
		return nil, err
	}

	logger.Info("credits applied", "sources", len(plan), "total", plan.Total())
	return plan, nil
}

// candidateInvoices resolves the invoice set ApplyFromCredits allocates
// against.
func (s *Service) candidateInvoices(
	ctx context.Context,
	clientID uuid.UUID,
	currencyCode string,
	want map[uuid.UUID]decimal.Decimal,
) ([]domain.Invoice, domain.ValidationErrors, error) {
	var verrs domain.ValidationErrors

	if len(want) == 0 {
		invoices, err := s.invoices.ListOpen(ctx, clientID, currencyCode)
		if err != nil {
			return nil, nil, err
		}
		return invoices, nil, nil
	}

	if currencyCode == "" {
		verrs.Add("currency", domain.ErrFormat, "explicit amounts require a currency")
		return nil, verrs, nil
	}

	invoices := make([]domain.Invoice, 0, len(want))
	for id := range want {
		inv, err := s.invoices.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				verrs.Add("invoices", domain.ErrNotFound, "invoice %s does not exist", id)
				continue
			}
			return nil, nil, err
		}
		if inv.Currency != currencyCode {
			verrs.Add("invoices", domain.ErrCurrencyMismatch,
				"invoice %s is in %s, expected %s", id, inv.Currency, currencyCode)
			continue
		}
		invoices = append(invoices, *inv)
	}
	if !verrs.Empty() {
		return nil, verrs, nil
	}

	// Deterministic FIFO order for explicitly named invoices too.
	sortInvoicesByDue(invoices)
	return invoices, nil, nil
}

// applyInUow is the write path shared by Apply and ApplyFromCredits. It
// snapshots under a row lock, validates the batch, upserts the positive
// entries additively and recomputes closure for every touched invoice. It
// must run inside a unit of work.
func (s *Service) applyInUow(
	ctx context.Context,
	uow repository.UnitOfWork,
	transactionID uuid.UUID,
	entries []ledger.ApplyEntry,
	date *time.Time,
) error {
	txRepo, err := uow.TransactionRepository()
	if err != nil {
		return err
	}
	appliedRepo, err := uow.AppliedAmountRepository()
	if err != nil {
		return err
	}
	invoiceRepo, err := uow.InvoiceRepository()
	if err != nil {
		return err
	}

	snap := ledger.ApplySnapshot{Invoices: make(map[uuid.UUID]domain.Invoice, len(entries))}

	tx, err := txRepo.GetForUpdate(ctx, transactionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if tx != nil {
		snap.Transaction = *tx
		snap.Precision = s.precision.Precision(ctx, tx.CompanyID, tx.Currency)
	}

	// Lock the target invoices in sorted id order so concurrent batches
	// touching the same invoices cannot deadlock, and each validates
	// against the paid sums the previous one committed.
	for _, invoiceID := range sortedUnique(entries) {
		inv, err := invoiceRepo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // the validator reports the missing invoice
			}
			return err
		}
		snap.Invoices[invoiceID] = *inv
	}

	if verrs := ledger.ValidateApply(snap, entries); !verrs.Empty() {
		return verrs
	}

	when := time.Now().UTC()
	if date != nil {
		when = *date
	}

	touched := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		// Zero amounts pass validation but produce no row.
		if !entry.Amount.IsPositive() {
			continue
		}
		err := appliedRepo.Upsert(ctx, domain.AppliedAmount{
			TransactionID: transactionID,
			InvoiceID:     entry.InvoiceID,
			Amount:        entry.Amount,
			Date:          when,
		})
		if err != nil {
			return err
		}
		touched = append(touched, entry.InvoiceID)
	}

	for _, invoiceID := range dedupe(touched) {
		if err := invoiceRepo.SetClosed(ctx, invoiceID); err != nil {
			return err
		}
	}
	return nil
}

// unapplyInUow deletes matching applied rows and recomputes status for each
// affected invoice. It must run inside a unit of work.
func (s *Service) unapplyInUow(
	ctx context.Context,
	uow repository.UnitOfWork,
	transactionID uuid.UUID,
	invoiceIDs []uuid.UUID,
) error {
	appliedRepo, err := uow.AppliedAmountRepository()
	if err != nil {
		return err
	}
	invoiceRepo, err := uow.InvoiceRepository()
	if err != nil {
		return err
	}

	rows, err := appliedRepo.ListByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	affected := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if invoiceIDs == nil || containsUUID(invoiceIDs, row.InvoiceID) {
			affected = append(affected, row.InvoiceID)
		}
	}
	if len(affected) == 0 {
		return nil
	}

	if err := appliedRepo.Delete(ctx, transactionID, invoiceIDs); err != nil {
		return err
	}
	for _, invoiceID := range affected {
		if err := invoiceRepo.SetClosed(ctx, invoiceID); err != nil {
			return err
		}
	}
	return nil
}

// sortedUnique returns the distinct invoice ids of a batch in byte order,
// the lock acquisition order for apply snapshots.
func sortedUnique(entries []ledger.ApplyEntry) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.InvoiceID]; ok {
			continue
		}
		seen[entry.InvoiceID] = struct{}{}
		ids = append(ids, entry.InvoiceID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func sortInvoicesByDue(invoices []domain.Invoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].DateDue.Before(invoices[j].DateDue)
	})
}
