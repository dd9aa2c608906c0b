// Package ledger holds the pure core of payment application: validation of
// apply requests and allocation of available credit across invoices. Nothing
// in this package touches storage; callers hand it a snapshot and receive
// either a violation set or a plan.
package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/currency"
	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

// ApplyEntry requests that Amount of a transaction's value be consumed by
// one invoice.
type ApplyEntry struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
}

// ApplySnapshot is the state an apply request is validated against, taken in
// one read before any write. The service layer treats the whole batch as
// all-or-nothing: if validation fails, nothing is written.
type ApplySnapshot struct {
	// Transaction with its AppliedAmount sum populated. A zero ID means
	// the transaction was not found.
	Transaction domain.Transaction
	// Precision of the transaction's currency.
	Precision int32
	// Invoices referenced by the request, keyed by id. Absence means the
	// invoice was not found.
	Invoices map[uuid.UUID]domain.Invoice
}

// ValidateApply runs every check for an apply request and reports all
// violations at once:
//
//  1. the transaction exists,
//  2. every invoice exists and shares the transaction's currency,
//  3. every amount is non-negative,
//  4. every invoice is payable and the amount fits its remaining due,
//  5. the batch total fits the transaction's remaining unapplied value.
func ValidateApply(snap ApplySnapshot, entries []ApplyEntry) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if snap.Transaction.ID == uuid.Nil {
		errs.Add("transaction_id", domain.ErrNotFound, "transaction does not exist")
		return errs
	}

	total := decimal.Zero
	// Per-invoice request totals, so duplicate entries for one invoice are
	// checked against its due jointly.
	perInvoice := make(map[uuid.UUID]decimal.Decimal, len(entries))

	for i, entry := range entries {
		field := fmt.Sprintf("amounts[%d]", i)

		if entry.Amount.IsNegative() {
			errs.Add(field, domain.ErrInvalidAmount, "amount must not be negative")
			continue
		}
		inv, ok := snap.Invoices[entry.InvoiceID]
		if !ok {
			errs.Add(field, domain.ErrNotFound, "invoice %s does not exist", entry.InvoiceID)
			continue
		}
		if inv.Currency != snap.Transaction.Currency {
			errs.Add(field, domain.ErrCurrencyMismatch,
				"invoice currency %s does not match transaction currency %s",
				inv.Currency, snap.Transaction.Currency)
			continue
		}
		if !inv.Status.Payable() {
			errs.Add(field, domain.ErrInvalidInvoiceState,
				"invoice %s is %s and cannot receive payment", inv.ID, inv.Status)
			continue
		}

		total = total.Add(entry.Amount)
		perInvoice[entry.InvoiceID] = perInvoice[entry.InvoiceID].Add(entry.Amount)
	}

	for id, requested := range perInvoice {
		inv := snap.Invoices[id]
		paid := inv.Paid()
		if currency.Round(paid.Add(requested), snap.Precision).
			GreaterThan(currency.Round(inv.Total, snap.Precision)) {
			errs.Add("amounts", domain.ErrOverage,
				"invoice %s would be overpaid: %s due, %s requested",
				id, inv.Due, requested)
		}
	}

	// A non-approved transaction holds no applicable value at all.
	remaining := decimal.Zero
	if snap.Transaction.Status == domain.StatusApproved {
		remaining = currency.Round(
			snap.Transaction.Amount.Sub(snap.Transaction.AppliedAmount),
			snap.Precision,
		)
	}
	if total.GreaterThan(remaining) {
		errs.Add("amounts", domain.ErrOverage,
			"requested total %s exceeds transaction remaining value %s",
			total, remaining)
	}

	return errs
}
