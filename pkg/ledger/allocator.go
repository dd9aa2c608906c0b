package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/currency"
	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

// CreditSource is one approved transaction's unapplied value, available for
// allocation to invoices in the same currency.
type CreditSource struct {
	TransactionID uuid.UUID
	DateAdded     time.Time
	Credit        decimal.Decimal
}

// Credits groups a client's credit sources by currency code.
type Credits map[string][]CreditSource

// Total returns the summed credit for one currency.
func (c Credits) Total(code string) decimal.Decimal {
	sum := decimal.Zero
	for _, src := range c[code] {
		sum = sum.Add(src.Credit)
	}
	return sum
}

// SourceOrder controls the order credit sources are consumed in when several
// could cover the same invoice. The tie-break is deterministic but not
// semantically meaningful, so it is an explicit parameter rather than an
// inferred behavior.
type SourceOrder int

const (
	// OrderEnumeration consumes sources in the order they were handed in.
	OrderEnumeration SourceOrder = iota
	// OrderOldestFirst consumes sources ascending by DateAdded.
	OrderOldestFirst
)

// SourcePlan is the slice of per-invoice amounts to apply from one source
// transaction.
type SourcePlan struct {
	TransactionID uuid.UUID
	Entries       []ApplyEntry
}

// Plan is an allocation result: which credit source pays which invoice, and
// how much. Plans are ordered (sources in consumption order) and perform no
// writes; the caller executes them with one apply per source.
type Plan []SourcePlan

// Total returns the summed amount across the whole plan.
func (p Plan) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, sp := range p {
		for _, e := range sp.Entries {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// CreditsOf computes the credit sources present in txs, rounding each credit
// at its currency's precision and dropping sources that round to zero. Only
// approved transactions carry credit.
func CreditsOf(txs []domain.Transaction, precision func(code string) int32) Credits {
	credits := make(Credits)
	for i := range txs {
		tx := &txs[i]
		credit := tx.Credit(precision(tx.Currency))
		if credit.IsZero() {
			continue
		}
		credits[tx.Currency] = append(credits[tx.Currency], CreditSource{
			TransactionID: tx.ID,
			DateAdded:     tx.DateAdded,
			Credit:        credit,
		})
	}
	return credits
}

// Allocate distributes available credit across invoices, emulating FIFO
// settlement: invoices are consumed in the caller-given order (conventionally
// oldest due date first), and within an invoice credit sources are consumed
// per order. Only currencies with available credit participate.
//
// want optionally caps the amount allocated per invoice; absent invoices are
// unbounded. Amounts are rounded at the currency's precision.
func Allocate(
	credits Credits,
	invoices []domain.Invoice,
	want map[uuid.UUID]decimal.Decimal,
	precision func(code string) int32,
	order SourceOrder,
) Plan {
	// Working copies: allocation consumes credit but must not mutate the
	// caller's view of it.
	remaining := make(map[string][]CreditSource, len(credits))
	for code, sources := range credits {
		cp := make([]CreditSource, len(sources))
		copy(cp, sources)
		if order == OrderOldestFirst {
			sort.SliceStable(cp, func(i, j int) bool {
				return cp[i].DateAdded.Before(cp[j].DateAdded)
			})
		}
		remaining[code] = cp
	}

	var plan Plan
	planIdx := make(map[uuid.UUID]int)

	for _, inv := range invoices {
		sources, ok := remaining[inv.Currency]
		if !ok {
			continue
		}
		prec := precision(inv.Currency)

		applied := decimal.Zero
		wantRemaining, bounded := want[inv.ID]

		for i := range sources {
			src := &sources[i]
			if !src.Credit.IsPositive() {
				continue
			}
			if applied.GreaterThanOrEqual(inv.Due) {
				break
			}
			if bounded && !wantRemaining.IsPositive() {
				break
			}

			take := decimal.Min(src.Credit, inv.Due.Sub(applied))
			if bounded {
				take = decimal.Min(take, wantRemaining)
			}
			take = currency.Round(take, prec)
			if !take.IsPositive() {
				continue
			}

			idx, ok := planIdx[src.TransactionID]
			if !ok {
				idx = len(plan)
				planIdx[src.TransactionID] = idx
				plan = append(plan, SourcePlan{TransactionID: src.TransactionID})
			}
			plan[idx].Entries = append(plan[idx].Entries, ApplyEntry{
				InvoiceID: inv.ID,
				Amount:    take,
			})

			src.Credit = src.Credit.Sub(take)
			applied = applied.Add(take)
			if bounded {
				wantRemaining = wantRemaining.Sub(take)
			}
		}
	}

	return plan
}
