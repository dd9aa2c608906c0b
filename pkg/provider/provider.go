// Package provider declares the ledger's external collaborators. The ledger
// consumes these at the boundary only; invoice lifecycle, client management
// and audit storage are owned elsewhere.
package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

// InvoiceRepository is the ledger's view of invoices. SetClosed recomputes
// and persists an invoice's paid/closed state after an applied-amount
// change; the ledger never mutates invoices directly.
type InvoiceRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	// GetForUpdate reads the invoice under a row lock so concurrent
	// applies into the same invoice serialize on its remaining due.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	// Paid returns the sum already applied to the invoice.
	Paid(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	// ListOpen returns a client's payable invoices, oldest due date
	// first, optionally restricted to one currency.
	ListOpen(ctx context.Context, clientID uuid.UUID, currency string) ([]domain.Invoice, error)
	// SetClosed recomputes the invoice's paid total and flips it closed
	// or back open accordingly.
	SetClosed(ctx context.Context, id uuid.UUID) error
}

// ClientRepository is the existence check for transaction owners.
type ClientRepository interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReferenceChecker validates optional foreign references on a transaction.
type ReferenceChecker interface {
	GatewayExists(ctx context.Context, id uuid.UUID) (bool, error)
	TransactionTypeExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuditLogger receives the field-level diff of every transaction edit.
type AuditLogger interface {
	Record(ctx context.Context, transactionID uuid.UUID, diff domain.FieldDiff) error
}
