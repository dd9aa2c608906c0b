// Package domain holds the ledger's entities and invariants: transactions,
// applied amounts, the status machine and the validation error taxonomy.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a transaction. Approved is the only status in which a transaction
// may hold applied amounts or credit; every other status is value-inert.
// There is no transition graph: any status may move to any other via Edit,
// but leaving Approved forces a full unapply, and returning to Approved does
// not restore prior applications.
type Status string

const (
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
	StatusVoid     Status = "void"
	StatusError    Status = "error"
	StatusPending  Status = "pending"
	StatusRefunded Status = "refunded"
	StatusReturned Status = "returned"
)

// Statuses lists every valid transaction status.
var Statuses = []Status{
	StatusApproved, StatusDeclined, StatusVoid, StatusError,
	StatusPending, StatusRefunded, StatusReturned,
}

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentType classifies how a transaction was funded.
type PaymentType string

const (
	TypeCC    PaymentType = "cc"
	TypeACH   PaymentType = "ach"
	TypeOther PaymentType = "other"
)

// Valid reports whether t is a recognized payment type.
func (t PaymentType) Valid() bool {
	switch t {
	case TypeCC, TypeACH, TypeOther:
		return true
	}
	return false
}

// AppliedFilter narrows a transaction search by how much of each
// transaction's value has been consumed by invoices.
type AppliedFilter string

const (
	FullyApplied     AppliedFilter = "fully_applied"
	PartiallyApplied AppliedFilter = "partially_applied"
	NotApplied       AppliedFilter = "not_applied"
)

// Transaction is a recorded monetary event: a payment, refund or gateway
// result with a fixed face value in a single currency.
//
// Invariant: Amount >= 0.
type Transaction struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	ClientID  uuid.UUID
	Amount    decimal.Decimal
	Currency  string
	Type      PaymentType

	// Optional references to surrounding billing entities.
	TypeID    *uuid.UUID // custom transaction type
	AccountID *uuid.UUID
	GatewayID *uuid.UUID

	// Gateway-assigned identifiers.
	GatewayTransactionID *string
	ParentTransactionID  *string
	ReferenceID          *string

	Message   string
	Status    Status
	DateAdded time.Time

	// Computed on read, never persisted.
	AppliedAmount  decimal.Decimal // Σ applied_amounts for this transaction
	CreditedAmount decimal.Decimal // Credit() at the currency's precision
}

// Credit returns the unapplied remainder of the transaction's value, rounded
// to the given precision and floored at zero. Only approved transactions
// carry credit.
func (t *Transaction) Credit(precision int32) decimal.Decimal {
	if t.Status != StatusApproved {
		return decimal.Zero
	}
	credit := t.Amount.Sub(t.AppliedAmount).Round(precision)
	if credit.IsNegative() {
		return decimal.Zero
	}
	return credit
}

// AppliedAmount records that a portion of a transaction's value was consumed
// by an invoice. For a fixed (TransactionID, InvoiceID) pair repeated
// application accumulates into one row rather than creating new rows; rows
// are removed whole on unapply, never partially decremented.
//
// Invariant: Σ Amount per TransactionID <= Transaction.Amount.
// Invariant: Σ Amount per InvoiceID <= Invoice.Total.
type AppliedAmount struct {
	TransactionID uuid.UUID
	InvoiceID     uuid.UUID
	Amount        decimal.Decimal
	Date          time.Time
}
