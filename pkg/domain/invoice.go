package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus mirrors the statuses the ledger cares about. Invoice
// lifecycle is owned elsewhere; the ledger only reads these signals and asks
// the invoice collaborator to recompute closure after an application change.
type InvoiceStatus string

const (
	InvoiceActive   InvoiceStatus = "active"
	InvoiceProforma InvoiceStatus = "proforma"
	InvoiceDraft    InvoiceStatus = "draft"
	InvoiceVoid     InvoiceStatus = "void"
	InvoiceClosed   InvoiceStatus = "closed"
)

// Payable reports whether an invoice in this status may receive applied
// amounts.
func (s InvoiceStatus) Payable() bool {
	return s == InvoiceActive || s == InvoiceProforma
}

// Invoice is the ledger's read view of an externally owned invoice.
// Due already reflects prior applications: Due = Total - paid.
type Invoice struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	Currency string
	Total    decimal.Decimal
	Due      decimal.Decimal
	Status   InvoiceStatus
	DateDue  time.Time
}

// Paid returns the portion of the invoice's total already covered.
func (i *Invoice) Paid() decimal.Decimal {
	return i.Total.Sub(i.Due)
}
