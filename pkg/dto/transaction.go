// Package dto defines the create/update/search shapes passed between the
// service layer and its repositories.
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

// TransactionCreate carries the writable fields of a new transaction.
// Status defaults to approved and DateAdded to now when unset.
type TransactionCreate struct {
	CompanyID uuid.UUID
	ClientID  uuid.UUID
	Amount    decimal.Decimal
	Currency  string
	Type      domain.PaymentType

	TypeID    *uuid.UUID
	AccountID *uuid.UUID
	GatewayID *uuid.UUID

	GatewayTransactionID *string
	ParentTransactionID  *string
	ReferenceID          *string

	Message   string
	Status    domain.Status
	DateAdded *time.Time
}

// TransactionUpdate carries the editable fields of a transaction; nil means
// leave unchanged. ClientID is immutable and deliberately absent.
type TransactionUpdate struct {
	Amount   *decimal.Decimal
	Currency *string
	Type     *domain.PaymentType

	TypeID    *uuid.UUID
	AccountID *uuid.UUID
	GatewayID *uuid.UUID

	GatewayTransactionID *string
	ParentTransactionID  *string
	ReferenceID          *string

	Message   *string
	Status    *domain.Status
	DateAdded *time.Time
}

// TransactionSearch filters and pages a transaction listing.
type TransactionSearch struct {
	CompanyID uuid.UUID
	ClientID  *uuid.UUID
	// Status filters by transaction status; empty or "all" matches every
	// status.
	Status string
	Type   *domain.PaymentType
	// Partial, case-insensitive match against the gateway transaction id
	// and reference id.
	ExternalID string
	DateFrom   *time.Time
	DateTo     *time.Time
	AmountMin  *decimal.Decimal
	AmountMax  *decimal.Decimal
	// Applied narrows by how much of the transaction's value is consumed.
	Applied *domain.AppliedFilter

	Page    int // 1-based; 0 means first page
	PerPage int // 0 means the repository default
}
