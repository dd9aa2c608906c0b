// Package repository contains the gorm-backed implementations of the
// ledger's persistence contracts.
package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is the persisted form of a monetary transaction.
type Transaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	Type      string          `gorm:"type:varchar(8);not null"`

	TransactionTypeID *uuid.UUID `gorm:"type:uuid"`
	AccountID         *uuid.UUID `gorm:"type:uuid"`
	GatewayID         *uuid.UUID `gorm:"type:uuid"`

	GatewayTransactionID *string `gorm:"type:varchar(128);index"`
	ParentTransactionID  *string `gorm:"type:varchar(128)"`
	ReferenceID          *string `gorm:"type:varchar(128)"`

	Message   string    `gorm:"type:varchar(255)"`
	Status    string    `gorm:"type:varchar(16);not null;default:'approved';index"`
	DateAdded time.Time `gorm:"not null"`
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }

// AppliedAmount joins a transaction to an invoice consuming part of its
// value. The composite primary key backs the additive upsert: one row per
// (transaction, invoice) pair, ever.
type AppliedAmount struct {
	TransactionID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;primaryKey;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	Date          time.Time       `gorm:"not null"`
}

// TableName specifies the table name for the AppliedAmount model.
func (AppliedAmount) TableName() string { return "applied_amounts" }

// Invoice is the ledger's read/closure view of the externally owned invoice
// table. Due is never stored; it derives from Total minus the applied sum.
type Invoice struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Currency   string          `gorm:"type:varchar(3);not null"`
	Total      decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	Status     string          `gorm:"type:varchar(16);not null;default:'active';index"`
	DateDue    time.Time       `gorm:"not null"`
	DateClosed *time.Time
}

// TableName specifies the table name for the Invoice model.
func (Invoice) TableName() string { return "invoices" }

// Client carries only what the ledger reads: ownership and company scope.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName specifies the table name for the Client model.
func (Client) TableName() string { return "clients" }

// Gateway is referenced by transactions; only existence matters here.
type Gateway struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(64)"`
}

// TableName specifies the table name for the Gateway model.
func (Gateway) TableName() string { return "gateways" }

// TransactionType is a custom classification referenced by transactions.
type TransactionType struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"type:varchar(64);not null"`
}

// TableName specifies the table name for the TransactionType model.
func (TransactionType) TableName() string { return "transaction_types" }

// Currency is the per-company precision configuration row.
type Currency struct {
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code      string    `gorm:"type:varchar(3);primaryKey"`
	Precision int32     `gorm:"not null;default:2"`
	Symbol    string    `gorm:"type:varchar(8)"`
}

// TableName specifies the table name for the Currency model.
func (Currency) TableName() string { return "currencies" }

// AuditEvent stores the field-level diff of a transaction edit.
type AuditEvent struct {
	gorm.Model
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index"`
	Diff          []byte    `gorm:"type:jsonb"`
}

// TableName specifies the table name for the AuditEvent model.
func (AuditEvent) TableName() string { return "transaction_audit_events" }

// Migrate creates or updates the ledger's tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Client{},
		&Currency{},
		&Gateway{},
		&TransactionType{},
		&Transaction{},
		&Invoice{},
		&AppliedAmount{},
		&AuditEvent{},
	)
}
