// Package repository defines the persistence contracts the service layer
// depends on, plus the unit-of-work abstraction that scopes a group of
// writes to one store transaction.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
	"github.com/marcus-alicia/blesta-sub002/pkg/provider"
)

// TransactionRepository persists and queries transactions. Reads populate
// the computed AppliedAmount sum.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, id uuid.UUID, update dto.TransactionUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error

	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// GetForUpdate reads the transaction under a row lock so concurrent
	// applies against the same remaining value serialize.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByGatewayTransactionID(ctx context.Context, gatewayTxID string) (*domain.Transaction, error)

	Search(ctx context.Context, q dto.TransactionSearch) ([]domain.Transaction, int64, error)
	// ListWithCredit returns a client's approved transactions whose amount
	// exceeds their applied sum, optionally filtered to one currency.
	ListWithCredit(ctx context.Context, clientID uuid.UUID, currency string) ([]domain.Transaction, error)
}

// AppliedAmountRepository persists the transaction-to-invoice join rows.
type AppliedAmountRepository interface {
	// Upsert inserts the row, or adds its amount to the existing row for
	// the same (transaction, invoice) pair.
	Upsert(ctx context.Context, row domain.AppliedAmount) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.AppliedAmount, error)
	SumByTransaction(ctx context.Context, transactionID uuid.UUID) (decimal.Decimal, error)
	SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	// Delete removes whole rows for the transaction; nil invoiceIDs
	// removes every row. Rows are never partially decremented.
	Delete(ctx context.Context, transactionID uuid.UUID, invoiceIDs []uuid.UUID) error
}

// UnitOfWork provides transaction boundary and repository access in one
// abstraction: every repository obtained inside Do shares the same store
// transaction, so a multi-step apply either lands whole or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error
	TransactionRepository() (TransactionRepository, error)
	AppliedAmountRepository() (AppliedAmountRepository, error)
	InvoiceRepository() (provider.InvoiceRepository, error)
}
