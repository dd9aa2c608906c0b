package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/marcus-alicia/blesta-sub002/pkg/provider"
	repo "github.com/marcus-alicia/blesta-sub002/pkg/repository"
)

// Uow provides transaction boundary and repository access in one
// abstraction. Every repository obtained from the Uow inside Do is bound to
// the same store transaction, so a multi-step apply (rows plus invoice
// closure, or a whole credit-application sequence) commits or rolls back as
// one.
type Uow struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUow creates a Uow over the given *gorm.DB.
func NewUow(db *gorm.DB) *Uow {
	return &Uow{db: db}
}

// Do runs fn inside a store transaction. A Do issued while already inside
// one joins the ambient transaction instead of nesting.
func (u *Uow) Do(ctx context.Context, fn func(uow repo.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Uow{db: u.db, tx: tx})
	})
}

func (u *Uow) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// TransactionRepository returns a transaction repository bound to the
// current session.
func (u *Uow) TransactionRepository() (repo.TransactionRepository, error) {
	return NewTransactionRepository(u.session()), nil
}

// AppliedAmountRepository returns an applied-amount repository bound to the
// current session.
func (u *Uow) AppliedAmountRepository() (repo.AppliedAmountRepository, error) {
	return NewAppliedAmountRepository(u.session()), nil
}

// InvoiceRepository returns the invoice collaborator bound to the current
// session.
func (u *Uow) InvoiceRepository() (provider.InvoiceRepository, error) {
	return NewInvoiceRepository(u.session()), nil
}
