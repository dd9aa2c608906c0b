package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	repo "github.com/marcus-alicia/blesta-sub002/pkg/repository"
)

type appliedAmountRepository struct {
	db *gorm.DB
}

// NewAppliedAmountRepository creates a gorm-backed applied-amount
// repository.
func NewAppliedAmountRepository(db *gorm.DB) repo.AppliedAmountRepository {
	return &appliedAmountRepository{db: db}
}

// Upsert inserts the row or, when the (transaction, invoice) pair already
// has one, adds to its amount. The composite primary key drives the
// conflict target, so repeated application accumulates instead of
// duplicating rows.
func (r *appliedAmountRepository) Upsert(ctx context.Context, row domain.AppliedAmount) error {
	record := AppliedAmount{
		TransactionID: row.TransactionID,
		InvoiceID:     row.InvoiceID,
		Amount:        row.Amount,
		Date:          row.Date,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "transaction_id"}, {Name: "invoice_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount": gorm.Expr("applied_amounts.amount + excluded.amount"),
				"date":   gorm.Expr("excluded.date"),
			}),
		}).
		Create(&record).Error
}

func (r *appliedAmountRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.AppliedAmount, error) {
	var rows []AppliedAmount
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.AppliedAmount, len(rows))
	for i, row := range rows {
		out[i] = domain.AppliedAmount{
			TransactionID: row.TransactionID,
			InvoiceID:     row.InvoiceID,
			Amount:        row.Amount,
			Date:          row.Date,
		}
	}
	return out, nil
}

func (r *appliedAmountRepository) SumByTransaction(ctx context.Context, transactionID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "transaction_id = ?", transactionID)
}

func (r *appliedAmountRepository) SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "invoice_id = ?", invoiceID)
}

func (r *appliedAmountRepository) sum(ctx context.Context, cond string, id uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&AppliedAmount{}).
		Select("SUM(amount)").
		Where(cond, id).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Delete removes whole rows for the transaction; a nil invoice filter
// removes every row.
func (r *appliedAmountRepository) Delete(ctx context.Context, transactionID uuid.UUID, invoiceIDs []uuid.UUID) error {
	db := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID)
	if invoiceIDs != nil {
		db = db.Where("invoice_id IN ?", invoiceIDs)
	}
	return db.Delete(&AppliedAmount{}).Error
}
