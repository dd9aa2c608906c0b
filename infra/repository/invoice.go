package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/provider"
)

// appliedToInvoiceExpr is the correlated sum of applied amounts for the
// current invoices row.
const appliedToInvoiceExpr = "COALESCE((SELECT SUM(aa.amount) FROM applied_amounts aa" +
	" WHERE aa.invoice_id = invoices.id), 0)"

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates the gorm-backed invoice collaborator. Invoice
// lifecycle is owned elsewhere; this reads balances and flips closure.
func NewInvoiceRepository(db *gorm.DB) provider.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate reads the invoice under a row lock. Concurrent applies into
// the same invoice serialize here, so each validates against the paid sum
// the previous one committed.
func (r *invoiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return r.get(ctx, id, true)
}

func (r *invoiceRepository) get(ctx context.Context, id uuid.UUID, locked bool) (*domain.Invoice, error) {
	db := r.db.WithContext(ctx)
	if locked {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row Invoice
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, "invoice %s", id)
	}
	paid, err := r.Paid(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomainInvoice(&row, paid), nil
}

func (r *invoiceRepository) Paid(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&AppliedAmount{}).
		Select("SUM(amount)").
		Where("invoice_id = ?", id).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *invoiceRepository) ListOpen(ctx context.Context, clientID uuid.UUID, currency string) ([]domain.Invoice, error) {
	db := r.db.WithContext(ctx).Model(&Invoice{}).
		Where("client_id = ?", clientID).
		Where("status IN ?", []string{
			string(domain.InvoiceActive),
			string(domain.InvoiceProforma),
		})
	if currency != "" {
		db = db.Where("currency = ?", currency)
	}

	var rows []Invoice
	if err := db.Order("date_due ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(rows))
	for i := range rows {
		paid, err := r.Paid(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *toDomainInvoice(&rows[i], paid))
	}
	return invoices, nil
}

// SetClosed recomputes the invoice's paid total and persists the resulting
// open/closed status: fully covered payable invoices close, and a closed
// invoice that is no longer covered re-opens.
func (r *invoiceRepository) SetClosed(ctx context.Context, id uuid.UUID) error {
	var row Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "id = ?", id).Error
	if err != nil {
		return mapNotFound(err, "invoice %s", id)
	}

	paid, err := r.Paid(ctx, id)
	if err != nil {
		return err
	}

	status := domain.InvoiceStatus(row.Status)
	covered := paid.GreaterThanOrEqual(row.Total)

	switch {
	case covered && status.Payable():
		now := time.Now().UTC()
		return r.db.WithContext(ctx).
			Model(&Invoice{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":      string(domain.InvoiceClosed),
				"date_closed": now,
			}).Error
	case !covered && status == domain.InvoiceClosed:
		return r.db.WithContext(ctx).
			Model(&Invoice{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":      string(domain.InvoiceActive),
				"date_closed": nil,
			}).Error
	}
	return nil
}

func toDomainInvoice(row *Invoice, paid decimal.Decimal) *domain.Invoice {
	return &domain.Invoice{
		ID:       row.ID,
		ClientID: row.ClientID,
		Currency: row.Currency,
		Total:    row.Total,
		Due:      row.Total.Sub(paid),
		Status:   domain.InvoiceStatus(row.Status),
		DateDue:  row.DateDue,
	}
}
