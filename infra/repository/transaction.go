package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
	repo "github.com/marcus-alicia/blesta-sub002/pkg/repository"
)

// appliedSumExpr is the correlated sum of applied amounts for the current
// transactions row, used by the applied-status and credit filters.
const appliedSumExpr = "COALESCE((SELECT SUM(aa.amount) FROM applied_amounts aa" +
	" WHERE aa.transaction_id = transactions.id), 0)"

const defaultPerPage = 25

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a gorm-backed transaction repository.
func NewTransactionRepository(db *gorm.DB) repo.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	row := fromDomainTransaction(tx)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *transactionRepository) Update(ctx context.Context, id uuid.UUID, update dto.TransactionUpdate) error {
	updates := updateColumns(update)
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("updating transaction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Transaction{}).Error
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var row Transaction
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, "transaction %s", id)
	}
	return r.withApplied(ctx, &row)
}

func (r *transactionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var row Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, "transaction %s", id)
	}
	return r.withApplied(ctx, &row)
}

func (r *transactionRepository) GetByGatewayTransactionID(ctx context.Context, gatewayTxID string) (*domain.Transaction, error) {
	var row Transaction
	err := r.db.WithContext(ctx).
		Where("gateway_transaction_id = ?", gatewayTxID).
		First(&row).Error
	if err != nil {
		return nil, mapNotFound(err, "transaction with gateway id %q", gatewayTxID)
	}
	return r.withApplied(ctx, &row)
}

func (r *transactionRepository) Search(ctx context.Context, q dto.TransactionSearch) ([]domain.Transaction, int64, error) {
	db := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("company_id = ?", q.CompanyID)

	if q.ClientID != nil {
		db = db.Where("client_id = ?", *q.ClientID)
	}
	if q.Status != "" && q.Status != "all" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Type != nil {
		db = db.Where("type = ?", string(*q.Type))
	}
	if q.ExternalID != "" {
		pattern := "%" + q.ExternalID + "%"
		db = db.Where(
			"gateway_transaction_id ILIKE ? OR reference_id ILIKE ?",
			pattern, pattern,
		)
	}
	if q.DateFrom != nil {
		db = db.Where("date_added >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("date_added <= ?", *q.DateTo)
	}
	if q.AmountMin != nil {
		db = db.Where("amount >= ?", *q.AmountMin)
	}
	if q.AmountMax != nil {
		db = db.Where("amount <= ?", *q.AmountMax)
	}
	if q.Applied != nil {
		switch *q.Applied {
		case domain.FullyApplied:
			db = db.Where(appliedSumExpr + " >= transactions.amount")
		case domain.PartiallyApplied:
			db = db.Where(appliedSumExpr + " > 0 AND " + appliedSumExpr + " < transactions.amount")
		case domain.NotApplied:
			db = db.Where(appliedSumExpr + " = 0")
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	var rows []Transaction
	err := db.Order("date_added DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	txs, err := r.withAppliedBatch(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *transactionRepository) ListWithCredit(ctx context.Context, clientID uuid.UUID, currency string) ([]domain.Transaction, error) {
	db := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("client_id = ?", clientID).
		Where("status = ?", string(domain.StatusApproved)).
		Where("transactions.amount > " + appliedSumExpr)
	if currency != "" {
		db = db.Where("currency = ?", currency)
	}

	var rows []Transaction
	if err := db.Order("date_added ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withAppliedBatch(ctx, rows)
}

// withApplied attaches the applied sum to a single loaded row.
func (r *transactionRepository) withApplied(ctx context.Context, row *Transaction) (*domain.Transaction, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&AppliedAmount{}).
		Select("SUM(amount)").
		Where("transaction_id = ?", row.ID).
		Scan(&sum).Error
	if err != nil {
		return nil, err
	}
	tx := toDomainTransaction(row)
	if sum.Valid {
		tx.AppliedAmount = sum.Decimal
	}
	return tx, nil
}

// withAppliedBatch attaches applied sums to a result set with one grouped
// query.
func (r *transactionRepository) withAppliedBatch(ctx context.Context, rows []Transaction) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(rows))
	if len(rows) == 0 {
		return txs, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	type sumRow struct {
		TransactionID uuid.UUID
		Total         decimal.Decimal
	}
	var sums []sumRow
	err := r.db.WithContext(ctx).
		Model(&AppliedAmount{}).
		Select("transaction_id, SUM(amount) AS total").
		Where("transaction_id IN ?", ids).
		Group("transaction_id").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	applied := make(map[uuid.UUID]decimal.Decimal, len(sums))
	for _, s := range sums {
		applied[s.TransactionID] = s.Total
	}

	for i := range rows {
		tx := toDomainTransaction(&rows[i])
		tx.AppliedAmount = applied[rows[i].ID]
		txs = append(txs, *tx)
	}
	return txs, nil
}

// --- Mappers ---

func fromDomainTransaction(tx *domain.Transaction) Transaction {
	return Transaction{
		ID:                   tx.ID,
		CompanyID:            tx.CompanyID,
		ClientID:             tx.ClientID,
		Amount:               tx.Amount,
		Currency:             tx.Currency,
		Type:                 string(tx.Type),
		TransactionTypeID:    tx.TypeID,
		AccountID:            tx.AccountID,
		GatewayID:            tx.GatewayID,
		GatewayTransactionID: tx.GatewayTransactionID,
		ParentTransactionID:  tx.ParentTransactionID,
		ReferenceID:          tx.ReferenceID,
		Message:              tx.Message,
		Status:               string(tx.Status),
		DateAdded:            tx.DateAdded,
	}
}

func toDomainTransaction(row *Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:                   row.ID,
		CompanyID:            row.CompanyID,
		ClientID:             row.ClientID,
		Amount:               row.Amount,
		Currency:             row.Currency,
		Type:                 domain.PaymentType(row.Type),
		TypeID:               row.TransactionTypeID,
		AccountID:            row.AccountID,
		GatewayID:            row.GatewayID,
		GatewayTransactionID: row.GatewayTransactionID,
		ParentTransactionID:  row.ParentTransactionID,
		ReferenceID:          row.ReferenceID,
		Message:              row.Message,
		Status:               domain.Status(row.Status),
		DateAdded:            row.DateAdded,
	}
}

func updateColumns(update dto.TransactionUpdate) map[string]any {
	updates := make(map[string]any)
	if update.Amount != nil {
		updates["amount"] = *update.Amount
	}
	if update.Currency != nil {
		updates["currency"] = *update.Currency
	}
	if update.Type != nil {
		updates["type"] = string(*update.Type)
	}
	if update.TypeID != nil {
		updates["transaction_type_id"] = *update.TypeID
	}
	if update.AccountID != nil {
		updates["account_id"] = *update.AccountID
	}
	if update.GatewayID != nil {
		updates["gateway_id"] = *update.GatewayID
	}
	if update.GatewayTransactionID != nil {
		updates["gateway_transaction_id"] = *update.GatewayTransactionID
	}
	if update.ParentTransactionID != nil {
		updates["parent_transaction_id"] = *update.ParentTransactionID
	}
	if update.ReferenceID != nil {
		updates["reference_id"] = *update.ReferenceID
	}
	if update.Message != nil {
		updates["message"] = *update.Message
	}
	if update.Status != nil {
		updates["status"] = string(*update.Status)
	}
	if update.DateAdded != nil {
		updates["date_added"] = *update.DateAdded
	}
	return updates
}

func mapNotFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, domain.ErrNotFound)...)
	}
	return err
}
