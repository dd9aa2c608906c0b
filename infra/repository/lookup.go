package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgcurrency "github.com/marcus-alicia/blesta-sub002/pkg/currency"
	"github.com/marcus-alicia/blesta-sub002/pkg/provider"
)

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates the client existence check.
func NewClientRepository(db *gorm.DB) provider.ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Client{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

type referenceChecker struct {
	db *gorm.DB
}

// NewReferenceChecker creates the gateway and transaction-type existence
// checks.
func NewReferenceChecker(db *gorm.DB) provider.ReferenceChecker {
	return &referenceChecker{db: db}
}

func (r *referenceChecker) GatewayExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Gateway{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *referenceChecker) TransactionTypeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&TransactionType{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

type currencyRepository struct {
	db *gorm.DB
}

// NewCurrencyRepository creates the per-company currency configuration
// store feeding the precision resolver.
func NewCurrencyRepository(db *gorm.DB) pkgcurrency.Repository {
	return &currencyRepository{db: db}
}

func (r *currencyRepository) Get(ctx context.Context, companyID uuid.UUID, code string) (*pkgcurrency.Currency, error) {
	var row Currency
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND code = ?", companyID, code).
		First(&row).Error
	if err != nil {
		return nil, mapNotFound(err, "currency %s for company %s", code, companyID)
	}
	return &pkgcurrency.Currency{
		CompanyID: row.CompanyID,
		Code:      row.Code,
		Precision: row.Precision,
		Symbol:    row.Symbol,
	}, nil
}

func (r *currencyRepository) Upsert(ctx context.Context, c *pkgcurrency.Currency) error {
	row := Currency{
		CompanyID: c.CompanyID,
		Code:      c.Code,
		Precision: c.Precision,
		Symbol:    c.Symbol,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"precision", "symbol"}),
		}).
		Create(&row).Error
}

func (r *currencyRepository) List(ctx context.Context, companyID uuid.UUID) ([]pkgcurrency.Currency, error) {
	var rows []Currency
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]pkgcurrency.Currency, len(rows))
	for i, row := range rows {
		out[i] = pkgcurrency.Currency{
			CompanyID: row.CompanyID,
			Code:      row.Code,
			Precision: row.Precision,
			Symbol:    row.Symbol,
		}
	}
	return out, nil
}
