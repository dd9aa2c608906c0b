package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/provider"
)

type auditLogger struct {
	db *gorm.DB
}

// NewAuditLogger creates the gorm-backed audit trail for transaction edits.
func NewAuditLogger(db *gorm.DB) provider.AuditLogger {
	return &auditLogger{db: db}
}

func (a *auditLogger) Record(ctx context.Context, transactionID uuid.UUID, diff domain.FieldDiff) error {
	payload, err := json.Marshal(diff)
	if err != nil {
		return err
	}
	row := AuditEvent{
		TransactionID: transactionID,
		Diff:          payload,
	}
	return a.db.WithContext(ctx).Create(&row).Error
}
