package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
)

// diffOf computes the field-level diff an edit would produce against the
// current row. Only genuinely changed columns appear; the audit collaborator
// consumes the result as-is.
func diffOf(existing *domain.Transaction, update dto.TransactionUpdate) domain.FieldDiff {
	diff := make(domain.FieldDiff)

	if update.Amount != nil && !update.Amount.Equal(existing.Amount) {
		diff["amount"] = change(existing.Amount.String(), update.Amount.String())
	}
	if update.Currency != nil && *update.Currency != existing.Currency {
		diff["currency"] = change(existing.Currency, *update.Currency)
	}
	if update.Type != nil && *update.Type != existing.Type {
		diff["type"] = change(string(existing.Type), string(*update.Type))
	}
	if update.Status != nil && *update.Status != existing.Status {
		diff["status"] = change(string(existing.Status), string(*update.Status))
	}
	if update.Message != nil && *update.Message != existing.Message {
		diff["message"] = change(existing.Message, *update.Message)
	}
	if update.TypeID != nil && !uuidEqual(update.TypeID, existing.TypeID) {
		diff["transaction_type_id"] = change(uuidString(existing.TypeID), update.TypeID.String())
	}
	if update.AccountID != nil && !uuidEqual(update.AccountID, existing.AccountID) {
		diff["account_id"] = change(uuidString(existing.AccountID), update.AccountID.String())
	}
	if update.GatewayID != nil && !uuidEqual(update.GatewayID, existing.GatewayID) {
		diff["gateway_id"] = change(uuidString(existing.GatewayID), update.GatewayID.String())
	}
	if update.GatewayTransactionID != nil && !strEqual(update.GatewayTransactionID, existing.GatewayTransactionID) {
		diff["transaction_id"] = change(strValue(existing.GatewayTransactionID), *update.GatewayTransactionID)
	}
	if update.ParentTransactionID != nil && !strEqual(update.ParentTransactionID, existing.ParentTransactionID) {
		diff["parent_transaction_id"] = change(strValue(existing.ParentTransactionID), *update.ParentTransactionID)
	}
	if update.ReferenceID != nil && !strEqual(update.ReferenceID, existing.ReferenceID) {
		diff["reference_id"] = change(strValue(existing.ReferenceID), *update.ReferenceID)
	}
	if update.DateAdded != nil && !update.DateAdded.Equal(existing.DateAdded) {
		diff["date_added"] = change(
			existing.DateAdded.Format(time.RFC3339),
			update.DateAdded.Format(time.RFC3339),
		)
	}

	return diff
}

func change(prev, cur string) domain.FieldChange {
	return domain.FieldChange{Prev: prev, Cur: cur}
}

func uuidEqual(update *uuid.UUID, existing *uuid.UUID) bool {
	if existing == nil {
		return false
	}
	return *update == *existing
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func strEqual(update *string, existing *string) bool {
	if existing == nil {
		return *update == ""
	}
	return *update == *existing
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
