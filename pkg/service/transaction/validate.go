package transaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/marcus-alicia/blesta-sub002/pkg/currency"
	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
)

// maxMessageLen bounds the free-text gateway message column.
const maxMessageLen = 255

// validateCreate runs every field check for Add and reports all violations
// at once. The second return value is an infrastructure error from an
// existence lookup, distinct from a validation failure.
func (s *Service) validateCreate(ctx context.Context, create dto.TransactionCreate) (domain.ValidationErrors, error) {
	var errs domain.ValidationErrors

	ok, err := s.clients.Exists(ctx, create.ClientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		errs.Add("client_id", domain.ErrNotFound, "client does not exist")
	}

	if !currency.ValidFormat(create.Currency) {
		errs.Add("currency", domain.ErrFormat, "currency must be a 3-letter code")
	}
	if create.Amount.IsNegative() {
		errs.Add("amount", domain.ErrInvalidAmount, "amount must not be negative")
	}
	if !create.Type.Valid() {
		errs.Add("type", domain.ErrFormat, "type must be one of cc, ach, other")
	}
	if !create.Status.Valid() {
		errs.Add("status", domain.ErrFormat, "unknown status %q", create.Status)
	}
	if len(create.Message) > maxMessageLen {
		errs.Add("message", domain.ErrFormat, "message exceeds %d characters", maxMessageLen)
	}

	refErrs, err := s.validateRefs(ctx, create.TypeID, create.GatewayID)
	if err != nil {
		return nil, err
	}
	errs.Merge(refErrs)

	return errs, nil
}

// validateUpdate mirrors validateCreate for the editable fields; the client
// is immutable so it is never re-checked.
func (s *Service) validateUpdate(ctx context.Context, update dto.TransactionUpdate) (domain.ValidationErrors, error) {
	var errs domain.ValidationErrors

	if update.Currency != nil && !currency.ValidFormat(*update.Currency) {
		errs.Add("currency", domain.ErrFormat, "currency must be a 3-letter code")
	}
	if update.Amount != nil && update.Amount.IsNegative() {
		errs.Add("amount", domain.ErrInvalidAmount, "amount must not be negative")
	}
	if update.Type != nil && !update.Type.Valid() {
		errs.Add("type", domain.ErrFormat, "type must be one of cc, ach, other")
	}
	if update.Status != nil && !update.Status.Valid() {
		errs.Add("status", domain.ErrFormat, "unknown status %q", *update.Status)
	}
	if update.Message != nil && len(*update.Message) > maxMessageLen {
		errs.Add("message", domain.ErrFormat, "message exceeds %d characters", maxMessageLen)
	}

	refErrs, err := s.validateRefs(ctx, update.TypeID, update.GatewayID)
	if err != nil {
		return nil, err
	}
	errs.Merge(refErrs)

	return errs, nil
}

func (s *Service) validateRefs(ctx context.Context, typeID, gatewayID *uuid.UUID) (domain.ValidationErrors, error) {
	var errs domain.ValidationErrors

	if typeID != nil {
		ok, err := s.refs.TransactionTypeExists(ctx, *typeID)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.Add("transaction_type_id", domain.ErrNotFound, "transaction type does not exist")
		}
	}
	if gatewayID != nil {
		ok, err := s.refs.GatewayExists(ctx, *gatewayID)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.Add("gateway_id", domain.ErrNotFound, "gateway does not exist")
		}
	}

	return errs, nil
}
