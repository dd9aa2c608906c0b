package transaction

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
	"github.com/marcus-alicia/blesta-sub002/pkg/ledger"
)

func toCreateDTO(input *CreateTransactionRequest) (*dto.TransactionCreate, error) {
	companyID, err := uuid.Parse(input.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("company_id: %w", err)
	}
	clientID, err := uuid.Parse(input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("client_id: %w", err)
	}
	amount, err := decimal.NewFromString(input.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	create := &dto.TransactionCreate{
		CompanyID: companyID,
		ClientID:  clientID,
		Amount:    amount,
		Currency:  input.Currency,
		Type:      domain.PaymentType(input.Type),
		Message:   input.Message,
		Status:    domain.Status(input.Status),
	}

	if create.TypeID, err = optionalUUID("transaction_type_id", input.TransactionTypeID); err != nil {
		return nil, err
	}
	if create.AccountID, err = optionalUUID("account_id", input.AccountID); err != nil {
		return nil, err
	}
	if create.GatewayID, err = optionalUUID("gateway_id", input.GatewayID); err != nil {
		return nil, err
	}
	create.GatewayTransactionID = optionalString(input.GatewayTransactionID)
	create.ParentTransactionID = optionalString(input.ParentTransactionID)
	create.ReferenceID = optionalString(input.ReferenceID)

	if input.DateAdded != "" {
		added, err := time.Parse(time.RFC3339, input.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("date_added: %w", err)
		}
		create.DateAdded = &added
	}
	return create, nil
}

func toUpdateDTO(input *UpdateTransactionRequest) (*dto.TransactionUpdate, error) {
	update := &dto.TransactionUpdate{
		GatewayTransactionID: input.GatewayTransactionID,
		ParentTransactionID:  input.ParentTransactionID,
		ReferenceID:          input.ReferenceID,
		Message:              input.Message,
	}

	if input.Amount != nil {
		amount, err := decimal.NewFromString(*input.Amount)
		if err != nil {
			return nil, fmt.Errorf("amount: %w", err)
		}
		update.Amount = &amount
	}
	if input.Currency != nil {
		update.Currency = input.Currency
	}
	if input.Type != nil {
		paymentType := domain.PaymentType(*input.Type)
		update.Type = &paymentType
	}
	if input.Status != nil {
		status := domain.Status(*input.Status)
		update.Status = &status
	}

	var err error
	if input.TransactionTypeID != nil {
		if update.TypeID, err = optionalUUID("transaction_type_id", *input.TransactionTypeID); err != nil {
			return nil, err
		}
	}
	if input.AccountID != nil {
		if update.AccountID, err = optionalUUID("account_id", *input.AccountID); err != nil {
			return nil, err
		}
	}
	if input.GatewayID != nil {
		if update.GatewayID, err = optionalUUID("gateway_id", *input.GatewayID); err != nil {
			return nil, err
		}
	}
	if input.DateAdded != nil {
		added, err := time.Parse(time.RFC3339, *input.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("date_added: %w", err)
		}
		update.DateAdded = &added
	}
	return update, nil
}

func toApplyEntries(input *ApplyRequest) ([]ledger.ApplyEntry, *time.Time, error) {
	entries := make([]ledger.ApplyEntry, 0, len(input.Amounts))
	for _, raw := range input.Amounts {
		invoiceID, err := uuid.Parse(raw.InvoiceID)
		if err != nil {
			return nil, nil, fmt.Errorf("invoice_id: %w", err)
		}
		amount, err := decimal.NewFromString(raw.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("amount: %w", err)
		}
		entries = append(entries, ledger.ApplyEntry{InvoiceID: invoiceID, Amount: amount})
	}

	var date *time.Time
	if input.Date != "" {
		parsed, err := time.Parse(time.RFC3339, input.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("date: %w", err)
		}
		date = &parsed
	}
	return entries, date, nil
}

func toWantMap(amounts map[string]string) (map[uuid.UUID]decimal.Decimal, error) {
	if len(amounts) == 0 {
		return nil, nil
	}
	want := make(map[uuid.UUID]decimal.Decimal, len(amounts))
	for rawID, rawAmount := range amounts {
		invoiceID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("amounts: %w", err)
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return nil, fmt.Errorf("amounts[%s]: %w", rawID, err)
		}
		want[invoiceID] = amount
	}
	return want, nil
}

func searchQuery(c *fiber.Ctx) (*dto.TransactionSearch, error) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		return nil, fmt.Errorf("company_id: %w", err)
	}

	q := &dto.TransactionSearch{
		CompanyID:  companyID,
		Status:     c.Query("status"),
		ExternalID: c.Query("external_id"),
		Page:       c.QueryInt("page"),
		PerPage:    c.QueryInt("per_page"),
	}

	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("client_id: %w", err)
		}
		q.ClientID = &clientID
	}
	if raw := c.Query("type"); raw != "" {
		paymentType := domain.PaymentType(raw)
		q.Type = &paymentType
	}
	if raw := c.Query("applied"); raw != "" {
		applied := domain.AppliedFilter(raw)
		q.Applied = &applied
	}
	if raw := c.Query("date_from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("date_from: %w", err)
		}
		q.DateFrom = &from
	}
	if raw := c.Query("date_to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("date_to: %w", err)
		}
		q.DateTo = &to
	}
	if raw := c.Query("amount_min"); raw != "" {
		amountMin, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("amount_min: %w", err)
		}
		q.AmountMin = &amountMin
	}
	if raw := c.Query("amount_max"); raw != "" {
		amountMax, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("amount_max: %w", err)
		}
		q.AmountMax = &amountMax
	}
	return q, nil
}

func optionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &id, nil
}

func optionalString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}
