// Package transaction exposes the ledger over HTTP using the Fiber web
// framework.
package transaction

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
	"github.com/marcus-alicia/blesta-sub002/pkg/ledger"
	"github.com/marcus-alicia/blesta-sub002/webapi/common"
)

// Service is the slice of the transaction service the handlers depend on.
type Service interface {
	Add(ctx context.Context, create dto.TransactionCreate) (uuid.UUID, error)
	Edit(ctx context.Context, id uuid.UUID, update dto.TransactionUpdate) (uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	Search(ctx context.Context, q dto.TransactionSearch) ([]domain.Transaction, int64, error)
	Apply(ctx context.Context, id uuid.UUID, entries []ledger.ApplyEntry, date *time.Time) error
	Unapply(ctx context.Context, id uuid.UUID, invoiceIDs []uuid.UUID) error
	Credits(ctx context.Context, companyID, clientID uuid.UUID, currency string) (ledger.Credits, error)
	ApplyFromCredits(ctx context.Context, companyID, clientID uuid.UUID, currency string,
		want map[uuid.UUID]decimal.Decimal, order ledger.SourceOrder) (ledger.Plan, error)
}

// Routes registers the ledger's HTTP routes.
//
//   - POST   /transactions                    : record a transaction
//   - GET    /transactions                    : search transactions
//   - GET    /transactions/:id               : fetch one transaction
//   - PUT    /transactions/:id               : edit a transaction
//   - DELETE /transactions/:id               : reverse and remove
//   - POST   /transactions/:id/apply         : apply value to invoices
//   - POST   /transactions/:id/unapply       : reverse applications
//   - GET    /clients/:id/credits            : list available credit
//   - POST   /clients/:id/apply-credits      : settle invoices from credit
func Routes(app *fiber.App, svc Service) {
	app.Post("/transactions", Create(svc))
	app.Get("/transactions", Search(svc))
	app.Get("/transactions/:id", Get(svc))
	app.Put("/transactions/:id", Update(svc))
	app.Delete("/transactions/:id", Delete(svc))
	app.Post("/transactions/:id/apply", Apply(svc))
	app.Post("/transactions/:id/unapply", Unapply(svc))
	app.Get("/clients/:id/credits", Credits(svc))
	app.Post("/clients/:id/apply-credits", ApplyCredits(svc))
}

// Create returns the handler recording a new transaction.
func Create(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateTransactionRequest](c)
		if input == nil {
			return err
		}
		create, ferr := toCreateDTO(input)
		if ferr != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Malformed field", ferr.Error())
		}
		id, err := svc.Add(c.UserContext(), *create)
		if err != nil {
			log.Errorf("Failed to add transaction: %v", err)
			return common.DomainErrorJSON(c, "Failed to add transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Transaction recorded", fiber.Map{"id": id})
	}
}

// Get returns the handler fetching a transaction with its applied and
// credited amounts.
func Get(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid transaction id", err.Error())
		}
		tx, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to fetch transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction", tx)
	}
}

// Update returns the handler editing a transaction. Moving the status away
// from approved reverses every application as part of the same operation.
func Update(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid transaction id", err.Error())
		}
		input, err := common.BindAndValidate[UpdateTransactionRequest](c)
		if input == nil {
			return err
		}
		update, ferr := toUpdateDTO(input)
		if ferr != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Malformed field", ferr.Error())
		}
		if _, err := svc.Edit(c.UserContext(), id, *update); err != nil {
			log.Errorf("Failed to edit transaction %s: %v", id, err)
			return common.DomainErrorJSON(c, "Failed to edit transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction updated", fiber.Map{"id": id})
	}
}

// Delete returns the handler reversing and removing a transaction.
func Delete(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid transaction id", err.Error())
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return common.DomainErrorJSON(c, "Failed to delete transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction deleted", nil)
	}
}

// Search returns the handler listing transactions by filters.
func Search(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, ferr := searchQuery(c)
		if ferr != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid search filter", ferr.Error())
		}
		txs, total, err := svc.Search(c.UserContext(), *q)
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to search transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions", fiber.Map{
			"transactions": txs,
			"total":        total,
		})
	}
}

// Apply returns the handler applying a transaction's value to invoices.
func Apply(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid transaction id", err.Error())
		}
		input, err := common.BindAndValidate[ApplyRequest](c)
		if input == nil {
			return err
		}
		entries, date, ferr := toApplyEntries(input)
		if ferr != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Malformed field", ferr.Error())
		}
		if err := svc.Apply(c.UserContext(), id, entries, date); err != nil {
			log.Errorf("Failed to apply transaction %s: %v", id, err)
			return common.DomainErrorJSON(c, "Failed to apply transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction applied", nil)
	}
}

// Unapply returns the handler reversing applications.
func Unapply(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid transaction id", err.Error())
		}
		input, err := common.BindAndValidate[UnapplyRequest](c)
		if input == nil {
			return err
		}
		var invoiceIDs []uuid.UUID
		for _, raw := range input.InvoiceIDs {
			invoiceID, err := uuid.Parse(raw)
			if err != nil {
				return common.ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Malformed field", err.Error())
			}
			invoiceIDs = append(invoiceIDs, invoiceID)
		}
		if err := svc.Unapply(c.UserContext(), id, invoiceIDs); err != nil {
			return common.DomainErrorJSON(c, "Failed to unapply transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction unapplied", nil)
	}
}

// Credits returns the handler listing a client's available credit per
// currency.
func Credits(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid client id", err.Error())
		}
		companyID, err := uuid.Parse(c.Query("company_id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid company id", err.Error())
		}
		credits, err := svc.Credits(c.UserContext(), companyID, clientID, c.Query("currency"))
		if err != nil {
			return common.DomainErrorJSON(c, "Failed to list credits", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Credits", credits)
	}
}

// ApplyCredits returns the handler settling a client's open invoices from
// available credit.
func ApplyCredits(svc Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid client id", err.Error())
		}
		input, err := common.BindAndValidate[ApplyCreditsRequest](c)
		if input == nil {
			return err
		}
		companyID, err := uuid.Parse(input.CompanyID)
		if err != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Malformed field", err.Error())
		}
		want, ferr := toWantMap(input.Amounts)
		if ferr != nil {
			return common.ErrorResponseJSON(c, fiber.StatusUnprocessableEntity, "Malformed field", ferr.Error())
		}
		order := ledger.OrderEnumeration
		if input.OldestFirst {
			order = ledger.OrderOldestFirst
		}
		plan, err := svc.ApplyFromCredits(c.UserContext(), companyID, clientID, input.Currency, want, order)
		if err != nil {
			log.Errorf("Failed to apply credits for client %s: %v", clientID, err)
			return common.DomainErrorJSON(c, "Failed to apply credits", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Credits applied", plan)
	}
}
