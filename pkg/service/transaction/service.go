// Package transaction implements the transaction ledger and its service
// layer: recording monetary transactions, applying their value to invoices,
// tracking credits and reversing applications when a transaction's status
// leaves approved.
package transaction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
	"github.com/marcus-alicia/blesta-sub002/pkg/eventbus"
	"github.com/marcus-alicia/blesta-sub002/pkg/provider"
	"github.com/marcus-alicia/blesta-sub002/pkg/repository"
)

// PrecisionResolver resolves decimal precision per company and currency.
// *currency.Resolver satisfies it.
type PrecisionResolver interface {
	Precision(ctx context.Context, companyID uuid.UUID, code string) int32
}

// Deps holds the service's collaborators.
type Deps struct {
	Uow       repository.UnitOfWork
	Invoices  provider.InvoiceRepository
	Clients   provider.ClientRepository
	Refs      provider.ReferenceChecker
	Audit     provider.AuditLogger
	Precision PrecisionResolver
	Bus       eventbus.Bus
	Logger    *slog.Logger
}

// Service orchestrates the transaction ledger. Only Service writes
// transaction and applied-amount rows; the validation and allocation cores
// it delegates to are pure.
type Service struct {
	uow       repository.UnitOfWork
	invoices  provider.InvoiceRepository
	clients   provider.ClientRepository
	refs      provider.ReferenceChecker
	audit     provider.AuditLogger
	precision PrecisionResolver
	bus       eventbus.Bus
	logger    *slog.Logger
}

// NewService creates a Service with the provided dependencies.
func NewService(deps Deps) *Service {
	return &Service{
		uow:       deps.Uow,
		invoices:  deps.Invoices,
		clients:   deps.Clients,
		refs:      deps.Refs,
		audit:     deps.Audit,
		precision: deps.Precision,
		bus:       deps.Bus,
		logger:    deps.Logger,
	}
}

// Add validates and records a new transaction, returning its id. Status
// defaults to approved and DateAdded to now. Validation failures are
// reported as a domain.ValidationErrors carrying every violation.
func (s *Service) Add(ctx context.Context, create dto.TransactionCreate) (uuid.UUID, error) {
	logger := s.logger.With("client_id", create.ClientID)

	if create.Status == "" {
		create.Status = domain.StatusApproved
	}
	if create.DateAdded == nil {
		now := time.Now().UTC()
		create.DateAdded = &now
	}

	verrs, err := s.validateCreate(ctx, create)
	if err != nil {
		logger.Error("Add failed: validation lookup error", "error", err)
		return uuid.Nil, err
	}
	if err := verrs.ErrOrNil(); err != nil {
		return uuid.Nil, err
	}

	tx := &domain.Transaction{
		ID:                   uuid.New(),
		CompanyID:            create.CompanyID,
		ClientID:             create.ClientID,
		Amount:               create.Amount,
		Currency:             create.Currency,
		Type:                 create.Type,
		TypeID:               create.TypeID,
		AccountID:            create.AccountID,
		GatewayID:            create.GatewayID,
		GatewayTransactionID: create.GatewayTransactionID,
		ParentTransactionID:  create.ParentTransactionID,
		ReferenceID:          create.ReferenceID,
		Message:              create.Message,
		Status:               create.Status,
		DateAdded:            *create.DateAdded,
	}

	_ = s.bus.Publish(ctx, newEvent(EventBeforeAdd, tx.ID, tx.ClientID))

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, tx)
	})
	if err != nil {
		logger.Error("Add failed: create error", "error", err)
		return uuid.Nil, err
	}

	_ = s.bus.Publish(ctx, newEvent(EventAfterAdd, tx.ID, tx.ClientID))
	logger.Info("transaction added", "transaction_id", tx.ID, "amount", tx.Amount, "currency", tx.Currency)
	return tx.ID, nil
}

// Edit validates and applies a partial update. The client is immutable. If
// the resulting status is anything but approved, every current application
// of the transaction is reversed inside the same store transaction, so
// applied amounts never reference a non-approved transaction. The
// field-level diff of changed columns is handed to the audit collaborator.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, update dto.TransactionUpdate) (uuid.UUID, error) {
	logger := s.logger.With("transaction_id", id)

	existing, err := s.load(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if existing == nil {
		var verrs domain.ValidationErrors
		verrs.Add("transaction_id", domain.ErrNotFound, "transaction does not exist")
		return uuid.Nil, verrs
	}

	verrs, err := s.validateUpdate(ctx, update)
	if err != nil {
		logger.Error("Edit failed: validation lookup error", "error", err)
		return uuid.Nil, err
	}
	if err := verrs.ErrOrNil(); err != nil {
		return uuid.Nil, err
	}

	diff := diffOf(existing, update)

	resulting := existing.Status
	if update.Status != nil {
		resulting = *update.Status
	}

	_ = s.bus.Publish(ctx, newEvent(EventBeforeEdit, id, existing.ClientID))

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		// Re-read under a row lock: a transaction keeping approved status
		// must not shrink below its applied sum or change currency while
		// applied rows exist.
		current, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if resulting == domain.StatusApproved && current.AppliedAmount.IsPositive() {
			var verrs domain.ValidationErrors
			if update.Amount != nil && update.Amount.LessThan(current.AppliedAmount) {
				verrs.Add("amount", domain.ErrOverage,
					"amount %s is below the applied sum %s", update.Amount, current.AppliedAmount)
			}
			if update.Currency != nil && *update.Currency != current.Currency {
				verrs.Add("currency", domain.ErrCurrencyMismatch,
					"currency cannot change while amounts are applied")
			}
			if err := verrs.ErrOrNil(); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, id, update); err != nil {
			return err
		}
		if resulting != domain.StatusApproved {
			return s.unapplyInUow(ctx, uow, id, nil)
		}
		return nil
	})
	if err != nil {
		var verrs domain.ValidationErrors
		if !errors.As(err, &verrs) {
			logger.Error("Edit failed", "error", err)
		}
		return uuid.Nil, err
	}

	if len(diff) > 0 {
		if err := s.audit.Record(ctx, id, diff); err != nil {
			logger.Warn("audit record failed", "error", err)
		}
	}

	_ = s.bus.Publish(ctx, newEvent(EventAfterEdit, id, existing.ClientID))
	logger.Info("transaction edited", "changed_fields", len(diff), "status", resulting)
	return id, nil
}

// Delete reverses every application of the transaction and removes it. No
// applied-amount row may survive its transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	logger := s.logger.With("transaction_id", id)

	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		var verrs domain.ValidationErrors
		verrs.Add("transaction_id", domain.ErrNotFound, "transaction does not exist")
		return verrs
	}

	_ = s.bus.Publish(ctx, newEvent(EventBeforeDelete, id, existing.ClientID))

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := s.unapplyInUow(ctx, uow, id, nil); err != nil {
			return err
		}
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		logger.Error("Delete failed", "error", err)
		return err
	}

	_ = s.bus.Publish(ctx, newEvent(EventAfterDelete, id, existing.ClientID))
	logger.Info("transaction deleted")
	return nil
}

// Get returns the transaction with its applied and credited amounts
// computed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.ErrNotFound
	}
	s.fillCredited(ctx, tx)
	return tx, nil
}

// GetByGatewayTransactionID looks a transaction up by the id its gateway
// assigned.
func (s *Service) GetByGatewayTransactionID(ctx context.Context, gatewayTxID string) (*domain.Transaction, error) {
	var tx *domain.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		tx, err = repo.GetByGatewayTransactionID(ctx, gatewayTxID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.fillCredited(ctx, tx)
	return tx, nil
}

// Search lists transactions matching the filters, with the total match
// count for paging.
func (s *Service) Search(ctx context.Context, q dto.TransactionSearch) ([]domain.Transaction, int64, error) {
	var (
		txs   []domain.Transaction
		total int64
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		txs, total, err = repo.Search(ctx, q)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	for i := range txs {
		s.fillCredited(ctx, &txs[i])
	}
	return txs, total, nil
}

// load fetches a transaction with its applied sum, returning (nil, nil) when
// it does not exist.
func (s *Service) load(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var tx *domain.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		tx, err = repo.Get(ctx, id)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Service) fillCredited(ctx context.Context, tx *domain.Transaction) {
	if tx == nil {
		return
	}
	prec := s.precision.Precision(ctx, tx.CompanyID, tx.Currency)
	tx.CreditedAmount = tx.Credit(prec)
}
