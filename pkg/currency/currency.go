// Package currency resolves per-company decimal precision for currency codes
// and provides the rounding helper every monetary computation goes through.
package currency

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

const (
	// MaxPrecision is the fallback precision used when a currency is not
	// configured for a company.
	MaxPrecision int32 = 4
	// DefaultCurrency is the fallback currency code.
	DefaultCurrency = "USD"
)

// Currency is a company-scoped currency configuration row.
type Currency struct {
	CompanyID uuid.UUID
	Code      string
	Precision int32
	Symbol    string
}

// Repository loads and stores company currency configuration.
type Repository interface {
	Get(ctx context.Context, companyID uuid.UUID, code string) (*Currency, error)
	Upsert(ctx context.Context, c *Currency) error
	List(ctx context.Context, companyID uuid.UUID) ([]Currency, error)
}

// Resolver answers precision lookups, memoizing results in an explicit
// cache. The cache is scoped to the resolver instance and invalidated
// through Invalidate; there is no hidden process-wide state.
type Resolver struct {
	repo   Repository
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[cacheKey]int32
}

type cacheKey struct {
	companyID uuid.UUID
	code      string
}

// NewResolver creates a Resolver over the given repository.
func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: logger,
		cache:  make(map[cacheKey]int32),
	}
}

// Precision resolves the decimal precision for a currency code within a
// company, falling back to MaxPrecision when the currency is unknown or the
// lookup fails. The company id is always explicit; the resolver carries no
// ambient company.
func (r *Resolver) Precision(ctx context.Context, companyID uuid.UUID, code string) int32 {
	key := cacheKey{companyID: companyID, code: code}
	r.mu.RLock()
	if p, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return p
	}
	r.mu.RUnlock()

	precision := MaxPrecision
	cur, err := r.repo.Get(ctx, companyID, code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Unconfigured currency: the fallback is the answer, cache it.
	case err != nil:
		// Transient failure: fall back but do not cache, so the next call
		// retries the lookup.
		r.logger.Warn("currency lookup failed, using max precision",
			"company_id", companyID, "currency", code, "error", err)
		return precision
	case cur != nil:
		precision = cur.Precision
	}

	r.mu.Lock()
	r.cache[key] = precision
	r.mu.Unlock()
	return precision
}

// Invalidate drops the cached precision for one company currency, e.g. after
// the configuration row changes.
func (r *Resolver) Invalidate(companyID uuid.UUID, code string) {
	r.mu.Lock()
	delete(r.cache, cacheKey{companyID: companyID, code: code})
	r.mu.Unlock()
}

// Round rounds a monetary amount to the given precision, half away from
// zero.
func Round(amount decimal.Decimal, precision int32) decimal.Decimal {
	return amount.Round(precision)
}

// ValidFormat reports whether code looks like an ISO 4217 alphabetic code:
// exactly three ASCII letters.
func ValidFormat(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
