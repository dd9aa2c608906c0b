package currency_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-alicia/blesta-sub002/pkg/currency"
	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

type fakeRepo struct {
	rows map[string]*currency.Currency // keyed companyID|code
	err  error
	gets int
}

func key(companyID uuid.UUID, code string) string {
	return companyID.String() + "|" + code
}

func (f *fakeRepo) Get(_ context.Context, companyID uuid.UUID, code string) (*currency.Currency, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	cur, ok := f.rows[key(companyID, code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cur, nil
}

func (f *fakeRepo) Upsert(_ context.Context, c *currency.Currency) error {
	f.rows[key(c.CompanyID, c.Code)] = c
	return nil
}

func (f *fakeRepo) List(_ context.Context, companyID uuid.UUID) ([]currency.Currency, error) {
	var out []currency.Currency
	for _, cur := range f.rows {
		if cur.CompanyID == companyID {
			out = append(out, *cur)
		}
	}
	return out, nil
}

func newResolver(repo *fakeRepo) *currency.Resolver {
	return currency.NewResolver(repo, slog.Default())
}

func TestResolverPrecision(t *testing.T) {
	company := uuid.New()
	repo := &fakeRepo{rows: map[string]*currency.Currency{}}
	require.NoError(t, repo.Upsert(context.Background(), &currency.Currency{
		CompanyID: company, Code: "JPY", Precision: 0, Symbol: "¥",
	}))
	r := newResolver(repo)

	assert.Equal(t, int32(0), r.Precision(context.Background(), company, "JPY"))
}

func TestResolverPrecision_FallbackWhenUnconfigured(t *testing.T) {
	repo := &fakeRepo{rows: map[string]*currency.Currency{}}
	r := newResolver(repo)

	got := r.Precision(context.Background(), uuid.New(), "XXX")

	assert.Equal(t, currency.MaxPrecision, got)
}

func TestResolverPrecision_CachesLookups(t *testing.T) {
	company := uuid.New()
	repo := &fakeRepo{rows: map[string]*currency.Currency{}}
	require.NoError(t, repo.Upsert(context.Background(), &currency.Currency{
		CompanyID: company, Code: "USD", Precision: 2,
	}))
	r := newResolver(repo)

	r.Precision(context.Background(), company, "USD")
	r.Precision(context.Background(), company, "USD")

	assert.Equal(t, 1, repo.gets)
}

func TestResolverPrecision_ScopedPerCompany(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	repo := &fakeRepo{rows: map[string]*currency.Currency{}}
	require.NoError(t, repo.Upsert(context.Background(), &currency.Currency{
		CompanyID: a, Code: "USD", Precision: 2,
	}))
	require.NoError(t, repo.Upsert(context.Background(), &currency.Currency{
		CompanyID: b, Code: "USD", Precision: 3,
	}))
	r := newResolver(repo)

	assert.Equal(t, int32(2), r.Precision(context.Background(), a, "USD"))
	assert.Equal(t, int32(3), r.Precision(context.Background(), b, "USD"))
}

func TestResolverInvalidate(t *testing.T) {
	company := uuid.New()
	repo := &fakeRepo{rows: map[string]*currency.Currency{}}
	require.NoError(t, repo.Upsert(context.Background(), &currency.Currency{
		CompanyID: company, Code: "USD", Precision: 2,
	}))
	r := newResolver(repo)

	require.Equal(t, int32(2), r.Precision(context.Background(), company, "USD"))

	require.NoError(t, repo.Upsert(context.Background(), &currency.Currency{
		CompanyID: company, Code: "USD", Precision: 4,
	}))
	// Still cached until invalidated.
	assert.Equal(t, int32(2), r.Precision(context.Background(), company, "USD"))

	r.Invalidate(company, "USD")
	assert.Equal(t, int32(4), r.Precision(context.Background(), company, "USD"))
}

func TestResolverPrecision_TransientErrorNotCached(t *testing.T) {
	repo := &fakeRepo{rows: map[string]*currency.Currency{}, err: errors.New("connection refused")}
	r := newResolver(repo)
	company := uuid.New()

	assert.Equal(t, currency.MaxPrecision, r.Precision(context.Background(), company, "USD"))
	repo.err = nil
	require.NoError(t, repo.Upsert(context.Background(), &currency.Currency{
		CompanyID: company, Code: "USD", Precision: 2,
	}))

	assert.Equal(t, int32(2), r.Precision(context.Background(), company, "USD"))
}

func TestRound(t *testing.T) {
	cases := []struct {
		in        string
		precision int32
		out       string
	}{
		{"10.005", 2, "10.01"},
		{"10.004", 2, "10"},
		{"-10.005", 2, "-10.01"},
		{"1234.5", 0, "1235"},
		{"99.99995", 4, "100"},
	}
	for _, tc := range cases {
		got := currency.Round(decimal.RequireFromString(tc.in), tc.precision)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.out)),
			"Round(%s, %d) = %s, want %s", tc.in, tc.precision, got, tc.out)
	}
}

func TestValidFormat(t *testing.T) {
	assert.True(t, currency.ValidFormat("USD"))
	assert.True(t, currency.ValidFormat("eur"))
	assert.False(t, currency.ValidFormat("US"))
	assert.False(t, currency.ValidFormat("USDT"))
	assert.False(t, currency.ValidFormat("U5D"))
	assert.False(t, currency.ValidFormat(""))
}
