package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
)

func TestValidationErrors(t *testing.T) {
	var errs domain.ValidationErrors
	assert.True(t, errs.Empty())
	assert.NoError(t, errs.ErrOrNil())

	errs.Add("amount", domain.ErrInvalidAmount, "amount must not be negative")
	errs.Add("currency", domain.ErrFormat, "currency %q is not a valid code", "US")

	require.Len(t, errs, 2)
	assert.False(t, errs.Empty())
	assert.True(t, errs.Has(domain.ErrInvalidAmount))
	assert.True(t, errs.Has(domain.ErrFormat))
	assert.False(t, errs.Has(domain.ErrOverage))

	byField := errs.ByField()
	assert.Equal(t, []string{"amount must not be negative"}, byField["amount"])
	assert.Equal(t, []string{`currency "US" is not a valid code`}, byField["currency"])

	err := errs.ErrOrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount must not be negative")
}

func TestValidationErrorsMerge(t *testing.T) {
	var a, b domain.ValidationErrors
	a.Add("amount", domain.ErrInvalidAmount, "negative")
	b.Add("status", domain.ErrFormat, "unknown status")

	a.Merge(b)

	require.Len(t, a, 2)
	assert.True(t, a.Has(domain.ErrFormat))
}

func TestFieldErrorUnwrap(t *testing.T) {
	fe := domain.FieldError{Field: "amount", Err: domain.ErrInvalidAmount, Message: "negative"}
	assert.True(t, errors.Is(fe, domain.ErrInvalidAmount))
	assert.Equal(t, "amount: negative", fe.Error())
}
