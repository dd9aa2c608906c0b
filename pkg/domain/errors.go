package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors. Validation failures are classified by one of these
// sentinels so callers can branch with errors.Is.
var (
	// ErrNotFound is returned when a referenced client, transaction,
	// invoice, currency, gateway or transaction type does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrCurrencyMismatch is returned when an invoice's currency differs
	// from the transaction's, or from other invoices in the same batch.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrOverage is returned when a requested amount would exceed the
	// transaction's remaining value or an invoice's remaining due.
	ErrOverage = errors.New("amount exceeds remaining value")
	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidInvoiceState is returned when an invoice is not in a
	// status that accepts payment.
	ErrInvalidInvoiceState = errors.New("invoice not open for payment")
	// ErrFormat is returned for malformed dates, non-numeric amounts and
	// oversized or malformed string fields.
	ErrFormat = errors.New("malformed field")
)

// FieldError is a single validation violation keyed to the field it was
// found on.
type FieldError struct {
	Field   string
	Err     error // one of the sentinels above
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e FieldError) Unwrap() error { return e.Err }

// ValidationErrors collects every violation found while validating a single
// logical operation. Validation always runs to completion so callers see all
// violations at once, not just the first.
type ValidationErrors []FieldError

// Add appends a violation for the given field.
func (v *ValidationErrors) Add(field string, kind error, format string, args ...any) {
	*v = append(*v, FieldError{
		Field:   field,
		Err:     kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// Merge appends every violation from other.
func (v *ValidationErrors) Merge(other ValidationErrors) {
	*v = append(*v, other...)
}

// Empty reports whether no violations were collected.
func (v ValidationErrors) Empty() bool { return len(v) == 0 }

// Has reports whether any violation is of the given kind.
func (v ValidationErrors) Has(kind error) bool {
	for _, fe := range v {
		if errors.Is(fe.Err, kind) {
			return true
		}
	}
	return false
}

// ByField groups violation messages by field name, the shape consumed by
// API responses and audit records.
func (v ValidationErrors) ByField() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, fe := range v {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation passed"
	}
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// ErrOrNil returns the set as an error, or nil when empty. Returning a typed
// nil slice through the error interface would otherwise read as non-nil.
func (v ValidationErrors) ErrOrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
