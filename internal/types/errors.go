package types

import "fmt"

// ValidationError covers bad input, insufficient balance or liquidity.
// Always recoverable, surfaced to the caller, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for a named field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// APIError covers a failed remote query. Retried per the resilience
// policy, then surfaced.
type APIError struct {
	Service string
	Op      string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// TransactionError means the signing service rejected the request or is
// unavailable. Surfaced immediately, no retry, no record created.
type TransactionError struct {
	Reason string
}

func (e *TransactionError) Error() string {
	return "transaction: " + e.Reason
}
