package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

type (
	// Type says which side of the ledger a transaction sits on. The sign of
	// a transaction comes from its Type, never from its Amount.
	Type string

	Transaction struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Type        Type
	}
)

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
)

// ValidationError reports user input that was rejected before touching the
// ledger. It wraps one of the Err* sentinels above.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseType accepts "income" or "expense" in any case, surrounding
// whitespace ignored.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", &ValidationError{Field: "type", Reason: fmt.Errorf("%w: %q", ErrInvalidType, s)}
	}
}

// IsValid returns true if the type is income or expense
func (t Type) IsValid() bool {
	return t == Income || t == Expense
}

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// ValidateDescription trims the description and rejects it when nothing is
// left.
func ValidateDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: "description", Reason: ErrEmptyDescription}
	}
	return s, nil
}

// Signed returns the amount with the sign implied by the transaction type:
// positive for income, negative for expenses.
func (tx Transaction) Signed() decimal.Decimal {
	if tx.Type == Expense {
		return tx.Amount.Neg()
	}
	return tx.Amount
}

// Validate checks the shape of a stored transaction. Input validation
// happens earlier, in ValidateDescription, ParseAmount and ParseType.
func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.ID) == "" {
		return errors.New("empty id")
	}
	if !tx.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, tx.Type)
	}
	return nil
}
