// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by the
// user and formatting them back for display.
package core

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is prefixed to every displayed amount unless the
// configuration says otherwise.
const DefaultCurrencySymbol = "$"

// maxAmountExponent bounds amounts to about the float64 range, in both
// directions, so no amount expands into an enormous digit string.
const maxAmountExponent = 308

// ParseAmount parses a decimal amount as typed by the user.
//
// Surrounding whitespace is ignored. Anything that is not a finite decimal
// number is rejected with a *ValidationError. Zero and negative values are
// accepted: the ledger records whatever magnitude the user entered.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount(" 1000 ") -> 1000, nil
//	ParseAmount("-5")     -> -5, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
//	ParseAmount("1e400")  -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: fmt.Errorf("%w: %q", ErrInvalidAmount, s)}
	}
	if err := CheckAmountRange(d); err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: err}
	}
	return d, nil
}

// CheckAmountRange rejects amounts whose magnitude or precision lies
// beyond 1e308 / 1e-308. It only looks at the exponent and the length of
// the coefficient, never at the expanded value.
func CheckAmountRange(d decimal.Decimal) error {
	exp := int64(d.Exponent())
	if exp < -maxAmountExponent {
		return fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, maxAmountExponent)
	}
	digits := int64(len(new(big.Int).Abs(d.Coefficient()).String()))
	if exp+digits-1 > maxAmountExponent {
		return fmt.Errorf("%w: magnitude above 1e%d", ErrInvalidAmount, maxAmountExponent)
	}
	return nil
}

// FormatMoney renders an amount with two decimals behind the currency
// prefix. The symbol always comes first: "$-12.50".
func FormatMoney(symbol string, d decimal.Decimal) string {
	return symbol + d.StringFixed(2)
}

// FormatEntry renders a ledger row amount: the absolute magnitude with a
// "+" for income and a "-" for expenses.
func FormatEntry(symbol string, tx Transaction) string {
	sign := "+"
	if tx.Type == Expense {
		sign = "-"
	}
	return sign + symbol + tx.Amount.Abs().StringFixed(2)
}
