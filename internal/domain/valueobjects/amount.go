// Package valueobjects - Amount is the monetary value object of the ledger.
// Every balance, ledger entry and operation amount in the system is an Amount.
//
// Value Object Pattern:
// - Immutable: All operations return new Amount instances
// - Self-validating: Cannot create invalid Amount
//
// Why shopspring/decimal?
// - Exact decimal representation, no binary floating point anywhere
// - Matches the NUMERIC(19,8) column type of the schema
package valueobjects

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Схема хранит суммы как NUMERIC(19,8): максимум 8 знаков после запятой.
const MaxFractionalDigits = 8

// amountPattern validates the textual form accepted from callers.
// Суммы без знака, до 8 дробных цифр.
var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,8})?$`)

// Common domain errors for Amount operations
var (
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrInvalidAmount      = errors.New("invalid amount format")
	ErrInsufficientAmount = errors.New("insufficient amount")
)

// Amount represents a non-negative fixed-point decimal quantity of some asset.
// The asset type itself lives on the wallet; Amount is just the number.
type Amount struct {
	value decimal.Decimal
}

// ParseAmount creates an Amount from its canonical string form.
// The string must match ^\d+(\.\d{1,8})?$ - unsigned, at most 8 fractional
// digits, matching the precision of the ledger schema.
//
// Example:
//
//	amount, err := ParseAmount("100.50")
func ParseAmount(s string) (Amount, error) {
	if !amountPattern.MatchString(s) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return Amount{value: value}, nil
}

// AmountFromDecimal wraps an existing decimal, enforcing the Amount rules.
// Used by repositories when hydrating rows from the database.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}

	if int(d.Exponent()) < -MaxFractionalDigits {
		return Amount{}, fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, MaxFractionalDigits)
	}

	return Amount{value: d}, nil
}

// MustParseAmount is ParseAmount that panics on error. Для тестов и seed данных.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ZeroAmount returns the zero amount.
func ZeroAmount() Amount {
	return Amount{value: decimal.Zero}
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// String returns the canonical decimal string, without trailing zeros.
// Example: "9999900", "100.5"
func (a Amount) String() string {
	return a.value.String()
}

// MarshalJSON serialises the amount as a JSON string, preserving precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.value.String() + `"`), nil
}

// UnmarshalJSON parses an amount from a JSON string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Add returns a new Amount with the sum of the two amounts.
func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

// Sub returns a new Amount with the difference.
// Returns ErrInsufficientAmount if the result would be negative.
func (a Amount) Sub(other Amount) (Amount, error) {
	diff := a.value.Sub(other.value)
	if diff.IsNegative() {
		return Amount{}, ErrInsufficientAmount
	}
	return Amount{value: diff}, nil
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// IsPositive returns true if the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

// LessThan checks if this amount is less than another.
func (a Amount) LessThan(other Amount) bool {
	return a.value.LessThan(other.value)
}

// GreaterThanOrEqual checks if this amount is >= another.
func (a Amount) GreaterThanOrEqual(other Amount) bool {
	return a.value.GreaterThanOrEqual(other.value)
}

// Equals checks if two amounts are numerically equal.
func (a Amount) Equals(other Amount) bool {
	return a.value.Equal(other.value)
}
