package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with currency and precision handling
type Money struct {
	amount   decimal.Decimal
	currency string
}

// Common currency codes (ISO 4217)
const (
	INR = "INR"
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
)

// NewMoney creates a new Money value object
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if err := validateCurrency(currency); err != nil {
		return Money{}, err
	}

	return Money{
		amount:   amount,
		currency: strings.ToUpper(currency),
	}, nil
}

// NewMoneyFromString creates Money from string amount and currency
func NewMoneyFromString(amount, currency string) (Money, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount: %w", err)
	}

	return NewMoney(dec, currency)
}

// NewMoneyFromFloat creates Money from float64 amount and currency
// Note: Use with caution due to floating point precision issues
func NewMoneyFromFloat(amount float64, currency string) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// MustNewMoney creates Money and panics on error (for constants/tests)
func MustNewMoney(amount decimal.Decimal, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// MustNewMoneyFromFloat creates Money from float and panics on error (for constants/tests)
func MustNewMoneyFromFloat(amount float64, currency string) Money {
	m, err := NewMoneyFromFloat(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero Money value in the given currency
func Zero(currency string) Money {
	return MustNewMoney(decimal.Zero, currency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() string {
	return m.currency
}

// String returns money with currency code (e.g., "123.45 INR")
func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

// IsZero checks if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive checks if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative checks if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equal checks if two Money values are equal (same amount and currency)
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount) && m.currency == other.currency
}

// Compare returns -1, 0, or 1 based on comparison with other Money
// Panics if currencies don't match
func (m Money) Compare(other Money) int {
	if m.currency != other.currency {
		panic(fmt.Sprintf("cannot compare different currencies: %s vs %s", m.currency, other.currency))
	}
	return m.amount.Cmp(other.amount)
}

// GreaterThan reports whether m exceeds the given amount in the same currency.
func (m Money) GreaterThan(amount decimal.Decimal) bool {
	return m.amount.GreaterThan(amount)
}

// LessThan reports whether m is below the given amount in the same currency.
func (m Money) LessThan(amount decimal.Decimal) bool {
	return m.amount.LessThan(amount)
}

// ToFloat64 converts to float64 (use with caution for precision)
func (m Money) ToFloat64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// JSON marshaling
func (m Money) MarshalJSON() ([]byte, error) {
	data := struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{
		Amount:   m.amount.String(),
		Currency: m.currency,
	}
	return json.Marshal(data)
}

// JSON unmarshaling
func (m *Money) UnmarshalJSON(data []byte) error {
	var temp struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(temp.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	money, err := NewMoney(amount, temp.Currency)
	if err != nil {
		return err
	}

	*m = money
	return nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		*m = Money{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return m.scanFromString(string(v))
	case string:
		return m.scanFromString(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	if m.amount.IsZero() && m.currency == "" {
		return nil, nil
	}
	return m.amount.String(), nil
}

// Helper functions

func validateCurrency(currency string) error {
	if currency == "" {
		return fmt.Errorf("currency cannot be empty")
	}

	currency = strings.ToUpper(currency)

	if len(currency) != 3 {
		return fmt.Errorf("currency code must be 3 characters")
	}

	validCurrencies := map[string]bool{
		INR: true, USD: true, EUR: true, GBP: true,
		"JPY": true, "AUD": true, "CAD": true, "SGD": true,
	}

	if !validCurrencies[currency] {
		return fmt.Errorf("unsupported currency: %s", currency)
	}

	return nil
}

func (m *Money) scanFromString(s string) error {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid money format: %w", err)
	}

	money, err := NewMoney(amount, INR)
	if err != nil {
		return err
	}

	*m = money
	return nil
}
