package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// CardIssuer identifies the card network derived from the number prefix.
type CardIssuer string

const (
	IssuerVisa       CardIssuer = "Visa"
	IssuerMastercard CardIssuer = "Mastercard"
	IssuerAmex       CardIssuer = "Amex"
	IssuerDiscover   CardIssuer = "Discover"
	IssuerJCB        CardIssuer = "JCB"
	IssuerRuPay      CardIssuer = "RuPay"
	IssuerUnknown    CardIssuer = "unknown"
)

// CardNumber represents a card number value object. Construction only
// enforces well-formedness (digits, length); a failed Luhn checksum is a
// fraud signal, not a construction error, so it is exposed via Valid().
type CardNumber struct {
	digits string
}

// NewCardNumber creates a CardNumber from raw input, accepting spaces and
// dashes as separators. It fails on non-digit characters or lengths
// outside 13-19 digits.
func NewCardNumber(raw string) (CardNumber, error) {
	if strings.TrimSpace(raw) == "" {
		return CardNumber{}, fmt.Errorf("card number cannot be empty")
	}

	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(raw)
	for _, ch := range cleaned {
		if ch < '0' || ch > '9' {
			return CardNumber{}, fmt.Errorf("card number contains non-digit character %q", ch)
		}
	}

	if len(cleaned) < 13 || len(cleaned) > 19 {
		return CardNumber{}, fmt.Errorf("card number must be 13-19 digits, got %d", len(cleaned))
	}

	return CardNumber{digits: cleaned}, nil
}

// MustNewCardNumber creates a CardNumber and panics on error (for tests)
func MustNewCardNumber(raw string) CardNumber {
	c, err := NewCardNumber(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether the number passes the Luhn checksum: doubling
// every second digit from the right, folding results above 9, and
// requiring the digit sum to be a multiple of 10.
func (c CardNumber) Valid() bool {
	sum := 0
	double := false

	for i := len(c.digits) - 1; i >= 0; i-- {
		d := int(c.digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	return sum%10 == 0
}

// Issuer classifies the card network by leading-digit prefix.
func (c CardNumber) Issuer() CardIssuer {
	switch {
	case strings.HasPrefix(c.digits, "4"):
		return IssuerVisa
	case len(c.digits) >= 2 && c.digits[0] == '5' && c.digits[1] >= '1' && c.digits[1] <= '5':
		return IssuerMastercard
	case strings.HasPrefix(c.digits, "34"), strings.HasPrefix(c.digits, "37"):
		return IssuerAmex
	case strings.HasPrefix(c.digits, "6011"), strings.HasPrefix(c.digits, "65"):
		return IssuerDiscover
	case strings.HasPrefix(c.digits, "35"):
		return IssuerJCB
	case strings.HasPrefix(c.digits, "62"):
		return IssuerRuPay
	default:
		return IssuerUnknown
	}
}

// Last4 returns the last four digits.
func (c CardNumber) Last4() string {
	if len(c.digits) < 4 {
		return c.digits
	}
	return c.digits[len(c.digits)-4:]
}

// Masked returns the number with all but the last four digits hidden.
// This is the only form that may leave the process.
func (c CardNumber) Masked() string {
	return "****" + c.Last4()
}

// IsEmpty checks if the card number is empty
func (c CardNumber) IsEmpty() bool {
	return c.digits == ""
}

// Equal checks if two CardNumber values are equal
func (c CardNumber) Equal(other CardNumber) bool {
	return c.digits == other.digits
}

// String returns the masked form. The raw digits are deliberately not
// exposed through any formatting interface.
func (c CardNumber) String() string {
	return c.Masked()
}

// MarshalJSON always serializes the masked form.
func (c CardNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Masked())
}

// Value implements driver.Valuer; only the masked form is persisted.
func (c CardNumber) Value() (driver.Value, error) {
	if c.digits == "" {
		return nil, nil
	}
	return c.Masked(), nil
}
