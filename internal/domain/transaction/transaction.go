package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardguard/cardguard-backend/internal/domain/errors"
	"github.com/cardguard/cardguard-backend/internal/domain/values"
)

// Transaction is a single card transaction submitted for risk analysis.
// It is immutable once constructed; New rejects malformed input so the
// scoring pipeline can assume a well-formed record.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	Card             values.CardNumber `json:"card_number"`
	CardholderName   string            `json:"cardholder_name"`
	Amount           values.Money      `json:"amount"`
	MerchantName     string            `json:"merchant_name"`
	MerchantCategory MerchantCategory  `json:"merchant_category"`
	Location         string            `json:"location"`
	OccurredAt       time.Time         `json:"occurred_at"`
	CreatedAt        time.Time         `json:"created_at"`
}

// MerchantCategory is the closed set of transaction contexts used to
// weight risk.
type MerchantCategory string

const (
	CategoryRetail         MerchantCategory = "retail"
	CategoryOnlineShopping MerchantCategory = "online_shopping"
	CategoryGasStation     MerchantCategory = "gas_station"
	CategoryRestaurant     MerchantCategory = "restaurant"
	CategoryTravel         MerchantCategory = "travel"
	CategoryEntertainment  MerchantCategory = "entertainment"
	CategoryUtilities      MerchantCategory = "utilities"
	CategoryHealthcare     MerchantCategory = "healthcare"
	CategoryOther          MerchantCategory = "other"
)

// Categories lists all valid merchant categories in display order.
func Categories() []MerchantCategory {
	return []MerchantCategory{
		CategoryRetail,
		CategoryOnlineShopping,
		CategoryGasStation,
		CategoryRestaurant,
		CategoryTravel,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryHealthcare,
		CategoryOther,
	}
}

// ParseMerchantCategory validates a raw category string against the enum.
func ParseMerchantCategory(raw string) (MerchantCategory, error) {
	c := MerchantCategory(strings.ToLower(strings.TrimSpace(raw)))
	for _, valid := range Categories() {
		if c == valid {
			return c, nil
		}
	}
	return "", errors.NewValidationError("INVALID_CATEGORY", "unknown merchant category: "+raw)
}

func (c MerchantCategory) String() string {
	return string(c)
}

// New constructs a validated Transaction. Validation covers input
// well-formedness only; a card that fails its Luhn checksum is accepted
// here and surfaces as a risk factor during scoring.
func New(card values.CardNumber, cardholderName string, amount values.Money, merchantName string, category MerchantCategory, location string, occurredAt time.Time) (*Transaction, error) {
	if card.IsEmpty() {
		return nil, errors.NewValidationError("MISSING_CARD", "card number is required")
	}
	if strings.TrimSpace(cardholderName) == "" {
		return nil, errors.NewValidationError("MISSING_NAME", "cardholder name is required")
	}
	if !amount.IsPositive() {
		return nil, errors.NewValidationError("INVALID_AMOUNT", "transaction amount must be greater than zero")
	}
	if strings.TrimSpace(merchantName) == "" {
		return nil, errors.NewValidationError("MISSING_MERCHANT", "merchant name is required")
	}
	if _, err := ParseMerchantCategory(string(category)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(location) == "" {
		return nil, errors.NewValidationError("MISSING_LOCATION", "transaction location is required")
	}

	now := clock.Now()
	if occurredAt.After(now) {
		return nil, errors.NewValidationError("FUTURE_TIMESTAMP", "transaction time cannot be in the future")
	}

	return &Transaction{
		ID:               uuid.New(),
		Card:             card,
		CardholderName:   strings.TrimSpace(cardholderName),
		Amount:           amount,
		MerchantName:     strings.TrimSpace(merchantName),
		MerchantCategory: category,
		Location:         strings.TrimSpace(location),
		OccurredAt:       occurredAt,
		CreatedAt:        now,
	}, nil
}

// Hour returns the local hour of the transaction time.
func (t *Transaction) Hour() int {
	return t.OccurredAt.Hour()
}

// IsWeekend reports whether the transaction happened on a Saturday or Sunday.
func (t *Transaction) IsWeekend() bool {
	wd := t.OccurredAt.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
