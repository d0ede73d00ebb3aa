package rest

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cardguard/cardguard-backend/internal/domain/errors"
	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/domain/values"
)

var validate = validator.New()

// AnalyzeTransactionRequest is the POST /api/v1/analyses payload.
// The raw card number exists only for the lifetime of the request;
// every outbound representation is masked.
type AnalyzeTransactionRequest struct {
	CardNumber       string  `json:"card_number" validate:"required"`
	CardholderName   string  `json:"cardholder_name" validate:"required"`
	Amount           float64 `json:"amount" validate:"required,gt=0"`
	Currency         string  `json:"currency" validate:"omitempty,len=3"`
	MerchantName     string  `json:"merchant_name" validate:"required"`
	MerchantCategory string  `json:"merchant_category" validate:"required"`
	Location         string  `json:"location" validate:"required"`
	OccurredAt       string  `json:"occurred_at" validate:"omitempty"`
}

// ToTransaction validates the request and builds the domain
// transaction. All failures surface as validation AppErrors.
func (req *AnalyzeTransactionRequest) ToTransaction(now time.Time) (*transaction.Transaction, error) {
	if err := validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT", err.Error())
	}

	card, err := values.NewCardNumber(req.CardNumber)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_CARD_FORMAT", err.Error())
	}

	currency := req.Currency
	if currency == "" {
		currency = values.INR
	}
	amount, err := values.NewMoneyFromFloat(req.Amount, currency)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_AMOUNT", err.Error())
	}

	category, err := transaction.ParseMerchantCategory(req.MerchantCategory)
	if err != nil {
		return nil, err
	}

	occurredAt := now
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return nil, errors.NewValidationError("INVALID_TIMESTAMP", "occurred_at must be RFC 3339")
		}
	}

	return transaction.New(card, req.CardholderName, amount, req.MerchantName, category, req.Location, occurredAt)
}
