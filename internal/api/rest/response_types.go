package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/service/scoring"
)

// ErrorResponse is the error envelope for all failure responses
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TransactionSummary echoes the analyzed transaction with the card
// masked.
type TransactionSummary struct {
	ID               uuid.UUID `json:"id"`
	MaskedCard       string    `json:"masked_card"`
	CardIssuer       string    `json:"card_issuer"`
	CardholderName   string    `json:"cardholder_name"`
	Amount           string    `json:"amount"`
	MerchantName     string    `json:"merchant_name"`
	MerchantCategory string    `json:"merchant_category"`
	Location         string    `json:"location"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// AnalyzeTransactionResponse is the POST /api/v1/analyses response.
// Warning is set when the analysis completed but could not be saved.
type AnalyzeTransactionResponse struct {
	Transaction TransactionSummary     `json:"transaction"`
	Analysis    *scoring.FraudAnalysis `json:"analysis"`
	Warning     string                 `json:"warning,omitempty"`
}

// ListAnalysesResponse wraps the caller's saved analyses.
type ListAnalysesResponse struct {
	Analyses []*scoring.AnalysisRecord `json:"analyses"`
	Count    int                       `json:"count"`
}

func newTransactionSummary(txn *transaction.Transaction) TransactionSummary {
	return TransactionSummary{
		ID:               txn.ID,
		MaskedCard:       txn.Card.Masked(),
		CardIssuer:       string(txn.Card.Issuer()),
		CardholderName:   txn.CardholderName,
		Amount:           txn.Amount.String(),
		MerchantName:     txn.MerchantName,
		MerchantCategory: txn.MerchantCategory.String(),
		Location:         txn.Location,
		OccurredAt:       txn.OccurredAt,
	}
}
