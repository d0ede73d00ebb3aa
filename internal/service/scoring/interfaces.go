package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/domain/values"
)

// AnalysisRecord is the persisted form of a completed analysis,
// flattened for storage. The card number appears only masked; raw
// digits never reach the repository layer.
type AnalysisRecord struct {
	ID               uuid.UUID                    `json:"id"`
	UserID           uuid.UUID                    `json:"user_id"`
	MaskedCard       string                       `json:"masked_card"`
	CardIssuer       values.CardIssuer            `json:"card_issuer"`
	CardholderName   string                       `json:"cardholder_name"`
	Amount           values.Money                 `json:"amount"`
	MerchantName     string                       `json:"merchant_name"`
	MerchantCategory transaction.MerchantCategory `json:"merchant_category"`
	Location         string                       `json:"location"`
	OccurredAt       time.Time                    `json:"occurred_at"`
	OverallRiskScore int                          `json:"overall_risk_score"`
	RiskLevel        RiskLevel                    `json:"risk_level"`
	IsFraudulent     bool                         `json:"is_fraudulent"`
	Confidence       int                          `json:"confidence"`
	RiskFactors      []RiskFactor                 `json:"risk_factors"`
	Recommendations  []Recommendation             `json:"recommendations"`
	CompletedAt      time.Time                    `json:"completed_at"`
}

// NewAnalysisRecord flattens a transaction and its analysis into the
// persisted form.
func NewAnalysisRecord(userID uuid.UUID, txn *transaction.Transaction, analysis *FraudAnalysis) *AnalysisRecord {
	return &AnalysisRecord{
		ID:               analysis.ID,
		UserID:           userID,
		MaskedCard:       txn.Card.Masked(),
		CardIssuer:       txn.Card.Issuer(),
		CardholderName:   txn.CardholderName,
		Amount:           txn.Amount,
		MerchantName:     txn.MerchantName,
		MerchantCategory: txn.MerchantCategory,
		Location:         txn.Location,
		OccurredAt:       txn.OccurredAt,
		OverallRiskScore: analysis.OverallRiskScore,
		RiskLevel:        analysis.RiskLevel,
		IsFraudulent:     analysis.IsFraudulent,
		Confidence:       analysis.Confidence,
		RiskFactors:      analysis.RiskFactors,
		Recommendations:  analysis.Recommendations,
		CompletedAt:      analysis.CompletedAt,
	}
}

// Repository persists completed analyses. Implementations scope every
// read and delete to the owning user.
type Repository interface {
	SaveAnalysis(ctx context.Context, record *AnalysisRecord) error
	GetAnalysis(ctx context.Context, userID, id uuid.UUID) (*AnalysisRecord, error)
	ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]*AnalysisRecord, error)
	DeleteAnalysis(ctx context.Context, userID, id uuid.UUID) error
	DeleteAnalyses(ctx context.Context, userID uuid.UUID) error
}
