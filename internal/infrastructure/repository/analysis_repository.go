package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainerrors "github.com/cardguard/cardguard-backend/internal/domain/errors"
	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/domain/values"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/telemetry"
	"github.com/cardguard/cardguard-backend/internal/service/scoring"
)

var tracer = telemetry.NewServiceTracer("cardguard.repository")

// analysisRepository implements scoring.Repository on PostgreSQL.
// Factors and recommendations are stored as JSONB; the card column
// only ever holds the masked form the record carries.
type analysisRepository struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(pool *pgxpool.Pool) scoring.Repository {
	return &analysisRepository{pool: pool}
}

func (r *analysisRepository) SaveAnalysis(ctx context.Context, record *scoring.AnalysisRecord) error {
	ctx, span := telemetry.StartDatabaseSpan(ctx, tracer, "insert", "fraud_analyses")
	defer span.End()

	factorsJSON, err := json.Marshal(record.RiskFactors)
	if err != nil {
		return fmt.Errorf("failed to marshal risk factors: %w", err)
	}

	recsJSON, err := json.Marshal(record.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	query := `
		INSERT INTO fraud_analyses (
			id, user_id, masked_card, card_issuer, cardholder_name,
			amount, currency, merchant_name, merchant_category, location,
			occurred_at, overall_risk_score, risk_level, is_fraudulent,
			confidence, risk_factors, recommendations, completed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18
		)
	`

	_, err = r.pool.Exec(ctx, query,
		record.ID, record.UserID, record.MaskedCard, string(record.CardIssuer), record.CardholderName,
		record.Amount.Amount(), record.Amount.Currency(), record.MerchantName, string(record.MerchantCategory), record.Location,
		record.OccurredAt, record.OverallRiskScore, string(record.RiskLevel), record.IsFraudulent,
		record.Confidence, factorsJSON, recsJSON, record.CompletedAt,
	)
	if err != nil {
		telemetry.WithSpanError(span, err)
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

func (r *analysisRepository) GetAnalysis(ctx context.Context, userID, id uuid.UUID) (*scoring.AnalysisRecord, error) {
	query := selectColumns + `
		FROM fraud_analyses
		WHERE id = $1 AND user_id = $2
	`

	record, err := scanRecord(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	return record, nil
}

func (r *analysisRepository) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]*scoring.AnalysisRecord, error) {
	query := selectColumns + `
		FROM fraud_analyses
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []*scoring.AnalysisRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *analysisRepository) DeleteAnalysis(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM fraud_analyses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrAnalysisNotFound
	}
	return nil
}

func (r *analysisRepository) DeleteAnalyses(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM fraud_analyses WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}
	return nil
}

const selectColumns = `
		SELECT
			id, user_id, masked_card, card_issuer, cardholder_name,
			amount, currency, merchant_name, merchant_category, location,
			occurred_at, overall_risk_score, risk_level, is_fraudulent,
			confidence, risk_factors, recommendations, completed_at
`

func scanRecord(row pgx.Row) (*scoring.AnalysisRecord, error) {
	var (
		record      scoring.AnalysisRecord
		issuer      string
		amountStr   string
		currency    string
		category    string
		level       string
		factorsJSON []byte
		recsJSON    []byte
	)

	err := row.Scan(
		&record.ID, &record.UserID, &record.MaskedCard, &issuer, &record.CardholderName,
		&amountStr, &currency, &record.MerchantName, &category, &record.Location,
		&record.OccurredAt, &record.OverallRiskScore, &level, &record.IsFraudulent,
		&record.Confidence, &factorsJSON, &recsJSON, &record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	record.CardIssuer = values.CardIssuer(issuer)
	record.MerchantCategory = transaction.MerchantCategory(category)
	record.RiskLevel = scoring.RiskLevel(level)

	amount, err := values.NewMoneyFromString(amountStr, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount: %w", err)
	}
	record.Amount = amount

	if err := json.Unmarshal(factorsJSON, &record.RiskFactors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk factors: %w", err)
	}
	if err := json.Unmarshal(recsJSON, &record.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}

	return &record, nil
}
