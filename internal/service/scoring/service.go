package scoring

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cardguard/cardguard-backend/internal/domain/errors"
	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/infrastructure/telemetry"
)

// Scorer evaluates transactions for a single caller and owns that
// caller's rolling history. Scoring is a total function: any validated
// transaction produces an analysis, never an error.
type Scorer struct {
	mu      sync.Mutex
	history *historyWindow
}

// NewScorer creates a scorer with an empty history window.
func NewScorer() *Scorer {
	return &Scorer{history: newHistoryWindow(HistoryRetention)}
}

// Evaluate scores one transaction. Rules read the history as it stood
// before this transaction; the transaction is recorded afterwards so a
// retried evaluation of a distinct transaction sees it.
func (s *Scorer) Evaluate(txn *transaction.Transaction) *FraudAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.evict(txn.OccurredAt)

	var factors []RiskFactor

	factors = append(factors, evaluateCard(txn)...)
	if f := evaluateVelocity(len(s.history.recent(VelocityWindow, txn.OccurredAt))); f != nil {
		factors = append(factors, *f)
	}
	if f := evaluateAmount(txn); f != nil {
		factors = append(factors, *f)
	}
	factors = append(factors, evaluateTime(txn)...)
	factors = append(factors, evaluateLocation(txn, s.history.last())...)
	factors = append(factors, evaluateMerchant(txn)...)
	factors = append(factors, evaluateName(txn)...)
	if f := evaluateOutlier(txn, s.history.amounts()); f != nil {
		factors = append(factors, *f)
	}

	s.history.record(txn)

	score, level, fraudulent := aggregate(factors)

	analysis := &FraudAnalysis{
		ID:               uuid.New(),
		OverallRiskScore: score,
		RiskLevel:        level,
		IsFraudulent:     fraudulent,
		RiskFactors:      factors,
		CompletedAt:      clock.Now(),
	}
	analysis.Confidence = confidence(analysis)
	analysis.Recommendations = generateRecommendations(level, fraudulent, factors)

	return analysis
}

// HistoryLen reports how many transactions the scorer currently holds.
func (s *Scorer) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.len()
}

// aggregate sums factor scores, clamps to the cap, and derives the
// tier and verdict from the clamped score.
func aggregate(factors []RiskFactor) (int, RiskLevel, bool) {
	score := 0
	for _, f := range factors {
		score += f.Score
	}
	if score > MaxRiskScore {
		score = MaxRiskScore
	}
	if score < 0 {
		score = 0
	}

	var level RiskLevel
	switch {
	case score >= TierCriticalScore:
		level = RiskLevelCritical
	case score >= TierHighScore:
		level = RiskLevelHigh
	case score >= TierMediumScore:
		level = RiskLevelMedium
	default:
		level = RiskLevelLow
	}

	return score, level, score >= FraudVerdictScore
}

// confidence grows with the number and severity of corroborating
// factors, capped below certainty.
func confidence(a *FraudAnalysis) int {
	c := ConfidenceBase +
		ConfidenceCriticalWeight*a.CriticalFactorCount() +
		ConfidenceHighWeight*a.HighFactorCount() +
		ConfidenceFactorWeight*len(a.RiskFactors)
	if c > ConfidenceCap {
		c = ConfidenceCap
	}
	return c
}

// Registry hands out one scorer per caller so that no caller's history
// leaks into another's analysis.
type Registry struct {
	mu      sync.RWMutex
	scorers map[uuid.UUID]*Scorer
}

// NewRegistry creates an empty scorer registry.
func NewRegistry() *Registry {
	return &Registry{scorers: make(map[uuid.UUID]*Scorer)}
}

// ScorerFor returns the caller's scorer, creating it on first use.
func (r *Registry) ScorerFor(userID uuid.UUID) *Scorer {
	r.mu.RLock()
	s, ok := r.scorers[userID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.scorers[userID]; ok {
		return s
	}
	s = NewScorer()
	r.scorers[userID] = s
	return s
}

// Reset discards the caller's scorer and its history.
func (r *Registry) Reset(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scorers, userID)
}

// Service coordinates scoring with persistence. Persistence is best
// effort: a failed save never voids a completed analysis.
type Service struct {
	registry *Registry
	repo     Repository
	logger   *slog.Logger
	tracer   *telemetry.ServiceTracer
}

// NewService creates the scoring service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		registry: NewRegistry(),
		repo:     repo,
		logger:   logger,
		tracer:   telemetry.NewServiceTracer("cardguard.scoring"),
	}
}

// Analyze scores the transaction for the given caller and persists the
// result. The returned analysis is always valid when non-nil; a
// non-nil error alongside it means only that persistence failed.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, txn *transaction.Transaction) (*FraudAnalysis, error) {
	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "scoring.analyze", map[string]interface{}{
		"merchant.category": string(txn.MerchantCategory),
	})
	defer span.End()

	analysis := s.registry.ScorerFor(userID).Evaluate(txn)
	s.tracer.SetAttributes(span, map[string]interface{}{
		"analysis.risk_score":    analysis.OverallRiskScore,
		"analysis.risk_level":    string(analysis.RiskLevel),
		"analysis.is_fraudulent": analysis.IsFraudulent,
	})

	s.logger.InfoContext(ctx, "transaction analyzed",
		"user_id", userID,
		"analysis_id", analysis.ID,
		"risk_score", analysis.OverallRiskScore,
		"risk_level", analysis.RiskLevel,
		"is_fraudulent", analysis.IsFraudulent,
	)

	record := NewAnalysisRecord(userID, txn, analysis)
	if err := s.repo.SaveAnalysis(ctx, record); err != nil {
		telemetry.WithSpanError(span, err)
		s.logger.ErrorContext(ctx, "failed to save analysis",
			"user_id", userID,
			"analysis_id", analysis.ID,
			"error", err,
		)
		return analysis, errors.NewInternalError("failed to save analysis").WithCause(err)
	}

	return analysis, nil
}

// GetAnalysis fetches one persisted analysis owned by the caller.
func (s *Service) GetAnalysis(ctx context.Context, userID, id uuid.UUID) (*AnalysisRecord, error) {
	return s.repo.GetAnalysis(ctx, userID, id)
}

// ListAnalyses fetches the caller's persisted analyses, newest first.
func (s *Service) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]*AnalysisRecord, error) {
	return s.repo.ListAnalyses(ctx, userID, limit)
}

// DeleteAnalysis removes one persisted analysis owned by the caller.
func (s *Service) DeleteAnalysis(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteAnalysis(ctx, userID, id)
}

// DeleteAnalyses clears the caller's persisted history and discards
// the in-memory scoring history with it.
func (s *Service) DeleteAnalyses(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteAnalyses(ctx, userID); err != nil {
		return err
	}
	s.registry.Reset(userID)
	return nil
}
