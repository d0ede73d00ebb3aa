package scoring

import (
	"time"

	"github.com/google/uuid"
)

// Severity represents the severity level of a risk factor
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskLevel is the ordinal tier derived from the aggregate risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskFactor is a single fraud indicator emitted by a rule evaluator.
// Factors are immutable once produced; their order in FraudAnalysis
// follows evaluator execution order.
type RiskFactor struct {
	Name        string   `json:"name"`
	Severity    Severity `json:"severity"`
	Score       int      `json:"score"`
	Description string   `json:"description"`
}

// RecommendationAction is the action kind a recommendation carries.
// The display layer maps these to icons; severity is an explicit field
// rather than being encoded in the message text.
type RecommendationAction string

const (
	ActionDecline    RecommendationAction = "decline"
	ActionBlockCard  RecommendationAction = "block_card"
	ActionContact    RecommendationAction = "contact_cardholder"
	ActionReview     RecommendationAction = "review"
	ActionEscalate   RecommendationAction = "escalate"
	ActionStepUpAuth RecommendationAction = "step_up_auth"
	ActionVerify     RecommendationAction = "request_verification"
	ActionSetAlert   RecommendationAction = "set_alert"
	ActionMonitor    RecommendationAction = "monitor"
	ActionLimitCard  RecommendationAction = "apply_velocity_limit"
	ActionApprove    RecommendationAction = "approve"
)

// Recommendation is a single suggested action. The list on a
// FraudAnalysis is append-only during generation and ordered
// deterministically: tier block first, then factor-targeted entries.
type Recommendation struct {
	Action   RecommendationAction `json:"action"`
	Severity Severity             `json:"severity"`
	Message  string               `json:"message"`
}

// FraudAnalysis is the outcome of scoring one transaction.
// Immutable once returned.
type FraudAnalysis struct {
	ID               uuid.UUID        `json:"id"`
	OverallRiskScore int              `json:"overall_risk_score"`
	RiskLevel        RiskLevel        `json:"risk_level"`
	IsFraudulent     bool             `json:"is_fraudulent"`
	Confidence       int              `json:"confidence"`
	RiskFactors      []RiskFactor     `json:"risk_factors"`
	Recommendations  []Recommendation `json:"recommendations"`
	CompletedAt      time.Time        `json:"completed_at"`
}

// CriticalFactorCount returns how many factors carry critical severity.
func (a *FraudAnalysis) CriticalFactorCount() int {
	return a.countBySeverity(SeverityCritical)
}

// HighFactorCount returns how many factors carry high severity.
func (a *FraudAnalysis) HighFactorCount() int {
	return a.countBySeverity(SeverityHigh)
}

func (a *FraudAnalysis) countBySeverity(s Severity) int {
	n := 0
	for _, f := range a.RiskFactors {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// HasFactor reports whether a factor with the given name was emitted.
func (a *FraudAnalysis) HasFactor(name string) bool {
	for _, f := range a.RiskFactors {
		if f.Name == name {
			return true
		}
	}
	return false
}
