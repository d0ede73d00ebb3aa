package scoring

import "time"

// History window configuration
const (
	// HistoryRetention is how long past transactions stay in the rolling window
	HistoryRetention = 24 * time.Hour

	// VelocityWindow is the lookback used by the velocity rules
	VelocityWindow = 5 * time.Minute

	// TravelWindow is the maximum gap for the impossible-travel rule
	TravelWindow = 60 * time.Minute

	// MinHistoryForOutlierAnalysis is the minimum number of prior transactions
	// needed before the statistical outlier rule applies
	MinHistoryForOutlierAnalysis = 5

	// OutlierSigmaMultiplier is how many population standard deviations from
	// the historical mean an amount must deviate to count as an outlier
	OutlierSigmaMultiplier = 3.0
)

// Velocity thresholds. Counts include the transaction under evaluation.
const (
	// VelocityCriticalCount is the count above which velocity is critical
	VelocityCriticalCount = 5

	// VelocityElevatedCount is the count above which velocity is elevated
	VelocityElevatedCount = 3
)

// Amount thresholds in currency minor units
const (
	// AmountVeryHighThreshold marks extremely large transactions
	AmountVeryHighThreshold = 200000

	// AmountHighThreshold marks large transactions
	AmountHighThreshold = 100000

	// AmountElevatedThreshold marks above-average transactions; it also gates
	// the weekend and risky-merchant combination rules
	AmountElevatedThreshold = 50000

	// AmountMicroThreshold marks card-testing-sized transactions
	AmountMicroThreshold = 50

	// AmountSmallThreshold marks small initial-fraud-attempt transactions
	AmountSmallThreshold = 100
)

// Time-of-day boundaries (local hours)
const (
	// DeepNightStartHour..DeepNightEndHour is the highest-risk window
	DeepNightStartHour = 2
	DeepNightEndHour   = 5

	// LateNightStartHour and LateNightEndHour bound the broader unusual-hours
	// window (23:00 through 05:59)
	LateNightStartHour = 23
	LateNightEndHour   = 6
)

// Rule score contributions
const (
	ScoreInvalidCard      = 30
	ScoreUnknownIssuer    = 10
	ScoreVelocityCritical = 25
	ScoreVelocityElevated = 15
	ScoreAmountVeryHigh   = 25
	ScoreAmountHigh       = 20
	ScoreAmountElevated   = 12
	ScoreAmountMicro      = 8
	ScoreAmountSmall      = 4
	ScoreDeepNight        = 15
	ScoreLateNight        = 10
	ScoreWeekendLarge     = 8
	ScoreLocationHigh     = 25
	ScoreLocationMedium   = 12
	ScoreImpossibleTravel = 30
	ScoreRiskyCombination = 15
	ScoreSingleName       = 5
	ScoreSuspiciousName   = 35
	ScoreOutlier          = 18
)

// Merchant category contributions; severity is derived from the score
// (>12 high, >8 medium, otherwise low)
const (
	ScoreMerchantGasStation     = 18
	ScoreMerchantOnlineShopping = 14
	ScoreMerchantTravel         = 12
	ScoreMerchantEntertainment  = 8
	ScoreMerchantUtilities      = 3

	MerchantSeverityHighAbove   = 12
	MerchantSeverityMediumAbove = 8
)

// Tier cut points and verdict threshold
const (
	// TierCriticalScore and below cut points map the clamped score to a tier
	TierCriticalScore = 80
	TierHighScore     = 60
	TierMediumScore   = 35

	// FraudVerdictScore is the clamped score at which the verdict flips
	FraudVerdictScore = 60

	// MaxRiskScore caps the aggregate score
	MaxRiskScore = 100
)

// Confidence model: base plus weighted factor counts, capped
const (
	ConfidenceBase           = 65
	ConfidenceCriticalWeight = 8
	ConfidenceHighWeight     = 5
	ConfidenceFactorWeight   = 2
	ConfidenceCap            = 98
)
