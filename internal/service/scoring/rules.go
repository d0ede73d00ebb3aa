package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/domain/values"
)

// Risk factor names. The recommendation generator keys factor-targeted
// advice off these, so they are part of the public contract.
const (
	FactorInvalidCard        = "Invalid Card Number"
	FactorUnknownIssuer      = "Unknown Card Issuer"
	FactorHighVelocity       = "High Transaction Velocity"
	FactorElevatedVelocity   = "Elevated Transaction Velocity"
	FactorVeryLargeAmount    = "Very Large Transaction Amount"
	FactorLargeAmount        = "Large Transaction Amount"
	FactorElevatedAmount     = "Above-Average Transaction Amount"
	FactorMicroAmount        = "Micro Transaction"
	FactorSmallAmount        = "Small Transaction Amount"
	FactorDeepNightTime      = "High-Risk Transaction Time"
	FactorLateNightTime      = "Unusual Transaction Time"
	FactorWeekendLargeAmount = "Large Weekend Transaction"
	FactorHighRiskLocation   = "High-Risk Geographic Location"
	FactorMediumRiskLocation = "Medium-Risk Geographic Location"
	FactorImpossibleTravel   = "Impossible Travel Velocity"
	FactorMerchantCategory   = "Merchant Category Risk"
	FactorRiskyCombination   = "High-Risk Transaction Pattern"
	FactorIncompleteName     = "Incomplete Cardholder Name"
	FactorSuspiciousName     = "Suspicious Cardholder Name"
	FactorAmountOutlier      = "Statistical Amount Outlier"
)

// highRiskLocations and mediumRiskLocations are matched as lowercase
// substrings of the transaction location.
var (
	highRiskLocations   = []string{"russia", "nigeria", "ghana", "pakistan", "ukraine", "belarus"}
	mediumRiskLocations = []string{"china", "vietnam", "indonesia", "romania", "bulgaria"}

	suspiciousNameTokens = []string{"test", "fraud", "admin", "user"}

	merchantCategoryScores = map[transaction.MerchantCategory]int{
		transaction.CategoryGasStation:     ScoreMerchantGasStation,
		transaction.CategoryOnlineShopping: ScoreMerchantOnlineShopping,
		transaction.CategoryTravel:         ScoreMerchantTravel,
		transaction.CategoryEntertainment:  ScoreMerchantEntertainment,
		transaction.CategoryUtilities:      ScoreMerchantUtilities,
	}

	riskyCombinationCategories = map[transaction.MerchantCategory]bool{
		transaction.CategoryGasStation:     true,
		transaction.CategoryOnlineShopping: true,
	}
)

// evaluateCard checks the Luhn checksum and issuer classification.
// An invalid checksum dominates; the issuer check only applies to
// checksum-valid numbers.
func evaluateCard(txn *transaction.Transaction) []RiskFactor {
	if !txn.Card.Valid() {
		return []RiskFactor{{
			Name:        FactorInvalidCard,
			Severity:    SeverityCritical,
			Score:       ScoreInvalidCard,
			Description: "Card number fails checksum validation",
		}}
	}

	if txn.Card.Issuer() == values.IssuerUnknown {
		return []RiskFactor{{
			Name:        FactorUnknownIssuer,
			Severity:    SeverityMedium,
			Score:       ScoreUnknownIssuer,
			Description: "Card number does not match any known issuer prefix",
		}}
	}

	return nil
}

// evaluateVelocity scores transaction bursts. recentCount is the number
// of prior transactions inside the velocity window; the transaction
// under evaluation counts as one more.
func evaluateVelocity(recentCount int) *RiskFactor {
	count := recentCount + 1

	switch {
	case count > VelocityCriticalCount:
		return &RiskFactor{
			Name:        FactorHighVelocity,
			Severity:    SeverityCritical,
			Score:       ScoreVelocityCritical,
			Description: fmt.Sprintf("%d transactions within %s", count, VelocityWindow),
		}
	case count > VelocityElevatedCount:
		return &RiskFactor{
			Name:        FactorElevatedVelocity,
			Severity:    SeverityHigh,
			Score:       ScoreVelocityElevated,
			Description: fmt.Sprintf("%d transactions within %s", count, VelocityWindow),
		}
	}
	return nil
}

// evaluateAmount maps the transaction amount to at most one band.
// Both extremes are suspicious: very large amounts and card-testing
// sized micro amounts.
func evaluateAmount(txn *transaction.Transaction) *RiskFactor {
	amt := txn.Amount

	switch {
	case amt.GreaterThan(decimal.NewFromInt(AmountVeryHighThreshold)):
		return &RiskFactor{
			Name:        FactorVeryLargeAmount,
			Severity:    SeverityCritical,
			Score:       ScoreAmountVeryHigh,
			Description: fmt.Sprintf("Amount of %s is extremely high", amt),
		}
	case amt.GreaterThan(decimal.NewFromInt(AmountHighThreshold)):
		return &RiskFactor{
			Name:        FactorLargeAmount,
			Severity:    SeverityHigh,
			Score:       ScoreAmountHigh,
			Description: fmt.Sprintf("Amount of %s is well above typical spending", amt),
		}
	case amt.GreaterThan(decimal.NewFromInt(AmountElevatedThreshold)):
		return &RiskFactor{
			Name:        FactorElevatedAmount,
			Severity:    SeverityMedium,
			Score:       ScoreAmountElevated,
			Description: fmt.Sprintf("Amount of %s is above average", amt),
		}
	case amt.LessThan(decimal.NewFromInt(AmountMicroThreshold)):
		return &RiskFactor{
			Name:        FactorMicroAmount,
			Severity:    SeverityLow,
			Score:       ScoreAmountMicro,
			Description: fmt.Sprintf("Micro amount of %s may indicate card testing", amt),
		}
	case amt.LessThan(decimal.NewFromInt(AmountSmallThreshold)):
		return &RiskFactor{
			Name:        FactorSmallAmount,
			Severity:    SeverityLow,
			Score:       ScoreAmountSmall,
			Description: fmt.Sprintf("Small amount of %s may be an initial fraud attempt", amt),
		}
	}
	return nil
}

// evaluateTime scores unusual hours and large weekend spending.
// The deep-night band dominates the broader late-night band; the
// weekend rule is independent and can stack.
func evaluateTime(txn *transaction.Transaction) []RiskFactor {
	var factors []RiskFactor

	hour := txn.Hour()
	switch {
	case hour >= DeepNightStartHour && hour < DeepNightEndHour:
		factors = append(factors, RiskFactor{
			Name:        FactorDeepNightTime,
			Severity:    SeverityHigh,
			Score:       ScoreDeepNight,
			Description: fmt.Sprintf("Transaction at %02d:00 falls in the highest-risk overnight window", hour),
		})
	case hour >= LateNightStartHour || hour < LateNightEndHour:
		factors = append(factors, RiskFactor{
			Name:        FactorLateNightTime,
			Severity:    SeverityMedium,
			Score:       ScoreLateNight,
			Description: fmt.Sprintf("Transaction at %02d:00 is outside normal hours", hour),
		})
	}

	if txn.IsWeekend() && txn.Amount.GreaterThan(decimal.NewFromInt(AmountElevatedThreshold)) {
		factors = append(factors, RiskFactor{
			Name:        FactorWeekendLargeAmount,
			Severity:    SeverityMedium,
			Score:       ScoreWeekendLarge,
			Description: "Large transaction on a weekend",
		})
	}

	return factors
}

// evaluateLocation scores the geographic risk of the location and, when
// a previous transaction exists, checks for impossible travel: a
// different location reached within the travel window.
func evaluateLocation(txn *transaction.Transaction, prev *transaction.Transaction) []RiskFactor {
	var factors []RiskFactor

	loc := strings.ToLower(txn.Location)
	if match := matchLocation(loc, highRiskLocations); match != "" {
		factors = append(factors, RiskFactor{
			Name:        FactorHighRiskLocation,
			Severity:    SeverityCritical,
			Score:       ScoreLocationHigh,
			Description: fmt.Sprintf("Location %q is in a high-risk region", txn.Location),
		})
	} else if match := matchLocation(loc, mediumRiskLocations); match != "" {
		factors = append(factors, RiskFactor{
			Name:        FactorMediumRiskLocation,
			Severity:    SeverityMedium,
			Score:       ScoreLocationMedium,
			Description: fmt.Sprintf("Location %q is in a medium-risk region", txn.Location),
		})
	}

	if prev != nil && !sameLocation(txn.Location, prev.Location) {
		gap := txn.OccurredAt.Sub(prev.OccurredAt)
		if gap >= 0 && gap < TravelWindow {
			factors = append(factors, RiskFactor{
				Name:        FactorImpossibleTravel,
				Severity:    SeverityCritical,
				Score:       ScoreImpossibleTravel,
				Description: fmt.Sprintf("Location changed from %q to %q within %s", prev.Location, txn.Location, gap.Round(time.Minute)),
			})
		}
	}

	return factors
}

func matchLocation(lowered string, regions []string) string {
	for _, r := range regions {
		if strings.Contains(lowered, r) {
			return r
		}
	}
	return ""
}

func sameLocation(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// evaluateMerchant scores the merchant category and the combination of
// a large amount with a risky category.
func evaluateMerchant(txn *transaction.Transaction) []RiskFactor {
	var factors []RiskFactor

	if score, ok := merchantCategoryScores[txn.MerchantCategory]; ok {
		factors = append(factors, RiskFactor{
			Name:        FactorMerchantCategory,
			Severity:    merchantSeverity(score),
			Score:       score,
			Description: fmt.Sprintf("Category %q carries elevated fraud rates", txn.MerchantCategory),
		})
	}

	if riskyCombinationCategories[txn.MerchantCategory] && txn.Amount.GreaterThan(decimal.NewFromInt(AmountElevatedThreshold)) {
		factors = append(factors, RiskFactor{
			Name:        FactorRiskyCombination,
			Severity:    SeverityCritical,
			Score:       ScoreRiskyCombination,
			Description: fmt.Sprintf("Large amount combined with %q merchant category", txn.MerchantCategory),
		})
	}

	return factors
}

func merchantSeverity(score int) Severity {
	switch {
	case score > MerchantSeverityHighAbove:
		return SeverityHigh
	case score > MerchantSeverityMediumAbove:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// evaluateName flags placeholder names and names without a surname.
// Both checks are independent; a single suspicious token trips both.
func evaluateName(txn *transaction.Transaction) []RiskFactor {
	var factors []RiskFactor

	if len(strings.Fields(txn.CardholderName)) < 2 {
		factors = append(factors, RiskFactor{
			Name:        FactorIncompleteName,
			Severity:    SeverityLow,
			Score:       ScoreSingleName,
			Description: "Cardholder name has no surname",
		})
	}

	lowered := strings.ToLower(txn.CardholderName)
	for _, token := range suspiciousNameTokens {
		if strings.Contains(lowered, token) {
			factors = append(factors, RiskFactor{
				Name:        FactorSuspiciousName,
				Severity:    SeverityCritical,
				Score:       ScoreSuspiciousName,
				Description: fmt.Sprintf("Cardholder name contains placeholder token %q", token),
			})
			break
		}
	}

	return factors
}

// evaluateOutlier compares the amount against the caller's spending
// history once enough of it exists. Deviation beyond the sigma
// multiplier from the historical mean is flagged.
func evaluateOutlier(txn *transaction.Transaction, priorAmounts []float64) *RiskFactor {
	if len(priorAmounts) <= MinHistoryForOutlierAnalysis {
		return nil
	}

	mean := 0.0
	for _, a := range priorAmounts {
		mean += a
	}
	mean /= float64(len(priorAmounts))

	variance := 0.0
	for _, a := range priorAmounts {
		variance += (a - mean) * (a - mean)
	}
	variance /= float64(len(priorAmounts))
	stddev := math.Sqrt(variance)

	if math.Abs(txn.Amount.ToFloat64()-mean) > OutlierSigmaMultiplier*stddev {
		return &RiskFactor{
			Name:        FactorAmountOutlier,
			Severity:    SeverityHigh,
			Score:       ScoreOutlier,
			Description: fmt.Sprintf("Amount of %s deviates sharply from the historical mean of %.2f", txn.Amount, mean),
		}
	}
	return nil
}
