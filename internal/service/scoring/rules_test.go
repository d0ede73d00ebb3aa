package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
	"github.com/cardguard/cardguard-backend/internal/domain/values"
)

type txnOpts struct {
	card     string
	holder   string
	amount   float64
	merchant string
	category transaction.MerchantCategory
	location string
	at       time.Time
}

func ruleTxn(t *testing.T, opts txnOpts) *transaction.Transaction {
	t.Helper()

	if opts.card == "" {
		opts.card = "4532015112830366"
	}
	if opts.holder == "" {
		opts.holder = "Jane Smith"
	}
	if opts.amount == 0 {
		opts.amount = 500
	}
	if opts.merchant == "" {
		opts.merchant = "Corner Books"
	}
	if opts.category == "" {
		opts.category = transaction.CategoryRetail
	}
	if opts.location == "" {
		opts.location = "Mumbai, India"
	}
	if opts.at.IsZero() {
		opts.at = time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC) // Monday afternoon
	}

	txn, err := transaction.New(
		values.MustNewCardNumber(opts.card),
		opts.holder,
		values.MustNewMoneyFromFloat(opts.amount, values.INR),
		opts.merchant,
		opts.category,
		opts.location,
		opts.at,
	)
	require.NoError(t, err)
	return txn
}

func TestEvaluateCard(t *testing.T) {
	transaction.SetClock(&transaction.MockClock{CurrentTime: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)})
	defer transaction.ResetClock()

	t.Run("luhn failure", func(t *testing.T) {
		factors := evaluateCard(ruleTxn(t, txnOpts{card: "4532111111111111"}))
		require.Len(t, factors, 1)
		assert.Equal(t, FactorInvalidCard, factors[0].Name)
		assert.Equal(t, SeverityCritical, factors[0].Severity)
		assert.Equal(t, ScoreInvalidCard, factors[0].Score)
	})

	t.Run("unknown issuer", func(t *testing.T) {
		// Luhn-valid but no recognized prefix.
		factors := evaluateCard(ruleTxn(t, txnOpts{card: "9999999999999995"}))
		require.Len(t, factors, 1)
		assert.Equal(t, FactorUnknownIssuer, factors[0].Name)
		assert.Equal(t, SeverityMedium, factors[0].Severity)
	})

	t.Run("valid visa", func(t *testing.T) {
		assert.Empty(t, evaluateCard(ruleTxn(t, txnOpts{})))
	})
}

func TestEvaluateVelocity(t *testing.T) {
	tests := []struct {
		name        string
		recentCount int
		wantName    string
		wantScore   int
	}{
		{name: "no recent activity", recentCount: 0},
		{name: "at elevated boundary", recentCount: 2},
		{name: "above elevated", recentCount: 3, wantName: FactorElevatedVelocity, wantScore: ScoreVelocityElevated},
		{name: "at critical boundary", recentCount: 4, wantName: FactorElevatedVelocity, wantScore: ScoreVelocityElevated},
		{name: "above critical", recentCount: 5, wantName: FactorHighVelocity, wantScore: ScoreVelocityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := evaluateVelocity(tt.recentCount)
			if tt.wantName == "" {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.wantName, f.Name)
			assert.Equal(t, tt.wantScore, f.Score)
		})
	}
}

func TestEvaluateAmount(t *testing.T) {
	transaction.SetClock(&transaction.MockClock{CurrentTime: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)})
	defer transaction.ResetClock()

	tests := []struct {
		name      string
		amount    float64
		wantName  string
		wantScore int
	}{
		{name: "very high", amount: 250000, wantName: FactorVeryLargeAmount, wantScore: ScoreAmountVeryHigh},
		{name: "high", amount: 150000, wantName: FactorLargeAmount, wantScore: ScoreAmountHigh},
		{name: "elevated", amount: 60000, wantName: FactorElevatedAmount, wantScore: ScoreAmountElevated},
		{name: "unremarkable", amount: 500},
		{name: "small", amount: 75, wantName: FactorSmallAmount, wantScore: ScoreAmountSmall},
		{name: "micro", amount: 20, wantName: FactorMicroAmount, wantScore: ScoreAmountMicro},
		{name: "exactly at elevated threshold", amount: 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := evaluateAmount(ruleTxn(t, txnOpts{amount: tt.amount}))
			if tt.wantName == "" {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.wantName, f.Name)
			assert.Equal(t, tt.wantScore, f.Score)
		})
	}
}

func TestEvaluateAmount_Monotonic(t *testing.T) {
	transaction.SetClock(&transaction.MockClock{CurrentTime: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)})
	defer transaction.ResetClock()

	// Above the micro and small bands, a larger amount never contributes
	// less than a smaller one.
	amounts := []float64{1000, 40000, 50001, 60000, 100001, 150000, 200001, 250000}

	prev := 0
	for _, amount := range amounts {
		score := 0
		if f := evaluateAmount(ruleTxn(t, txnOpts{amount: amount})); f != nil {
			score = f.Score
		}
		assert.GreaterOrEqual(t, score, prev, "amount %.0f contributed less than a smaller amount", amount)
		prev = score
	}
}

func TestEvaluateTime(t *testing.T) {
	transaction.SetClock(&transaction.MockClock{CurrentTime: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)})
	defer transaction.ResetClock()

	t.Run("deep night dominates late night", func(t *testing.T) {
		factors := evaluateTime(ruleTxn(t, txnOpts{at: time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)}))
		require.Len(t, factors, 1)
		assert.Equal(t, FactorDeepNightTime, factors[0].Name)
		assert.Equal(t, SeverityHigh, factors[0].Severity)
	})

	t.Run("late evening", func(t *testing.T) {
		factors := evaluateTime(ruleTxn(t, txnOpts{at: time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC)}))
		require.Len(t, factors, 1)
		assert.Equal(t, FactorLateNightTime, factors[0].Name)
	})

	t.Run("early morning before six", func(t *testing.T) {
		factors := evaluateTime(ruleTxn(t, txnOpts{at: time.Date(2025, 6, 2, 5, 30, 0, 0, time.UTC)}))
		require.Len(t, factors, 1)
		assert.Equal(t, FactorLateNightTime, factors[0].Name)
	})

	t.Run("business hours", func(t *testing.T) {
		assert.Empty(t, evaluateTime(ruleTxn(t, txnOpts{at: time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)})))
	})

	t.Run("large weekend transaction stacks with hour", func(t *testing.T) {
		// 2025-06-07 is a Saturday.
		factors := evaluateTime(ruleTxn(t, txnOpts{amount: 60000, at: time.Date(2025, 6, 7, 3, 0, 0, 0, time.UTC)}))
		require.Len(t, factors, 2)
		assert.Equal(t, FactorDeepNightTime, factors[0].Name)
		assert.Equal(t, FactorWeekendLargeAmount, factors[1].Name)
	})

	t.Run("small weekend transaction is fine", func(t *testing.T) {
		assert.Empty(t, evaluateTime(ruleTxn(t, txnOpts{amount: 500, at: time.Date(2025, 6, 7, 14, 0, 0, 0, time.UTC)})))
	})
}

func TestEvaluateLocation(t *testing.T) {
	transaction.SetClock(&transaction.MockClock{CurrentTime: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)})
	defer transaction.ResetClock()

	t.Run("high risk region", func(t *testing.T) {
		factors := evaluateLocation(ruleTxn(t, txnOpts{location: "Lagos, Nigeria"}), nil)
		require.Len(t, factors, 1)
		assert.Equal(t, FactorHighRiskLocation, factors[0].Name)
		assert.Equal(t, SeverityCritical, factors[0].Severity)
	})

	t.Run("medium risk region", func(t *testing.T) {
		factors := evaluateLocation(ruleTxn(t, txnOpts{location: "Bucharest, Romania"}), nil)
		require.Len(t, factors, 1)
		assert.Equal(t, FactorMediumRiskLocation, factors[0].Name)
	})

	t.Run("case insensitive match", func(t *testing.T) {
		factors := evaluateLocation(ruleTxn(t, txnOpts{location: "MOSCOW, RUSSIA"}), nil)
		require.Len(t, factors, 1)
		assert.Equal(t, FactorHighRiskLocation, factors[0].Name)
	})

	t.Run("impossible travel", func(t *testing.T) {
		base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
		prev := ruleTxn(t, txnOpts{location: "Mumbai, India", at: base})
		cur := ruleTxn(t, txnOpts{location: "Delhi, India", at: base.Add(20 * time.Minute)})

		factors := evaluateLocation(cur, prev)
		require.Len(t, factors, 1)
		assert.Equal(t, FactorImpossibleTravel, factors[0].Name)
		assert.Equal(t, ScoreImpossibleTravel, factors[0].Score)
	})

	t.Run("same location never trips travel", func(t *testing.T) {
		base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
		prev := ruleTxn(t, txnOpts{at: base})
		cur := ruleTxn(t, txnOpts{at: base.Add(5 * time.Minute)})
		assert.Empty(t, evaluateLocation(cur, prev))
	})

	t.Run("slow travel is fine", func(t *testing.T) {
		base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
		prev := ruleTxn(t, txnOpts{location: "Mumbai, India", at: base})
		cur := ruleTxn(t, txnOpts{location: "Delhi, India", at: base.Add(3 * time.Hour)})
		assert.Empty(t, evaluateLocation(cur, prev))
	})
}

func TestEvaluateMerchant(t *testing.T) {
	transaction.SetClock(&transaction.MockClock{CurrentTime: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)})
	defer transaction.ResetClock()

	tests := []struct {
		name         string
		category     transaction.MerchantCategory
		amount       float64
		wantScore    int
		wantSeverity Severity
		wantCombo    bool
	}{
		{name: "gas station", category: transaction.CategoryGasStation, amount: 500, wantScore: ScoreMerchantGasStation, wantSeverity: SeverityHigh},
		{name: "online shopping", category: transaction.CategoryOnlineShopping, amount: 500, wantScore: ScoreMerchantOnlineShopping, wantSeverity: SeverityHigh},
		{name: "travel", category: transaction.CategoryTravel, amount: 500, wantScore: ScoreMerchantTravel, wantSeverity: SeverityMedium},
		{name: "entertainment", category: transaction.CategoryEntertainment, amount: 500, wantScore: ScoreMerchantEntertainment, wantSeverity: SeverityLow},
		{name: "utilities", category: transaction.CategoryUtilities, amount: 500, wantScore: ScoreMerchantUtilities, wantSeverity: SeverityLow},
		{name: "retail has no category risk", category: transaction.CategoryRetail, amount: 500},
		{name: "large gas purchase adds combination", category: transaction.CategoryGasStation, amount: 60000, wantScore: ScoreMerchantGasStation, wantSeverity: SeverityHigh, wantCombo: true},
		{name: "large online purchase adds combination", category: transaction.CategoryOnlineShopping, amount: 60000, wantScore: ScoreMerchantOnlineShopping, wantSeverity: SeverityHigh, wantCombo: true},
		{name: "large travel purchase has no combination", category: transaction.CategoryTravel, amount: 60000, wantScore: ScoreMerchantTravel, wantSeverity: SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors := evaluateMerchant(ruleTxn(t, txnOpts{category: tt.category, amount: tt.amount}))

			if tt.wantScore == 0 {
				assert.Empty(t, factors)
				return
			}

			require.NotEmpty(t, factors)
			assert.Equal(t, FactorMerchantCategory, factors[0].Name)
			assert.Equal(t, tt.wantScore, factors[0].Score)
			assert.Equal(t, tt.wantSeverity, factors[0].Severity)

			if tt.wantCombo {
				require.Len(t, factors, 2)
				assert.Equal(t, FactorRiskyCombination, factors[1].Name)
				assert.Equal(t, SeverityCritical, factors[1].Severity)
			} else {
				assert.Len(t, factors, 1)
			}
		})
	}
}

func TestEvaluateName(t *testing.T) {
	transaction.SetClock(&transaction.MockClock{CurrentTime: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)})
	defer transaction.ResetClock()

	t.Run("full name passes", func(t *testing.T) {
		assert.Empty(t, evaluateName(ruleTxn(t, txnOpts{holder: "Jane Smith"})))
	})

	t.Run("single name", func(t *testing.T) {
		factors := evaluateName(ruleTxn(t, txnOpts{holder: "Jane"}))
		require.Len(t, factors, 1)
		assert.Equal(t, FactorIncompleteName, factors[0].Name)
	})

	t.Run("placeholder token", func(t *testing.T) {
		factors := evaluateName(ruleTxn(t, txnOpts{holder: "Test User"}))
		require.Len(t, factors, 1)
		assert.Equal(t, FactorSuspiciousName, factors[0].Name)
		assert.Equal(t, SeverityCritical, factors[0].Severity)
	})

	t.Run("single placeholder trips both checks", func(t *testing.T) {
		factors := evaluateName(ruleTxn(t, txnOpts{holder: "admin"}))
		require.Len(t, factors, 2)
		assert.Equal(t, FactorIncompleteName, factors[0].Name)
		assert.Equal(t, FactorSuspiciousName, factors[1].Name)
	})
}

func TestEvaluateOutlier(t *testing.T) {
	transaction.SetClock(&transaction.MockClock{CurrentTime: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)})
	defer transaction.ResetClock()

	steady := []float64{100, 105, 95, 100, 110, 90}

	t.Run("needs enough history", func(t *testing.T) {
		assert.Nil(t, evaluateOutlier(ruleTxn(t, txnOpts{amount: 100000}), steady[:5]))
	})

	t.Run("flags a spike", func(t *testing.T) {
		f := evaluateOutlier(ruleTxn(t, txnOpts{amount: 100000}), steady)
		require.NotNil(t, f)
		assert.Equal(t, FactorAmountOutlier, f.Name)
		assert.Equal(t, ScoreOutlier, f.Score)
	})

	t.Run("typical amount passes", func(t *testing.T) {
		assert.Nil(t, evaluateOutlier(ruleTxn(t, txnOpts{amount: 102}), steady))
	})
}
