package values

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		wantErr  bool
	}{
		{
			name:     "valid INR amount",
			amount:   "75000.00",
			currency: "INR",
		},
		{
			name:     "valid USD amount",
			amount:   "19.99",
			currency: "USD",
		},
		{
			name:     "lowercase currency normalized",
			amount:   "10",
			currency: "inr",
		},
		{
			name:     "empty currency",
			amount:   "10",
			currency: "",
			wantErr:  true,
		},
		{
			name:     "unsupported currency",
			amount:   "10",
			currency: "XXX",
			wantErr:  true,
		},
		{
			name:     "bad currency length",
			amount:   "10",
			currency: "RUPEES",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount, tt.currency)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "INR", Zero(INR).Currency())
			assert.True(t, m.Amount().Equal(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestMoney_Comparisons(t *testing.T) {
	small := MustNewMoneyFromFloat(49.99, INR)
	large := MustNewMoneyFromFloat(200001, INR)

	assert.True(t, small.LessThan(decimal.NewFromInt(50)))
	assert.True(t, large.GreaterThan(decimal.NewFromInt(200000)))
	assert.Equal(t, -1, small.Compare(large))
	assert.True(t, small.IsPositive())
	assert.True(t, Zero(INR).IsZero())

	assert.Panics(t, func() {
		small.Compare(MustNewMoneyFromFloat(1, USD))
	})
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := MustNewMoneyFromFloat(500.50, INR)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equal(decoded))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("75000.00"))
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(75000)))
	assert.Equal(t, INR, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
