package risk_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/glucorisk/internal/risk"
)

func TestBandFromProbability(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		expected    risk.Band
	}{
		{"0.00 is low", 0.0, risk.BandLow},
		{"0.2999 is low", 0.2999, risk.BandLow},
		{"0.30 is moderate", 0.30, risk.BandModerate},
		{"0.50 is moderate", 0.50, risk.BandModerate},
		{"0.6999 is moderate", 0.6999, risk.BandModerate},
		{"0.70 is high", 0.70, risk.BandHigh},
		{"1.00 is high", 1.0, risk.BandHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := risk.BandFromProbability(tt.probability)
			assert.Equal(t, tt.expected, got, "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestBandFromPercentage_Boundaries(t *testing.T) {
	assert.Equal(t, risk.BandLow, risk.BandFromPercentage(29.999999))
	assert.Equal(t, risk.BandModerate, risk.BandFromPercentage(30))
	assert.Equal(t, risk.BandModerate, risk.BandFromPercentage(69.999999))
	assert.Equal(t, risk.BandHigh, risk.BandFromPercentage(70))
}

func TestPredictedPositive(t *testing.T) {
	assert.False(t, risk.PredictedPositive(0.499999))
	assert.True(t, risk.PredictedPositive(0.5))
	assert.True(t, risk.PredictedPositive(0.93))

	assert.Equal(t, "Diabetes likely", risk.Verdict(true))
	assert.Equal(t, "No diabetes detected", risk.Verdict(false))
}

func TestBandFromString(t *testing.T) {
	for _, b := range []risk.Band{risk.BandLow, risk.BandModerate, risk.BandHigh} {
		got, err := risk.BandFromString(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
		assert.NotEmpty(t, got.Feedback())
	}

	_, err := risk.BandFromString("critical")
	assert.Error(t, err)
}

func TestBand_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Band risk.Band `json:"band"`
	}{risk.BandModerate})
	require.NoError(t, err)
	assert.JSONEq(t, `{"band":"moderate"}`, string(out))

	var in struct {
		Band risk.Band `json:"band"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"band":"high"}`), &in))
	assert.Equal(t, risk.BandHigh, in.Band)
	assert.Error(t, json.Unmarshal([]byte(`{"band":"extreme"}`), &in))
}

func TestBand_IsZero(t *testing.T) {
	var zero risk.Band
	assert.True(t, zero.IsZero())
	assert.False(t, risk.BandLow.IsZero())
	assert.Empty(t, zero.Feedback())
}
