package risk_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/glucorisk/internal/risk"
)

func TestDeriveBMI(t *testing.T) {
	bmi, ok := risk.DeriveBMI(170, 70)

	assert.True(t, ok)
	assert.Equal(t, 24.22, math.Round(bmi*100)/100)
}

func TestDeriveBMI_SkipsNonPositiveInputs(t *testing.T) {
	tests := []struct {
		name           string
		height, weight float64
	}{
		{"zero height", 0, 70},
		{"zero weight", 170, 0},
		{"both zero", 0, 0},
		{"negative height", -170, 70},
		{"NaN weight", 170, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, ok := risk.DeriveBMI(tt.height, tt.weight)
				assert.False(t, ok)
			})
		})
	}
}

func TestDeriveValidBMI(t *testing.T) {
	bmi, ok, err := risk.DeriveValidBMI(170, 70)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 24.22, math.Round(bmi*100)/100)

	_, ok, err = risk.DeriveValidBMI(0, 70)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeriveValidBMI_Rejects(t *testing.T) {
	tests := []struct {
		name           string
		height, weight float64
		field          string
	}{
		{"tiny height", 1, 500, "bmi"},
		{"height above range", 301, 70, "heightCm"},
		{"weight above range", 170, 501, "weightKg"},
		{"negative weight", 170, -1, "weightKg"},
		{"NaN height", math.NaN(), 70, "heightCm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := risk.DeriveValidBMI(tt.height, tt.weight)
			assert.False(t, ok)

			var invalid *risk.InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Problems[0].Field)
		})
	}
}
