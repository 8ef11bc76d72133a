package model

import (
	"math"

	"github.com/Skufu/glucorisk/internal/risk"
)

// Scorer turns a feature vector into the probability of the positive class.
type Scorer interface {
	Predict(features []float64) (float64, error)
}

// LogisticRegression is a fitted binary logistic model over raw feature values.
type LogisticRegression struct {
	Format       string    `json:"format"`
	Version      string    `json:"version"`
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Metrics      Metrics   `json:"metrics"`
}

// Predict returns sigmoid(intercept + coefficients.features), always within [0,1].
func (m *LogisticRegression) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, risk.NewInvalidInputError("features", "expected %d values, got %d", len(m.Coefficients), len(features))
	}

	z := m.Intercept
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, risk.NewInvalidInputError("features", "value %d is not a finite number", i)
		}
		z += m.Coefficients[i] * v
	}

	return sigmoid(z), nil
}

// NumFeatures is the vector length the model expects.
func (m *LogisticRegression) NumFeatures() int {
	return len(m.Coefficients)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
