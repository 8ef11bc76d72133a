package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TrainOptions tune the gradient descent fit.
type TrainOptions struct {
	MaxIter      int
	LearningRate float64
	// L2 is the ridge penalty applied to standardized coefficients.
	L2      float64
	Version string
}

// DefaultTrainOptions mirror a plain logistic regression with 1000 iterations.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		MaxIter:      1000,
		LearningRate: 0.1,
		L2:           0.001,
	}
}

// Train fits a logistic regression with batch gradient descent on standardized
// features and returns coefficients for raw feature values.
func Train(ds *Dataset, opts TrainOptions) (*LogisticRegression, error) {
	if ds.Len() == 0 {
		return nil, errors.New("train: empty dataset")
	}
	if opts.MaxIter <= 0 || opts.LearningRate <= 0 || opts.L2 < 0 {
		return nil, fmt.Errorf("train: invalid options %+v", opts)
	}

	dim := len(ds.X[0])
	if dim != len(FeatureColumns) {
		return nil, fmt.Errorf("train: rows have %d features, want %d", dim, len(FeatureColumns))
	}
	mean, std := standardization(ds, dim)

	n := float64(ds.Len())
	w := make([]float64, dim)
	grad := make([]float64, dim)
	z := make([]float64, dim)
	var b float64

	for iter := 0; iter < opts.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradB float64

		for i, row := range ds.X {
			p := b
			for j, v := range row {
				z[j] = (v - mean[j]) / std[j]
				p += w[j] * z[j]
			}
			diff := sigmoid(p) - ds.Y[i]
			for j := range w {
				grad[j] += diff * z[j]
			}
			gradB += diff
		}

		for j := range w {
			w[j] -= opts.LearningRate * (grad[j]/n + opts.L2*w[j])
		}
		b -= opts.LearningRate * gradB / n
	}

	coef := make([]float64, dim)
	intercept := b
	for j := range w {
		coef[j] = w[j] / std[j]
		intercept -= w[j] * mean[j] / std[j]
	}

	features := make([]string, len(FeatureColumns))
	copy(features, FeatureColumns)

	version := opts.Version
	if version == "" {
		version = time.Now().UTC().Format("20060102T150405Z")
	}

	return &LogisticRegression{
		Format:       ArtifactFormat,
		Version:      version,
		Features:     features,
		Intercept:    intercept,
		Coefficients: coef,
	}, nil
}

func standardization(ds *Dataset, dim int) (mean, std []float64) {
	mean = make([]float64, dim)
	std = make([]float64, dim)
	n := float64(ds.Len())

	for _, row := range ds.X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range ds.X {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

// Evaluate reports accuracy at a 0.5 threshold and mean log loss on ds.
func Evaluate(s Scorer, ds *Dataset) (Metrics, error) {
	if ds.Len() == 0 {
		return Metrics{}, errors.New("evaluate: empty dataset")
	}

	const eps = 1e-15
	var correct int
	var loss float64
	for i, row := range ds.X {
		p, err := s.Predict(row)
		if err != nil {
			return Metrics{}, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		predicted := 0.0
		if p >= 0.5 {
			predicted = 1
		}
		if predicted == ds.Y[i] {
			correct++
		}
		p = math.Min(math.Max(p, eps), 1-eps)
		loss -= ds.Y[i]*math.Log(p) + (1-ds.Y[i])*math.Log(1-p)
	}

	return Metrics{
		Accuracy: float64(correct) / float64(ds.Len()),
		LogLoss:  loss / float64(ds.Len()),
		TestRows: ds.Len(),
	}, nil
}
