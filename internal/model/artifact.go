package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// ArtifactFormat tags artifacts written by Save.
const ArtifactFormat = "logistic_regression/v1"

// Metrics describes how a model performed when it was trained. It is empty
// for artifacts that were not produced by Train.
type Metrics struct {
	Accuracy  float64    `json:"accuracy,omitempty"`
	LogLoss   float64    `json:"logLoss,omitempty"`
	TrainRows int        `json:"trainRows,omitempty"`
	TestRows  int        `json:"testRows,omitempty"`
	TrainedAt *time.Time `json:"trainedAt,omitempty"`
}

// ScoringUnavailableError means the model artifact could not be loaded.
type ScoringUnavailableError struct {
	Path string
	Err  error
}

func (e *ScoringUnavailableError) Error() string {
	return fmt.Sprintf("scoring unavailable: model %s: %v", e.Path, e.Err)
}

func (e *ScoringUnavailableError) Unwrap() error {
	return e.Err
}

// Load reads a model artifact. Every failure is a *ScoringUnavailableError.
func Load(path string) (*LogisticRegression, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ScoringUnavailableError{Path: path, Err: err}
	}

	var m LogisticRegression
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ScoringUnavailableError{Path: path, Err: fmt.Errorf("decode artifact: %w", err)}
	}
	if err := m.validate(); err != nil {
		return nil, &ScoringUnavailableError{Path: path, Err: err}
	}

	return &m, nil
}

func (m *LogisticRegression) validate() error {
	if m.Format != ArtifactFormat {
		return fmt.Errorf("unsupported artifact format %q", m.Format)
	}
	if len(m.Features) != len(FeatureColumns) {
		return fmt.Errorf("artifact has %d features, want %d", len(m.Features), len(FeatureColumns))
	}
	for i, name := range FeatureColumns {
		if m.Features[i] != name {
			return fmt.Errorf("feature %d is %q, want %q", i, m.Features[i], name)
		}
	}
	if len(m.Coefficients) != len(m.Features) {
		return fmt.Errorf("artifact has %d coefficients for %d features", len(m.Coefficients), len(m.Features))
	}
	if !finite(m.Intercept) {
		return errors.New("intercept is not finite")
	}
	for i, c := range m.Coefficients {
		if !finite(c) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}

// Save writes the artifact to path through a temporary file and rename.
func (m *LogisticRegression) Save(path string) error {
	if m.Format == "" {
		m.Format = ArtifactFormat
	}
	if err := m.validate(); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename model: %w", err)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
