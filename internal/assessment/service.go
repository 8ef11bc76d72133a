package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/glucorisk/internal/model"
	"github.com/Skufu/glucorisk/internal/risk"
)

// ErrPredictionFailed is returned when the scorer fails for reasons other than bad input.
// The underlying cause is logged, never returned.
var ErrPredictionFailed = errors.New("prediction failed")

// Result is the outcome of scoring one observation.
type Result struct {
	ID             uuid.UUID          `json:"id"`
	Percentage     float64            `json:"percentage"`
	Band           risk.Band          `json:"band"`
	Positive       bool               `json:"predictedPositive"`
	WasImputed     bool               `json:"wasImputed"`
	ImputedFields  []string           `json:"imputedFields"`
	BMIDerived     bool               `json:"bmiDerived"`
	Features       risk.FeatureVector `json:"-"`
	ModelVersion   string             `json:"modelVersion"`
	AveragesPolicy string             `json:"averagesPolicy"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// Feedback is the band's display message.
func (r Result) Feedback() string {
	return r.Band.Feedback()
}

// Verdict is the binary classification message.
func (r Result) Verdict() string {
	return risk.Verdict(r.Positive)
}

// Notice is the imputation disclosure, empty when nothing was substituted.
func (r Result) Notice() string {
	if !r.WasImputed {
		return ""
	}
	return risk.ImputationNotice
}

// Recorder keeps an audit trail of results.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// Observer receives metrics about each assessment.
type Observer interface {
	ObserveAssessment(band string, imputed []string, elapsed time.Duration)
	ObserveFailure(reason string)
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithModelVersion(v string) Option {
	return func(s *Service) { s.modelVersion = v }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service assembles, scores and bands observations.
type Service struct {
	assembler    *risk.Assembler
	scorer       model.Scorer
	recorder     Recorder
	observer     Observer
	modelVersion string
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(assembler *risk.Assembler, scorer model.Scorer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		assembler: assembler,
		scorer:    scorer,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assembler exposes the feature assembler, e.g. to report reference averages.
func (s *Service) Assembler() *risk.Assembler {
	return s.assembler
}

// Score returns the risk percentage, band and imputation flag for obs.
// Errors are either a *risk.InvalidInputError or ErrPredictionFailed.
func (s *Service) Score(ctx context.Context, obs risk.Observation) (Result, error) {
	start := time.Now()

	asm, err := s.assembler.Assemble(obs)
	if err != nil {
		s.fail("invalid_input")
		return Result{}, err
	}

	p, err := s.predict(asm.Vector.Slice())
	if err != nil {
		var invalid *risk.InvalidInputError
		if errors.As(err, &invalid) {
			s.fail("invalid_input")
			return Result{}, err
		}
		s.logger.Error("scoring failed", "error", err)
		s.fail("prediction_failed")
		return Result{}, ErrPredictionFailed
	}

	pct := risk.Percentage(p)
	result := Result{
		ID:             uuid.New(),
		Percentage:     pct,
		Band:           risk.BandFromPercentage(pct),
		Positive:       risk.PredictedPositive(p),
		WasImputed:     asm.Imputed,
		ImputedFields:  asm.ImputedNames(),
		BMIDerived:     asm.BMIDerived,
		Features:       asm.Vector,
		ModelVersion:   s.modelVersion,
		AveragesPolicy: s.assembler.Table().Policy(),
		CreatedAt:      s.now().UTC(),
	}

	if s.observer != nil {
		s.observer.ObserveAssessment(result.Band.String(), result.ImputedFields, time.Since(start))
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, result); err != nil {
			s.logger.Warn("failed to record assessment", "id", result.ID, "error", err)
		}
	}

	s.logger.Debug("assessment scored",
		"id", result.ID,
		"band", result.Band.String(),
		"imputed", result.ImputedFields,
	)
	return result, nil
}

// predict calls the scorer, turning panics and out-of-range output into errors.
func (s *Service) predict(features []float64) (p float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scorer panic: %v", r)
		}
	}()

	p, err = s.scorer.Predict(features)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("scorer returned %v outside [0,1]", p)
	}
	return p, nil
}

func (s *Service) fail(reason string) {
	if s.observer != nil {
		s.observer.ObserveFailure(reason)
	}
}
