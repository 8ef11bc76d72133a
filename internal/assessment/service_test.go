package assessment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/glucorisk/internal/assessment"
	"github.com/Skufu/glucorisk/internal/risk"
)

type scorerFunc func([]float64) (float64, error)

func (f scorerFunc) Predict(x []float64) (float64, error) { return f(x) }

func constScorer(p float64) scorerFunc {
	return func([]float64) (float64, error) { return p, nil }
}

type fakeRecorder struct {
	results []assessment.Result
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, r assessment.Result) error {
	f.results = append(f.results, r)
	return f.err
}

type fakeObserver struct {
	bands    []string
	imputed  [][]string
	failures []string
}

func (f *fakeObserver) ObserveAssessment(band string, imputed []string, _ time.Duration) {
	f.bands = append(f.bands, band)
	f.imputed = append(f.imputed, imputed)
}

func (f *fakeObserver) ObserveFailure(reason string) {
	f.failures = append(f.failures, reason)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, scorer scorerFunc, opts ...assessment.Option) *assessment.Service {
	t.Helper()
	table, err := risk.NewFlatTable(risk.DefaultFlatAverages)
	require.NoError(t, err)
	return assessment.NewService(risk.NewAssembler(table), scorer, discardLogger(), opts...)
}

func scenario() risk.Observation {
	return risk.Observation{
		Pregnancies:      2,
		Glucose:          risk.Float(0),
		BloodPressure:    risk.Float(70),
		SkinThickness:    risk.Float(20),
		Insulin:          risk.Float(0),
		BMI:              risk.Float(25.0),
		DiabetesPedigree: risk.Float(0.5),
		Age:              30,
	}
}

func TestScore_EndToEnd(t *testing.T) {
	var seen []float64
	scorer := func(x []float64) (float64, error) {
		seen = x
		return 0.30, nil
	}
	recorder := &fakeRecorder{}
	observer := &fakeObserver{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc := newService(t, scorer,
		assessment.WithRecorder(recorder),
		assessment.WithObserver(observer),
		assessment.WithModelVersion("v-test"),
		assessment.WithClock(func() time.Time { return fixed }),
	)

	result, err := svc.Score(context.Background(), scenario())
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 120.9, 70, 20, 79.8, 25.0, 0.5, 30}, seen)
	assert.Equal(t, 30.0, result.Percentage)
	assert.Equal(t, risk.BandModerate, result.Band)
	assert.False(t, result.Positive)
	assert.Equal(t, "No diabetes detected", result.Verdict())
	assert.True(t, result.WasImputed)
	assert.Equal(t, []string{"glucose", "insulin"}, result.ImputedFields)
	assert.Equal(t, risk.ImputationNotice, result.Notice())
	assert.Equal(t, risk.BandModerate.Feedback(), result.Feedback())
	assert.Equal(t, "v-test", result.ModelVersion)
	assert.Equal(t, risk.PolicyFlat, result.AveragesPolicy)
	assert.Equal(t, fixed, result.CreatedAt)

	require.Len(t, recorder.results, 1)
	assert.Equal(t, result.ID, recorder.results[0].ID)
	assert.Equal(t, []string{"moderate"}, observer.bands)
	assert.Equal(t, [][]string{{"glucose", "insulin"}}, observer.imputed)
}

func TestScore_NoImputationHasNoNotice(t *testing.T) {
	obs := scenario()
	obs.Glucose = risk.Float(100)
	obs.Insulin = risk.Float(60)

	result, err := newService(t, constScorer(0.7)).Score(context.Background(), obs)
	require.NoError(t, err)

	assert.False(t, result.WasImputed)
	assert.Empty(t, result.Notice())
	assert.Equal(t, risk.BandHigh, result.Band)
	assert.True(t, result.Positive)
}

func TestScore_PositiveAtDecisionThreshold(t *testing.T) {
	result, err := newService(t, constScorer(0.5)).Score(context.Background(), scenario())
	require.NoError(t, err)

	assert.Equal(t, risk.BandModerate, result.Band)
	assert.True(t, result.Positive)
	assert.Equal(t, "Diabetes likely", result.Verdict())
}

func TestScore_InvalidObservation(t *testing.T) {
	observer := &fakeObserver{}
	obs := scenario()
	obs.Age = 0

	_, err := newService(t, constScorer(0.5), assessment.WithObserver(observer)).Score(context.Background(), obs)

	var invalid *risk.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"invalid_input"}, observer.failures)
}

func TestScore_ScorerInvalidInputPassesThrough(t *testing.T) {
	scorer := func([]float64) (float64, error) {
		return 0, risk.NewInvalidInputError("features", "expected 9 values, got 8")
	}

	_, err := newService(t, scorer).Score(context.Background(), scenario())

	var invalid *risk.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestScore_InternalFailureIsHidden(t *testing.T) {
	tests := []struct {
		name   string
		scorer scorerFunc
	}{
		{"error", func([]float64) (float64, error) { return 0, errors.New("matrix exploded at 0xdeadbeef") }},
		{"panic", func([]float64) (float64, error) { panic("index out of range") }},
		{"out of range", constScorer(1.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &fakeObserver{}
			_, err := newService(t, tt.scorer, assessment.WithObserver(observer)).Score(context.Background(), scenario())

			require.ErrorIs(t, err, assessment.ErrPredictionFailed)
			assert.Equal(t, "prediction failed", err.Error())
			assert.Equal(t, []string{"prediction_failed"}, observer.failures)
		})
	}
}

func TestScore_RecorderFailureDoesNotFailAssessment(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("db down")}

	result, err := newService(t, constScorer(0.1), assessment.WithRecorder(recorder)).Score(context.Background(), scenario())
	require.NoError(t, err)

	assert.Equal(t, risk.BandLow, result.Band)
	assert.Len(t, recorder.results, 1)
}
