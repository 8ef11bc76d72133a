package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/glucorisk/internal/assessment"
	"github.com/Skufu/glucorisk/internal/risk"
)

// MaxRecent caps how many rows Recent returns.
const MaxRecent = 100

// AssessmentRepository stores the outcome of each assessment. Patient
// attributes are not written.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// Record implements assessment.Recorder.
func (r *AssessmentRepository) Record(ctx context.Context, res assessment.Result) error {
	const query = `
		INSERT INTO risk_assessments (
			id, percentage, band, predicted_positive, was_imputed,
			imputed_fields, bmi_derived, model_version, averages_policy, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	imputed := res.ImputedFields
	if imputed == nil {
		imputed = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		res.ID,
		res.Percentage,
		res.Band.String(),
		res.Positive,
		res.WasImputed,
		imputed,
		res.BMIDerived,
		res.ModelVersion,
		res.AveragesPolicy,
		res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// Recent returns the newest assessments first.
func (r *AssessmentRepository) Recent(ctx context.Context, limit int) ([]assessment.Result, error) {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}

	const query = `
		SELECT id, percentage, band, predicted_positive, was_imputed,
			imputed_fields, bmi_derived, model_version, averages_policy, created_at
		FROM risk_assessments
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}

	results, err := pgx.CollectRows(rows, scanResult)
	if err != nil {
		return nil, fmt.Errorf("scan assessments: %w", err)
	}
	return results, nil
}

// Ping reports whether the database is reachable.
func (r *AssessmentRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanResult(row pgx.CollectableRow) (assessment.Result, error) {
	var (
		res  assessment.Result
		band string
	)
	err := row.Scan(
		&res.ID,
		&res.Percentage,
		&band,
		&res.Positive,
		&res.WasImputed,
		&res.ImputedFields,
		&res.BMIDerived,
		&res.ModelVersion,
		&res.AveragesPolicy,
		&res.CreatedAt,
	)
	if err != nil {
		return assessment.Result{}, err
	}

	res.Band, err = risk.BandFromString(band)
	if err != nil {
		return assessment.Result{}, err
	}
	return res, nil
}
