package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// FeatureColumns are the dataset's input columns, in feature vector order.
var FeatureColumns = []string{
	"Pregnancies",
	"Glucose",
	"BloodPressure",
	"SkinThickness",
	"Insulin",
	"BMI",
	"DiabetesPedigreeFunction",
	"Age",
}

// OutcomeColumn holds the 0/1 label.
const OutcomeColumn = "Outcome"

// Dataset is a labelled table of feature rows.
type Dataset struct {
	X [][]float64
	Y []float64
}

func (d *Dataset) Len() int {
	return len(d.Y)
}

// LoadDataset parses CSV rows of the eight feature columns followed by the outcome.
// A leading header row must name FeatureColumns then OutcomeColumn, in that order.
func LoadDataset(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(FeatureColumns) + 1
	reader.TrimLeadingSpace = true

	ds := &Dataset{}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		if line == 1 && isHeader(record) {
			if err := checkHeader(record); err != nil {
				return nil, fmt.Errorf("line 1: %w", err)
			}
			continue
		}

		row := make([]float64, len(FeatureColumns))
		for i := range FeatureColumns {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, FeatureColumns[i], err)
			}
			row[i] = v
		}

		label := strings.TrimSpace(record[len(FeatureColumns)])
		switch label {
		case "0":
			ds.Y = append(ds.Y, 0)
		case "1":
			ds.Y = append(ds.Y, 1)
		default:
			return nil, fmt.Errorf("line %d: outcome must be 0 or 1, got %q", line, label)
		}
		ds.X = append(ds.X, row)
	}

	if ds.Len() == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return ds, nil
}

func isHeader(record []string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	return err != nil
}

func checkHeader(record []string) error {
	want := append(append([]string{}, FeatureColumns...), OutcomeColumn)
	for i, name := range want {
		if !strings.EqualFold(strings.TrimSpace(record[i]), name) {
			return fmt.Errorf("unexpected header %q, want %s", strings.Join(record, ","), strings.Join(want, ","))
		}
	}
	return nil
}

// Split shuffles the rows with seed and holds out testFraction of them.
func Split(ds *Dataset, testFraction float64, seed int64) (train, test *Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0,1), got %g", testFraction)
	}

	n := ds.Len()
	nTest := int(float64(n)*testFraction + 0.5)
	if nTest == 0 || nTest == n {
		return nil, nil, fmt.Errorf("cannot split %d rows with test fraction %g", n, testFraction)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	train = &Dataset{X: make([][]float64, 0, n-nTest), Y: make([]float64, 0, n-nTest)}
	test = &Dataset{X: make([][]float64, 0, nTest), Y: make([]float64, 0, nTest)}
	for i, idx := range perm {
		dst := train
		if i < nTest {
			dst = test
		}
		dst.X = append(dst.X, ds.X[idx])
		dst.Y = append(dst.Y, ds.Y[idx])
	}

	return train, test, nil
}
