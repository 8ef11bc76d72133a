package risk

import (
	"math"
)

// Field identifies one position of the feature vector.
type Field int

const (
	FieldPregnancies Field = iota
	FieldGlucose
	FieldBloodPressure
	FieldSkinThickness
	FieldInsulin
	FieldBMI
	FieldPedigree
	FieldAge
)

// FeatureCount is the length of every assembled feature vector.
const FeatureCount = 8

var fieldNames = [FeatureCount]string{
	"pregnancies",
	"glucose",
	"bloodPressure",
	"skinThickness",
	"insulin",
	"bmi",
	"diabetesPedigree",
	"age",
}

// imputableFields lists the fields that fall back to a reference average.
// Pregnancies and age are always used as entered.
var imputableFields = []Field{
	FieldGlucose,
	FieldBloodPressure,
	FieldSkinThickness,
	FieldInsulin,
	FieldBMI,
	FieldPedigree,
}

func (f Field) String() string {
	if f < 0 || int(f) >= FeatureCount {
		return "unknown"
	}
	return fieldNames[f]
}

// Imputable reports whether a missing value for f may be replaced by a reference average.
func (f Field) Imputable() bool {
	return f != FieldPregnancies && f != FieldAge && f >= 0 && int(f) < FeatureCount
}

// Fields returns all fields in vector order.
func Fields() []Field {
	out := make([]Field, FeatureCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Observation is one set of patient attributes as entered by a user.
// A nil pointer means the value was not provided.
type Observation struct {
	Pregnancies      int      `json:"pregnancies"`
	Glucose          *float64 `json:"glucose,omitempty"`
	BloodPressure    *float64 `json:"bloodPressure,omitempty"`
	SkinThickness    *float64 `json:"skinThickness,omitempty"`
	Insulin          *float64 `json:"insulin,omitempty"`
	BMI              *float64 `json:"bmi,omitempty"`
	DiabetesPedigree *float64 `json:"diabetesPedigree,omitempty"`
	Age              int      `json:"age"`
	HeightCM         *float64 `json:"heightCm,omitempty"`
	WeightKG         *float64 `json:"weightKg,omitempty"`
}

// Float returns a pointer to v, for building observations in code.
func Float(v float64) *float64 {
	return &v
}

func (o Observation) optional(f Field) *float64 {
	switch f {
	case FieldGlucose:
		return o.Glucose
	case FieldBloodPressure:
		return o.BloodPressure
	case FieldSkinThickness:
		return o.SkinThickness
	case FieldInsulin:
		return o.Insulin
	case FieldBMI:
		return o.BMI
	case FieldPedigree:
		return o.DiabetesPedigree
	default:
		return nil
	}
}

type bounds struct {
	min, max float64
}

// Accepted ranges mirror the limits of the intake form.
var fieldBounds = map[string]bounds{
	"pregnancies":      {0, 20},
	"glucose":          {0, 300},
	"bloodPressure":    {0, 200},
	"skinThickness":    {0, 99},
	"insulin":          {0, 900},
	"bmi":              {0, 70},
	"diabetesPedigree": {0, 3},
	"age":              {1, 120},
	"heightCm":         {0, 300},
	"weightKg":         {0, 500},
}

// Validate checks every field against its accepted range and returns an
// *InvalidInputError describing all violations, or nil.
func (o Observation) Validate() error {
	verr := &InvalidInputError{}

	checkRange(verr, "pregnancies", float64(o.Pregnancies))
	checkRange(verr, "age", float64(o.Age))
	for _, f := range imputableFields {
		if v := o.optional(f); v != nil {
			checkRange(verr, f.String(), *v)
		}
	}
	if o.HeightCM != nil {
		checkRange(verr, "heightCm", *o.HeightCM)
	}
	if o.WeightKG != nil {
		checkRange(verr, "weightKg", *o.WeightKG)
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

func checkRange(verr *InvalidInputError, field string, v float64) {
	b := fieldBounds[field]
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		verr.Add(field, "must be a finite number")
	case v < b.min || v > b.max:
		verr.Add(field, "must be between %g and %g, got %g", b.min, b.max, v)
	}
}

// FeatureVector is the fixed-order input consumed by the classifier:
// pregnancies, glucose, blood pressure, skin thickness, insulin, BMI, pedigree, age.
type FeatureVector [FeatureCount]float64

// Get returns the value stored for f.
func (v FeatureVector) Get(f Field) float64 {
	return v[f]
}

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Map returns the vector keyed by field name.
func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range fieldNames {
		out[name] = v[i]
	}
	return out
}
