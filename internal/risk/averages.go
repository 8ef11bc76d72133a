package risk

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table policies accepted by TableForPolicy and reference files.
const (
	PolicyFlat        = "flat"
	PolicyAgeBucketed = "age_bucketed"
)

// Averages holds the fallback value for every imputable field.
type Averages struct {
	Glucose          float64 `json:"glucose" yaml:"glucose"`
	BloodPressure    float64 `json:"bloodPressure" yaml:"blood_pressure"`
	SkinThickness    float64 `json:"skinThickness" yaml:"skin_thickness"`
	Insulin          float64 `json:"insulin" yaml:"insulin"`
	BMI              float64 `json:"bmi" yaml:"bmi"`
	DiabetesPedigree float64 `json:"diabetesPedigree" yaml:"diabetes_pedigree"`
}

// For returns the average for f. The second result is false for fields
// that are never imputed.
func (a Averages) For(f Field) (float64, bool) {
	switch f {
	case FieldGlucose:
		return a.Glucose, true
	case FieldBloodPressure:
		return a.BloodPressure, true
	case FieldSkinThickness:
		return a.SkinThickness, true
	case FieldInsulin:
		return a.Insulin, true
	case FieldBMI:
		return a.BMI, true
	case FieldPedigree:
		return a.DiabetesPedigree, true
	default:
		return 0, false
	}
}

func (a Averages) validate() error {
	for _, f := range imputableFields {
		v, _ := a.For(f)
		if v <= 0 {
			return fmt.Errorf("average for %s must be positive, got %g", f, v)
		}
	}
	return nil
}

// DefaultFlatAverages are the dataset means of the Pima Indians diabetes data.
var DefaultFlatAverages = Averages{
	Glucose:          120.9,
	BloodPressure:    69.1,
	SkinThickness:    20.5,
	Insulin:          79.8,
	BMI:              32.0,
	DiabetesPedigree: 0.47,
}

// ReferenceTable selects the averages that apply to a patient.
type ReferenceTable interface {
	Averages(age int) Averages
	Policy() string
}

// FlatTable applies one set of averages regardless of age.
type FlatTable struct {
	averages Averages
}

func NewFlatTable(a Averages) (FlatTable, error) {
	if err := a.validate(); err != nil {
		return FlatTable{}, fmt.Errorf("flat table: %w", err)
	}
	return FlatTable{averages: a}, nil
}

func (t FlatTable) Averages(int) Averages { return t.averages }

func (t FlatTable) Policy() string { return PolicyFlat }

// AgeBucket covers ages MinAge..MaxAge inclusive. MaxAge 0 leaves the bucket open-ended.
type AgeBucket struct {
	MinAge   int `json:"minAge" yaml:"min_age"`
	MaxAge   int `json:"maxAge,omitempty" yaml:"max_age"`
	Averages `yaml:",inline"`
}

func (b AgeBucket) contains(age int) bool {
	return age >= b.MinAge && (b.MaxAge == 0 || age <= b.MaxAge)
}

// DefaultAgeBuckets are the 13-19, 20-39, 40-59 and 60+ groups.
func DefaultAgeBuckets() []AgeBucket {
	return []AgeBucket{
		{MinAge: 13, MaxAge: 19, Averages: Averages{Glucose: 105.0, BloodPressure: 64.0, SkinThickness: 18.0, Insulin: 70.0, BMI: 24.5, DiabetesPedigree: 0.45}},
		{MinAge: 20, MaxAge: 39, Averages: Averages{Glucose: 115.5, BloodPressure: 68.0, SkinThickness: 21.0, Insulin: 85.0, BMI: 31.5, DiabetesPedigree: 0.47}},
		{MinAge: 40, MaxAge: 59, Averages: Averages{Glucose: 132.0, BloodPressure: 74.0, SkinThickness: 21.5, Insulin: 90.0, BMI: 33.0, DiabetesPedigree: 0.49}},
		{MinAge: 60, Averages: Averages{Glucose: 140.0, BloodPressure: 78.0, SkinThickness: 18.5, Insulin: 75.0, BMI: 29.5, DiabetesPedigree: 0.46}},
	}
}

// AgeBucketedTable picks averages by the patient's age group.
// Ages below the youngest bucket use the youngest bucket.
type AgeBucketedTable struct {
	buckets []AgeBucket
}

// NewAgeBucketedTable sorts and checks the buckets. Buckets must not overlap,
// must not leave gaps, and only the last may be open-ended.
func NewAgeBucketedTable(buckets []AgeBucket) (*AgeBucketedTable, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("age bucketed table: no buckets")
	}

	sorted := make([]AgeBucket, len(buckets))
	copy(sorted, buckets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinAge < sorted[j].MinAge })

	for i, b := range sorted {
		if err := b.Averages.validate(); err != nil {
			return nil, fmt.Errorf("age bucketed table: bucket %d: %w", b.MinAge, err)
		}
		last := i == len(sorted)-1
		if b.MaxAge == 0 && !last {
			return nil, fmt.Errorf("age bucketed table: bucket %d is open-ended but not last", b.MinAge)
		}
		if b.MaxAge != 0 && b.MaxAge < b.MinAge {
			return nil, fmt.Errorf("age bucketed table: bucket %d has max age %d", b.MinAge, b.MaxAge)
		}
		if !last && sorted[i+1].MinAge != b.MaxAge+1 {
			return nil, fmt.Errorf("age bucketed table: bucket %d-%d is not followed by %d", b.MinAge, b.MaxAge, b.MaxAge+1)
		}
	}

	return &AgeBucketedTable{buckets: sorted}, nil
}

func (t *AgeBucketedTable) Averages(age int) Averages {
	for _, b := range t.buckets {
		if b.contains(age) {
			return b.Averages
		}
	}
	if age < t.buckets[0].MinAge {
		return t.buckets[0].Averages
	}
	return t.buckets[len(t.buckets)-1].Averages
}

func (t *AgeBucketedTable) Policy() string { return PolicyAgeBucketed }

// Buckets returns a copy of the configured buckets.
func (t *AgeBucketedTable) Buckets() []AgeBucket {
	out := make([]AgeBucket, len(t.buckets))
	copy(out, t.buckets)
	return out
}

// TableForPolicy returns the built-in table for policy.
func TableForPolicy(policy string) (ReferenceTable, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case PolicyFlat, "":
		return NewFlatTable(DefaultFlatAverages)
	case PolicyAgeBucketed:
		return newBucketedReference(DefaultAgeBuckets())
	default:
		return nil, fmt.Errorf("unknown averages policy %q", policy)
	}
}

// newBucketedReference avoids returning a typed nil inside the interface.
func newBucketedReference(buckets []AgeBucket) (ReferenceTable, error) {
	t, err := NewAgeBucketedTable(buckets)
	if err != nil {
		return nil, err
	}
	return t, nil
}

type referenceFile struct {
	Policy   string      `yaml:"policy"`
	Averages *Averages   `yaml:"averages"`
	Buckets  []AgeBucket `yaml:"buckets"`
}

// ParseReferenceTable decodes a YAML reference table. A flat file carries an
// `averages` mapping, an age bucketed one a `buckets` list.
func ParseReferenceTable(data []byte) (ReferenceTable, error) {
	var rf referenceFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("decode reference table: %w", err)
	}

	switch strings.ToLower(rf.Policy) {
	case PolicyFlat:
		if rf.Averages == nil {
			return nil, fmt.Errorf("flat reference table requires averages")
		}
		return NewFlatTable(*rf.Averages)
	case PolicyAgeBucketed:
		return newBucketedReference(rf.Buckets)
	default:
		return nil, fmt.Errorf("unknown averages policy %q", rf.Policy)
	}
}

// LoadReferenceTable reads and parses a YAML reference table from path.
func LoadReferenceTable(path string) (ReferenceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference table: %w", err)
	}
	return ParseReferenceTable(data)
}
