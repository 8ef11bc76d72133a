package risk

// Assembly is the outcome of turning an observation into a feature vector.
type Assembly struct {
	Vector        FeatureVector
	Imputed       bool
	ImputedFields []Field
	BMIDerived    bool
}

// ImputedNames returns the names of the substituted fields.
func (a Assembly) ImputedNames() []string {
	out := make([]string, 0, len(a.ImputedFields))
	for _, f := range a.ImputedFields {
		out = append(out, f.String())
	}
	return out
}

type AssemblerOption func(*Assembler)

// WithZeroAsMissing controls whether a zero reading of an imputable field is
// treated as not provided. Enabled by default.
func WithZeroAsMissing(enabled bool) AssemblerOption {
	return func(a *Assembler) {
		a.zeroIsMissing = enabled
	}
}

// Assembler builds feature vectors, filling missing values from a reference table.
// It holds no mutable state and is safe for concurrent use.
type Assembler struct {
	table         ReferenceTable
	zeroIsMissing bool
}

func NewAssembler(table ReferenceTable, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		table:         table,
		zeroIsMissing: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Table returns the reference table used for imputation.
func (a *Assembler) Table() ReferenceTable {
	return a.table
}

func (a *Assembler) missing(v *float64) bool {
	return v == nil || (a.zeroIsMissing && *v == 0)
}

// Assemble validates obs and returns its feature vector. obs is not modified.
func (a *Assembler) Assemble(obs Observation) (Assembly, error) {
	if err := obs.Validate(); err != nil {
		return Assembly{}, err
	}

	var out Assembly
	out.Vector[FieldPregnancies] = float64(obs.Pregnancies)
	out.Vector[FieldAge] = float64(obs.Age)

	bmi := obs.BMI
	if a.missing(bmi) && obs.HeightCM != nil && obs.WeightKG != nil {
		derived, ok, err := DeriveValidBMI(*obs.HeightCM, *obs.WeightKG)
		if err != nil {
			return Assembly{}, err
		}
		if ok {
			bmi = &derived
			out.BMIDerived = true
		}
	}

	avg := a.table.Averages(obs.Age)
	for _, f := range imputableFields {
		v := obs.optional(f)
		if f == FieldBMI {
			v = bmi
		}
		if !a.missing(v) {
			out.Vector[f] = *v
			continue
		}
		fallback, _ := avg.For(f)
		out.Vector[f] = fallback
		out.ImputedFields = append(out.ImputedFields, f)
	}
	out.Imputed = len(out.ImputedFields) > 0

	return out, nil
}
