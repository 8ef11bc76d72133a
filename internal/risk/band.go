package risk

import "fmt"

// Band is the qualitative risk group shown next to the percentage.
type Band struct {
	value string
}

var (
	BandLow      = Band{value: "low"}
	BandModerate = Band{value: "moderate"}
	BandHigh     = Band{value: "high"}
)

// Band thresholds in percent. Lower bounds are inclusive.
const (
	ModerateThreshold = 30.0
	HighThreshold     = 70.0
)

// DecisionThreshold is the probability at or above which an observation is
// classified as positive.
const DecisionThreshold = 0.5

// ImputationNotice is shown whenever reference averages replaced missing values.
const ImputationNotice = "Some values were not provided and were replaced with reference averages; the estimate may be less precise."

// Percentage converts a probability in [0,1] to percent.
func Percentage(probability float64) float64 {
	return probability * 100
}

// BandFromPercentage maps a percentage to its band:
// below 30 is low, 30 up to but excluding 70 is moderate, 70 and above is high.
func BandFromPercentage(pct float64) Band {
	switch {
	case pct >= HighThreshold:
		return BandHigh
	case pct >= ModerateThreshold:
		return BandModerate
	default:
		return BandLow
	}
}

// BandFromProbability is BandFromPercentage(Percentage(p)).
func BandFromProbability(p float64) Band {
	return BandFromPercentage(Percentage(p))
}

// PredictedPositive reports the binary classification for probability p.
func PredictedPositive(p float64) bool {
	return p >= DecisionThreshold
}

// Verdict is the display text for a binary classification.
func Verdict(positive bool) string {
	if positive {
		return "Diabetes likely"
	}
	return "No diabetes detected"
}

// BandFromString reconstructs a Band from its string form.
func BandFromString(s string) (Band, error) {
	switch s {
	case "low":
		return BandLow, nil
	case "moderate":
		return BandModerate, nil
	case "high":
		return BandHigh, nil
	default:
		return Band{}, fmt.Errorf("invalid risk band: %q", s)
	}
}

func (b Band) String() string {
	return b.value
}

// Feedback is the message displayed for the band.
func (b Band) Feedback() string {
	switch b {
	case BandLow:
		return "Low risk of diabetes. Keep up a balanced diet and regular physical activity."
	case BandModerate:
		return "Moderate risk of diabetes. Consider discussing a blood glucose screening with your doctor."
	case BandHigh:
		return "High risk of diabetes. Please consult a healthcare professional for a diagnostic test."
	default:
		return ""
	}
}

func (b Band) IsZero() bool {
	return b.value == ""
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.value), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	parsed, err := BandFromString(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
