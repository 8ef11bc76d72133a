package risk

import "math"

// DeriveBMI computes weight / (height/100)^2. It reports false, without
// computing anything, when either measurement is not positive.
func DeriveBMI(heightCM, weightKG float64) (float64, bool) {
	if !(heightCM > 0) || !(weightKG > 0) || math.IsInf(heightCM, 0) || math.IsInf(weightKG, 0) {
		return 0, false
	}
	m := heightCM / 100
	return weightKG / (m * m), true
}

// DeriveValidBMI checks height and weight against their accepted ranges and
// derives BMI from them. A derived BMI outside the accepted bmi range is an
// *InvalidInputError. It reports false when a measurement is zero.
func DeriveValidBMI(heightCM, weightKG float64) (float64, bool, error) {
	verr := &InvalidInputError{}
	checkRange(verr, "heightCm", heightCM)
	checkRange(verr, "weightKg", weightKG)
	if !verr.Empty() {
		return 0, false, verr
	}

	bmi, ok := DeriveBMI(heightCM, weightKG)
	if !ok {
		return 0, false, nil
	}
	if bmi > fieldBounds["bmi"].max {
		return 0, false, NewInvalidInputError("bmi", "derived BMI %.1f is out of range; check height and weight", bmi)
	}
	return bmi, true, nil
}
