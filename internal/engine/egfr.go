package engine

import (
	"math"

	"github.com/aretw0/titrate/pkg/domain"
)

// EstimateGFR computes the race-free CKD-EPI 2021 creatinine equation in
// mL/min/1.73m2. It reports false when sex is neither female nor male or
// the inputs are not positive.
func EstimateGFR(creatinine, age float64, sex domain.Sex) (float64, bool) {
	if creatinine <= 0 || age <= 0 {
		return 0, false
	}

	var kappa, alpha, factor float64
	switch {
	case sex.IsFemale():
		kappa, alpha, factor = 0.7, -0.241, 1.012
	case sex.IsMale():
		kappa, alpha, factor = 0.9, -0.302, 1.0
	default:
		return 0, false
	}

	ratio := creatinine / kappa
	gfr := 142.0 *
		math.Pow(math.Min(ratio, 1), alpha) *
		math.Pow(math.Max(ratio, 1), -1.200) *
		math.Pow(0.9938, age) *
		factor
	return gfr, true
}
