package sprt

import (
	"fmt"
	"math"

	"gosprt/domain/core"
)

// Decision summarizes a likelihood ratio path against the 1/alpha bound.
type Decision struct {
	Rejected   bool    `json:"rejected"`
	Draws      int     `json:"draws"` // 1-based draw at rejection, or path length when not rejected
	Threshold  float64 `json:"threshold"`
	FinalRatio float64 `json:"-"`
}

// ValidateAlpha checks 0 < alpha < 1.
func ValidateAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return core.NewValidationError(core.ErrInvalidAlpha, "alpha", fmt.Sprintf("must lie in (0,1), got %v", alpha))
	}
	return nil
}

// Threshold is the rejection bound 1/alpha.
func Threshold(alpha float64) float64 {
	return 1 / alpha
}

// FirstRejection returns the first 1-based draw whose ratio reaches 1/alpha.
// Indeterminate (NaN) entries never reject.
func FirstRejection(ratios []float64, alpha float64) (int, bool) {
	bound := Threshold(alpha)
	for i, r := range ratios {
		if r >= bound {
			return i + 1, true
		}
	}
	return 0, false
}

// Decide applies the threshold rule to a full ratio path.
func Decide(ratios []float64, alpha float64) Decision {
	d := Decision{Threshold: Threshold(alpha), Draws: len(ratios)}
	if len(ratios) > 0 {
		d.FinalRatio = ratios[len(ratios)-1]
	}
	if draw, ok := FirstRejection(ratios, alpha); ok {
		d.Rejected = true
		d.Draws = draw
	}
	return d
}

// ClipForDisplay copies ratios replacing +Inf and anything above ceiling with
// ceiling. NaN entries are left alone so callers can still mark them.
func ClipForDisplay(ratios []float64, ceiling float64) []float64 {
	out := make([]float64, len(ratios))
	for i, r := range ratios {
		if math.IsInf(r, 1) || r > ceiling {
			r = ceiling
		}
		out[i] = r
	}
	return out
}
