package sprt

import (
	"fmt"
	"math"
	"strconv"

	"gosprt/domain/core"
)

// Hypotheses fixes the finite population and the two simple hypotheses
// being compared: H0 says a fraction P0 of the N items are labeled 1,
// H1 says the fraction is P1.
type Hypotheses struct {
	N  int     `json:"n"`
	P0 float64 `json:"p0"`
	P1 float64 `json:"p1"`
}

// Validate checks 0 < P0 < P1 < 1 and N > 0.
func (h Hypotheses) Validate() error {
	if h.N <= 0 {
		return core.NewValidationError(core.ErrInvalidPopulation, "n", fmt.Sprintf("must be positive, got %d", h.N))
	}
	if !validFraction(h.P0) {
		return core.NewValidationError(core.ErrInvalidFraction, "p0", fmt.Sprintf("must lie in (0,1), got %v", h.P0))
	}
	if !validFraction(h.P1) {
		return core.NewValidationError(core.ErrInvalidFraction, "p1", fmt.Sprintf("must lie in (0,1), got %v", h.P1))
	}
	if h.P1 <= h.P0 {
		return core.NewValidationError(core.ErrHypothesesOrder, "p1", fmt.Sprintf("%v <= p0 %v", h.P1, h.P0))
	}
	return nil
}

// NullOnes is the number of 1-labeled items H0 claims exist.
func (h Hypotheses) NullOnes() float64 { return float64(h.N) * h.P0 }

// AltOnes is the number of 1-labeled items H1 claims exist.
func (h Hypotheses) AltOnes() float64 { return float64(h.N) * h.P1 }

func validFraction(p float64) bool {
	return p > 0 && p < 1 && !math.IsNaN(p)
}

// Evidence classifies a cumulative likelihood ratio.
type Evidence int

const (
	// EvidenceFinite is an ordinary non-negative ratio.
	EvidenceFinite Evidence = iota
	// EvidenceInfinite means H0 was falsified outright by the draws.
	EvidenceInfinite
	// EvidenceIndeterminate marks a 0 x +Inf product: one hypothesis was
	// exhausted and then the other was falsified.
	EvidenceIndeterminate
)

func (e Evidence) String() string {
	switch e {
	case EvidenceInfinite:
		return "infinite"
	case EvidenceIndeterminate:
		return "indeterminate"
	default:
		return "finite"
	}
}

// Classify maps a ratio onto its Evidence class.
func Classify(ratio float64) Evidence {
	switch {
	case math.IsNaN(ratio):
		return EvidenceIndeterminate
	case math.IsInf(ratio, 1):
		return EvidenceInfinite
	default:
		return EvidenceFinite
	}
}

// IsIndeterminate reports whether ratio is the 0 x +Inf marker.
func IsIndeterminate(ratio float64) bool {
	return Classify(ratio) == EvidenceIndeterminate
}

// FormatRatio renders a ratio for text outputs: "+Inf" for an outright
// rejection of H0, "indeterminate" for NaN, otherwise the shortest decimal.
func FormatRatio(ratio float64) string {
	switch Classify(ratio) {
	case EvidenceInfinite:
		return "+Inf"
	case EvidenceIndeterminate:
		return EvidenceIndeterminate.String()
	default:
		return strconv.FormatFloat(ratio, 'g', -1, 64)
	}
}
