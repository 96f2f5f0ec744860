package sprt

import (
	"fmt"
	"math"

	"gosprt/domain/core"
)

// Term returns the likelihood ratio factor contributed by draw k (1-based)
// when a ones were observed in draws 1..k-1.
//
// A non-positive null denominator means H0 cannot have produced this draw
// and the factor is +Inf. Numerators are floored at zero so an exhausted
// alternative yields a factor of 0 instead of a negative one.
func Term(k, a, outcome int, h Hypotheses) float64 {
	n := float64(h.N)
	prior := float64(k - 1)
	ones := float64(a)

	var num, denom float64
	if outcome == 1 {
		denom = n*h.P0 - ones
		num = n*h.P1 - ones
	} else {
		denom = n*(1-h.P0) - prior + ones
		num = n*(1-h.P1) - prior + ones
	}
	if denom <= 0 {
		return math.Inf(1)
	}
	return math.Max(num, 0) / denom
}

// Sequence accumulates the likelihood ratio one draw at a time.
// The zero value is not usable; call NewSequence.
type Sequence struct {
	h     Hypotheses
	draws int
	ones  int
	ratio float64
}

// NewSequence starts an empty sequence with ratio 1.
func NewSequence(h Hypotheses) *Sequence {
	return &Sequence{h: h, ratio: 1}
}

// Observe consumes the next draw and returns the cumulative ratio through it.
// Outcomes are added to the running sum as given; no validation happens here.
func (s *Sequence) Observe(outcome int) float64 {
	s.ratio *= Term(s.draws+1, s.ones, outcome, s.h)
	s.draws++
	s.ones += outcome
	return s.ratio
}

// Draws is the number of observations consumed so far.
func (s *Sequence) Draws() int { return s.draws }

// Ones is A(k+1): the running sum of observed outcomes.
func (s *Sequence) Ones() int { return s.ones }

// Ratio is the current cumulative likelihood ratio.
func (s *Sequence) Ratio() float64 { return s.ratio }

// Hypotheses returns the parameters the sequence was started with.
func (s *Sequence) Hypotheses() Hypotheses { return s.h }

// LikelihoodRatios returns the cumulative ratio after each draw. It performs
// no validation: a sequence longer than N, non-binary outcomes or P1 <= P0
// yield unspecified numbers rather than an error. Use Compute for checked input.
//
// +Inf entries are preserved. A product of 0 and +Inf becomes NaN, which
// Classify reports as EvidenceIndeterminate, and stays NaN to the end.
func LikelihoodRatios(outcomes []int, h Hypotheses) []float64 {
	out := make([]float64, len(outcomes))
	seq := NewSequence(h)
	for i, x := range outcomes {
		out[i] = seq.Observe(x)
	}
	return out
}

// Compute validates h and outcomes before running LikelihoodRatios.
func Compute(outcomes []int, h Hypotheses) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateOutcomes(outcomes, h.N); err != nil {
		return nil, err
	}
	return LikelihoodRatios(outcomes, h), nil
}

// ValidateOutcomes checks len(outcomes) <= n and that every value is 0 or 1.
func ValidateOutcomes(outcomes []int, n int) error {
	if len(outcomes) > n {
		return core.NewValidationError(core.ErrSequenceTooLong, "outcomes",
			fmt.Sprintf("has %d draws for a population of %d", len(outcomes), n))
	}
	for i, x := range outcomes {
		if x != 0 && x != 1 {
			return core.NewValidationError(core.ErrNonBinaryOutcome, "outcomes",
				fmt.Sprintf("draw %d has value %d", i+1, x))
		}
	}
	return nil
}
