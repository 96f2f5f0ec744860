// Package population builds draw sequences that emulate sampling without
// replacement from a finite binary population.
package population

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"

	"gosprt/domain/core"
)

// Ones is the number of 1-labeled items in a population of n with true
// fraction p: floor(n*p).
func Ones(n int, p float64) int {
	return int(math.Floor(float64(n) * p))
}

// Draws returns a uniformly random ordering of a population of n items of
// which Ones(n, p) are labeled 1. Reading it front to back is a full audit
// drawn without replacement.
func Draws(n int, p float64, src rand.Source) ([]int, error) {
	if n < 0 {
		return nil, core.NewValidationError(core.ErrInvalidPopulation, "n", fmt.Sprintf("must be non-negative, got %d", n))
	}
	if !(p >= 0 && p <= 1) {
		return nil, core.NewValidationError(core.ErrInvalidSampleShare, "p", fmt.Sprintf("must lie in [0,1], got %v", p))
	}

	out := make([]int, n)
	ones := Ones(n, p)
	if ones == 0 {
		// sampleuv rejects an empty index slice.
		return out, nil
	}
	positions := make([]int, ones)
	sampleuv.WithoutReplacement(positions, n, src)
	for _, idx := range positions {
		out[idx] = 1
	}
	return out, nil
}
