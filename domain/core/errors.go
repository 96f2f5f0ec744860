package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Precondition errors for the likelihood ratio recursion
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPopulation  = fmt.Errorf("%w: population size", ErrInvalidInput)
	ErrInvalidFraction    = fmt.Errorf("%w: hypothesized fraction", ErrInvalidInput)
	ErrHypothesesOrder    = fmt.Errorf("%w: alternative fraction must exceed null fraction", ErrInvalidInput)
	ErrSequenceTooLong    = fmt.Errorf("%w: draw sequence longer than population", ErrInvalidInput)
	ErrNonBinaryOutcome   = fmt.Errorf("%w: outcome is not 0 or 1", ErrInvalidInput)
	ErrInvalidAlpha       = fmt.Errorf("%w: significance level", ErrInvalidInput)
	ErrInvalidTrialCount  = fmt.Errorf("%w: trial count", ErrInvalidInput)
	ErrInvalidSampleShare = fmt.Errorf("%w: true population fraction", ErrInvalidInput)

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrSeedMismatch     = errors.New("seed mismatch")
)

// NewValidationError wraps a sentinel with the offending field and reason
func NewValidationError(sentinel error, field string, reason string) error {
	return fmt.Errorf("%w: %s %s", sentinel, field, reason)
}

// IsValidationError reports whether err came from a precondition check
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrNonDeterministic) ||
		errors.Is(err, ErrSeedMismatch)
}
