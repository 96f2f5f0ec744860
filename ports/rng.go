package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations.
// Nothing in the module reads process-wide random state; every random draw
// comes from a stream handed out here.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error)

	// Stream creates the generator for one trial of a named operation. The same
	// (name, trial, baseSeed) always yields the same stream, independent of the
	// order in which trials are scheduled.
	Stream(ctx context.Context, name string, trial int, baseSeed uint64) (*rand.Rand, error)

	// ValidateSeed checks that the named stream reproduces the expected values
	ValidateSeed(ctx context.Context, name string, seed uint64, expected []uint64) error
}
