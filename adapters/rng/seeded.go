package rng

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"gosprt/domain/core"
	"gosprt/ports"
)

// SeededAdapter implements ports.RNGPort on top of PCG generators.
type SeededAdapter struct{}

var _ ports.RNGPort = (*SeededAdapter)(nil)

// NewSeededAdapter creates a new seeded RNG adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *SeededAdapter) SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(hashString(name)^seed, seed)), nil
}

// Stream derives the generator for a single trial
func (a *SeededAdapter) Stream(ctx context.Context, name string, trial int, baseSeed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if trial < 0 {
		return nil, fmt.Errorf("trial index must be non-negative, got %d", trial)
	}
	return rand.New(rand.NewPCG(hashString(name)^baseSeed, uint64(trial))), nil
}

// ValidateSeed ensures the seed produces expected deterministic results
func (a *SeededAdapter) ValidateSeed(ctx context.Context, name string, seed uint64, expected []uint64) error {
	r, err := a.SeededStream(ctx, name, seed)
	if err != nil {
		return err
	}
	for i, want := range expected {
		if got := r.Uint64(); got != want {
			return fmt.Errorf("%w: stream %q value %d is %d, expected %d", core.ErrSeedMismatch, name, i, got, want)
		}
	}
	return nil
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
