package simulation_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gosprt/adapters/simulation"
	"gosprt/domain/core"
	"gosprt/domain/sprt"
	"gosprt/internal/testkit"
)

type MockRNG struct {
	mock.Mock
}

func (m *MockRNG) SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error) {
	args := m.Called(ctx, name, seed)
	r, _ := args.Get(0).(*rand.Rand)
	return r, args.Error(1)
}

func (m *MockRNG) Stream(ctx context.Context, name string, trial int, baseSeed uint64) (*rand.Rand, error) {
	args := m.Called(ctx, name, trial, baseSeed)
	r, _ := args.Get(0).(*rand.Rand)
	return r, args.Error(1)
}

func (m *MockRNG) ValidateSeed(ctx context.Context, name string, seed uint64, expected []uint64) error {
	args := m.Called(ctx, name, seed, expected)
	return args.Error(0)
}

func TestRunner_AlternativeTrueAlwaysRejects(t *testing.T) {
	kit := testkit.NewTestKit()
	cfg := kit.SmallStudy()

	res, err := kit.SimulationRunner().Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, res.Trials, cfg.Trials)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, cfg, res.Config)
	assert.Equal(t, cfg.Trials, res.Summary.Rejections)
	assert.Equal(t, 1.0, res.Summary.RejectionRate)
	for i, trial := range res.Trials {
		assert.Equal(t, i, trial.Index)
		assert.True(t, trial.Rejected)
		assert.GreaterOrEqual(t, trial.Draws, 1)
		assert.LessOrEqual(t, trial.Draws, cfg.Hypotheses.N)
	}
	assert.LessOrEqual(t, res.Summary.MedianDraws, res.Summary.P90Draws)
	assert.False(t, res.FinishedAt.Time().Before(res.StartedAt.Time()))
}

func TestRunner_NullTrueRarelyRejects(t *testing.T) {
	kit := testkit.NewTestKit()
	cfg := simulation.Config{
		Hypotheses: sprt.Hypotheses{N: 200, P0: 0.5, P1: 0.7},
		TrueP:      0.5,
		Alpha:      0.05,
		Trials:     200,
		Workers:    8,
		Seed:       7,
	}

	res, err := kit.SimulationRunner().Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Summary.RejectionRate, 0.15)
	for _, trial := range res.Trials {
		if !trial.Rejected {
			assert.Equal(t, cfg.Hypotheses.N, trial.Draws)
		}
	}
}

func TestRunner_ReproducibleAcrossWorkerCounts(t *testing.T) {
	kit := testkit.NewTestKit()
	cfg := kit.SmallStudy()
	cfg.TrueP = 0.6

	cfg.Workers = 1
	serial, err := kit.SimulationRunner().Run(context.Background(), cfg)
	require.NoError(t, err)

	cfg.Workers = 16
	parallel, err := kit.SimulationRunner().Run(context.Background(), cfg)
	require.NoError(t, err)

	// FinalRatio may be NaN for indeterminate paths, so compare the rest.
	for i := range serial.Trials {
		a, b := serial.Trials[i], parallel.Trials[i]
		assert.Equal(t, a.Rejected, b.Rejected, "trial %d", i)
		assert.Equal(t, a.Draws, b.Draws, "trial %d", i)
		assert.Equal(t, a.Evidence, b.Evidence, "trial %d", i)
	}
	assert.Equal(t, serial.Summary, parallel.Summary)
	assert.NotEqual(t, serial.RunID, parallel.RunID)
}

func TestRunner_NoOnesPopulation(t *testing.T) {
	kit := testkit.NewTestKit()
	cfg := kit.SmallStudy()
	cfg.TrueP = 0

	res, err := kit.SimulationRunner().Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Trials, cfg.Trials)

	for _, trial := range res.Trials {
		assert.False(t, trial.Rejected, "trial %d", trial.Index)
		assert.Equal(t, cfg.Hypotheses.N, trial.Draws)
	}
	assert.Equal(t, 0.0, res.Summary.RejectionRate)
}

func TestRunner_Validation(t *testing.T) {
	kit := testkit.NewTestKit()
	tests := []struct {
		name    string
		mutate  func(*simulation.Config)
		wantErr error
	}{
		{"no trials", func(c *simulation.Config) { c.Trials = 0 }, core.ErrInvalidTrialCount},
		{"bad alpha", func(c *simulation.Config) { c.Alpha = 0 }, core.ErrInvalidAlpha},
		{"bad true fraction", func(c *simulation.Config) { c.TrueP = 1.2 }, core.ErrInvalidSampleShare},
		{"reversed hypotheses", func(c *simulation.Config) { c.Hypotheses.P1 = 0.4 }, core.ErrHypothesesOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := kit.SmallStudy()
			tt.mutate(&cfg)

			_, err := kit.SimulationRunner().Run(context.Background(), cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunner_Canceled(t *testing.T) {
	kit := testkit.NewTestKit()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := kit.SimulationRunner().Run(ctx, kit.SmallStudy())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_StreamFailure(t *testing.T) {
	kit := testkit.NewTestKit()
	boom := errors.New("entropy exhausted")
	rngPort := new(MockRNG)
	rngPort.On("Stream", mock.Anything, "population", mock.Anything, uint64(42)).Return(nil, boom)

	cfg := kit.SmallStudy()
	cfg.Workers = 1
	_, err := simulation.NewRunner(rngPort, kit.Logger()).Run(context.Background(), cfg)

	assert.ErrorIs(t, err, boom)
	rngPort.AssertCalled(t, "Stream", mock.Anything, "population", 0, uint64(42))
}

func TestSummarize(t *testing.T) {
	trials := []simulation.Trial{
		{Index: 0, Rejected: true, Draws: 10},
		{Index: 1, Rejected: true, Draws: 20},
		{Index: 2, Rejected: true, Draws: 30},
		{Index: 3, Rejected: false, Draws: 40},
	}

	s, err := simulation.Summarize(trials)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Trials)
	assert.Equal(t, 3, s.Rejections)
	assert.InDelta(t, 0.75, s.RejectionRate, 1e-12)
	assert.InDelta(t, 25, s.MeanDraws, 1e-12)
	assert.InDelta(t, 25, s.MedianDraws, 1e-12)
	assert.GreaterOrEqual(t, s.P90Draws, 30.0)
	assert.LessOrEqual(t, s.P90Draws, 40.0)
	assert.Equal(t, 10.0, s.MinDraws)
	assert.Equal(t, 40.0, s.MaxDraws)
	assert.InDelta(t, 11.180339887, s.StdDevDraws, 1e-6)

	empty, err := simulation.Summarize(nil)
	require.NoError(t, err)
	assert.Equal(t, simulation.Summary{}, empty)
}
