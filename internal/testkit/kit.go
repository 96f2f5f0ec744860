package testkit

import (
	"gosprt/adapters/rng"
	"gosprt/adapters/simulation"
	"gosprt/domain/sprt"
	"gosprt/internal"
	"gosprt/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	rng    *rng.SeededAdapter
	logger *internal.Logger
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{
		rng:    rng.NewSeededAdapter(),
		logger: internal.NewLogger(internal.LogLevelError),
	}
}

// RNGAdapter returns the deterministic RNG adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// Logger returns a logger that only prints errors
func (t *TestKit) Logger() *internal.Logger {
	return t.logger
}

// SimulationRunner returns a runner wired to the kit's RNG and logger
func (t *TestKit) SimulationRunner() *simulation.Runner {
	return simulation.NewRunner(t.rng, t.logger)
}

// SmallStudy is a quick study in which H1 is true and H0 is always falsified
// before the population is exhausted.
func (t *TestKit) SmallStudy() simulation.Config {
	return simulation.Config{
		Hypotheses: sprt.Hypotheses{N: 200, P0: 0.5, P1: 0.7},
		TrueP:      0.7,
		Alpha:      0.05,
		Trials:     40,
		Workers:    4,
		Seed:       42,
	}
}

// Scenario is a hand-computed likelihood ratio path
type Scenario struct {
	Name       string
	Hypotheses sprt.Hypotheses
	Outcomes   []int
	Want       []float64
}

// WorkedScenarios returns paths whose ratios were computed by hand
func WorkedScenarios() []Scenario {
	return []Scenario{
		{
			Name:       "single draw",
			Hypotheses: sprt.Hypotheses{N: 1, P0: 0.3, P1: 0.7},
			Outcomes:   []int{1},
			Want:       []float64{0.7 / 0.3},
		},
		{
			Name:       "four item population",
			Hypotheses: sprt.Hypotheses{N: 4, P0: 0.5, P1: 0.75},
			Outcomes:   []int{1, 0, 1, 0},
			Want:       []float64{1.5, 0.75, 1.5, 0},
		},
	}
}
