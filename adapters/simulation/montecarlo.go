// Package simulation characterizes the rejection time of the without-replacement
// SPRT by auditing many randomly ordered populations.
package simulation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"gosprt/adapters/population"
	"gosprt/domain/core"
	"gosprt/domain/sprt"
	"gosprt/internal"
	"gosprt/ports"
)

// streamName keys the per-trial random streams handed out by the RNG port
const streamName = "population"

// Config describes one Monte Carlo study.
type Config struct {
	Hypotheses sprt.Hypotheses `json:"hypotheses"`
	TrueP      float64         `json:"true_p"` // fraction of ones actually in each simulated population
	Alpha      float64         `json:"alpha"`
	Trials     int             `json:"trials"`
	Workers    int             `json:"workers"`
	Seed       uint64          `json:"seed"`
}

// Validate checks the hypotheses, alpha and trial settings.
func (c Config) Validate() error {
	if err := c.Hypotheses.Validate(); err != nil {
		return err
	}
	if err := sprt.ValidateAlpha(c.Alpha); err != nil {
		return err
	}
	if !(c.TrueP >= 0 && c.TrueP <= 1) {
		return core.NewValidationError(core.ErrInvalidSampleShare, "true_p", fmt.Sprintf("must lie in [0,1], got %v", c.TrueP))
	}
	if c.Trials <= 0 {
		return core.NewValidationError(core.ErrInvalidTrialCount, "trials", fmt.Sprintf("must be positive, got %d", c.Trials))
	}
	return nil
}

// Trial is the outcome of auditing one simulated population.
type Trial struct {
	Index    int  `json:"index"`
	Rejected bool `json:"rejected"`
	// Draws is the 1-based draw at which H0 was rejected, or N when the
	// whole population was audited without rejection.
	Draws      int     `json:"draws"`
	FinalRatio float64 `json:"-"`
	Evidence   string  `json:"evidence"`
}

// Result holds every trial in index order plus the summary.
type Result struct {
	RunID      core.RunID     `json:"run_id"`
	Config     Config         `json:"config"`
	Trials     []Trial        `json:"trials"`
	Summary    Summary        `json:"summary"`
	StartedAt  core.Timestamp `json:"started_at"`
	FinishedAt core.Timestamp `json:"finished_at"`
}

// Runner executes studies. Trials are independent, so they run in parallel;
// each draws from its own stream so results do not depend on scheduling.
type Runner struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewRunner creates a runner; a nil logger falls back to the default logger
func NewRunner(rng ports.RNGPort, logger *internal.Logger) *Runner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{rng: rng, logger: logger.With("simulation")}
}

// Run executes cfg.Trials trials using at most cfg.Workers goroutines.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	res := &Result{
		RunID:     core.NewRunID(),
		Config:    cfg,
		Trials:    make([]Trial, cfg.Trials),
		StartedAt: core.Now(),
	}
	r.logger.Info("run %s: %d trials, N=%d p=%.4f p0=%.4f p1=%.4f alpha=%.4f workers=%d",
		res.RunID, cfg.Trials, cfg.Hypotheses.N, cfg.TrueP, cfg.Hypotheses.P0, cfg.Hypotheses.P1, cfg.Alpha, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Trials; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			trial, err := r.runTrial(gctx, cfg, i)
			if err != nil {
				return err
			}
			res.Trials[i] = trial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run %s: %w", res.RunID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s: %w", res.RunID, err)
	}

	summary, err := Summarize(res.Trials)
	if err != nil {
		return nil, fmt.Errorf("run %s: summarize: %w", res.RunID, err)
	}
	res.Summary = summary
	res.FinishedAt = core.Now()

	r.logger.Info("run %s: rejected %d/%d, mean draws %.1f, p90 %.1f in %s",
		res.RunID, summary.Rejections, summary.Trials, summary.MeanDraws, summary.P90Draws, res.FinishedAt.Sub(res.StartedAt))
	return res, nil
}

func (r *Runner) runTrial(ctx context.Context, cfg Config, index int) (Trial, error) {
	if err := ctx.Err(); err != nil {
		return Trial{}, err
	}
	src, err := r.rng.Stream(ctx, streamName, index, cfg.Seed)
	if err != nil {
		return Trial{}, fmt.Errorf("trial %d: %w", index, err)
	}
	draws, err := population.Draws(cfg.Hypotheses.N, cfg.TrueP, src)
	if err != nil {
		return Trial{}, fmt.Errorf("trial %d: %w", index, err)
	}

	ratios := sprt.LikelihoodRatios(draws, cfg.Hypotheses)
	d := sprt.Decide(ratios, cfg.Alpha)

	r.logger.Trace("trial %d: rejected=%t draws=%d", index, d.Rejected, d.Draws)
	return Trial{
		Index:      index,
		Rejected:   d.Rejected,
		Draws:      d.Draws,
		FinalRatio: d.FinalRatio,
		Evidence:   sprt.Classify(d.FinalRatio).String(),
	}, nil
}
