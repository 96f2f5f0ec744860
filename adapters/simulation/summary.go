package simulation

import (
	"github.com/montanaflynn/stats"
)

// Summary describes the distribution of draws needed to reject H0.
type Summary struct {
	Trials        int     `json:"trials"`
	Rejections    int     `json:"rejections"`
	RejectionRate float64 `json:"rejection_rate"`
	MeanDraws     float64 `json:"mean_draws"`
	MedianDraws   float64 `json:"median_draws"`
	P90Draws      float64 `json:"p90_draws"`
	StdDevDraws   float64 `json:"stddev_draws"`
	MinDraws      float64 `json:"min_draws"`
	MaxDraws      float64 `json:"max_draws"`
}

// Summarize computes rejection rate and draw statistics over all trials.
// Trials that never rejected contribute the full population size.
func Summarize(trials []Trial) (Summary, error) {
	s := Summary{Trials: len(trials)}
	if len(trials) == 0 {
		return s, nil
	}

	draws := make(stats.Float64Data, len(trials))
	for i, t := range trials {
		if t.Rejected {
			s.Rejections++
		}
		draws[i] = float64(t.Draws)
	}
	s.RejectionRate = float64(s.Rejections) / float64(len(trials))

	var err error
	if s.MeanDraws, err = stats.Mean(draws); err != nil {
		return s, err
	}
	if s.MedianDraws, err = stats.Median(draws); err != nil {
		return s, err
	}
	if s.P90Draws, err = stats.Percentile(draws, 90); err != nil {
		return s, err
	}
	if s.StdDevDraws, err = stats.StandardDeviation(draws); err != nil {
		return s, err
	}
	if s.MinDraws, err = stats.Min(draws); err != nil {
		return s, err
	}
	if s.MaxDraws, err = stats.Max(draws); err != nil {
		return s, err
	}
	return s, nil
}
