package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gosprt/adapters/report"
	"gosprt/adapters/rng"
	"gosprt/adapters/simulation"
	"gosprt/domain/sprt"
	"gosprt/internal"
	"gosprt/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(appConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(appConfig *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gosprt-cli",
		Short:         "Sequential probability ratio tests for sampling without replacement",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	rootCmd.AddCommand(
		newRatiosCmd(),
		newSimulateCmd(appConfig.Simulation, logger),
	)
	return rootCmd
}

func newRatiosCmd() *cobra.Command {
	var h sprt.Hypotheses
	var alpha, clip float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ratios [outcomes]",
		Short: "Print the cumulative likelihood ratio after each draw",
		Long: `Compute the likelihood ratio path for an observed draw sequence.

Outcomes are 0/1 values separated by commas or spaces, in draw order.

Example: gosprt-cli ratios --n 4 --p0 0.5 --p1 0.75 1,0,1,0 --alpha 0.05`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes, err := parseOutcomes(strings.Join(args, ","))
			if err != nil {
				return err
			}
			return runRatios(cmd.OutOrStdout(), outcomes, h, alpha, clip, asJSON)
		},
	}

	cmd.Flags().IntVar(&h.N, "n", 0, "Population size")
	cmd.Flags().Float64Var(&h.P0, "p0", 0, "Fraction of ones under the null hypothesis")
	cmd.Flags().Float64Var(&h.P1, "p1", 0, "Fraction of ones under the alternative hypothesis")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "Significance level; when set, report the first rejection")
	cmd.Flags().Float64Var(&clip, "clip", 0, "Clip printed ratios at this ceiling (0 disables)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	_ = cmd.MarkFlagRequired("n")
	_ = cmd.MarkFlagRequired("p0")
	_ = cmd.MarkFlagRequired("p1")

	return cmd
}

func newSimulateCmd(defaults config.SimulationConfig, logger *internal.Logger) *cobra.Command {
	cfg := simulation.Config{
		Alpha:   defaults.Alpha,
		Trials:  defaults.Trials,
		Workers: defaults.Workers,
		Seed:    defaults.Seed,
	}
	var xlsxPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate the distribution of draws needed to reject H0",
		Long: `Run a Monte Carlo study: each trial shuffles a population of N items with
floor(N*p) ones, audits it in order, and records the first draw at which the
likelihood ratio reaches 1/alpha.

Example: gosprt-cli simulate --n 1000 --p 0.6 --p0 0.5 --p1 0.6 --trials 1000 --seed 42 --xlsx study.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := simulation.NewRunner(rng.NewSeededAdapter(), logger)
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), runner, cfg, xlsxPath, asJSON)
		},
	}

	cmd.Flags().IntVar(&cfg.Hypotheses.N, "n", 0, "Population size")
	cmd.Flags().Float64Var(&cfg.TrueP, "p", 0, "True fraction of ones in each simulated population")
	cmd.Flags().Float64Var(&cfg.Hypotheses.P0, "p0", 0, "Fraction of ones under the null hypothesis")
	cmd.Flags().Float64Var(&cfg.Hypotheses.P1, "p1", 0, "Fraction of ones under the alternative hypothesis")
	cmd.Flags().Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "Significance level")
	cmd.Flags().IntVar(&cfg.Trials, "trials", cfg.Trials, "Number of simulated audits")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "Maximum concurrent trials")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for deterministic operations")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the study to this xlsx workbook")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a summary")
	_ = cmd.MarkFlagRequired("n")
	_ = cmd.MarkFlagRequired("p")
	_ = cmd.MarkFlagRequired("p0")
	_ = cmd.MarkFlagRequired("p1")

	return cmd
}

func runRatios(out io.Writer, outcomes []int, h sprt.Hypotheses, alpha, clip float64, asJSON bool) error {
	ratios, err := sprt.Compute(outcomes, h)
	if err != nil {
		return err
	}
	if alpha != 0 {
		if err := sprt.ValidateAlpha(alpha); err != nil {
			return err
		}
	}

	shown := ratios
	if clip > 0 {
		shown = sprt.ClipForDisplay(ratios, clip)
	}

	if asJSON {
		formatted := make([]string, len(shown))
		for i, r := range shown {
			formatted[i] = sprt.FormatRatio(r)
		}
		payload := map[string]interface{}{"ratios": formatted}
		if alpha != 0 {
			d := sprt.Decide(ratios, alpha)
			payload["rejected"] = d.Rejected
			payload["draws"] = d.Draws
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	fmt.Fprintf(out, "%-6s %-8s %-20s %s\n", "draw", "outcome", "ratio", "evidence")
	for i, r := range shown {
		fmt.Fprintf(out, "%-6d %-8d %-20s %s\n", i+1, outcomes[i], sprt.FormatRatio(r), sprt.Classify(ratios[i]))
	}
	if alpha != 0 {
		d := sprt.Decide(ratios, alpha)
		if d.Rejected {
			fmt.Fprintf(out, "H0 rejected at draw %d (threshold %s)\n", d.Draws, sprt.FormatRatio(d.Threshold))
		} else {
			fmt.Fprintf(out, "H0 not rejected after %d draws (threshold %s)\n", d.Draws, sprt.FormatRatio(d.Threshold))
		}
	}
	return nil
}

func runSimulate(ctx context.Context, out io.Writer, runner *simulation.Runner, cfg simulation.Config, xlsxPath string, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := runner.Run(ctx, cfg)
	if err != nil {
		return err
	}

	if xlsxPath != "" {
		if err := report.SaveWorkbook(xlsxPath, res); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Summary)
	}

	s := res.Summary
	fmt.Fprintf(out, "run:            %s\n", res.RunID)
	fmt.Fprintf(out, "trials:         %d\n", s.Trials)
	fmt.Fprintf(out, "rejections:     %d (%.1f%%)\n", s.Rejections, 100*s.RejectionRate)
	fmt.Fprintf(out, "mean draws:     %.2f\n", s.MeanDraws)
	fmt.Fprintf(out, "median draws:   %.2f\n", s.MedianDraws)
	fmt.Fprintf(out, "90th pct draws: %.2f\n", s.P90Draws)
	if xlsxPath != "" {
		fmt.Fprintf(out, "workbook:       %s\n", xlsxPath)
	}
	return nil
}

// parseOutcomes accepts 0/1 values separated by commas and/or whitespace.
func parseOutcomes(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	outcomes := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid outcome %q: %w", f, err)
		}
		outcomes = append(outcomes, v)
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("no outcomes given")
	}
	return outcomes, nil
}
