// Package report exports simulation results as spreadsheets.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"gosprt/adapters/simulation"
	"gosprt/domain/sprt"
)

const (
	SummarySheet = "Summary"
	TrialsSheet  = "Trials"
)

// Build lays out a workbook with a Summary sheet (parameters and
// rejection-time statistics) and a Trials sheet with one row per trial.
// The caller owns the returned file and must Close it.
func Build(res *simulation.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummary(f, res); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(TrialsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create trials sheet: %w", err)
	}
	if err := writeTrials(f, res.Trials); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteWorkbook streams the workbook for res to w in xlsx format.
func WriteWorkbook(w io.Writer, res *simulation.Result) error {
	f, err := Build(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the workbook for res to path.
func SaveWorkbook(path string, res *simulation.Result) error {
	f, err := Build(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, res *simulation.Result) error {
	cfg := res.Config
	rows := [][]interface{}{
		{"run_id", res.RunID.String()},
		{"n", cfg.Hypotheses.N},
		{"p0", cfg.Hypotheses.P0},
		{"p1", cfg.Hypotheses.P1},
		{"true_p", cfg.TrueP},
		{"alpha", cfg.Alpha},
		{"threshold", sprt.Threshold(cfg.Alpha)},
		{"seed", cfg.Seed},
		{"trials", res.Summary.Trials},
		{"rejections", res.Summary.Rejections},
		{"rejection_rate", res.Summary.RejectionRate},
		{"mean_draws", res.Summary.MeanDraws},
		{"median_draws", res.Summary.MedianDraws},
		{"p90_draws", res.Summary.P90Draws},
		{"stddev_draws", res.Summary.StdDevDraws},
		{"min_draws", res.Summary.MinDraws},
		{"max_draws", res.Summary.MaxDraws},
	}
	return writeRows(f, SummarySheet, rows)
}

func writeTrials(f *excelize.File, trials []simulation.Trial) error {
	rows := make([][]interface{}, 0, len(trials)+1)
	rows = append(rows, []interface{}{"trial", "rejected", "draws", "final_ratio", "evidence"})
	for _, t := range trials {
		rows = append(rows, []interface{}{t.Index, t.Rejected, t.Draws, ratioCell(t.FinalRatio), t.Evidence})
	}
	return writeRows(f, TrialsSheet, rows)
}

// ratioCell keeps finite ratios numeric; xlsx has no encoding for Inf or NaN.
func ratioCell(r float64) interface{} {
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return sprt.FormatRatio(r)
	}
	return r
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
