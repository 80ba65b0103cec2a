package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/bondlab/bondspread/internal/artifacts"
	"github.com/bondlab/bondspread/internal/microstructure"
)

// WriteHistogramCSV exports the distribution bins; together with the
// workbook this replaces the reference notebook's histogram plot.
func WriteHistogramCSV(path string, bins []HistogramBin) error {
	rows := make([][]string, len(bins))
	for i, b := range bins {
		rows[i] = []string{
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.Itoa(b.Count),
		}
	}
	return artifacts.WriteTable(path, []string{"bin_low", "bin_high", "count"}, rows)
}

// WriteWorkbook writes an XLSX summary: weekly spreads, descriptive
// statistics and histogram bins on separate sheets.
func WriteWorkbook(path string, weekly []microstructure.WeeklySpread, desc Describe, bins []HistogramBin) error {
	f := excelize.NewFile()
	defer f.Close()

	const weeklySheet = "Weekly Spreads"
	f.SetSheetName("Sheet1", weeklySheet)
	if err := setRow(f, weeklySheet, 1, []interface{}{"cusip_id", "week_start", "weekly_avg_spread_bps", "n_pairs"}); err != nil {
		return err
	}
	for i, w := range weekly {
		row := []interface{}{w.CUSIP, w.WeekStart.Format("2006-01-02"), w.AvgSpreadBps, w.PairCount}
		if err := setRow(f, weeklySheet, i+2, row); err != nil {
			return err
		}
	}

	const statsSheet = "Distribution"
	if _, err := f.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", statsSheet, err)
	}
	stats := [][]interface{}{
		{"count", desc.Count},
		{"mean", desc.Mean},
		{"std", desc.Std},
		{"min", desc.Min},
		{"p25", desc.P25},
		{"p50", desc.P50},
		{"p75", desc.P75},
		{"max", desc.Max},
	}
	for i, row := range stats {
		if err := setRow(f, statsSheet, i+1, row); err != nil {
			return err
		}
	}

	const histSheet = "Histogram"
	if _, err := f.NewSheet(histSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", histSheet, err)
	}
	if err := setRow(f, histSheet, 1, []interface{}{"bin_low", "bin_high", "count"}); err != nil {
		return err
	}
	for i, b := range bins {
		if err := setRow(f, histSheet, i+2, []interface{}{b.Low, b.High, b.Count}); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set row %d on %s: %w", row, sheet, err)
	}
	return nil
}
