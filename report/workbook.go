package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jamesainslie/go-stdesc/evaluation"
)

const (
	metricsSheet  = "Metrics"
	closuresSheet = "Closures"
)

// WriteWorkbook saves an .xlsx file with a Metrics sheet (one row per
// threshold, when evaluated) and a Closures sheet listing every predicted
// pair with the highest threshold that accepted it.
func WriteWorkbook(path string, res *evaluation.Results) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", metricsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(metricsSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing metrics header: %w", err)
	}
	for i, m := range res.Metrics() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			m.Threshold, m.TruePositives, m.FalsePositives, m.FalseNegatives,
			m.Precision, m.Recall, m.F1,
		}
		if err := f.SetSheetRow(metricsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing metrics row %d: %w", i, err)
		}
	}

	if _, err := f.NewSheet(closuresSheet); err != nil {
		return fmt.Errorf("creating closures sheet: %w", err)
	}
	closuresHeader := []interface{}{"Scan A", "Scan B", "Max Threshold"}
	if err := f.SetSheetRow(closuresSheet, "A1", &closuresHeader); err != nil {
		return fmt.Errorf("writing closures header: %w", err)
	}

	// Buckets are nested and ascend with the sweep, so the last bucket
	// holding a pair gives its highest accepting threshold.
	thresholds := res.Sweep().Thresholds()
	closures := res.Closures()
	highest := make(map[evaluation.Pair]float64)
	for j, bucket := range closures {
		for _, p := range bucket {
			highest[p] = thresholds[j]
		}
	}
	if len(closures) > 0 {
		for i, p := range closures[0] {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			row := []interface{}{p.A, p.B, highest[p]}
			if err := f.SetSheetRow(closuresSheet, cell, &row); err != nil {
				return fmt.Errorf("writing closure row %d: %w", i, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
