// Package report writes evaluation results: metrics tables, the predicted
// closures archive, spreadsheets and the versioned results directory.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jamesainslie/go-stdesc/evaluation"
)

// Style selects how a table is drawn.
type Style int

const (
	// StyleBox draws ASCII borders with a double rule under the header.
	StyleBox Style = iota
	// StylePlain draws space-separated columns with a dashed rule.
	StylePlain
)

// Columns are the metrics table headers, in order.
var Columns = []string{
	"Score Threshold",
	"True Positives",
	"False Positives",
	"False Negatives",
	"Precision",
	"Recall",
	"F1 score",
}

type align int

const (
	alignCenter align = iota
	alignLeft
)

var columnAlign = []align{alignCenter, alignCenter, alignCenter, alignCenter, alignLeft, alignLeft, alignLeft}

// FormatThreshold renders a threshold with the shortest exact representation.
func FormatThreshold(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// MetricsRows converts metrics into table cells, one row per threshold.
func MetricsRows(ms []evaluation.Metrics) [][]string {
	rows := make([][]string, len(ms))
	for i, m := range ms {
		rows[i] = []string{
			FormatThreshold(m.Threshold),
			strconv.Itoa(m.TruePositives),
			strconv.Itoa(m.FalsePositives),
			strconv.Itoa(m.FalseNegatives),
			formatRatio(m.Precision),
			formatRatio(m.Recall),
			formatRatio(m.F1),
		}
	}
	return rows
}

// WriteTable renders ms as a table titled with the sequence name. Rows keep
// the order of ms, which for Results.Metrics is ascending threshold.
func WriteTable(w io.Writer, title string, ms []evaluation.Metrics, style Style) error {
	rows := MetricsRows(ms)

	widths := make([]int, len(Columns))
	for i, h := range Columns {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	switch style {
	case StylePlain:
		writePlain(&b, title, widths, rows)
	default:
		writeBox(&b, title, widths, rows)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeBox(b *strings.Builder, title string, widths []int, rows [][]string) {
	total := 1
	for _, w := range widths {
		total += w + 3
	}
	if title != "" {
		b.WriteString(pad(title, total, alignCenter))
		b.WriteString("\n")
	}

	rule := func(ch string) {
		b.WriteString("+")
		for _, w := range widths {
			b.WriteString(strings.Repeat(ch, w+2))
			b.WriteString("+")
		}
		b.WriteString("\n")
	}
	line := func(cells []string, header bool) {
		b.WriteString("|")
		for i, cell := range cells {
			a := columnAlign[i]
			if header {
				a = alignCenter
			}
			fmt.Fprintf(b, " %s |", pad(cell, widths[i], a))
		}
		b.WriteString("\n")
	}

	rule("-")
	line(Columns, true)
	rule("=")
	for _, row := range rows {
		line(row, false)
	}
	rule("-")
}

func writePlain(b *strings.Builder, title string, widths []int, rows [][]string) {
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n")
	}

	total := 0
	for i, w := range widths {
		if i > 0 {
			total += 2
		}
		total += w
	}
	line := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(pad(cell, widths[i], alignLeft))
		}
		b.WriteString("\n")
	}

	line(Columns)
	b.WriteString(strings.Repeat("-", total))
	b.WriteString("\n")
	for _, row := range rows {
		line(row)
	}
}

func pad(s string, width int, a align) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	gap := width - n
	if a == alignLeft {
		return s + strings.Repeat(" ", gap)
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}

// WriteSummary writes the best threshold, the PR-curve area and the score
// distribution below a metrics table.
func WriteSummary(w io.Writer, res *evaluation.Results) error {
	var b strings.Builder

	if ms := res.Metrics(); ms != nil {
		if best, ok := evaluation.Best(ms); ok {
			fmt.Fprintf(&b, "Optimal: %s (F1: %s, precision: %s, recall: %s)\n",
				FormatThreshold(best.Threshold), formatRatio(best.F1),
				formatRatio(best.Precision), formatRatio(best.Recall))
		}
		fmt.Fprintf(&b, "PR area: %s\n", formatRatio(evaluation.PRArea(ms)))
	}

	s, err := evaluation.SummarizeScores(res.Predictions())
	if err != nil {
		return err
	}
	if s.Count == 0 {
		b.WriteString("Scores: no predictions\n")
	} else {
		fmt.Fprintf(&b, "Scores: n=%d min=%s mean=%s median=%s p90=%s max=%s stddev=%s\n",
			s.Count, formatRatio(s.Min), formatRatio(s.Mean), formatRatio(s.Median),
			formatRatio(s.P90), formatRatio(s.Max), formatRatio(s.StdDev))
	}

	_, err = io.WriteString(w, b.String())
	return err
}

// WriteReport writes the full text report: boxed table plus summary.
func WriteReport(w io.Writer, res *evaluation.Results) error {
	if err := WriteTable(w, res.SequenceID(), res.Metrics(), StyleBox); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return WriteSummary(w, res)
}
