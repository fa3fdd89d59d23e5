package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/go-stdesc/evaluation"
)

// evaluatedResults builds results over thresholds 0.5 and 0.8 with one true
// closure (2,5) and one false closure (1,7).
func evaluatedResults(t *testing.T) *evaluation.Results {
	t.Helper()
	sweep, err := evaluation.NewSweep([]float64{0.5, 0.8})
	require.NoError(t, err)
	res, err := evaluation.NewResults("00", [][2]int{{2, 5}, {3, 9}}, sweep)
	require.NoError(t, err)
	require.NoError(t, res.Ingest(5, 2, 0.9))
	require.NoError(t, res.Ingest(7, 1, 0.6))
	require.NoError(t, res.ComputeMetrics())
	return res
}

func TestWriteTable_Box(t *testing.T) {
	res := evaluatedResults(t)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, "00", res.Metrics(), StyleBox))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// title, rule, header, double rule, 2 rows, rule
	require.Len(t, lines, 7)
	assert.Equal(t, "00", strings.TrimSpace(lines[0]))
	for _, c := range Columns {
		assert.Contains(t, lines[2], c)
	}
	assert.True(t, strings.HasPrefix(lines[3], "+="), "header rule = %q", lines[3])

	// rows in ascending threshold order
	assert.Contains(t, lines[4], "0.5")
	assert.Contains(t, lines[5], "0.8")
	assert.Less(t, strings.Index(buf.String(), "0.5"), strings.Index(buf.String(), "0.8"))

	// every bordered line has the same width
	for _, l := range lines[1:] {
		assert.Equal(t, len(lines[1]), len(l), "line %q", l)
	}
}

func TestWriteTable_Plain(t *testing.T) {
	res := evaluatedResults(t)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, "", res.Metrics(), StylePlain))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Score Threshold"))
	assert.Equal(t, strings.Repeat("-", len(lines[1])), lines[1])
	assert.NotContains(t, buf.String(), "|")
}

func TestMetricsRows(t *testing.T) {
	res := evaluatedResults(t)
	rows := MetricsRows(res.Metrics())
	require.Len(t, rows, 2)

	// 0.5 accepts both predictions: tp=1 fp=1 fn=1
	assert.Equal(t, []string{"0.5", "1", "1", "1", "0.5000", "0.5000", "0.5000"}, rows[0])
	// 0.8 accepts only (2,5): tp=1 fp=0 fn=1
	assert.Equal(t, []string{"0.8", "1", "0", "1", "1.0000", "0.5000", "0.6667"}, rows[1])
}

func TestWriteSummary(t *testing.T) {
	res := evaluatedResults(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "Optimal: 0.8 (F1: 0.6667")
	assert.Contains(t, out, "PR area:")
	assert.Contains(t, out, "Scores: n=2")
}

func TestWriteSummary_NoPredictions(t *testing.T) {
	res, err := evaluation.NewResults("00", nil, evaluation.DefaultSweep())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, res))
	assert.Equal(t, "Scores: no predictions\n", buf.String())
}
