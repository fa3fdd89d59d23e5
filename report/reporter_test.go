package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jamesainslie/go-stdesc/evaluation"
)

var t0 = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestReporter_PersistLayout(t *testing.T) {
	root := t.TempDir()
	res := evaluatedResults(t)

	r := NewReporter(root, WithParams(map[string]float64{"ds_size": 0.25}))
	dir, err := r.Persist(res, RunInfo{ID: "run-1", GeneratedAt: t0, First: 0, Last: 10})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "stdesc_results", "00", "2024-03-09_14-05-07"), dir)
	for _, name := range []string{MetricsFile, WorkbookFile, ArchiveFile, ManifestFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	latest, err := ResolveLatest(root, "00")
	require.NoError(t, err)
	assert.Equal(t, dir, latest)

	m, err := LoadManifest(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, []int{2, 1}, m.ClosureCounts)
	assert.Equal(t, 2, m.Predictions)
	require.NotNil(t, m.GroundTruth)
	assert.Equal(t, 2, *m.GroundTruth)
	require.NotNil(t, m.BestThreshold)
	assert.Equal(t, 0.8, *m.BestThreshold)
	assert.Equal(t, 0.25, m.MatcherParams["ds_size"])

	a, err := LoadArchive(filepath.Join(dir, ArchiveFile))
	require.NoError(t, err)
	assert.Equal(t, res.Closures(), a.Closures)
}

func TestReporter_PersistWithoutGroundTruth(t *testing.T) {
	root := t.TempDir()
	res, err := evaluation.NewResults("07", nil, evaluation.DefaultSweep())
	require.NoError(t, err)
	require.NoError(t, res.Ingest(40, 3, 0.55))

	dir, err := NewReporter(root).Persist(res, RunInfo{ID: "x", GeneratedAt: t0})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, ArchiveFile))
	assert.FileExists(t, filepath.Join(dir, ManifestFile))
	assert.NoFileExists(t, filepath.Join(dir, MetricsFile))
	assert.NoFileExists(t, filepath.Join(dir, WorkbookFile))

	m, err := LoadManifest(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	assert.Nil(t, m.GroundTruth)
	assert.Nil(t, m.BestThreshold)
}

func TestReporter_WithoutWorkbook(t *testing.T) {
	dir, err := NewReporter(t.TempDir(), WithoutWorkbook()).Persist(evaluatedResults(t), RunInfo{GeneratedAt: t0})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, MetricsFile))
	assert.NoFileExists(t, filepath.Join(dir, WorkbookFile))
}

func TestReporter_PersistTwiceIsIdempotent(t *testing.T) {
	root := t.TempDir()
	res := evaluatedResults(t)
	r := NewReporter(root)

	first, err := r.Persist(res, RunInfo{ID: "a", GeneratedAt: t0})
	require.NoError(t, err)
	second, err := r.Persist(res, RunInfo{ID: "b", GeneratedAt: t0.Add(time.Second)})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	for _, name := range []string{MetricsFile, ArchiveFile} {
		a, err := os.ReadFile(filepath.Join(first, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(second, name))
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
	}

	latest, err := ResolveLatest(root, "00")
	require.NoError(t, err)
	assert.Equal(t, second, latest)

	target, err := os.Readlink(filepath.Join(root, "stdesc_results", "00", LatestLink))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09_14-05-08", target, "latest should be relative")
}

func TestUpdateLatest_RefusesRealDirectory(t *testing.T) {
	seqDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(seqDir, LatestLink), 0o755))

	err := UpdateLatest(seqDir, filepath.Join(seqDir, "2024-03-09_14-05-07"))
	assert.ErrorIs(t, err, ErrLatestNotLink)
}

func TestWriteWorkbook_NotEvaluated(t *testing.T) {
	res, err := evaluation.NewResults("00", nil, evaluation.DefaultSweep())
	require.NoError(t, err)
	require.NoError(t, res.Ingest(9, 1, 0.35))

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteWorkbook(path, res))
	assert.FileExists(t, path)
}

func TestWriteWorkbook_Contents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteWorkbook(path, evaluatedResults(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	metrics, err := f.GetRows(metricsSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, metrics, 3)
	assert.Equal(t, Columns, metrics[0])
	assert.Equal(t, []string{"0.5", "1", "1", "1", "0.5", "0.5", "0.5"}, metrics[1])
	assert.Equal(t, []string{"0.8", "1", "0", "1", "1", "0.5"}, metrics[2][:6])

	// (1,7) scored 0.6, so it drops out of the 0.8 bucket; (2,5) scored 0.9
	// and survives the whole sweep.
	closures, err := f.GetRows(closuresSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Scan A", "Scan B", "Max Threshold"},
		{"1", "7", "0.5"},
		{"2", "5", "0.8"},
	}, closures)
}

func TestReporter_NoGroundTruthRemovesStaleMetrics(t *testing.T) {
	root := t.TempDir()
	r := NewReporter(root)

	first, err := r.Persist(evaluatedResults(t), RunInfo{ID: "a", GeneratedAt: t0})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(first, MetricsFile))

	res, err := evaluation.NewResults("00", nil, evaluation.DefaultSweep())
	require.NoError(t, err)
	require.NoError(t, res.Ingest(5, 2, 0.9))

	second, err := r.Persist(res, RunInfo{ID: "b", GeneratedAt: t0})
	require.NoError(t, err)
	require.Equal(t, first, second)

	assert.NoFileExists(t, filepath.Join(second, MetricsFile))
	assert.NoFileExists(t, filepath.Join(second, WorkbookFile))
	assert.FileExists(t, filepath.Join(second, ArchiveFile))
}

func TestReporter_RejectsSequenceOutsideRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	for _, seq := range []string{"", ".", "..", "../x", "a/b"} {
		res, err := evaluation.NewResults(seq, nil, evaluation.DefaultSweep())
		require.NoError(t, err)

		_, err = NewReporter(root).Persist(res, RunInfo{GeneratedAt: t0})
		assert.ErrorIs(t, err, ErrInvalidSequenceID, "sequence %q", seq)
	}
	assert.NoDirExists(t, root)
}
