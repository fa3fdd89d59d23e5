package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/go-stdesc/evaluation"
	"github.com/jamesainslie/go-stdesc/report"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func results(t *testing.T, seq string, gt [][2]int) *evaluation.Results {
	t.Helper()
	sweep, err := evaluation.NewSweep([]float64{0.5, 0.8})
	require.NoError(t, err)
	res, err := evaluation.NewResults(seq, gt, sweep)
	require.NoError(t, err)
	require.NoError(t, res.Ingest(5, 2, 0.9))
	require.NoError(t, res.Ingest(7, 1, 0.6))
	if gt != nil {
		require.NoError(t, res.ComputeMetrics())
	}
	return res
}

var base = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func TestStore_RecordAndList(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	res := results(t, "00", [][2]int{{2, 5}, {3, 9}})
	require.NoError(t, s.Record(ctx, report.RunInfo{ID: "r1", GeneratedAt: base, First: 0, Last: 10}, "/out/r1", res))
	require.NoError(t, s.Record(ctx, report.RunInfo{ID: "r2", GeneratedAt: base.Add(time.Hour), Last: 10}, "/out/r2", results(t, "00", nil)))
	require.NoError(t, s.Record(ctx, report.RunInfo{ID: "r3", GeneratedAt: base.Add(2 * time.Hour)}, "/out/r3", results(t, "05", nil)))

	runs, err := s.Runs(ctx, "00", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID, "newest first")
	assert.False(t, runs[0].Evaluated)

	r1 := runs[1]
	assert.Equal(t, "00", r1.SequenceID)
	assert.True(t, base.Equal(r1.GeneratedAt))
	assert.Equal(t, 10, r1.Last)
	assert.Equal(t, "/out/r1", r1.Dir)
	assert.Equal(t, 2, r1.Predictions)
	assert.True(t, r1.Evaluated)
	assert.Equal(t, 0.8, r1.BestThreshold)

	all, err := s.Runs(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.Runs(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "r3", limited[0].ID)

	ms, err := s.Metrics(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, res.Metrics(), ms)

	none, err := s.Metrics(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_DuplicateRunID(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	res := results(t, "00", nil)

	require.NoError(t, s.Record(ctx, report.RunInfo{ID: "same", GeneratedAt: base}, "/a", res))
	assert.Error(t, s.Record(ctx, report.RunInfo{ID: "same", GeneratedAt: base}, "/b", res))
}

type stubPersister struct {
	dir string
	err error
}

func (p stubPersister) Persist(*evaluation.Results, report.RunInfo) (string, error) {
	return p.dir, p.err
}

func TestRecordingPersister(t *testing.T) {
	s := tempStore(t)
	res := results(t, "00", [][2]int{{2, 5}})

	p := RecordingPersister{Next: stubPersister{dir: "/out/x"}, Store: s}
	dir, err := p.Persist(res, report.RunInfo{ID: "x", GeneratedAt: base})
	require.NoError(t, err)
	assert.Equal(t, "/out/x", dir)

	runs, err := s.Runs(context.Background(), "00", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "/out/x", runs[0].Dir)

	failing := RecordingPersister{Next: stubPersister{err: errors.New("disk full")}, Store: s}
	_, err = failing.Persist(res, report.RunInfo{ID: "y", GeneratedAt: base})
	require.Error(t, err)
	runs, err = s.Runs(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "failed persist must not be recorded")
}
