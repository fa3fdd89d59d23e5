package matcher

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stdesc "github.com/jamesainslie/go-stdesc"
	"github.com/jamesainslie/go-stdesc/pointcloud"
)

const sampleLog = `# query candidate score
3 0 0.42
5 1 0.91

8 2 0.07
`

func TestReplay_ProcessNewScan(t *testing.T) {
	rp, err := ParseReplay(strings.NewReader(sampleLog))
	require.NoError(t, err)
	assert.Equal(t, 3, rp.Len())

	ctx := context.Background()
	want := map[int]struct {
		match int
		score float64
	}{
		3: {0, 0.42},
		5: {1, 0.91},
		8: {2, 0.07},
	}
	for i := 0; i < 10; i++ {
		match, score, err := rp.ProcessNewScan(ctx, nil, i)
		require.NoError(t, err)
		if w, ok := want[i]; ok {
			assert.Equal(t, w.match, match, "scan %d", i)
			assert.Equal(t, w.score, score, "scan %d", i)
		} else {
			assert.Equal(t, stdesc.NoMatch, match, "scan %d", i)
		}
	}
}

func TestReplay_OutOfOrder(t *testing.T) {
	rp, err := ParseReplay(strings.NewReader(sampleLog))
	require.NoError(t, err)

	ctx := context.Background()
	_, _, err = rp.ProcessNewScan(ctx, nil, 4)
	require.NoError(t, err)

	_, _, err = rp.ProcessNewScan(ctx, nil, 4)
	assert.ErrorIs(t, err, ErrOutOfOrder)
	_, _, err = rp.ProcessNewScan(ctx, nil, 2)
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestParseReplay_Malformed(t *testing.T) {
	tests := []struct {
		name string
		log  string
	}{
		{"too few fields", "3 0\n"},
		{"bad score", "3 0 high\n"},
		{"bad index", "x 0 0.5\n"},
		{"duplicate scan", "3 0 0.5\n3 1 0.6\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReplay(strings.NewReader(tt.log))
			assert.True(t, errors.Is(err, ErrMalformedLog), "error = %v", err)
		})
	}
}

type fixedMatcher map[int]struct {
	match int
	score float64
}

func (f fixedMatcher) ProcessNewScan(_ context.Context, _ pointcloud.Cloud, i int) (int, float64, error) {
	if d, ok := f[i]; ok {
		return d.match, d.score, nil
	}
	return stdesc.NoMatch, 0, nil
}

func TestRecorder_RoundTrip(t *testing.T) {
	inner := fixedMatcher{
		2: {0, 0.5},
		6: {1, 0.125},
	}

	var buf bytes.Buffer
	rec := NewRecorder(inner, &buf)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_, _, err := rec.ProcessNewScan(ctx, nil, i)
		require.NoError(t, err)
	}
	require.NoError(t, rec.Flush())
	assert.Equal(t, "2 0 0.5\n6 1 0.125\n", buf.String())

	rp, err := ParseReplay(&buf)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		wm, ws, _ := inner.ProcessNewScan(ctx, nil, i)
		gm, gs, err := rp.ProcessNewScan(ctx, nil, i)
		require.NoError(t, err)
		assert.Equal(t, wm, gm)
		assert.Equal(t, ws, gs)
	}
}
