package matcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	stdesc "github.com/jamesainslie/go-stdesc"
	"github.com/jamesainslie/go-stdesc/pointcloud"
)

var (
	// ErrOutOfOrder indicates a scan index that does not strictly increase.
	ErrOutOfOrder = errors.New("matcher: scan out of order")

	// ErrMalformedLog indicates a detector log that cannot be parsed.
	ErrMalformedLog = errors.New("matcher: malformed detector log")
)

type detection struct {
	candidate int
	score     float64
}

// Replay answers ProcessNewScan from a recorded detector log, one
// "query candidate score" line per scan. Scans absent from the log report
// NoMatch.
type Replay struct {
	detections map[int]detection
	last       int
}

// ParseReplay reads a detector log. Blank lines and lines starting with #
// are skipped.
func ParseReplay(r io.Reader) (*Replay, error) {
	rp := &Replay{detections: make(map[int]detection), last: -1}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: want 3 fields, got %d", ErrMalformedLog, line, len(fields))
		}
		query, err1 := strconv.Atoi(fields[0])
		candidate, err2 := strconv.Atoi(fields[1])
		score, err3 := strconv.ParseFloat(fields[2], 64)
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedLog, line, err)
		}
		if _, dup := rp.detections[query]; dup {
			return nil, fmt.Errorf("%w: line %d: scan %d recorded twice", ErrMalformedLog, line, query)
		}
		rp.detections[query] = detection{candidate: candidate, score: score}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading detector log: %w", err)
	}
	return rp, nil
}

// LoadReplay reads a detector log file.
func LoadReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detector log: %w", err)
	}
	defer func() { _ = f.Close() }()

	rp, err := ParseReplay(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rp, nil
}

// Len returns the number of recorded detections.
func (r *Replay) Len() int { return len(r.detections) }

// ProcessNewScan returns the recorded detection for scanIndex. The cloud is
// ignored. Like a live detector, Replay only accepts increasing indices.
func (r *Replay) ProcessNewScan(_ context.Context, _ pointcloud.Cloud, scanIndex int) (int, float64, error) {
	if scanIndex <= r.last {
		return 0, 0, fmt.Errorf("%w: scan %d after %d", ErrOutOfOrder, scanIndex, r.last)
	}
	r.last = scanIndex

	d, ok := r.detections[scanIndex]
	if !ok {
		return stdesc.NoMatch, 0, nil
	}
	return d.candidate, d.score, nil
}

// Recorder wraps a Matcher and writes every detection it reports in the
// format ParseReplay reads.
type Recorder struct {
	inner stdesc.Matcher

	mu sync.Mutex
	w  *bufio.Writer
}

// NewRecorder records the detections of m to w. Call Flush when done.
func NewRecorder(m stdesc.Matcher, w io.Writer) *Recorder {
	return &Recorder{inner: m, w: bufio.NewWriter(w)}
}

// ProcessNewScan forwards to the wrapped Matcher and records a match.
func (r *Recorder) ProcessNewScan(ctx context.Context, cloud pointcloud.Cloud, scanIndex int) (int, float64, error) {
	match, score, err := r.inner.ProcessNewScan(ctx, cloud, scanIndex)
	if err != nil || match == stdesc.NoMatch {
		return match, score, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, werr := fmt.Fprintf(r.w, "%d %d %s\n", scanIndex, match, strconv.FormatFloat(score, 'g', -1, 64)); werr != nil {
		return match, score, fmt.Errorf("recording scan %d: %w", scanIndex, werr)
	}
	return match, score, nil
}

// Flush writes buffered detections.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Flush()
}
