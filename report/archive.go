package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jamesainslie/go-stdesc/evaluation"
	"github.com/jamesainslie/go-stdesc/internal/wire"
)

// ErrMalformedArchive indicates a predicted closures archive that cannot be decoded.
var ErrMalformedArchive = errors.New("report: malformed closures archive")

// ArchiveVersion is the current archive format version.
const ArchiveVersion = 1

// Archive wire layout (protobuf encoding):
//
//	message Archive {
//	  int64  version     = 1; // zigzag
//	  string sequence_id = 2;
//	  repeated Bucket     buckets     = 3;
//	  repeated Prediction predictions = 4;
//	}
//	message Bucket     { double threshold = 1; repeated sint64 pairs = 2 [packed]; } // a0,b0,a1,b1,...
//	message Prediction { sint64 query = 1; sint64 candidate = 2; double score = 3; }
const (
	fieldVersion    protowire.Number = 1
	fieldSequenceID protowire.Number = 2
	fieldBucket     protowire.Number = 3
	fieldPrediction protowire.Number = 4
	fieldThreshold  protowire.Number = 1
	fieldPairs      protowire.Number = 2
	fieldQuery      protowire.Number = 1
	fieldCandidate  protowire.Number = 2
	fieldScore      protowire.Number = 3
)

// Archive is the durable record of a run's predicted closures per threshold,
// kept independent of any metrics so it can be re-evaluated later.
type Archive struct {
	SequenceID  string
	Thresholds  []float64
	Closures    [][]evaluation.Pair // parallel to Thresholds
	Predictions []evaluation.Prediction
}

// NewArchive snapshots the closures held by res.
func NewArchive(res *evaluation.Results) Archive {
	return Archive{
		SequenceID:  res.SequenceID(),
		Thresholds:  res.Sweep().Thresholds(),
		Closures:    res.Closures(),
		Predictions: res.Predictions(),
	}
}

// MarshalBinary encodes the archive. The output is deterministic.
func (a Archive) MarshalBinary() ([]byte, error) {
	if len(a.Closures) != len(a.Thresholds) {
		return nil, fmt.Errorf("archive: %d buckets for %d thresholds", len(a.Closures), len(a.Thresholds))
	}

	var b []byte
	b = wire.AppendSint(b, fieldVersion, ArchiveVersion)
	b = wire.AppendString(b, fieldSequenceID, a.SequenceID)

	for i, t := range a.Thresholds {
		var bucket []byte
		bucket = wire.AppendDouble(bucket, fieldThreshold, t)
		idx := make([]int64, 0, 2*len(a.Closures[i]))
		for _, p := range a.Closures[i] {
			idx = append(idx, int64(p.A), int64(p.B))
		}
		bucket = wire.AppendPackedSints(bucket, fieldPairs, idx)
		b = wire.AppendBytes(b, fieldBucket, bucket)
	}

	for _, p := range a.Predictions {
		var pred []byte
		pred = wire.AppendSint(pred, fieldQuery, int64(p.Query))
		pred = wire.AppendSint(pred, fieldCandidate, int64(p.Candidate))
		pred = wire.AppendDouble(pred, fieldScore, p.Score)
		b = wire.AppendBytes(b, fieldPrediction, pred)
	}

	return b, nil
}

// UnmarshalBinary decodes an archive written by MarshalBinary.
func (a *Archive) UnmarshalBinary(data []byte) error {
	var out Archive
	version := int64(-1)

	err := wire.Walk(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldVersion:
			v, err := wire.Sint(typ, raw)
			version = v
			return err
		case fieldSequenceID:
			s, err := wire.String(typ, raw)
			out.SequenceID = s
			return err
		case fieldBucket:
			msg, err := wire.Bytes(typ, raw)
			if err != nil {
				return err
			}
			t, pairs, err := decodeBucket(msg)
			if err != nil {
				return err
			}
			out.Thresholds = append(out.Thresholds, t)
			out.Closures = append(out.Closures, pairs)
		case fieldPrediction:
			msg, err := wire.Bytes(typ, raw)
			if err != nil {
				return err
			}
			p, err := decodePrediction(msg)
			if err != nil {
				return err
			}
			out.Predictions = append(out.Predictions, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedArchive, err)
	}
	if version != ArchiveVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedArchive, version)
	}

	*a = out
	return nil
}

func decodeBucket(msg []byte) (float64, []evaluation.Pair, error) {
	var (
		threshold float64
		pairs     []evaluation.Pair
	)
	err := wire.Walk(msg, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldThreshold:
			t, err := wire.Double(typ, raw)
			threshold = t
			return err
		case fieldPairs:
			idx, err := wire.PackedSints(typ, raw)
			if err != nil {
				return err
			}
			if len(idx)%2 != 0 {
				return fmt.Errorf("bucket: odd index count %d", len(idx))
			}
			for i := 0; i < len(idx); i += 2 {
				pairs = append(pairs, evaluation.NewPair(int(idx[i]), int(idx[i+1])))
			}
		}
		return nil
	})
	return threshold, pairs, err
}

func decodePrediction(msg []byte) (evaluation.Prediction, error) {
	var p evaluation.Prediction
	err := wire.Walk(msg, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldQuery:
			v, err := wire.Sint(typ, raw)
			p.Query = int(v)
			return err
		case fieldCandidate:
			v, err := wire.Sint(typ, raw)
			p.Candidate = int(v)
			return err
		case fieldScore:
			v, err := wire.Double(typ, raw)
			p.Score = v
			return err
		}
		return nil
	})
	return p, err
}

// Results rebuilds evaluation results from the archive against groundTruth
// (nil for none).
func (a Archive) Results(groundTruth [][2]int) (*evaluation.Results, error) {
	if len(a.Closures) != len(a.Thresholds) {
		return nil, fmt.Errorf("%w: %d buckets for %d thresholds", ErrMalformedArchive, len(a.Closures), len(a.Thresholds))
	}
	sweep, err := evaluation.NewSweep(a.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("archive sweep: %w", err)
	}

	// NewSweep sorts; realign buckets if the archive was not ascending.
	byThreshold := make(map[float64][]evaluation.Pair, len(a.Thresholds))
	for i, t := range a.Thresholds {
		byThreshold[t] = a.Closures[i]
	}
	buckets := make([][]evaluation.Pair, sweep.Len())
	for i, t := range sweep.Thresholds() {
		buckets[i] = byThreshold[t]
	}

	return evaluation.Restore(a.SequenceID, groundTruth, sweep, buckets, a.Predictions)
}

// WriteArchive encodes the closures of res to w.
func WriteArchive(w io.Writer, res *evaluation.Results) error {
	data, err := NewArchive(res).MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadArchive decodes an archive from r.
func ReadArchive(r io.Reader) (Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Archive{}, fmt.Errorf("reading archive: %w", err)
	}
	var a Archive
	if err := a.UnmarshalBinary(data); err != nil {
		return Archive{}, err
	}
	return a, nil
}

// LoadArchive reads an archive file.
func LoadArchive(path string) (Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return Archive{}, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	a, err := ReadArchive(f)
	if err != nil {
		return Archive{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}
