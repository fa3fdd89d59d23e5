package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedGroundTruth indicates a ground-truth file that is neither N×2 nor 2×N.
var ErrMalformedGroundTruth = errors.New("dataset: malformed ground truth")

// ParseGroundTruth reads closure index pairs, one row per line, with values
// separated by whitespace or commas. Lines starting with # are skipped.
//
// Both orientations are accepted: N rows of 2 columns, or 2 rows of N
// columns (as written by tools that store the pairs transposed). A 2×2
// input is read as two rows.
func ParseGroundTruth(r io.Reader) ([][2]int, error) {
	var rows [][]int
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		row := make([]int, len(fields))
		for i, f := range fields {
			v, err := parseIndex(f)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedGroundTruth, line, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ground truth: %w", err)
	}

	return orient(rows)
}

// parseIndex accepts integers and integral floats such as "12.0".
func parseIndex(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an index: %q", s)
	}
	return int(f), nil
}

func orient(rows [][]int) ([][2]int, error) {
	pairs := make([][2]int, 0, len(rows))
	if len(rows) == 0 {
		return pairs, nil
	}

	allPairs := true
	for _, row := range rows {
		if len(row) != 2 {
			allPairs = false
			break
		}
	}
	if allPairs {
		for _, row := range rows {
			pairs = append(pairs, [2]int{row[0], row[1]})
		}
		return pairs, nil
	}

	if len(rows) == 2 && len(rows[0]) == len(rows[1]) {
		for i := range rows[0] {
			pairs = append(pairs, [2]int{rows[0][i], rows[1][i]})
		}
		return pairs, nil
	}

	return nil, fmt.Errorf("%w: %d rows of mixed width", ErrMalformedGroundTruth, len(rows))
}

// LoadGroundTruth reads a ground-truth file with ParseGroundTruth.
func LoadGroundTruth(path string) ([][2]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ground truth: %w", err)
	}
	defer func() { _ = f.Close() }()

	pairs, err := ParseGroundTruth(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pairs, nil
}
