// Package matcher provides Matcher adapters for the evaluation pipeline: a
// gRPC client for an out-of-process detector, a server that exposes any
// Matcher over gRPC, and a replay of recorded detector output.
package matcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownParameter indicates a parameter file key with no default.
var ErrUnknownParameter = errors.New("matcher: unknown parameter")

// Params is the flat parameter mapping a detector is configured with. The
// pipeline never interprets it.
type Params map[string]float64

// DefaultParams returns the detector defaults.
func DefaultParams() Params {
	return Params{
		"ds_size":                    0.25,
		"maximum_corner_num":         100,
		"plane_merge_normal_thre":    0.2,
		"plane_detection_thre":       0.01,
		"voxel_size":                 2.0,
		"voxel_init_num":             10,
		"proj_image_resolution":      0.5,
		"proj_dis_min":               0,
		"proj_dis_max":               5,
		"corner_thre":                10,
		"descriptor_near_num":        10,
		"descriptor_min_len":         2,
		"descriptor_max_len":         50,
		"non_max_suppression_radius": 2,
		"std_side_resolution":        0.2,
		"skip_near_num":              50,
		"candidate_num":              50,
		"sub_frame_num":              10,
		"rough_dis_threshold":        0.01,
		"vertex_diff_threshold":      0.5,
		"icp_threshold":              0.4,
		"normal_threshold":           0.2,
		"dis_threshold":              0.5,
	}
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParseParams reads a flat YAML mapping and merges it onto DefaultParams.
// Keys without a default are rejected.
func ParseParams(r io.Reader) (Params, error) {
	var overrides map[string]float64
	if err := yaml.NewDecoder(r).Decode(&overrides); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding params: %w", err)
	}

	params := DefaultParams()
	for k, v := range overrides {
		if _, ok := params[k]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, k)
		}
		params[k] = v
	}
	return params, nil
}

// LoadParams reads a parameter file. An empty path yields DefaultParams.
func LoadParams(path string) (Params, error) {
	if path == "" {
		return DefaultParams(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading params: %w", err)
	}
	p, err := ParseParams(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// WriteParams writes p as a YAML mapping. Keys are emitted in sorted order.
func WriteParams(w io.Writer, p Params) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]float64(p)); err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	return enc.Close()
}
