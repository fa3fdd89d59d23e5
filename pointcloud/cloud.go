// Package pointcloud holds the scan representation handed to a matcher and
// readers for on-disk scan formats.
package pointcloud

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ErrTruncated indicates a KITTI scan whose size is not a multiple of one point record.
var ErrTruncated = errors.New("pointcloud: truncated scan")

// kittiRecord is the byte size of one KITTI point: x, y, z, intensity as float32.
const kittiRecord = 16

// Point is a 3D point in the sensor frame.
type Point struct {
	X, Y, Z float64
}

// Cloud is an ordered sequence of points from one scan.
type Cloud []Point

// ReadKITTI decodes a KITTI velodyne scan (little-endian float32 x, y, z,
// intensity per point). Intensity is dropped.
func ReadKITTI(r io.Reader) (Cloud, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading scan: %w", err)
	}
	return DecodeKITTI(data)
}

// DecodeKITTI decodes an in-memory KITTI scan.
func DecodeKITTI(data []byte) (Cloud, error) {
	if len(data)%kittiRecord != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	cloud := make(Cloud, len(data)/kittiRecord)
	for i := range cloud {
		rec := data[i*kittiRecord:]
		cloud[i] = Point{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[0:4]))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12]))),
		}
	}
	return cloud, nil
}

// LoadKITTI reads a KITTI scan file.
func LoadKITTI(path string) (Cloud, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scan file: %w", err)
	}
	cloud, err := DecodeKITTI(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cloud, nil
}

// EncodeKITTI is the inverse of DecodeKITTI, writing zero intensity.
func EncodeKITTI(c Cloud) []byte {
	out := make([]byte, len(c)*kittiRecord)
	for i, p := range c {
		rec := out[i*kittiRecord:]
		binary.LittleEndian.PutUint32(rec[0:4], math.Float32bits(float32(p.X)))
		binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(float32(p.Y)))
		binary.LittleEndian.PutUint32(rec[8:12], math.Float32bits(float32(p.Z)))
	}
	return out
}
