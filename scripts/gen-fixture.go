//go:build ignore

// Generate a synthetic KITTI-style sequence for exercising stdesc-eval.
// The sensor drives two laps of a rectangle, so the second lap revisits the
// first. Writes velodyne/*.bin scans, loop_closures.txt and a recorded
// detections.txt in the replay format.
// Usage: go run ./scripts/gen-fixture.go -out testdata/fixture
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/jamesainslie/go-stdesc/pointcloud"
)

type pose struct{ x, y float64 }

func main() {
	var (
		outDir   = flag.String("out", "testdata/fixture", "output directory")
		sequence = flag.String("sequence", "00", "sequence name")
		lapScans = flag.Int("lap", 120, "scans per lap")
		points   = flag.Int("points", 2000, "points per scan")
		radius   = flag.Float64("radius", 3.0, "revisit radius in meters")
		seed     = flag.Int64("seed", 1, "random seed")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	root := filepath.Join(*outDir, *sequence)
	velodyne := filepath.Join(root, "velodyne")
	if err := os.MkdirAll(velodyne, 0o755); err != nil {
		fatal(err)
	}

	poses := trajectory(2 * *lapScans, *lapScans)
	for i, p := range poses {
		path := filepath.Join(velodyne, fmt.Sprintf("%06d.bin", i))
		if err := os.WriteFile(path, pointcloud.EncodeKITTI(scan(rng, p, *points)), 0o644); err != nil {
			fatal(err)
		}
	}

	gtFile, err := os.Create(filepath.Join(root, "loop_closures.txt"))
	if err != nil {
		fatal(err)
	}
	detFile, err := os.Create(filepath.Join(root, "detections.txt"))
	if err != nil {
		fatal(err)
	}
	fmt.Fprintln(detFile, "# query candidate score")

	// Skip near neighbours in time, like the detector does.
	const skipNear = 50
	closures := 0
	for q := range poses {
		best, bestDist := -1, math.Inf(1)
		for c := 0; c+skipNear < q; c++ {
			d := math.Hypot(poses[q].x-poses[c].x, poses[q].y-poses[c].y)
			if d < *radius {
				fmt.Fprintf(gtFile, "%d %d\n", c, q)
				closures++
			}
			if d < bestDist {
				best, bestDist = c, d
			}
		}
		if best < 0 {
			continue
		}

		// True revisits score high, everything else low, with noise so the
		// sweep has something to separate.
		var score float64
		if bestDist < *radius {
			score = 0.55 + 0.4*rng.Float64()
		} else {
			score = 0.45 * rng.Float64()
		}
		if rng.Float64() < 0.1 {
			score = rng.Float64()
		}
		fmt.Fprintf(detFile, "%d %d %.4f\n", q, best, score)
	}

	if err := gtFile.Close(); err != nil {
		fatal(err)
	}
	if err := detFile.Close(); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %d scans and %d ground-truth closures to %s\n", len(poses), closures, root)
}

// trajectory walks a 40x20 m rectangle once per lap scans.
func trajectory(n, lap int) []pose {
	const w, h = 40.0, 20.0
	perimeter := 2 * (w + h)
	out := make([]pose, n)
	for i := range out {
		s := math.Mod(float64(i)/float64(lap), 1) * perimeter
		switch {
		case s < w:
			out[i] = pose{s, 0}
		case s < w+h:
			out[i] = pose{w, s - w}
		case s < 2*w+h:
			out[i] = pose{w - (s - w - h), h}
		default:
			out[i] = pose{0, h - (s - 2*w - h)}
		}
	}
	return out
}

// scan samples points on a ring of walls around p in the sensor frame.
func scan(rng *rand.Rand, p pose, n int) pointcloud.Cloud {
	c := make(pointcloud.Cloud, n)
	for i := range c {
		theta := 2 * math.Pi * rng.Float64()
		r := 8 + 4*math.Sin(3*theta+p.x/7) + 0.05*rng.NormFloat64()
		c[i] = pointcloud.Point{
			X: r * math.Cos(theta),
			Y: r * math.Sin(theta),
			Z: -1.7 + 3*rng.Float64(),
		}
	}
	return c
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
