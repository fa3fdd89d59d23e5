// Package stdesc evaluates a sequential loop-closure detector over an ordered
// sequence of scans.
//
// # Quick Start
//
//	ds, err := dataset.Open("/data/kitti/00")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := matcher.DialRemote(ctx, "localhost:50051", matcher.DefaultParams())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	p, err := stdesc.New(ds, m, "results")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := p.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("results written to", out.Dir)
//
// # Execution Model
//
// A Pipeline is single-use and strictly sequential. The Matcher keeps an
// incremental map of every scan it has seen, so scans are fed exactly once
// and in increasing index order. Any Matcher, Dataset or filesystem error
// aborts the run.
//
// # Output Layout
//
// Each run writes <resultsDir>/stdesc_results/<sequence>/<timestamp>/ and
// re-points <resultsDir>/stdesc_results/<sequence>/latest at it. The
// directory holds predicted_closures.pb and manifest.json, plus metrics.txt
// and metrics.xlsx when the dataset has ground truth.
package stdesc
