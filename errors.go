package stdesc

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrNilDataset indicates New was called without a dataset.
	ErrNilDataset = errors.New("stdesc: nil dataset")

	// ErrNilMatcher indicates New was called without a matcher.
	ErrNilMatcher = errors.New("stdesc: nil matcher")

	// ErrInvalidRange indicates a scan range outside [0, dataset length].
	ErrInvalidRange = errors.New("stdesc: invalid scan range")

	// ErrAlreadyRun indicates Run was called twice on the same Pipeline.
	ErrAlreadyRun = errors.New("stdesc: pipeline already run")
)
