// Package tuning aggregates attempt records into centroids and classifies
// attempts against the saw-tooth curve.
package tuning

import "errors"

var (
	// ErrOutOfRange marks a record or lookup outside the table's ranges.
	ErrOutOfRange = errors.New("outside table ranges")
	// ErrMissingCurveEntry marks a level with no saw-tooth target.
	ErrMissingCurveEntry = errors.New("missing curve entry")
	// ErrNoCentroid marks a target cell that never received a record.
	ErrNoCentroid = errors.New("no centroid available")
)
