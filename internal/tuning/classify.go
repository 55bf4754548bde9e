package tuning

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/tunecurve/internal/model"
)

// Outcome pairs a record with its decision or the reason it has none.
type Outcome struct {
	Record   model.AttemptRecord
	Decision model.Decision
	Err      error
}

// Classify compares the record's attempt count with the level's target.
// Below or on the curve the record keeps its own parameters; above the
// curve they are replaced by the centroid at (level, target). When that
// centroid is missing the decision carries no parameters and the error
// wraps ErrNoCentroid.
func Classify(rec model.AttemptRecord, curve model.Curve, table *CentroidTable) (model.Decision, error) {
	target, ok := curve.Target(rec.Level)
	if !ok {
		return model.Decision{}, fmt.Errorf("record %d, level %d: %w", rec.ID, rec.Level, ErrMissingCurveEntry)
	}
	d := model.Decision{
		RecordID: rec.ID,
		Level:    rec.Level,
		Attempts: rec.Attempts,
		Target:   target,
	}
	switch {
	case rec.Attempts == target:
		d.Action = model.OnCurve
		d.Params = rec.Params
		d.HasParams = true
	case rec.Attempts < target:
		d.Action = model.BelowCurve
		d.Params = rec.Params
		d.HasParams = true
	default:
		d.Action = model.AboveCurve
		centroid, err := table.Centroid(rec.Level, target)
		if err != nil {
			return d, fmt.Errorf("record %d: %w", rec.ID, err)
		}
		d.Params = centroid
		d.HasParams = true
		d.FromCentroid = true
	}
	return d, nil
}

// ClassifyAll classifies every record independently. Failures are kept on
// the outcome rather than aborting the batch.
func ClassifyAll(records []model.AttemptRecord, curve model.Curve, table *CentroidTable) []Outcome {
	out := make([]Outcome, len(records))
	for i, rec := range records {
		d, err := Classify(rec, curve, table)
		out[i] = Outcome{Record: rec, Decision: d, Err: err}
	}
	return out
}

// Summary counts outcomes by action.
type Summary struct {
	Total      int
	OnCurve    int
	BelowCurve int
	AboveCurve int
	// NoCentroid counts above-curve records whose target cell was empty.
	NoCentroid   int
	MissingCurve int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	s.Total = len(outcomes)
	for _, o := range outcomes {
		if o.Err != nil {
			if errors.Is(o.Err, ErrMissingCurveEntry) {
				s.MissingCurve++
				continue
			}
			s.NoCentroid++
			continue
		}
		switch o.Decision.Action {
		case model.OnCurve:
			s.OnCurve++
		case model.BelowCurve:
			s.BelowCurve++
		case model.AboveCurve:
			s.AboveCurve++
		}
	}
	return s
}

// Share returns n as a fraction of the total.
func (s Summary) Share(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(n) / float64(s.Total)
}
