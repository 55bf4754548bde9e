package tuning

import "github.com/verte-zerg/tunecurve/internal/model"

// DeriveRanges sizes the table from the curve and the observed records
// within model.DefaultRangeLimits.
func DeriveRanges(curve model.Curve, records []model.AttemptRecord) model.Ranges {
	return DeriveRangesWithin(curve, records, model.DefaultRangeLimits())
}

// DeriveRangesWithin sizes the table so every record and every curve target
// has a cell, as long as it fits the limits. Levels or attempts past a limit
// do not widen the table; those records are rejected later as out of range.
// Records with a non-positive level or negative attempts are ignored here.
func DeriveRangesWithin(curve model.Curve, records []model.AttemptRecord, limits model.RangeLimits) model.Ranges {
	r := model.Ranges{MinLevel: -1, MinAttempts: -1}
	widen := func(level, attempts int) {
		if level <= 0 || attempts < 0 {
			return
		}
		if level > limits.MaxLevel || attempts > limits.MaxAttempts {
			return
		}
		if r.MinLevel < 0 || level < r.MinLevel {
			r.MinLevel = level
		}
		if level > r.MaxLevel {
			r.MaxLevel = level
		}
		if r.MinAttempts < 0 || attempts < r.MinAttempts {
			r.MinAttempts = attempts
		}
		if attempts > r.MaxAttempts {
			r.MaxAttempts = attempts
		}
	}
	for level, target := range curve {
		widen(level, target)
	}
	for _, rec := range records {
		widen(rec.Level, rec.Attempts)
	}
	if r.MinLevel < 0 {
		return model.DefaultRanges()
	}
	// Attempts always start at zero so a fresh player has a cell.
	r.MinAttempts = 0
	return r
}
