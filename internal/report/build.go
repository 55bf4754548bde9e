package report

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/verte-zerg/tunecurve/internal/dataset"
	"github.com/verte-zerg/tunecurve/internal/model"
	"github.com/verte-zerg/tunecurve/internal/tuning"
)

// Report contains precomputed data for rendering one run.
type Report struct {
	Curve     model.Curve
	Ranges    model.Ranges
	Table     *tuning.CentroidTable
	Outcomes  []tuning.Outcome
	Summary   tuning.Summary
	Malformed []*dataset.MalformedRecordError
	Rejected  []tuning.Rejection
}

// BuildReport aggregates the records, then classifies the ones that were
// aggregated. Malformed lines are carried through for reporting only.
func BuildReport(ctx context.Context, logger *zap.Logger, records []model.AttemptRecord, malformed []*dataset.MalformedRecordError, cfg model.RunConfig) (Report, error) {
	if err := cfg.Curve.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid curve: %w", err)
	}
	ranges := cfg.Ranges
	if cfg.AutoRange {
		limits := cfg.AutoLimits
		if limits == (model.RangeLimits{}) {
			limits = model.DefaultRangeLimits()
		}
		ranges = tuning.DeriveRangesWithin(cfg.Curve, records, limits)
		logger.Debug("derived table ranges", zap.Stringer("ranges", ranges))
	}

	for _, m := range malformed {
		logger.Warn("line rejected", zap.Int("line", m.Line), zap.String("reason", m.Reason))
	}

	var (
		table    *tuning.CentroidTable
		rejected []tuning.Rejection
	)
	if cfg.Workers > 1 {
		var err error
		table, rejected, err = tuning.BuildParallel(ctx, records, ranges, cfg.Workers)
		if err != nil {
			return Report{}, fmt.Errorf("failed to aggregate records: %w", err)
		}
	} else {
		agg, err := tuning.NewAggregator(ranges)
		if err != nil {
			return Report{}, err
		}
		for _, rec := range records {
			if err := agg.Add(rec); err != nil {
				rejected = append(rejected, tuning.Rejection{Record: rec, Err: err})
			}
		}
		LogRunningTotals(logger, "running totals", agg.RunningTotals())
		table = agg.Table()
	}
	LogRunningTotals(logger, "centroids", table.Cells())
	for _, r := range rejected {
		logger.Warn("record rejected", zap.Int("id", r.Record.ID), zap.Error(r.Err))
	}

	accepted := records
	if len(rejected) > 0 {
		accepted = make([]model.AttemptRecord, 0, len(records)-len(rejected))
		for _, rec := range records {
			if ranges.Contains(rec.Level, rec.Attempts) {
				accepted = append(accepted, rec)
			}
		}
	}

	outcomes := tuning.ClassifyAll(accepted, cfg.Curve, table)
	summary := tuning.Summarize(outcomes)
	logger.Info("run complete",
		zap.Int("records", len(records)),
		zap.Int("classified", summary.Total),
		zap.Int("rejected", len(rejected)+len(malformed)),
		zap.Int("populated_cells", table.Populated()),
	)
	return Report{
		Curve:     cfg.Curve,
		Ranges:    ranges,
		Table:     table,
		Outcomes:  outcomes,
		Summary:   summary,
		Malformed: malformed,
		Rejected:  rejected,
	}, nil
}

// RenderText prints the full human-readable report.
func RenderText(w io.Writer, r Report, useColor bool) error {
	if err := RenderCurve(w, r.Curve); err != nil {
		return err
	}
	if err := RenderCentroids(w, r.Table, false); err != nil {
		return err
	}
	if err := RenderDecisions(w, r.Outcomes, useColor); err != nil {
		return err
	}
	if err := RenderRejections(w, r.Malformed, r.Rejected); err != nil {
		return err
	}
	return RenderSummary(w, r.Summary)
}
