package report

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/verte-zerg/tunecurve/internal/tuning"
)

// LogRunningTotals dumps every cell at debug level. Stage labels the dump,
// for example "running totals" before centroids and "centroids" after.
func LogRunningTotals(logger *zap.Logger, stage string, cells []tuning.Cell) {
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	for _, cell := range cells {
		logger.Debug(stage,
			zap.Int("level", cell.Level),
			zap.Int("attempts", cell.Attempts),
			zap.Int64s("sums", cell.Sums[:]),
			zap.Int64("count", cell.Count),
			zap.Ints("centroid", cell.Centroid[:]),
		)
	}
}
