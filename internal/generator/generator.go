// Package generator builds synthetic attempt logs.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/tunecurve/internal/model"
)

const (
	maxParam     = 100
	maxUserSkill = 10
)

// Generator produces randomized attempt records.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate draws count records uniformly over the ranges. Params fall in
// [0, 100] and user skill in [0, 10]. IDs start at 1.
func (g *Generator) Generate(count int, ranges model.Ranges) []model.AttemptRecord {
	if count <= 0 {
		return nil
	}
	records := make([]model.AttemptRecord, 0, count)
	for i := 0; i < count; i++ {
		var params model.Params
		for p := range params {
			params[p] = g.rnd.Intn(maxParam + 1)
		}
		records = append(records, model.AttemptRecord{
			ID:        i + 1,
			Params:    params,
			UserSkill: g.rnd.Intn(maxUserSkill + 1),
			Attempts:  ranges.MinAttempts + g.rnd.Intn(ranges.Attempts()),
			Level:     ranges.MinLevel + g.rnd.Intn(ranges.Levels()),
		})
	}
	return records
}

// GenerateOnCurve biases attempts toward each level's target so every
// target cell is populated. Levels missing from the curve fall back to
// uniform attempts.
func (g *Generator) GenerateOnCurve(count int, ranges model.Ranges, curve model.Curve, onCurvePct float64) []model.AttemptRecord {
	records := g.Generate(count, ranges)
	for i := range records {
		target, ok := curve.Target(records[i].Level)
		if !ok || !ranges.Contains(records[i].Level, target) {
			continue
		}
		if g.rnd.Float64() < onCurvePct {
			records[i].Attempts = target
		}
	}
	return records
}
