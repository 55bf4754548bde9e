package generator

import (
	"testing"

	"github.com/verte-zerg/tunecurve/internal/model"
)

func TestGenerateStaysInRanges(t *testing.T) {
	ranges := model.Ranges{MinLevel: 2, MaxLevel: 4, MinAttempts: 1, MaxAttempts: 3}
	records := NewSeeded(1).Generate(500, ranges)
	if len(records) != 500 {
		t.Fatalf("expected 500 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.ID != i+1 {
			t.Fatalf("expected id %d, got %d", i+1, rec.ID)
		}
		if !ranges.Contains(rec.Level, rec.Attempts) {
			t.Fatalf("record out of range: %+v", rec)
		}
		for _, p := range rec.Params {
			if p < 0 || p > maxParam {
				t.Fatalf("param out of range: %+v", rec)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := NewSeeded(9).Generate(50, model.DefaultRanges())
	b := NewSeeded(9).Generate(50, model.DefaultRanges())
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if NewSeeded(9).Generate(0, model.DefaultRanges()) != nil {
		t.Fatalf("expected nil for zero count")
	}
}

func TestGenerateOnCurvePopulatesTargets(t *testing.T) {
	curve := model.DefaultCurve()
	records := NewSeeded(3).GenerateOnCurve(200, model.DefaultRanges(), curve, 1.0)
	for _, rec := range records {
		if rec.Attempts != curve[rec.Level] {
			t.Fatalf("expected attempts on curve for %+v", rec)
		}
	}
}
