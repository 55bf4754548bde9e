package tuning

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tunecurve/internal/model"
)

func TestClassifyOnCurve(t *testing.T) {
	records := []model.AttemptRecord{rec(1, 1, 1, 10, 20, 30, 40, 50)}
	table, _, err := Build(records, model.DefaultRanges())
	require.NoError(t, err)

	d, err := Classify(records[0], model.Curve{1: 1}, table)
	require.NoError(t, err)
	require.Equal(t, model.OnCurve, d.Action)
	require.Equal(t, model.Params{10, 20, 30, 40, 50}, d.Params)
	require.True(t, d.HasParams)
	require.False(t, d.FromCentroid)
}

func TestClassifyBelowCurve(t *testing.T) {
	r := rec(4, 4, 2, 1, 2, 3, 4, 5)
	table, _, err := Build([]model.AttemptRecord{r}, model.DefaultRanges())
	require.NoError(t, err)

	d, err := Classify(r, model.DefaultCurve(), table)
	require.NoError(t, err)
	require.Equal(t, model.BelowCurve, d.Action)
	require.Equal(t, 6, d.Target)
	require.Equal(t, r.Params, d.Params)
}

func TestClassifyAboveCurveUsesTargetCentroid(t *testing.T) {
	records := []model.AttemptRecord{
		rec(1, 2, 2, uniform(0)...),
		rec(2, 2, 2, uniform(10)...),
		rec(3, 2, 5, uniform(99)...),
	}
	table, _, err := Build(records, model.DefaultRanges())
	require.NoError(t, err)

	d, err := Classify(records[2], model.Curve{2: 2}, table)
	require.NoError(t, err)
	require.Equal(t, model.AboveCurve, d.Action)
	require.Equal(t, model.Params{5, 5, 5, 5, 5}, d.Params)
	require.True(t, d.FromCentroid)
}

func TestClassifyMissingCurveEntry(t *testing.T) {
	r := rec(1, 7, 1, uniform(1)...)
	table, _, err := Build([]model.AttemptRecord{r}, model.DefaultRanges())
	require.NoError(t, err)

	_, err = Classify(r, model.Curve{1: 1}, table)
	require.ErrorIs(t, err, ErrMissingCurveEntry)
}

func TestClassifyAboveCurveEmptyTarget(t *testing.T) {
	r := rec(1, 3, 9, uniform(42)...)
	table, _, err := Build([]model.AttemptRecord{r}, model.DefaultRanges())
	require.NoError(t, err)

	d, err := Classify(r, model.DefaultCurve(), table)
	require.ErrorIs(t, err, ErrNoCentroid)
	require.Equal(t, model.AboveCurve, d.Action)
	require.False(t, d.HasParams)
	require.False(t, d.FromCentroid)
	require.Equal(t, model.Params{}, d.Params)
}

func TestClassifyProperties(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))
	records := randomRecords(rnd, 1000)
	curve := model.DefaultCurve()
	table, _, err := Build(records, model.DefaultRanges())
	require.NoError(t, err)

	for _, r := range records {
		d, err := Classify(r, curve, table)
		target, ok := curve[r.Level]
		if !ok {
			require.ErrorIs(t, err, ErrMissingCurveEntry)
			continue
		}
		switch {
		case r.Attempts == target:
			require.NoError(t, err)
			require.Equal(t, model.OnCurve, d.Action)
			require.Equal(t, r.Params, d.Params)
		case r.Attempts < target:
			require.NoError(t, err)
			require.Equal(t, model.BelowCurve, d.Action)
			require.Equal(t, r.Params, d.Params)
		default:
			require.Equal(t, model.AboveCurve, d.Action)
			cell, _ := table.Cell(r.Level, target)
			if cell.Count == 0 {
				require.ErrorIs(t, err, ErrNoCentroid)
				continue
			}
			require.NoError(t, err)
			require.Equal(t, cell.Centroid, d.Params)
		}
	}
}

func TestClassifyAllAndSummarize(t *testing.T) {
	records := []model.AttemptRecord{
		rec(1, 1, 1, uniform(10)...),
		rec(2, 1, 0, uniform(20)...),
		rec(3, 1, 4, uniform(30)...),
		rec(4, 3, 9, uniform(40)...),
		rec(5, 12, 1, uniform(50)...),
	}
	table, _, err := Build(records, model.Ranges{MinLevel: 1, MaxLevel: 12, MinAttempts: 0, MaxAttempts: 10})
	require.NoError(t, err)

	outcomes := ClassifyAll(records, model.DefaultCurve(), table)
	require.Len(t, outcomes, len(records))
	require.Equal(t, model.OnCurve, outcomes[0].Decision.Action)
	require.Equal(t, model.BelowCurve, outcomes[1].Decision.Action)
	require.Equal(t, model.AboveCurve, outcomes[2].Decision.Action)
	require.Equal(t, model.Params{10, 10, 10, 10, 10}, outcomes[2].Decision.Params)
	require.ErrorIs(t, outcomes[3].Err, ErrNoCentroid)
	require.ErrorIs(t, outcomes[4].Err, ErrMissingCurveEntry)

	s := Summarize(outcomes)
	require.Equal(t, Summary{
		Total:        5,
		OnCurve:      1,
		BelowCurve:   1,
		AboveCurve:   1,
		NoCentroid:   1,
		MissingCurve: 1,
	}, s)
	require.InDelta(t, 0.2, s.Share(s.OnCurve), 1e-9)
	require.Zero(t, Summary{}.Share(3))
}
