package tuning

import (
	"fmt"

	"github.com/verte-zerg/tunecurve/internal/model"
)

// Cell accumulates parameter sums for one (level, attempts) key.
type Cell struct {
	Level    int
	Attempts int
	Sums     [model.ParamCount]int64
	Count    int64
	// Centroid is zero until the table is finalized and stays zero when Count is 0.
	Centroid model.Params
}

// Rejection records why a record was left out of aggregation.
type Rejection struct {
	Record model.AttemptRecord
	Err    error
}

// Aggregator folds attempt records into a dense grid of cells.
type Aggregator struct {
	ranges model.Ranges
	cells  []Cell
}

// NewAggregator pre-creates one zeroed cell per (level, attempts) pair.
func NewAggregator(ranges model.Ranges) (*Aggregator, error) {
	if err := ranges.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranges: %w", err)
	}
	cells := make([]Cell, ranges.Levels()*ranges.Attempts())
	for level := ranges.MinLevel; level <= ranges.MaxLevel; level++ {
		for attempts := ranges.MinAttempts; attempts <= ranges.MaxAttempts; attempts++ {
			idx := cellIndex(ranges, level, attempts)
			cells[idx].Level = level
			cells[idx].Attempts = attempts
		}
	}
	return &Aggregator{ranges: ranges, cells: cells}, nil
}

// Ranges returns the grid bounds.
func (a *Aggregator) Ranges() model.Ranges {
	return a.ranges
}

// Add folds one record into its cell. Out-of-range records are rejected
// without touching any cell.
func (a *Aggregator) Add(rec model.AttemptRecord) error {
	if !a.ranges.Contains(rec.Level, rec.Attempts) {
		return fmt.Errorf("record %d (level %d, attempts %d): %w (%s)", rec.ID, rec.Level, rec.Attempts, ErrOutOfRange, a.ranges)
	}
	cell := &a.cells[cellIndex(a.ranges, rec.Level, rec.Attempts)]
	for i, v := range rec.Params {
		cell.Sums[i] += int64(v)
	}
	cell.Count++
	return nil
}

// Merge adds another aggregator's partial sums and counts into a.
func (a *Aggregator) Merge(other *Aggregator) error {
	if other.ranges != a.ranges {
		return fmt.Errorf("cannot merge aggregators with different ranges: %s vs %s", a.ranges, other.ranges)
	}
	for i := range a.cells {
		for p := range a.cells[i].Sums {
			a.cells[i].Sums[p] += other.cells[i].Sums[p]
		}
		a.cells[i].Count += other.cells[i].Count
	}
	return nil
}

// RunningTotals returns a copy of the cells before centroids are derived.
func (a *Aggregator) RunningTotals() []Cell {
	out := make([]Cell, len(a.cells))
	copy(out, a.cells)
	return out
}

// Table derives centroids and returns an immutable snapshot. Centroids use
// truncating integer division.
func (a *Aggregator) Table() *CentroidTable {
	cells := make([]Cell, len(a.cells))
	copy(cells, a.cells)
	for i := range cells {
		cell := &cells[i]
		if cell.Count == 0 {
			continue
		}
		for p, sum := range cell.Sums {
			cell.Centroid[p] = int(sum / cell.Count)
		}
	}
	return &CentroidTable{ranges: a.ranges, cells: cells}
}

// Build aggregates records serially. Rejected records are returned alongside
// the table; they never abort the remaining records.
func Build(records []model.AttemptRecord, ranges model.Ranges) (*CentroidTable, []Rejection, error) {
	agg, err := NewAggregator(ranges)
	if err != nil {
		return nil, nil, err
	}
	var rejected []Rejection
	for _, rec := range records {
		if err := agg.Add(rec); err != nil {
			rejected = append(rejected, Rejection{Record: rec, Err: err})
		}
	}
	return agg.Table(), rejected, nil
}

// CentroidTable is the finalized, read-only result of aggregation.
type CentroidTable struct {
	ranges model.Ranges
	cells  []Cell
}

// Ranges returns the table bounds.
func (t *CentroidTable) Ranges() model.Ranges {
	return t.ranges
}

// Cell returns the cell for (level, attempts).
func (t *CentroidTable) Cell(level, attempts int) (Cell, bool) {
	if !t.ranges.Contains(level, attempts) {
		return Cell{}, false
	}
	return t.cells[cellIndex(t.ranges, level, attempts)], true
}

// Centroid returns the centroid for (level, attempts), or ErrNoCentroid when
// the cell is empty or absent.
func (t *CentroidTable) Centroid(level, attempts int) (model.Params, error) {
	cell, ok := t.Cell(level, attempts)
	if !ok {
		return model.Params{}, fmt.Errorf("level %d, attempts %d: %w (%w)", level, attempts, ErrNoCentroid, ErrOutOfRange)
	}
	if cell.Count == 0 {
		return model.Params{}, fmt.Errorf("level %d, attempts %d: %w", level, attempts, ErrNoCentroid)
	}
	return cell.Centroid, nil
}

// Cells returns all cells ordered by level, then attempts.
func (t *CentroidTable) Cells() []Cell {
	out := make([]Cell, len(t.cells))
	copy(out, t.cells)
	return out
}

// Populated returns the number of cells with at least one record.
func (t *CentroidTable) Populated() int {
	n := 0
	for _, cell := range t.cells {
		if cell.Count > 0 {
			n++
		}
	}
	return n
}

func cellIndex(r model.Ranges, level, attempts int) int {
	return (level-r.MinLevel)*r.Attempts() + (attempts - r.MinAttempts)
}
