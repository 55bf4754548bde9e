package tuning

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/tunecurve/internal/model"
)

// BuildParallel shards records across workers, aggregates each shard into
// its own grid and merges the partial sums before deriving centroids. The
// result equals Build for any worker count.
func BuildParallel(ctx context.Context, records []model.AttemptRecord, ranges model.Ranges, workers int) (*CentroidTable, []Rejection, error) {
	if workers <= 1 || len(records) < 2 {
		return Build(records, ranges)
	}
	if workers > len(records) {
		workers = len(records)
	}

	shards := make([]*Aggregator, workers)
	shardRejected := make([][]indexedRejection, workers)
	for i := range shards {
		agg, err := NewAggregator(ranges)
		if err != nil {
			return nil, nil, err
		}
		shards[i] = agg
	}

	eg, egCtx := errgroup.WithContext(ctx)
	chunk := (len(records) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		if start >= end {
			continue
		}
		w := w
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%1024 == 0 {
					if err := egCtx.Err(); err != nil {
						return err
					}
				}
				if err := shards[w].Add(records[i]); err != nil {
					shardRejected[w] = append(shardRejected[w], indexedRejection{
						index:     i,
						rejection: Rejection{Record: records[i], Err: err},
					})
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	merged := shards[0]
	for _, shard := range shards[1:] {
		if err := merged.Merge(shard); err != nil {
			return nil, nil, err
		}
	}
	return merged.Table(), flattenRejections(shardRejected), nil
}

type indexedRejection struct {
	index     int
	rejection Rejection
}

// flattenRejections restores input order so output matches Build.
func flattenRejections(shards [][]indexedRejection) []Rejection {
	var all []indexedRejection
	for _, shard := range shards {
		all = append(all, shard...)
	}
	if len(all) == 0 {
		return nil
	}
	sort.Slice(all, func(i, j int) bool { return all[i].index < all[j].index })
	out := make([]Rejection, len(all))
	for i, r := range all {
		out[i] = r.rejection
	}
	return out
}
