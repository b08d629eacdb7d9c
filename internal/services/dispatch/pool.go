package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many per-item operations a pool runs at
// once. Four keeps fleet-wide status sweeps gentle on the console API
// regardless of fleet size. Exported as a variable so callers can tune it
// (the "concurrency" config key feeds through here).
var DefaultConcurrency = 4

// PoolResult pairs an item with the outcome of its operation. Exactly one
// result is produced per input item, in input order, regardless of how the
// operations interleave.
type PoolResult[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// ForEach applies fn to every item using at most limit concurrent workers
// (capped at len(items); limit <= 0 means DefaultConcurrency).
//
// Workers share a cursor over the item list: each claims the next unclaimed
// index, runs fn, writes the outcome into that item's slot, and loops until
// the list is exhausted. One item's error or panic is recorded as that
// item's failed outcome and never stops the other workers. The call returns
// only once every worker has exited.
//
// There is no completion-order guarantee across items; results are keyed by
// input position, not finish time.
func ForEach[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) []PoolResult[T, R] {
	results := make([]PoolResult[T, R], len(items))
	if len(items) == 0 {
		return results
	}

	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if limit > len(items) {
		limit = len(items)
	}

	var cursor atomic.Int64
	var g errgroup.Group

	for w := 0; w < limit; w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(items) {
					return nil
				}
				results[i] = runOne(ctx, items[i], fn)
			}
		})
	}

	// Workers never return errors; per-item failures live in results.
	_ = g.Wait()
	return results
}

// runOne executes fn for a single item, converting a panic into that item's
// error so one bad item cannot take down the whole batch.
func runOne[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (res PoolResult[T, R]) {
	res.Item = item
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	res.Value, res.Err = fn(ctx, item)
	return res
}
