// Package batch splits large node collections into batches, dispatches the
// batches concurrently and merges their per-node outcomes.
package batch

import (
	"fmt"
	"slices"

	"github.com/chenglch/xcat3client/pkg"
)

// Batch is a contiguous slice of the items of one bulk operation
type Batch[T any] struct {
	Index int
	Items []T
}

// Len returns the number of items in the batch
func (b Batch[T]) Len() int {
	return len(b.Items)
}

// Plan partitions items into shards contiguous batches. The first
// shards-1 batches get len(items)/shards items each and the last batch
// takes the rest, so with fewer items than shards only the last batch is
// non-empty.
func Plan[T any](items []T, shards int) ([]Batch[T], error) {
	if shards <= 0 {
		return nil, pkg.NewInvalidArgument("shards", fmt.Errorf("shard count must be positive, got %d", shards))
	}

	perShard := len(items) / shards
	batches := make([]Batch[T], shards)

	for i := 0; i < shards; i++ {
		start := i * perShard
		end := start + perShard
		if i == shards-1 {
			end = len(items)
		}
		batches[i] = Batch[T]{Index: i, Items: slices.Clone(items[start:end])}
	}

	return batches, nil
}

// Shards returns the number of batches used for n items. Collections up to
// threshold items are sent as one request. Above it the requested count is
// used, or one batch per threshold items when requested is not positive.
func Shards(n, threshold, requested int) int {
	if threshold <= 0 {
		threshold = pkg.BatchThreshold
	}
	if n <= threshold {
		return 1
	}
	if requested > 0 {
		return requested
	}
	return (n + threshold - 1) / threshold
}
