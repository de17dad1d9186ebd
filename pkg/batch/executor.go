package batch

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/chenglch/xcat3client/pkg"
	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/chenglch/xcat3client/pkg/metrics"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Invoker performs the remote call for one batch and returns the outcome
// reported for each node of the batch.
type Invoker[T any] func(ctx context.Context, b Batch[T]) (map[string]string, error)

// Options configures the dispatch of one bulk operation
type Options struct {
	Operation contrib.Operation
	// Threshold is the item count above which the collection is split.
	Threshold int
	// Shards overrides the computed batch count when positive.
	Shards int
	// MaxWorkers bounds the batches in flight, zero means one per batch.
	MaxWorkers int
	// Timeout bounds the wait for all batches.
	Timeout time.Duration
}

// Result holds the merged outcome of a bulk operation
type Result struct {
	Nodes     map[string]string
	Batches   int
	Completed []int
	Failures  []*BatchFailureError
	// InDoubt maps the index of every abandoned batch to its nodes.
	InDoubt map[int][]string
}

// InDoubtBatches returns the sorted indices of the abandoned batches
func (r *Result) InDoubtBatches() []int {
	return sortedIndices(r.InDoubt)
}

func sortedIndices(batches map[int][]string) []int {
	indices := make([]int, 0, len(batches))
	for index := range batches {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

// InDoubtNodes returns the sorted nodes of the abandoned batches
func (r *Result) InDoubtNodes() []string {
	var nodes []string
	for _, n := range r.InDoubt {
		nodes = append(nodes, n...)
	}
	sort.Strings(nodes)
	return nodes
}

// Executor dispatches batches concurrently with a bounded number of
// requests in flight.
type Executor[T any] struct {
	key        func(T) string
	operation  contrib.Operation
	maxWorkers int
	timeout    time.Duration
}

type outcome struct {
	index   int
	nodes   map[string]string
	err     error
	elapsed time.Duration
}

// NewExecutor creates a new executor. key returns the node name of an item.
func NewExecutor[T any](key func(T) string, opts Options) (*Executor[T], error) {
	if key == nil {
		return nil, pkg.NewInvalidArgument("key", errors.New("key function is required"))
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = pkg.BatchTimeout
	}
	return &Executor[T]{
		key:        key,
		operation:  opts.Operation,
		maxWorkers: opts.MaxWorkers,
		timeout:    timeout,
	}, nil
}

// Execute dispatches every non-empty batch through invoke and waits until
// all of them returned or the timeout elapsed. The returned result always
// holds the outcomes merged so far. The error lists every failed batch as a
// *BatchFailureError and the abandoned batches as one *TimeoutError.
func (e *Executor[T]) Execute(ctx context.Context, batches []Batch[T], invoke Invoker[T]) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result := &Result{
		Nodes:   map[string]string{},
		Batches: len(batches),
		InDoubt: map[int][]string{},
	}

	workers := e.maxWorkers
	if workers <= 0 || workers > len(batches) {
		workers = len(batches)
	}
	if workers == 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))

	// Buffered so that abandoned workers never block on send.
	outcomes := make(chan outcome, len(batches))
	pending := map[int]Batch[T]{}

	for _, b := range batches {
		if b.Len() == 0 {
			result.Completed = append(result.Completed, b.Index)
			continue
		}
		pending[b.Index] = b

		log.WithFields(log.Fields{
			"operation": e.operation,
			"batch":     b.Index,
			"nodes":     b.Len(),
		}).Debug("Dispatching batch")

		go e.dispatch(ctx, sem, b, invoke, outcomes)
	}

	var errs *multierror.Error

	handle := func(o outcome) {
		b := pending[o.index]
		delete(pending, o.index)

		if o.err != nil {
			if ctx.Err() != nil && (errors.Is(o.err, context.DeadlineExceeded) || errors.Is(o.err, context.Canceled)) {
				result.InDoubt[o.index] = e.names(b)
				return
			}
			log.WithField("batch", o.index).Warnf("Batch request failed: %v", o.err)
			metrics.ObserveBatch(e.operation, metrics.BatchFailed, o.elapsed)
			failure := &BatchFailureError{Index: o.index, Nodes: e.names(b), Err: o.err}
			result.Failures = append(result.Failures, failure)
			errs = multierror.Append(errs, failure)
			return
		}

		metrics.ObserveBatch(e.operation, metrics.BatchCompleted, o.elapsed)
		result.Completed = append(result.Completed, o.index)
		for name, value := range o.nodes {
			if previous, ok := result.Nodes[name]; ok {
				log.WithFields(log.Fields{
					"node":     name,
					"batch":    o.index,
					"previous": previous,
				}).Warn("Node reported by more than one batch")
			}
			result.Nodes[name] = value
		}
		log.WithFields(log.Fields{
			"batch":   o.index,
			"nodes":   len(o.nodes),
			"elapsed": o.elapsed,
		}).Debug("Batch completed")
	}

collect:
	for len(pending) > 0 {
		select {
		case o := <-outcomes:
			handle(o)
		case <-ctx.Done():
			// Keep the batches that finished just before the deadline.
			for len(pending) > 0 {
				select {
				case o := <-outcomes:
					handle(o)
				default:
					break collect
				}
			}
		}
	}

	for index, b := range pending {
		result.InDoubt[index] = e.names(b)
	}

	if len(result.InDoubt) > 0 {
		timeoutErr := &TimeoutError{Indices: result.InDoubtBatches(), Err: ctx.Err()}
		for _, nodes := range result.InDoubt {
			timeoutErr.Nodes += len(nodes)
			metrics.ObserveBatch(e.operation, metrics.BatchInDoubt, 0)
		}
		log.Warn(timeoutErr.Error())
		errs = multierror.Append(errs, timeoutErr)
	}

	sort.Ints(result.Completed)
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Index < result.Failures[j].Index
	})

	return result, errs.ErrorOrNil()
}

func (e *Executor[T]) dispatch(ctx context.Context, sem *semaphore.Weighted, b Batch[T], invoke Invoker[T], outcomes chan<- outcome) {
	if err := sem.Acquire(ctx, 1); err != nil {
		outcomes <- outcome{index: b.Index, err: err}
		return
	}
	defer sem.Release(1)

	start := time.Now()
	nodes, err := invoke(ctx, b)
	outcomes <- outcome{index: b.Index, nodes: nodes, err: err, elapsed: time.Since(start)}
}

func (e *Executor[T]) names(b Batch[T]) []string {
	names := make([]string, 0, b.Len())
	for _, item := range b.Items {
		names = append(names, e.key(item))
	}
	return names
}

// Run splits items into batches, executes them and returns the merged
// result. Collections up to opts.Threshold items are sent as one batch.
func Run[T any](ctx context.Context, items []T, key func(T) string, invoke Invoker[T], opts Options) (*Result, error) {
	shards := Shards(len(items), opts.Threshold, opts.Shards)
	batches, err := Plan(items, shards)
	if err != nil {
		return nil, err
	}

	executor, err := NewExecutor(key, opts)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"operation": opts.Operation,
		"items":     len(items),
		"batches":   len(batches),
	}).Debug("Running bulk operation")

	return executor.Execute(ctx, batches, invoke)
}
