package batch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(s string) string { return s }

func okInvoker(ctx context.Context, b Batch[string]) (map[string]string, error) {
	out := make(map[string]string, b.Len())
	for _, name := range b.Items {
		out[name] = "ok"
	}
	return out, nil
}

func TestRunSevenThousandNodesInFourBatches(t *testing.T) {
	var (
		mu    sync.Mutex
		sizes []int
	)
	invoke := func(ctx context.Context, b Batch[string]) (map[string]string, error) {
		mu.Lock()
		sizes = append(sizes, b.Len())
		mu.Unlock()
		return okInvoker(ctx, b)
	}

	names := items(7000)
	result, err := Run(context.Background(), names, identity, invoke, Options{
		Operation: contrib.OperationSetPower,
		Threshold: 3000,
		Shards:    4,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1750, 1750, 1750, 1750}, sizes)
	assert.Equal(t, []int{0, 1, 2, 3}, result.Completed)

	report := ReportFor(result, true)
	assert.Equal(t, "Success: 7000  Total: 7000", report.Summary())
	assert.True(t, report.OK())

	keys := make([]string, 0, len(result.Nodes))
	for k := range result.Nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	expected := append([]string(nil), names...)
	sort.Strings(expected)
	assert.Equal(t, expected, keys)
}

func TestRunBelowThresholdIsSingleRequest(t *testing.T) {
	var calls int32
	invoke := func(ctx context.Context, b Batch[string]) (map[string]string, error) {
		atomic.AddInt32(&calls, 1)
		return okInvoker(ctx, b)
	}
	result, err := Run(context.Background(), items(3000), identity, invoke, Options{Threshold: 3000, Shards: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls)
	assert.Len(t, result.Nodes, 3000)
}

func TestExecuteReportsFailedBatch(t *testing.T) {
	batches, err := Plan(items(40), 4)
	require.NoError(t, err)

	boom := errors.New("service exploded")
	invoke := func(ctx context.Context, b Batch[string]) (map[string]string, error) {
		if b.Index == 2 {
			return nil, boom
		}
		return okInvoker(ctx, b)
	}

	executor, err := NewExecutor(identity, Options{Operation: contrib.OperationUpdate})
	require.NoError(t, err)
	result, err := executor.Execute(context.Background(), batches, invoke)
	require.Error(t, err)
	assert.True(t, IsBatchFailure(err))
	assert.False(t, IsTimeout(err))
	assert.ErrorIs(t, err, boom)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)
	assert.Equal(t, batches[2].Items, result.Failures[0].Nodes)
	assert.Equal(t, []int{0, 1, 3}, result.Completed)
	assert.Len(t, result.Nodes, 30)

	report := ReportFor(result, true)
	assert.Equal(t, "Success: 30  Total: 30", report.Summary())
	assert.False(t, report.OK())
	require.Len(t, report.BatchLines(), 1)
	assert.Contains(t, report.BatchLines()[0], "Batch 2 failed")
}

func TestExecuteTimeoutLeavesBatchesInDoubt(t *testing.T) {
	batches, err := Plan(items(30), 3)
	require.NoError(t, err)

	invoke := func(ctx context.Context, b Batch[string]) (map[string]string, error) {
		if b.Index == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return okInvoker(ctx, b)
	}

	executor, err := NewExecutor(identity, Options{Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	result, err := executor.Execute(context.Background(), batches, invoke)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsBatchFailure(err))

	assert.Equal(t, []int{1}, result.InDoubtBatches())
	assert.Equal(t, batches[1].Items, result.InDoubt[1])
	assert.Len(t, result.Nodes, 20)
	assert.Empty(t, result.Failures)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 10, timeoutErr.Nodes)
	assert.Contains(t, timeoutErr.Error(), "timed out")
}

func TestExecuteAbandonsBlockedBatch(t *testing.T) {
	batches, err := Plan(items(4), 2)
	require.NoError(t, err)

	release := make(chan struct{})
	defer close(release)
	invoke := func(ctx context.Context, b Batch[string]) (map[string]string, error) {
		if b.Index == 0 {
			<-release
		}
		return okInvoker(ctx, b)
	}

	executor, err := NewExecutor(identity, Options{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	result, err := executor.Execute(context.Background(), batches, invoke)
	require.Error(t, err)
	assert.Equal(t, []int{0}, result.InDoubtBatches())
	assert.Equal(t, []int{1}, result.Completed)
}

func TestExecuteBoundsWorkers(t *testing.T) {
	batches, err := Plan(items(12), 6)
	require.NoError(t, err)

	var current, peak int32
	invoke := func(ctx context.Context, b Batch[string]) (map[string]string, error) {
		now := atomic.AddInt32(&current, 1)
		defer atomic.AddInt32(&current, -1)
		for {
			seen := atomic.LoadInt32(&peak)
			if now <= seen || atomic.CompareAndSwapInt32(&peak, seen, now) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return okInvoker(ctx, b)
	}

	executor, err := NewExecutor(identity, Options{MaxWorkers: 2})
	require.NoError(t, err)
	result, err := executor.Execute(context.Background(), batches, invoke)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 12)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestExecuteSkipsEmptyBatches(t *testing.T) {
	batches, err := Plan(items(2), 4)
	require.NoError(t, err)

	var calls int32
	invoke := func(ctx context.Context, b Batch[string]) (map[string]string, error) {
		atomic.AddInt32(&calls, 1)
		return okInvoker(ctx, b)
	}

	executor, err := NewExecutor(identity, Options{})
	require.NoError(t, err)
	result, err := executor.Execute(context.Background(), batches, invoke)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls)
	assert.Equal(t, []int{0, 1, 2, 3}, result.Completed)
	assert.Len(t, result.Nodes, 2)
}

func TestExecuteCollisionLastWriteWins(t *testing.T) {
	batches := []Batch[string]{{Index: 0, Items: []string{"a"}}, {Index: 1, Items: []string{"b"}}}
	invoke := func(ctx context.Context, b Batch[string]) (map[string]string, error) {
		return map[string]string{"shared": "ok", b.Items[0]: "ok"}, nil
	}
	executor, err := NewExecutor(identity, Options{})
	require.NoError(t, err)
	result, err := executor.Execute(context.Background(), batches, invoke)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 3)
	assert.Equal(t, "ok", result.Nodes["shared"])
}

func TestNewExecutorRequiresKey(t *testing.T) {
	_, err := NewExecutor[string](nil, Options{})
	require.Error(t, err)
}
