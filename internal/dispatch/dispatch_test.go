package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsJobsAcrossWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(ctx, 4, 16)

	var count int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, d.Submit(ctx, func(ctx context.Context) {
			defer wg.Done()
			atomic.AddInt64(&count, 1)
		}))
	}
	wg.Wait()
	d.Close()

	assert.Equal(t, int64(20), count)
}

func TestDispatcherSubmitRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(ctx, 1, 1)

	block := make(chan struct{})
	require.NoError(t, d.Submit(ctx, func(ctx context.Context) { <-block }))
	// Queue capacity 1 is now full with a second, never-dequeued job below.
	require.NoError(t, d.Submit(ctx, func(ctx context.Context) {}))

	submitCtx, submitCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer submitCancel()
	err := d.Submit(submitCtx, func(ctx context.Context) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
	cancel()
}
