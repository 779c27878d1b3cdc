package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("smtp down")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "welcome"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueueDropsAfterMaxRetries(t *testing.T) {
	var calls int32
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("rejected")
	}, QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "reset"}))
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("mail", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "1"}))
	assert.Error(t, q.TryEnqueue(Job{ID: "1"}))
}

func TestTryEnqueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.TryEnqueue(Job{ID: "1"}))
	assert.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.TryEnqueue(Job{ID: "2"}))
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "3"}), ErrQueueFull)
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		if job.ID == "1" {
			<-release
		}
		atomic.AddInt32(&calls, 1)
		return nil
	}, QueueConfig{Workers: 1, DrainTimeout: 2 * time.Second})
	q.Start(context.Background())

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "welcome"}))
	}

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	close(release)

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("stop never returned")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, q.Pending())
	assert.Error(t, q.Enqueue(Job{ID: "4"}))
}

func TestQueueStopDropsJobsLeftAfterDrainTimeout(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond, DrainTimeout: 20 * time.Millisecond, Logger: zap.New(core)})
	q.Start(context.Background())

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "reset"}))
	}
	q.Stop()

	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, 1, logs.FilterMessage("queue drain timed out").Len())
	dropped := logs.FilterMessage("job dropped on shutdown")
	assert.Equal(t, 3, dropped.Len())
	ids := map[string]bool{}
	for _, entry := range dropped.All() {
		ids[entry.ContextMap()["job_id"].(string)] = true
	}
	assert.Len(t, ids, 3)
}

func TestMuxDispatchesByType(t *testing.T) {
	mux := NewMux()
	var got string
	mux.Handle("welcome", func(ctx context.Context, job Job) error {
		got = job.ID
		return nil
	})

	require.NoError(t, mux.Dispatch(context.Background(), Job{ID: "42", Type: "welcome"}))
	assert.Equal(t, "42", got)
	assert.Error(t, mux.Dispatch(context.Background(), Job{Type: "unknown"}))
}
