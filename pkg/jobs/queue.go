package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by TryEnqueue when the buffer has no free slot.
var ErrQueueFull = errors.New("queue buffer full")

// Job is a unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures the worker pool. DrainTimeout bounds how long Stop keeps working the buffer.
type QueueConfig struct {
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	DrainTimeout time.Duration
	Logger       *zap.Logger
}

const defaultDrainTimeout = 5 * time.Second

// Queue dispatches jobs to a fixed pool of goroutines with delayed retries.
type Queue struct {
	name    string
	handler Handler

	workers      int
	maxRetries   int
	retryDelay   time.Duration
	drainTimeout time.Duration
	logger       *zap.Logger

	jobs     chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	stopping chan struct{}
	wg       sync.WaitGroup
	retries  sync.WaitGroup
	mu       sync.Mutex
	started  bool

	pending   int64
	processed uint64
	dropped   uint64
}

// NewQueue builds a queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:         name,
		handler:      handler,
		workers:      cfg.Workers,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		drainTimeout: cfg.DrainTimeout,
		logger:       cfg.Logger.With(zap.String("queue", name)),
		jobs:         make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.stopping = make(chan struct{})
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop refuses new jobs, lets the workers drain the buffer for up to DrainTimeout, then cancels them.
// Jobs still buffered or awaiting a retry at that point are logged and counted as dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	close(q.stopping)
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(q.drainTimeout):
		q.logger.Warn("queue drain timed out", zap.Duration("timeout", q.drainTimeout), zap.Int("buffered", len(q.jobs)))
	}
	q.cancel()
	<-drained
	q.retries.Wait()

	abandoned := q.discardBuffered()
	q.logger.Info("queue stopped",
		zap.Uint64("processed", atomic.LoadUint64(&q.processed)),
		zap.Uint64("dropped", atomic.LoadUint64(&q.dropped)),
		zap.Int("abandoned", abandoned),
	)
}

// Enqueue blocks until the job is buffered or the queue stops.
func (q *Queue) Enqueue(job Job) error {
	stopping, err := q.running()
	if err != nil {
		return err
	}
	job = stamp(job)
	atomic.AddInt64(&q.pending, 1)
	select {
	case <-stopping:
		atomic.AddInt64(&q.pending, -1)
		return fmt.Errorf("queue %s stopped", q.name)
	case q.jobs <- job:
		return nil
	}
}

// TryEnqueue buffers the job without blocking the caller.
func (q *Queue) TryEnqueue(job Job) error {
	if _, err := q.running(); err != nil {
		return err
	}
	job = stamp(job)
	atomic.AddInt64(&q.pending, 1)
	select {
	case q.jobs <- job:
		return nil
	default:
		atomic.AddInt64(&q.pending, -1)
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// Pending reports jobs buffered or waiting for a retry.
func (q *Queue) Pending() int {
	return int(atomic.LoadInt64(&q.pending))
}

func (q *Queue) running() (<-chan struct{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return nil, fmt.Errorf("queue %s not started", q.name)
	}
	return q.stopping, nil
}

func stamp(job Job) Job {
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	return job
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case <-q.stopping:
			q.drain()
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

// drain works through whatever is buffered until it is empty or the queue is cancelled.
func (q *Queue) drain() {
	for q.ctx.Err() == nil {
		select {
		case job := <-q.jobs:
			q.run(job)
		default:
			return
		}
	}
}

func (q *Queue) discardBuffered() int {
	n := 0
	for {
		select {
		case job := <-q.jobs:
			n++
			q.dropOnShutdown(job, "unprocessed")
		default:
			return n
		}
	}
}

func (q *Queue) dropOnShutdown(job Job, reason string) {
	atomic.AddInt64(&q.pending, -1)
	atomic.AddUint64(&q.dropped, 1)
	q.logger.Warn("job dropped on shutdown",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.String("reason", reason),
	)
}

func (q *Queue) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job panicked", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Any("panic", r))
			atomic.AddInt64(&q.pending, -1)
			atomic.AddUint64(&q.dropped, 1)
		}
	}()
	if err := q.handler(q.ctx, job); err != nil {
		q.retry(job, err)
		return
	}
	atomic.AddInt64(&q.pending, -1)
	atomic.AddUint64(&q.processed, 1)
}

func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		atomic.AddInt64(&q.pending, -1)
		atomic.AddUint64(&q.dropped, 1)
		q.logger.Error("job exceeded retries", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		return
	}
	select {
	case <-q.stopping:
		q.logger.Warn("job failed during shutdown", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		q.dropOnShutdown(job, "retry skipped")
		return
	default:
	}
	q.logger.Warn("job failed, retrying", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))

	q.retries.Add(1)
	go func(j Job) {
		defer q.retries.Done()
		timer := time.NewTimer(q.retryDelay * time.Duration(j.Attempt))
		defer timer.Stop()
		select {
		case <-q.stopping:
			q.dropOnShutdown(j, "retry pending")
		case <-timer.C:
			select {
			case q.jobs <- j:
			case <-q.stopping:
				q.dropOnShutdown(j, "retry pending")
			}
		}
	}(job)
}
