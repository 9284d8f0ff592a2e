package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one file waiting to be imported.
type Job struct {
	Path       string
	EnqueuedAt time.Time
}

// Handler processes a single job. The context carries the per-job timeout and is
// cancelled with the queue's parent context or by an interrupted Shutdown.
type Handler func(ctx context.Context, job Job)

// Queue fans jobs out to a fixed set of workers. Enqueue blocks when the buffer is full.
type Queue struct {
	ctx     context.Context
	cancel  context.CancelFunc
	handle  Handler
	logger  *zap.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewQueue starts the workers immediately. Job contexts derive from ctx. Call Shutdown
// to drain them.
func NewQueue(ctx context.Context, handle Handler, logger *zap.Logger, opts ...Option) *Queue {
	base, cancel := context.WithCancel(ctx)
	q := &Queue{
		ctx:     base,
		cancel:  cancel,
		handle:  handle,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("batch.worker.start", zap.Int("worker_id", workerID))

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
					q.handle(ctx, job)
					cancel()
				}

				q.logger.Debug("batch.worker.stop", zap.Int("worker_id", workerID))
			}(i + 1)
		}
	})
}

// Enqueue hands a job to the workers, waiting for buffer space or ctx cancellation.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("batch.enqueue.closed", zap.String("path", job.Path))
		return ErrQueueClosed
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return nil
	default:
	}
	q.logger.Debug("batch.enqueue.backpressure", zap.String("path", job.Path))
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for the workers to finish the buffered ones.
// If ctx ends first, in-flight and remaining jobs are cancelled and Shutdown still waits
// for the workers to return before reporting ctx.Err().
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-done:
		q.cancel()
		q.logger.Debug("batch.shutdown.drained")
		return nil
	case <-ctx.Done():
	}
	q.logger.Warn("batch.shutdown.interrupted")
	q.cancel()
	<-done
	return ctx.Err()
}
