// Package worker runs period export jobs taken off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/rchpass/internal/domain/model"
	"github.com/okian/rchpass/pkg/logger"
	"github.com/okian/rchpass/pkg/metrics"
	"gonum.org/v1/gonum/mat"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Composer builds the recharge array of one stress period.
type Composer interface {
	UpdateRCH(period int) (*mat.Dense, error)
}

// Writer persists one period's array and returns where it went.
type Writer interface {
	Write(ctx context.Context, period int, a mat.Matrix) (string, error)
}

// Reporter receives job results. It must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, r model.Result)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Job
}

// Worker processes export jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// discard drops results.
type discard struct{}

func (discard) Report(context.Context, model.Result) {}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	composer Composer
	writer   Writer
	reporter Reporter
	name     string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, composer Composer, writer Writer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		composer: composer,
		writer:   writer,
		reporter: discard{},
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.reporter.Report(ctx, w.process(ctx, job))
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process composes and writes one period.
func (w *InMemoryWorker) process(ctx context.Context, job model.Job) model.Result {
	start := time.Now()
	res := model.Result{Job: job}
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1e3)
	}()

	a, err := w.composer.UpdateRCH(job.Period)
	if err != nil {
		res.Err = fmt.Errorf("compose period %d: %w", job.Period, err)
	} else if res.Path, err = w.writer.Write(ctx, job.Period, a); err != nil {
		res.Err = fmt.Errorf("write period %d: %w", job.Period, err)
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		metrics.RecordWorkerError()
		metrics.RecordExportError()
		w.logger.Error(ctx, "export job failed", logger.String("job", job.String()), logger.Error(res.Err))
		return res
	}
	metrics.RecordExportWritten()
	w.logger.Debug(ctx, "period exported",
		logger.String("job", job.String()),
		logger.String("path", res.Path),
		logger.Duration("took", res.Duration),
	)
	return res
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, queue Queue, composer Composer, writer Writer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, composer, writer, wopts...)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateWorkerActiveCount(len(p.workers))
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned, which happens once the
// queue is closed and drained, or until ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	defer metrics.UpdateWorkerActiveCount(0)
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("wait for workers: %w", ctx.Err())
		}
	}
	return nil
}

// Shutdown closes the queue and stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return firstErr
}
