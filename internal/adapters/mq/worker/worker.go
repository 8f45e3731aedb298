package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/padflow/internal/adapters/mq/queue"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/pkg/logger"
	"github.com/okian/padflow/pkg/metrics"
)

const (
	defaultMetricsInterval = 5 * time.Second
	poolShutdownTimeout    = 30 * time.Second
)

// Solver runs one solve. A Solver is used by a single job only.
type Solver interface {
	Solve(ctx context.Context, perf model.Performance, overrides model.Overrides) (model.EngineResult, error)
}

// SolverFactory builds a fresh Solver for a job's sections.
type SolverFactory func(sections []model.SectionMap) (Solver, error)

// Publisher stores finished results. It reports false when the record was
// superseded by a newer revision of the same project.
type Publisher interface {
	Publish(ctx context.Context, rec model.SolveRecord) (bool, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker pulls jobs from a Queue, solves them and publishes the result.
type InMemoryWorker struct {
	queue     Queue
	newSolver SolverFactory
	publisher Publisher
	name      string
	busy      *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, newSolver SolverFactory, pub Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		newSolver: newSolver,
		publisher: pub,
		name:      "worker",
		busy:      &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run consumes jobs until ctx ends, Shutdown is called or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "job failed", logger.String("job_id", j.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error { //nolint:gocritic // jobs travel by value
	w.busy.Add(1)
	defer w.busy.Add(-1)

	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s, err := w.newSolver(j.Request.Sections)
	if err != nil {
		w.fail("invalid_config")
		return fmt.Errorf("job %s: %w", j.ID, err)
	}

	solveStart := time.Now()
	res, err := s.Solve(ctx, j.Request.Performance, j.Request.Overrides)
	if err != nil {
		w.fail("invalid_input")
		return fmt.Errorf("job %s: %w", j.ID, err)
	}
	metrics.RecordSolve(float64(time.Since(solveStart).Microseconds())/1000,
		len(res.DebugEvents), res.UnplayableCount, res.HardCount, res.Score)

	accepted, err := w.publisher.Publish(ctx, model.SolveRecord{
		JobID:     j.ID,
		ProjectID: j.ProjectID,
		Revision:  j.Revision,
		Result:    res,
		SolvedAt:  time.Now().UTC(),
	})
	if err != nil {
		w.fail("publish_error")
		return fmt.Errorf("job %s: publish: %w", j.ID, err)
	}
	if !accepted {
		w.logger.Debug(ctx, "stale result discarded",
			logger.String("job_id", j.ID),
			logger.String("project_id", j.ProjectID),
			logger.Int64("revision", j.Revision))
	}
	return nil
}

func (w *InMemoryWorker) fail(reason string) {
	metrics.RecordSolveError()
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", reason)
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers         []*InMemoryWorker
	queue           Queue
	busy            atomic.Int64
	metricsInterval time.Duration

	shutdown chan struct{}
	logger   logger.Logger
}

// NewPool creates workerCount workers; workerCount < 1 uses one per CPU.
func NewPool(workerCount int, q Queue, newSolver SolverFactory, pub Publisher, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:         make([]*InMemoryWorker, workerCount),
		queue:           q,
		metricsInterval: defaultMetricsInterval,
		shutdown:        make(chan struct{}),
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.workers {
		w := NewInMemoryWorker(q, newSolver, pub,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		w.busy = &p.busy
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy returns the number of workers currently processing a job.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Start launches every worker and the gauge updater.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(p.metricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	busy := p.Busy()
	metrics.UpdateWorkerActiveCount(busy)
	metrics.UpdateWorkerIdleCount(len(p.workers) - busy)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.UpdateSystemMemoryUsage(ms.HeapInuse)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	waitCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-waitCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, waitCtx.Err())
		}
	}
	return nil
}
