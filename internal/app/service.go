// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/okian/padflow/internal/adapters/mq/queue"
	workerpool "github.com/okian/padflow/internal/adapters/mq/worker"
	"github.com/okian/padflow/internal/adapters/repository"
	"github.com/okian/padflow/internal/domain/dedupe"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/solver"
	"github.com/okian/padflow/internal/domain/tuning"
	"github.com/okian/padflow/pkg/logger"
	"github.com/okian/padflow/pkg/metrics"
)

// ErrNotStarted is returned by operations that need a running service.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the solving service.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   *jobqueue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	constants   tuning.Constants
	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of solver workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many job IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConstants sets the tuning every solve runs with.
func WithConstants(c tuning.Constants) Option { //nolint:gocritic // applied once at construction
	return func(s *Service) {
		s.constants = c
	}
}

// WithStore sets the result store. The caller keeps ownership and closes it.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		constants:   tuning.Default(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

// Start validates the tuning and starts the queue and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := s.constants.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting padflow service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.newSolver, s.store,
		workerpool.WithPoolLogger(s.logger))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "padflow service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop stops accepting jobs, lets queued jobs finish and waits for the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping padflow service...")

	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "padflow service stopped")
	return err
}

func (s *Service) newSolver(sections []model.SectionMap) (workerpool.Solver, error) {
	return solver.New(sections,
		solver.WithConstants(s.constants),
		solver.WithLogger(s.logger.Named("solver")),
	)
}

// Solve runs a request synchronously on a fresh solver.
func (s *Service) Solve(ctx context.Context, req model.SolveRequest) (model.EngineResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return model.EngineResult{}, ErrNotStarted
	}

	sv, err := s.newSolver(req.Sections)
	if err != nil {
		metrics.RecordSolveError()
		return model.EngineResult{}, err
	}
	start := time.Now()
	res, err := sv.Solve(ctx, req.Performance, req.Overrides)
	if err != nil {
		metrics.RecordSolveError()
		return model.EngineResult{}, err
	}
	metrics.RecordSolve(float64(time.Since(start).Microseconds())/1000,
		len(res.DebugEvents), res.UnplayableCount, res.HardCount, res.Score)
	return res, nil
}

// SeenAndRecord reports whether a job ID was already submitted and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord forgets a job ID so it can be resubmitted.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of remembered job IDs.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a job for asynchronous solving.
func (s *Service) Enqueue(ctx context.Context, j model.Job) bool { //nolint:gocritic // jobs travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}
	ok := s.queue.Enqueue(ctx, j)
	s.logger.Debug(ctx, "job submitted",
		logger.String("job_id", j.ID),
		logger.String("project_id", j.ProjectID),
		logger.Int64("revision", j.Revision),
		logger.Int("events", len(j.Request.Performance.Events)),
		logger.Bool("accepted", ok),
	)
	return ok
}

// Latest returns the newest published result for a project.
func (s *Service) Latest(ctx context.Context, projectID string) (model.SolveRecord, error) {
	return s.store.Latest(ctx, projectID)
}

// Projects lists the projects holding a result.
func (s *Service) Projects(ctx context.Context) ([]string, error) {
	return s.store.Projects(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"projects":    s.store.Count(ctx),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["busyWorkers"] = s.pool.Busy()
		stats["seenJobs"] = s.deduper.Size()
	}
	return stats
}
