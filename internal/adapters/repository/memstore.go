package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/pkg/metrics"
)

const memoryBackend = "memory"

// MemoryStore is an in-process Store. Results are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]model.SolveRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]model.SolveRecord)}
}

func (s *MemoryStore) Publish(_ context.Context, rec model.SolveRecord) (bool, error) { //nolint:gocritic // records travel by value
	if rec.ProjectID == "" {
		return false, fmt.Errorf("%w: empty", ErrInvalidProject)
	}
	start := time.Now()
	defer observe(memoryBackend, "publish", start)

	s.mu.Lock()
	cur, ok := s.results[rec.ProjectID]
	accepted := !ok || rec.Revision >= cur.Revision
	if accepted {
		s.results[rec.ProjectID] = rec
	}
	n := len(s.results)
	s.mu.Unlock()

	metrics.RecordResultPublished(accepted)
	metrics.UpdateResultsStored(n)
	return accepted, nil
}

func (s *MemoryStore) Latest(_ context.Context, projectID string) (model.SolveRecord, error) {
	start := time.Now()
	defer observe(memoryBackend, "latest", start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.results[projectID]
	if !ok {
		return model.SolveRecord{}, fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	return rec, nil
}

func (s *MemoryStore) Projects(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.results))
	for id := range s.results {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}
