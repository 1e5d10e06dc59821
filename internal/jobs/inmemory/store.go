package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/antonw/duitbot/internal/jobs"
)

// Store keeps job state in memory, safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ExportJob
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.ExportJob)}
}

// Save stores a copy of the job keyed by ID.
func (s *Store) Save(ctx context.Context, job *jobs.ExportJob) error {
	if job.ID == "" {
		return fmt.Errorf("save job: ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

// Get returns a copy of the job, or an error when unknown.
func (s *Store) Get(ctx context.Context, id string) (*jobs.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	copied := *job
	return &copied, nil
}

var _ jobs.Store = (*Store)(nil)
