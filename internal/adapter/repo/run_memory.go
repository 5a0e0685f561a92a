package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"contentgen/internal/domain"
)

// RunRepositoryMemory keeps runs in process memory. It backs the API when no
// database is configured.
type RunRepositoryMemory struct {
	mu   sync.RWMutex
	runs map[string]domain.RunRecord
	now  func() time.Time
}

// NewRunRepositoryMemory creates an empty in-memory run repository.
func NewRunRepositoryMemory() *RunRepositoryMemory {
	return &RunRepositoryMemory{
		runs: map[string]domain.RunRecord{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *RunRepositoryMemory) Create(_ context.Context, run *domain.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("repo: run %s already exists", run.ID)
	}
	rec := *run
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	rec.UpdatedAt = rec.CreatedAt
	r.runs[rec.ID] = rec
	return nil
}

func (r *RunRepositoryMemory) UpdateStatus(_ context.Context, runID string, status domain.RunStatus, errMsg *string, summary *domain.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.runs[runID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = r.now()
	if errMsg != nil {
		rec.Error = *errMsg
	}
	if summary != nil {
		rec.Summary = summary
	}
	r.runs[runID] = rec
	return nil
}

func (r *RunRepositoryMemory) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

var _ domain.RunRepository = (*RunRepositoryMemory)(nil)
