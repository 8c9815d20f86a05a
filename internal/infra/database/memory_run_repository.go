package database

import (
	"context"
	"sort"
	"sync"

	"qualification_reminder/internal/domain/run"

	"github.com/google/uuid"
)

// MemoryRunRepository keeps run history for the lifetime of the process.
// It is used when no DATABASE_URL is configured.
type MemoryRunRepository struct {
	mu   sync.Mutex
	runs map[uuid.UUID]run.Run
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[uuid.UUID]run.Run)}
}

func (r *MemoryRunRepository) Create(ctx context.Context, rn *run.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[rn.ID] = clone(rn)
	return nil
}

func (r *MemoryRunRepository) Update(ctx context.Context, rn *run.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[rn.ID]; !ok {
		return run.ErrRunNotFound
	}
	r.runs[rn.ID] = clone(rn)
	return nil
}

func (r *MemoryRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rn, ok := r.runs[id]
	if !ok {
		return nil, run.ErrRunNotFound
	}
	out := clone(&rn)
	return &out, nil
}

func (r *MemoryRunRepository) ListRecent(ctx context.Context, kind run.Kind, limit int) ([]*run.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var runs []*run.Run
	for _, rn := range r.runs {
		if kind != "" && rn.Kind != kind {
			continue
		}
		c := clone(&rn)
		runs = append(runs, &c)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func clone(rn *run.Run) run.Run {
	c := *rn
	c.Failures = append([]string(nil), rn.Failures...)
	return c
}
