package archive

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
)

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]*v1alpha1.RunSummary
	order []string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*v1alpha1.RunSummary)}
}

func (s *MemoryStore) Save(_ context.Context, run *v1alpha1.RunSummary) (string, error) {
	if run == nil {
		return "", fmt.Errorf("saving run: nil summary")
	}
	stored := run.DeepCopy()
	prepare(stored)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[stored.RunID]; !exists {
		s.order = append(s.order, stored.RunID)
	}
	s.runs[stored.RunID] = stored
	return stored.RunID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*v1alpha1.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run.DeepCopy(), nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]v1alpha1.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]v1alpha1.RunSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.runs[id].DeepCopy())
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// sortNewestFirst orders by CreatedAt descending, keeping insertion order
// among equal timestamps reversed.
func sortNewestFirst(runs []v1alpha1.RunSummary) {
	slices.Reverse(runs)
	slices.SortStableFunc(runs, func(a, b v1alpha1.RunSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
