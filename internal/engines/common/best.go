package common

import "sync"

// Candidate is one finished trial offered to a BestTracker.
type Candidate[T any] struct {
	Index int
	Score int
	Value T
}

// better reports whether c beats other: lower score first, then lower index.
func (c Candidate[T]) better(other Candidate[T]) bool {
	if c.Score != other.Score {
		return c.Score < other.Score
	}
	return c.Index < other.Index
}

// BestTracker keeps the best candidate seen so far and the lowest index that
// reached a perfect score. It is safe for concurrent use.
type BestTracker[T any] struct {
	mu     sync.RWMutex
	best   Candidate[T]
	found  bool
	zeroAt int
}

// NewBestTracker returns an empty tracker.
func NewBestTracker[T any]() *BestTracker[T] {
	return &BestTracker[T]{zeroAt: -1}
}

// Offer records a candidate and reports whether it became the best.
func (b *BestTracker[T]) Offer(index, score int, value T) bool {
	c := Candidate[T]{Index: index, Score: score, Value: value}

	b.mu.Lock()
	defer b.mu.Unlock()
	if score == 0 && (b.zeroAt < 0 || index < b.zeroAt) {
		b.zeroAt = index
	}
	if b.found && !c.better(b.best) {
		return false
	}
	b.best = c
	b.found = true
	return true
}

// Best returns the best candidate, if any was offered.
func (b *BestTracker[T]) Best() (Candidate[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.best, b.found
}

// ZeroAt returns the lowest index offered with a zero score. Later indices
// can no longer win.
func (b *BestTracker[T]) ZeroAt() (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.zeroAt, b.zeroAt >= 0
}

// Skip reports whether a trial at index can be skipped because an earlier
// trial already reached a zero score.
func (b *BestTracker[T]) Skip(index int) bool {
	zeroAt, ok := b.ZeroAt()
	return ok && index > zeroAt
}
