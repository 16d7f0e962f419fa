package core

import (
	"fmt"

	"github.com/google/btree"
)

// rosterDegree is the B-tree degree used for rosters. Rosters are small, so a
// low degree keeps nodes compact.
const rosterDegree = 8

// Session is a capacity-limited target of assignment.
//
// The roster is kept ordered by Student.Less so the most displaceable holder
// is always at the front. Iteration over the roster never mutates it.
type Session struct {
	name     string
	capacity int

	roster *btree.BTreeG[*Student]
	// orderCounter is stamped on the next admission and then decremented.
	orderCounter int64
}

// NewSession creates an empty session. The name is normalized with
// NormalizeName.
func NewSession(name string, capacity int) (*Session, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("session %q: %w, got %d", name, ErrInvalidCapacity, capacity)
	}
	return &Session{
		name:     NormalizeName(name),
		capacity: capacity,
		roster:   newRoster(),
	}, nil
}

func newRoster() *btree.BTreeG[*Student] {
	return btree.NewG(rosterDegree, func(a, b *Student) bool { return a.Less(b) })
}

// Name returns the normalized session name.
func (s *Session) Name() string { return s.name }

// Capacity returns the fixed number of seats.
func (s *Session) Capacity() int { return s.capacity }

// Size returns the number of students currently held.
func (s *Session) Size() int { return s.roster.Len() }

// Space returns the number of free seats.
func (s *Session) Space() int { return s.capacity - s.roster.Len() }

// HasSpace reports whether another student can be admitted without eviction.
func (s *Session) HasSpace() bool { return s.roster.Len() < s.capacity }

// Admit stamps the student with a fresh order value and adds it to the roster.
// Admitting into a full session is an invariant violation.
func (s *Session) Admit(student *Student) error {
	if !s.HasSpace() {
		return fmt.Errorf("%w: admit %s into %q: %w", ErrInvariantViolation, student.ID(), s.name, ErrCapacityExceeded)
	}
	student.SetOrder(s.orderCounter)
	s.orderCounter--
	s.roster.ReplaceOrInsert(student)
	return nil
}

// Worst returns the most displaceable holder without removing it.
func (s *Session) Worst() (*Student, bool) {
	return s.roster.Min()
}

// EvictWorst removes and returns the most displaceable holder. The caller is
// responsible for advancing the evicted student's cursor.
func (s *Session) EvictWorst() (*Student, error) {
	worst, ok := s.roster.DeleteMin()
	if !ok {
		return nil, fmt.Errorf("%w: evict from %q: %w", ErrInvariantViolation, s.name, ErrEmptySession)
	}
	return worst, nil
}

// Roster returns the holders from most to least displaceable.
func (s *Session) Roster() []*Student {
	out := make([]*Student, 0, s.roster.Len())
	s.roster.Ascend(func(st *Student) bool {
		out = append(out, st)
		return true
	})
	return out
}

// Empty returns a session with the same name and capacity and no holders.
func (s *Session) Empty() *Session {
	return &Session{
		name:     s.name,
		capacity: s.capacity,
		roster:   newRoster(),
	}
}

// String returns a compact representation for logs.
func (s *Session) String() string {
	return fmt.Sprintf("%s %d/%d", s.name, s.roster.Len(), s.capacity)
}
