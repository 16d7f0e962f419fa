package core

import (
	"fmt"
	"strings"
)

// defaultOrder is the order value of a student that has never been admitted.
const defaultOrder int64 = 1

// NormalizeName canonicalizes a session name for comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Student is a participant to be placed in one session.
//
// Identity, grade and choices are fixed at construction. Only the choice
// cursor and the admission order change while a trial runs.
type Student struct {
	id      string
	grade   int
	choices []string

	cursor int
	order  int64
}

// NewStudent creates a student whose choices are normalized with NormalizeName.
func NewStudent(id string, grade int, choices []string) *Student {
	normalized := make([]string, len(choices))
	for i, c := range choices {
		normalized[i] = NormalizeName(c)
	}
	return &Student{
		id:      id,
		grade:   grade,
		choices: normalized,
		order:   defaultOrder,
	}
}

// ID returns the opaque student identifier.
func (s *Student) ID() string { return s.id }

// Grade returns the priority class. Higher grades displace lower ones.
func (s *Student) Grade() int { return s.grade }

// NumChoices returns the length of the preference list.
func (s *Student) NumChoices() int { return len(s.choices) }

// Choices returns a copy of the normalized preference list.
func (s *Student) Choices() []string {
	out := make([]string, len(s.choices))
	copy(out, s.choices)
	return out
}

// CurrentChoice returns the cursor: the index of the next choice to propose to.
func (s *Student) CurrentChoice() int { return s.cursor }

// Choice returns the i-th choice, or the empty string when i is out of range.
func (s *Student) Choice(i int) string {
	if i < 0 || i >= len(s.choices) {
		return ""
	}
	return s.choices[i]
}

// ChoiceIndex returns the rank of the named session in the preference list,
// or -1 when the student never chose it.
func (s *Student) ChoiceIndex(name string) int {
	name = NormalizeName(name)
	for i, c := range s.choices {
		if c == name {
			return i
		}
	}
	return -1
}

// AdvanceChoice moves the cursor to the next choice. It is a no-op once the
// student is exhausted.
func (s *Student) AdvanceChoice() {
	if s.cursor < len(s.choices) {
		s.cursor++
	}
}

// SkipTo moves the cursor forward to index i. Moving backwards is ignored so
// the cursor never decreases.
func (s *Student) SkipTo(i int) {
	if i > len(s.choices) {
		i = len(s.choices)
	}
	if i > s.cursor {
		s.cursor = i
	}
}

// Exhausted reports whether every choice has been tried.
func (s *Student) Exhausted() bool { return s.cursor >= len(s.choices) }

// Order returns the tie-break value stamped at the last admission.
func (s *Student) Order() int64 { return s.order }

// SetOrder stamps the tie-break value. Sessions call it on every admission.
func (s *Student) SetOrder(order int64) { s.order = order }

// Less orders students from most to least displaceable: lower grade first,
// then lower order. The identifier breaks any remaining tie so the relation
// is total.
func (s *Student) Less(other *Student) bool {
	if s.grade != other.grade {
		return s.grade < other.grade
	}
	if s.order != other.order {
		return s.order < other.order
	}
	return s.id < other.id
}

// Clone returns an independent copy carrying the same cursor and order.
func (s *Student) Clone() *Student {
	c := *s
	c.choices = make([]string, len(s.choices))
	copy(c.choices, s.choices)
	return &c
}

// Reset rewinds the cursor and clears the admission order.
func (s *Student) Reset() {
	s.cursor = 0
	s.order = defaultOrder
}

// String returns a compact representation for logs.
func (s *Student) String() string {
	return fmt.Sprintf("sid=%s grade=%d cursor=%d/%d order=%d", s.id, s.grade, s.cursor, len(s.choices), s.order)
}
