package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/llm-d-incubation/session-matcher/internal/logging"
	"github.com/llm-d-incubation/session-matcher/pkg/core"
)

var (
	// ErrDuplicateSession is returned when two sessions share a normalized name.
	ErrDuplicateSession = errors.New("duplicate session name")
	// ErrDuplicateStudent is returned when two students share an identifier.
	ErrDuplicateStudent = errors.New("duplicate student id")
	// ErrAlreadyRun is returned when Run or Prematch is called after Run.
	ErrAlreadyRun = errors.New("matcher already ran")
)

// Stats counts the transitions of one matching run.
type Stats struct {
	Steps          int `json:"steps" yaml:"steps"`
	Proposals      int `json:"proposals" yaml:"proposals"`
	Displacements  int `json:"displacements" yaml:"displacements"`
	Rejections     int `json:"rejections" yaml:"rejections"`
	UnknownChoices int `json:"unknownChoices" yaml:"unknownChoices"`
	Preseeded      int `json:"preseeded" yaml:"preseeded"`
}

type options struct {
	rng   *rand.Rand
	trace EventFunc
}

// Option configures a Matcher.
type Option func(*options)

// WithSeed shuffles the initial worklist with a PCG source seeded by
// (seed, stream). Equal seeds reproduce equal outcomes.
func WithSeed(seed, stream uint64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewPCG(seed, stream)) }
}

// WithTrace delivers every loop transition to fn.
func WithTrace(fn EventFunc) Option {
	return func(o *options) { o.trace = fn }
}

// Matcher runs deferred acceptance over students and sessions it owns.
type Matcher struct {
	sessions map[string]*core.Session
	// pool is a LIFO worklist. Every student is in exactly one of pool,
	// unassigned, or one session roster.
	pool       []*core.Student
	unassigned []*core.Student

	rng   *rand.Rand
	trace EventFunc
	stats Stats
	ran   bool
}

// NewMatcher takes ownership of students and sessions. Without WithSeed the
// worklist is processed in input order.
func NewMatcher(students []*core.Student, sessions []*core.Session, opts ...Option) (*Matcher, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Matcher{
		sessions: make(map[string]*core.Session, len(sessions)),
		pool:     make([]*core.Student, 0, len(students)),
		rng:      o.rng,
		trace:    o.trace,
	}
	for _, s := range sessions {
		if _, exists := m.sessions[s.Name()]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSession, s.Name())
		}
		m.sessions[s.Name()] = s
	}

	seen := make(map[string]struct{}, len(students))
	for _, st := range students {
		if _, exists := seen[st.ID()]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStudent, st.ID())
		}
		seen[st.ID()] = struct{}{}
	}
	// pushed in reverse so that the first student is popped first
	for i := len(students) - 1; i >= 0; i-- {
		m.pool = append(m.pool, students[i])
	}
	if m.rng != nil {
		m.rng.Shuffle(len(m.pool), func(i, j int) {
			m.pool[i], m.pool[j] = m.pool[j], m.pool[i]
		})
	}
	return m, nil
}

// Pending returns the number of students still in the worklist.
func (m *Matcher) Pending() int { return len(m.pool) }

func (m *Matcher) emit(kind EventKind, session string, student, other *core.Student) {
	if m.trace != nil {
		m.trace(Event{Kind: kind, Session: session, Student: student, Other: other})
	}
}

func (m *Matcher) push(st *core.Student) {
	m.pool = append(m.pool, st)
}

func (m *Matcher) pop() *core.Student {
	last := len(m.pool) - 1
	st := m.pool[last]
	m.pool[last] = nil
	m.pool = m.pool[:last]
	return st
}

// Run drains the worklist and returns the outcome. A roster invariant
// violation aborts the run with an error wrapping core.ErrInvariantViolation.
func (m *Matcher) Run(ctx context.Context) (*Outcome, error) {
	if m.ran {
		return nil, ErrAlreadyRun
	}
	m.ran = true

	logger := logging.FromContext(ctx)
	tracing := logger.V(logging.TRACE).Enabled()

	for len(m.pool) > 0 {
		st := m.pop()
		m.stats.Steps++

		if st.Exhausted() {
			m.unassigned = append(m.unassigned, st)
			m.emit(EventExhaust, "", st, nil)
			if tracing {
				logger.V(logging.TRACE).Info("Student exhausted all choices", "student", st.ID(), "grade", st.Grade())
			}
			continue
		}

		name := st.Choice(st.CurrentChoice())
		sess, ok := m.sessions[name]
		if !ok {
			st.AdvanceChoice()
			m.stats.UnknownChoices++
			m.push(st)
			m.emit(EventSkip, name, st, nil)
			continue
		}
		m.stats.Proposals++

		if sess.HasSpace() {
			if err := sess.Admit(st); err != nil {
				return nil, err
			}
			m.emit(EventAdmit, name, st, nil)
			continue
		}

		worst, err := sess.EvictWorst()
		if err != nil {
			return nil, err
		}
		if st.Grade() > worst.Grade() {
			if err := sess.Admit(st); err != nil {
				return nil, err
			}
			worst.AdvanceChoice()
			m.push(worst)
			m.stats.Displacements++
			m.emit(EventDisplace, name, st, worst)
			if tracing {
				logger.V(logging.TRACE).Info("Student displaced holder",
					"session", name, "student", st.ID(), "grade", st.Grade(),
					"evicted", worst.ID(), "evictedGrade", worst.Grade())
			}
			continue
		}

		// ties favor the incumbent
		if err := sess.Admit(worst); err != nil {
			return nil, err
		}
		st.AdvanceChoice()
		m.push(st)
		m.stats.Rejections++
		m.emit(EventReject, name, st, worst)
	}

	outcome := newOutcome(m.sessions, m.unassigned, m.stats)
	logger.V(logging.DEBUG).Info("Matching completed",
		"steps", m.stats.Steps,
		"displacements", m.stats.Displacements,
		"unassigned", len(outcome.unassigned),
		"score", outcome.score)
	return outcome, nil
}

// Match is the library entry point: it matches students to sessions in one
// trial, optionally pre-seeding at depth presort (0 disables it).
func Match(ctx context.Context, students []*core.Student, sessions []*core.Session, presort int, opts ...Option) (*Outcome, error) {
	m, err := NewMatcher(students, sessions, opts...)
	if err != nil {
		return nil, err
	}
	if presort > 0 {
		placed, err := m.Prematch(presort)
		if err != nil {
			return nil, err
		}
		logging.FromContext(ctx).V(logging.DEBUG).Info("Pre-seeded students",
			"depth", presort, "placed", placed, "pending", m.Pending())
	}
	return m.Run(ctx)
}
