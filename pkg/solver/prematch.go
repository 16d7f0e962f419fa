package solver

import (
	"github.com/llm-d-incubation/session-matcher/pkg/core"
)

// firstResolvable returns the index and session of the first choice at or
// after the cursor that names a known session.
func (m *Matcher) firstResolvable(st *core.Student) (int, *core.Session) {
	for i := st.CurrentChoice(); i < st.NumChoices(); i++ {
		if sess, ok := m.sessions[st.Choice(i)]; ok {
			return i, sess
		}
	}
	return -1, nil
}

// Prematch pre-places students before Run.
//
// A session is uncontested when the pending students listing it at any
// remaining rank fit in its free seats. Such a session never rejects or
// evicts anybody, so every pending student whose first resolvable choice is
// an uncontested session, at a rank below topN, is admitted right away and
// ends there exactly as it would in the loop. It returns the number of
// students placed.
func (m *Matcher) Prematch(topN int) (int, error) {
	if m.ran {
		return 0, ErrAlreadyRun
	}
	if topN <= 0 {
		return 0, nil
	}

	demand := make(map[string]int, len(m.sessions))
	for _, st := range m.pool {
		listed := make(map[string]struct{}, st.NumChoices())
		for i := st.CurrentChoice(); i < st.NumChoices(); i++ {
			name := st.Choice(i)
			if _, ok := m.sessions[name]; !ok {
				continue
			}
			if _, dup := listed[name]; dup {
				continue
			}
			listed[name] = struct{}{}
			demand[name]++
		}
	}

	uncontested := make(map[string]bool, len(demand))
	for name, count := range demand {
		uncontested[name] = count <= m.sessions[name].Space()
	}

	placed := 0
	kept := m.pool[:0]
	for _, st := range m.pool {
		idx, sess := m.firstResolvable(st)
		if sess == nil || idx >= topN || !uncontested[sess.Name()] {
			kept = append(kept, st)
			continue
		}
		m.stats.UnknownChoices += idx - st.CurrentChoice()
		st.SkipTo(idx)
		if err := sess.Admit(st); err != nil {
			return placed, err
		}
		placed++
		m.emit(EventPreseed, sess.Name(), st, nil)
	}
	for i := len(kept); i < len(m.pool); i++ {
		m.pool[i] = nil
	}
	m.pool = kept
	m.stats.Preseeded += placed
	return placed, nil
}

// Tally counts, for every known session, how many times students list it at
// any rank. Choices naming unknown sessions are ignored.
func Tally(students []*core.Student, sessions []*core.Session) map[string]int {
	tallies := make(map[string]int, len(sessions))
	for _, s := range sessions {
		tallies[s.Name()] = 0
	}
	for _, st := range students {
		for i := 0; i < st.NumChoices(); i++ {
			name := st.Choice(i)
			if _, ok := tallies[name]; ok {
				tallies[name]++
			}
		}
	}
	return tallies
}
