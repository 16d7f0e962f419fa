package solver

import (
	"sort"

	"github.com/llm-d-incubation/session-matcher/pkg/core"
)

// Assignment is the final placement of one student. Session is empty and
// Rank is -1 for an unassigned student.
type Assignment struct {
	StudentID string
	Grade     int
	Session   string
	Rank      int
}

// Assigned reports whether the student holds a seat.
func (a Assignment) Assigned() bool { return a.Session != "" }

// Outcome is the state of one finished trial.
type Outcome struct {
	sessions   map[string]*core.Session
	names      []string
	unassigned []*core.Student
	score      int

	Stats Stats
}

func newOutcome(sessions map[string]*core.Session, unassigned []*core.Student, stats Stats) *Outcome {
	names := make([]string, 0, len(sessions))
	for name := range sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Outcome{
		sessions:   sessions,
		names:      names,
		unassigned: unassigned,
		score:      Score(unassigned),
		Stats:      stats,
	}
}

// Score weights unassigned students by grade. Lower is better.
func Score(unassigned []*core.Student) int {
	total := 0
	for _, st := range unassigned {
		total += st.Grade()
	}
	return total
}

// Score returns the weighted sum of unassigned grades.
func (o *Outcome) Score() int { return o.score }

// Unassigned returns the students that exhausted their choices.
func (o *Outcome) Unassigned() []*core.Student {
	out := make([]*core.Student, len(o.unassigned))
	copy(out, o.unassigned)
	return out
}

// Sessions returns every session in name order.
func (o *Outcome) Sessions() []*core.Session {
	out := make([]*core.Session, len(o.names))
	for i, name := range o.names {
		out[i] = o.sessions[name]
	}
	return out
}

// Session looks up a session by name.
func (o *Outcome) Session(name string) (*core.Session, bool) {
	s, ok := o.sessions[core.NormalizeName(name)]
	return s, ok
}

// AssignedCount returns the number of students holding a seat.
func (o *Outcome) AssignedCount() int {
	n := 0
	for _, s := range o.sessions {
		n += s.Size()
	}
	return n
}

// Assignments lists held students session by session in name order, each
// roster from most to least displaceable, followed by unassigned students.
func (o *Outcome) Assignments() []Assignment {
	out := make([]Assignment, 0, o.AssignedCount()+len(o.unassigned))
	for _, name := range o.names {
		for _, st := range o.sessions[name].Roster() {
			out = append(out, Assignment{
				StudentID: st.ID(),
				Grade:     st.Grade(),
				Session:   name,
				Rank:      st.ChoiceIndex(name),
			})
		}
	}
	for _, st := range o.unassigned {
		out = append(out, Assignment{StudentID: st.ID(), Grade: st.Grade(), Rank: -1})
	}
	return out
}

// Placement maps student id to session name, or to the empty string when
// the student is unassigned.
func (o *Outcome) Placement() map[string]string {
	out := make(map[string]string, o.AssignedCount()+len(o.unassigned))
	for _, a := range o.Assignments() {
		out[a.StudentID] = a.Session
	}
	return out
}
