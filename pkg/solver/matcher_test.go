package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d-incubation/session-matcher/pkg/core"
)

func mustSession(name string, capacity int) *core.Session {
	s, err := core.NewSession(name, capacity)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func rosterIDs(s *core.Session) []string {
	var out []string
	for _, st := range s.Roster() {
		out = append(out, st.ID())
	}
	return out
}

// randomProblem builds n students over k sessions with lists of up to depth
// choices, some of which name sessions that do not exist.
func randomProblem(r *rand.Rand, n, k, depth int) ([]*core.Student, []*core.Session) {
	sessions := make([]*core.Session, k)
	for i := range sessions {
		sessions[i] = mustSession(fmt.Sprintf("s%d", i), 1+r.IntN(3))
	}
	students := make([]*core.Student, n)
	for i := range students {
		choices := make([]string, r.IntN(depth+1))
		for j := range choices {
			if r.IntN(10) == 0 {
				choices[j] = "ghost"
				continue
			}
			choices[j] = fmt.Sprintf("s%d", r.IntN(k))
		}
		students[i] = core.NewStudent(fmt.Sprintf("st%03d", i), 9+r.IntN(4), choices)
	}
	return students, sessions
}

func totalChoices(students []*core.Student) int {
	n := 0
	for _, st := range students {
		n += st.NumChoices()
	}
	return n
}

func totalCapacity(sessions []*core.Session) int {
	n := 0
	for _, s := range sessions {
		n += s.Capacity()
	}
	return n
}

// expectStable checks that no student prefers a session that has space or
// holds someone with a strictly lower grade.
func expectStable(outcome *Outcome, students []*core.Student) {
	placement := outcome.Placement()
	for _, st := range students {
		limit := st.NumChoices()
		if held := placement[st.ID()]; held != "" {
			limit = st.ChoiceIndex(held)
		}
		for i := 0; i < limit; i++ {
			sess, ok := outcome.Session(st.Choice(i))
			if !ok {
				continue
			}
			Expect(sess.HasSpace()).To(BeFalse(), "student %s skipped %s with free seats", st.ID(), sess.Name())
			worst, _ := sess.Worst()
			Expect(worst.Grade()).To(BeNumerically(">=", st.Grade()),
				"student %s outranks holder %s of %s", st.ID(), worst.ID(), sess.Name())
		}
	}
}

var _ = Describe("Matcher", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with equal grades competing for single seats", func() {
		It("should place one student in each session", func() {
			students := []*core.Student{
				core.NewStudent("s1", 5, []string{"A", "B"}),
				core.NewStudent("s2", 5, []string{"A", "B"}),
			}
			sessions := []*core.Session{mustSession("A", 1), mustSession("B", 1)}

			outcome, err := Match(ctx, students, sessions, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Unassigned()).To(BeEmpty())
			Expect(outcome.Score()).To(Equal(0))
			Expect(outcome.Placement()).To(Equal(map[string]string{"s1": "a", "s2": "b"}))
			Expect(outcome.Stats.Rejections).To(Equal(1))
			Expect(outcome.Stats.Displacements).To(BeZero())
		})

		It("should fill both sessions under any shuffle", func() {
			for seed := uint64(0); seed < 20; seed++ {
				students := []*core.Student{
					core.NewStudent("s1", 5, []string{"A", "B"}),
					core.NewStudent("s2", 5, []string{"A", "B"}),
				}
				sessions := []*core.Session{mustSession("A", 1), mustSession("B", 1)}

				outcome, err := Match(ctx, students, sessions, 0, WithSeed(seed, 0))
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.Unassigned()).To(BeEmpty())
				Expect(outcome.AssignedCount()).To(Equal(2))
			}
		})
	})

	Context("with a higher grade proposing to a full session", func() {
		It("should displace the lower grade holder", func() {
			x := core.NewStudent("X", 3, []string{"R"})
			y := core.NewStudent("Y", 9, []string{"R"})
			r := mustSession("R", 1)

			outcome, err := Match(ctx, []*core.Student{x, y}, []*core.Session{r}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rosterIDs(r)).To(Equal([]string{"Y"}))
			Expect(outcome.Unassigned()).To(ConsistOf(x))
			Expect(x.Exhausted()).To(BeTrue())
			Expect(x.CurrentChoice()).To(Equal(1))
			Expect(outcome.Score()).To(Equal(3))
			Expect(outcome.Stats.Displacements).To(Equal(1))
		})

		It("should keep the incumbent on a tie", func() {
			first := core.NewStudent("first", 10, []string{"R"})
			second := core.NewStudent("second", 10, []string{"R"})
			r := mustSession("R", 1)

			outcome, err := Match(ctx, []*core.Student{first, second}, []*core.Session{r}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rosterIDs(r)).To(Equal([]string{"first"}))
			Expect(outcome.Unassigned()).To(ConsistOf(second))
		})

		It("should evict the latest admitted of equal grade", func() {
			early := core.NewStudent("early", 9, []string{"R", "Other"})
			late := core.NewStudent("late", 9, []string{"R", "Other"})
			senior := core.NewStudent("senior", 12, []string{"R"})
			r := mustSession("R", 2)
			other := mustSession("Other", 1)

			outcome, err := Match(ctx, []*core.Student{early, late, senior}, []*core.Session{r, other}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Placement()).To(Equal(map[string]string{
				"early":  "r",
				"late":   "other",
				"senior": "r",
			}))
		})
	})

	Context("with a choice naming no session", func() {
		It("should leave the student unassigned after one advance", func() {
			st := core.NewStudent("solo", 11, []string{"MathClub"})

			outcome, err := Match(ctx, []*core.Student{st}, nil, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Unassigned()).To(ConsistOf(st))
			Expect(st.CurrentChoice()).To(Equal(1))
			Expect(outcome.Stats.UnknownChoices).To(Equal(1))
			Expect(outcome.Stats.Proposals).To(BeZero())
		})

		It("should fall through to the next known choice", func() {
			st := core.NewStudent("solo", 11, []string{"MathClub", "Chess"})
			chess := mustSession("Chess", 1)

			outcome, err := Match(ctx, []*core.Student{st}, []*core.Session{chess}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Placement()).To(Equal(map[string]string{"solo": "chess"}))
			Expect(outcome.Assignments()[0].Rank).To(Equal(1))
		})
	})

	Context("with more students than seats", func() {
		It("should terminate with unassigned students", func() {
			students := []*core.Student{
				core.NewStudent("a", 9, []string{"R", "S"}),
				core.NewStudent("b", 10, []string{"S", "R"}),
				core.NewStudent("c", 11, []string{"R"}),
				core.NewStudent("d", 12, []string{"S"}),
				core.NewStudent("e", 12, nil),
			}
			sessions := []*core.Session{mustSession("R", 1), mustSession("S", 1)}

			outcome, err := Match(ctx, students, sessions, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Placement()).To(Equal(map[string]string{
				"a": "", "b": "", "c": "r", "d": "s", "e": "",
			}))
			Expect(outcome.Score()).To(Equal(9 + 10 + 12))
			for _, s := range outcome.Sessions() {
				Expect(s.Size()).To(BeNumerically("<=", s.Capacity()))
			}
		})
	})

	Context("with invalid input", func() {
		It("should reject duplicate session names", func() {
			_, err := NewMatcher(nil, []*core.Session{mustSession("Chess", 1), mustSession(" chess ", 2)})
			Expect(errors.Is(err, ErrDuplicateSession)).To(BeTrue())
		})

		It("should reject duplicate student ids", func() {
			students := []*core.Student{
				core.NewStudent("dup", 9, nil),
				core.NewStudent("dup", 10, nil),
			}
			_, err := NewMatcher(students, nil)
			Expect(errors.Is(err, ErrDuplicateStudent)).To(BeTrue())
		})

		It("should refuse to run twice", func() {
			m, err := NewMatcher(nil, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Run(ctx)
			Expect(err).To(MatchError(ErrAlreadyRun))
			_, err = m.Prematch(1)
			Expect(err).To(MatchError(ErrAlreadyRun))
		})
	})

	Context("with random instances", func() {
		It("should hold the roster and placement invariants", func() {
			r := rand.New(rand.NewPCG(7, 11))
			for trial := 0; trial < 50; trial++ {
				students, sessions := randomProblem(r, 40, 6, 4)

				cursors := map[string]int{}
				var violations []string
				trace := func(ev Event) {
					id := ev.Student.ID()
					if ev.Student.CurrentChoice() < cursors[id] {
						violations = append(violations, "cursor moved back for "+id)
					}
					cursors[id] = ev.Student.CurrentChoice()
					switch ev.Kind {
					case EventDisplace:
						if ev.Student.Grade() <= ev.Other.Grade() {
							violations = append(violations, "non-strict displacement of "+ev.Other.ID())
						}
					case EventReject:
						if ev.Student.Grade() > ev.Other.Grade() {
							violations = append(violations, "higher grade rejected: "+id)
						}
					}
				}

				outcome, err := Match(ctx, students, sessions, 0, WithSeed(uint64(trial), 3), WithTrace(trace))
				Expect(err).NotTo(HaveOccurred())
				Expect(violations).To(BeEmpty())

				seen := map[string]int{}
				for _, s := range outcome.Sessions() {
					Expect(s.Size()).To(BeNumerically("<=", s.Capacity()))
					for _, st := range s.Roster() {
						seen[st.ID()]++
					}
				}
				for _, st := range outcome.Unassigned() {
					Expect(st.Exhausted()).To(BeTrue())
					seen[st.ID()]++
				}
				Expect(seen).To(HaveLen(len(students)))
				for id, count := range seen {
					Expect(count).To(Equal(1), "student %s placed %d times", id, count)
				}

				bound := totalChoices(students) + len(students) + totalCapacity(sessions)
				Expect(outcome.Stats.Steps).To(BeNumerically("<=", bound))
				expectStable(outcome, students)
			}
		})

		It("should reproduce outcomes for equal seeds", func() {
			r := rand.New(rand.NewPCG(1, 2))
			students, sessions := randomProblem(r, 30, 5, 3)
			first := make([]*core.Student, len(students))
			for i, st := range students {
				first[i] = st.Clone()
			}
			firstSessions := make([]*core.Session, len(sessions))
			for i, s := range sessions {
				firstSessions[i] = s.Empty()
			}

			a, err := Match(ctx, first, firstSessions, 0, WithSeed(99, 0))
			Expect(err).NotTo(HaveOccurred())
			b, err := Match(ctx, students, sessions, 0, WithSeed(99, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Assignments()).To(Equal(b.Assignments()))
		})
	})
})
