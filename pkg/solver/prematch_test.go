package solver

import (
	"context"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d-incubation/session-matcher/pkg/core"
)

func cloneProblem(students []*core.Student, sessions []*core.Session) ([]*core.Student, []*core.Session) {
	st := make([]*core.Student, len(students))
	for i, s := range students {
		st[i] = s.Clone()
	}
	ss := make([]*core.Session, len(sessions))
	for i, s := range sessions {
		ss[i] = s.Empty()
	}
	return st, ss
}

func maxChoices(students []*core.Student) int {
	n := 0
	for _, st := range students {
		n = max(n, st.NumChoices())
	}
	return n
}

var _ = Describe("Prematch", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should place students whose first choice is uncontested", func() {
		s1 := core.NewStudent("s1", 9, []string{"A", "B"})
		s2 := core.NewStudent("s2", 10, []string{"B", "A"})
		s3 := core.NewStudent("s3", 11, []string{"B"})
		a := mustSession("A", 2)
		b := mustSession("B", 1)

		var preseeded []string
		m, err := NewMatcher([]*core.Student{s1, s2, s3}, []*core.Session{a, b},
			WithTrace(func(ev Event) {
				if ev.Kind == EventPreseed {
					preseeded = append(preseeded, ev.Student.ID())
				}
			}))
		Expect(err).NotTo(HaveOccurred())

		placed, err := m.Prematch(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(placed).To(Equal(1))
		Expect(preseeded).To(Equal([]string{"s1"}))
		Expect(m.Pending()).To(Equal(2))
		Expect(rosterIDs(a)).To(Equal([]string{"s1"}))

		outcome, err := m.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Stats.Preseeded).To(Equal(1))
		Expect(outcome.Placement()).To(Equal(map[string]string{"s1": "a", "s2": "a", "s3": "b"}))
	})

	It("should count demand over distinct students", func() {
		s1 := core.NewStudent("s1", 9, []string{"A", "A"})
		s2 := core.NewStudent("s2", 9, []string{"B", "A"})
		a := mustSession("A", 2)
		b := mustSession("B", 1)

		m, err := NewMatcher([]*core.Student{s1, s2}, []*core.Session{a, b})
		Expect(err).NotTo(HaveOccurred())
		placed, err := m.Prematch(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(placed).To(Equal(2))
		Expect(m.Pending()).To(BeZero())
	})

	It("should skip unknown choices before placing", func() {
		st := core.NewStudent("s1", 12, []string{"ghost", "A"})
		a := mustSession("A", 1)

		m, err := NewMatcher([]*core.Student{st}, []*core.Session{a})
		Expect(err).NotTo(HaveOccurred())
		placed, err := m.Prematch(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(placed).To(Equal(1))
		Expect(st.CurrentChoice()).To(Equal(1))

		outcome, err := m.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Stats.UnknownChoices).To(Equal(1))
		Expect(outcome.Assignments()[0].Rank).To(Equal(1))
	})

	It("should leave contested sessions to the loop", func() {
		s1 := core.NewStudent("s1", 9, []string{"A"})
		s2 := core.NewStudent("s2", 12, []string{"A"})
		a := mustSession("A", 1)

		m, err := NewMatcher([]*core.Student{s1, s2}, []*core.Session{a})
		Expect(err).NotTo(HaveOccurred())
		placed, err := m.Prematch(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(placed).To(BeZero())
		Expect(m.Pending()).To(Equal(2))
	})

	It("should not place students beyond the depth", func() {
		st := core.NewStudent("s1", 9, []string{"ghost", "A"})
		a := mustSession("A", 1)

		m, err := NewMatcher([]*core.Student{st}, []*core.Session{a})
		Expect(err).NotTo(HaveOccurred())
		placed, err := m.Prematch(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(placed).To(BeZero())
		Expect(st.CurrentChoice()).To(BeZero())
	})

	It("should do nothing for a non-positive depth", func() {
		m, err := NewMatcher([]*core.Student{core.NewStudent("s1", 9, []string{"A"})}, []*core.Session{mustSession("A", 1)})
		Expect(err).NotTo(HaveOccurred())
		placed, err := m.Prematch(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(placed).To(BeZero())
	})

	It("should not change placements when the depth covers every list", func() {
		r := rand.New(rand.NewPCG(42, 5))
		for trial := 0; trial < 40; trial++ {
			students, sessions := randomProblem(r, 30, 6, 3)
			depth := maxChoices(students)
			if depth == 0 {
				continue
			}
			plainStudents, plainSessions := cloneProblem(students, sessions)

			plain, err := Match(ctx, plainStudents, plainSessions, 0, WithSeed(uint64(trial), 1))
			Expect(err).NotTo(HaveOccurred())
			seeded, err := Match(ctx, students, sessions, depth, WithSeed(uint64(trial), 1))
			Expect(err).NotTo(HaveOccurred())

			Expect(seeded.Placement()).To(Equal(plain.Placement()))
			Expect(seeded.Score()).To(Equal(plain.Score()))
		}
	})

	It("should leave a session contested by a deeper choice to the loop", func() {
		build := func() ([]*core.Student, []*core.Session) {
			return []*core.Student{
				core.NewStudent("Y", 10, []string{"T", "S"}),
				core.NewStudent("Z", 12, []string{"T"}),
				core.NewStudent("X", 10, []string{"S"}),
			}, []*core.Session{mustSession("S", 1), mustSession("T", 1)}
		}

		students, sessions := build()
		plain, err := Match(ctx, students, sessions, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(plain.Placement()).To(Equal(map[string]string{"X": "", "Y": "s", "Z": "t"}))

		students, sessions = build()
		seeded, err := Match(ctx, students, sessions, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(seeded.Stats.Preseeded).To(BeZero())
		Expect(seeded.Placement()).To(Equal(plain.Placement()))
	})

	It("should not change placements at partial depth", func() {
		r := rand.New(rand.NewPCG(17, 23))
		for trial := 0; trial < 60; trial++ {
			students, sessions := randomProblem(r, 25, 8, 4)
			depth := 1 + trial%3
			plainStudents, plainSessions := cloneProblem(students, sessions)

			plain, err := Match(ctx, plainStudents, plainSessions, 0, WithSeed(uint64(trial), 4))
			Expect(err).NotTo(HaveOccurred())
			seeded, err := Match(ctx, students, sessions, depth, WithSeed(uint64(trial), 4))
			Expect(err).NotTo(HaveOccurred())

			Expect(seeded.Placement()).To(Equal(plain.Placement()), "trial %d at depth %d", trial, depth)
			Expect(seeded.Score()).To(Equal(plain.Score()))
		}
	})

	It("should keep the loop invariants at partial depth", func() {
		r := rand.New(rand.NewPCG(3, 9))
		for trial := 0; trial < 40; trial++ {
			students, sessions := randomProblem(r, 30, 6, 4)
			outcome, err := Match(ctx, students, sessions, 2, WithSeed(uint64(trial), 2))
			Expect(err).NotTo(HaveOccurred())
			for _, s := range outcome.Sessions() {
				Expect(s.Size()).To(BeNumerically("<=", s.Capacity()))
			}
			Expect(len(outcome.Placement())).To(Equal(len(students)))
			expectStable(outcome, students)
		}
	})
})

var _ = Describe("Tally", func() {
	It("should count every rank for known sessions", func() {
		students := []*core.Student{
			core.NewStudent("s1", 9, []string{"A", "B", "ghost"}),
			core.NewStudent("s2", 10, []string{"b"}),
			core.NewStudent("s3", 11, nil),
		}
		sessions := []*core.Session{mustSession("A", 1), mustSession("B", 1), mustSession("C", 1)}

		Expect(Tally(students, sessions)).To(Equal(map[string]int{"a": 1, "b": 2, "c": 0}))
	})
})
