// Package report summarizes a matching outcome the way counselors read it:
// how many students got their first choice, how full each session is, and
// who was left out, per grade.
package report

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/llm-d-incubation/session-matcher/internal/utils/names"
	"github.com/llm-d-incubation/session-matcher/pkg/core"
	"github.com/llm-d-incubation/session-matcher/pkg/solver"
)

// Report is the full statistics document of one run.
type Report struct {
	Summary    Summary           `json:"summary" yaml:"summary"`
	Tallies    []Tally           `json:"tallies" yaml:"tallies"`
	Overall    []ChoiceCount     `json:"overall" yaml:"overall"`
	Grades     []GradeBreakdown  `json:"grades" yaml:"grades"`
	Sessions   []SessionStats    `json:"sessions" yaml:"sessions"`
	Unassigned []GradeUnassigned `json:"unassigned" yaml:"unassigned"`
	Trials     TrialStats        `json:"trials" yaml:"trials"`
}

// Summary holds the headline numbers.
type Summary struct {
	Students   int          `json:"students" yaml:"students"`
	Sessions   int          `json:"sessions" yaml:"sessions"`
	Capacity   int          `json:"capacity" yaml:"capacity"`
	Assigned   int          `json:"assigned" yaml:"assigned"`
	Unassigned int          `json:"unassigned" yaml:"unassigned"`
	Score      int          `json:"score" yaml:"score"`
	Seed       uint64       `json:"seed" yaml:"seed"`
	Stats      solver.Stats `json:"stats" yaml:"stats"`
}

// Tally is the number of students listing a session at any rank.
type Tally struct {
	Session string `json:"session" yaml:"session"`
	Votes   int    `json:"votes" yaml:"votes"`
}

// ChoiceCount counts students placed at one choice rank. Rank -1 counts
// unassigned students.
type ChoiceCount struct {
	Rank    int     `json:"rank" yaml:"rank"`
	Label   string  `json:"label" yaml:"label"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// GradeBreakdown is the choice distribution of one grade.
type GradeBreakdown struct {
	Grade    int           `json:"grade" yaml:"grade"`
	Students int           `json:"students" yaml:"students"`
	Choices  []ChoiceCount `json:"choices" yaml:"choices"`
}

// SessionStats describes how one session filled. Score is the mean of
// (rank + 1) over holders, 1.0 meaning every holder got a first choice.
// Cutoff is the grade of the most displaceable holder of a full session: a
// student needs a higher grade to take a seat. It is 0 while seats are free.
type SessionStats struct {
	Name     string  `json:"name" yaml:"name"`
	Filled   int     `json:"filled" yaml:"filled"`
	Capacity int     `json:"capacity" yaml:"capacity"`
	Score    float64 `json:"score" yaml:"score"`
	Full     bool    `json:"full" yaml:"full"`
	Cutoff   int     `json:"cutoff,omitempty" yaml:"cutoff,omitempty"`
}

// GradeUnassigned counts unassigned students of one grade.
type GradeUnassigned struct {
	Grade      int     `json:"grade" yaml:"grade"`
	Unassigned int     `json:"unassigned" yaml:"unassigned"`
	Students   int     `json:"students" yaml:"students"`
	Percent    float64 `json:"percent" yaml:"percent"`
}

// TrialStats summarizes the scores of the counted trials.
type TrialStats struct {
	Trials    int     `json:"trials" yaml:"trials"`
	BestIndex int     `json:"bestIndex" yaml:"bestIndex"`
	Mean      float64 `json:"mean" yaml:"mean"`
	StdDev    float64 `json:"stdDev" yaml:"stdDev"`
	Min       int     `json:"min" yaml:"min"`
	Max       int     `json:"max" yaml:"max"`
}

// Input gathers what Build needs.
type Input struct {
	// Outcome is the kept trial.
	Outcome *solver.Outcome
	// Students are the initial students, used for vote tallies.
	Students []*core.Student
	// Sessions are the initial sessions, used for vote tallies.
	Sessions []*core.Session
	// Mode orders session names.
	Mode names.Mode
	// Scores of every counted trial, in index order.
	Scores    []int
	BestIndex int
	Seed      uint64
}

// Build computes the report.
func Build(in Input) *Report {
	assignments := in.Outcome.Assignments()
	r := &Report{
		Summary: Summary{
			Students:   len(assignments),
			Sessions:   len(in.Outcome.Sessions()),
			Assigned:   in.Outcome.AssignedCount(),
			Unassigned: len(in.Outcome.Unassigned()),
			Score:      in.Outcome.Score(),
			Seed:       in.Seed,
			Stats:      in.Outcome.Stats,
		},
	}
	for _, s := range in.Outcome.Sessions() {
		r.Summary.Capacity += s.Capacity()
	}

	r.Tallies = buildTallies(in)
	r.Overall = countChoices(assignments)

	byGrade := make(map[int][]solver.Assignment)
	for _, a := range assignments {
		byGrade[a.Grade] = append(byGrade[a.Grade], a)
	}
	grades := make([]int, 0, len(byGrade))
	for g := range byGrade {
		grades = append(grades, g)
	}
	slices.Sort(grades)
	slices.Reverse(grades)
	for _, g := range grades {
		group := byGrade[g]
		r.Grades = append(r.Grades, GradeBreakdown{Grade: g, Students: len(group), Choices: countChoices(group)})

		unassigned := 0
		for _, a := range group {
			if !a.Assigned() {
				unassigned++
			}
		}
		if unassigned > 0 {
			r.Unassigned = append(r.Unassigned, GradeUnassigned{
				Grade:      g,
				Unassigned: unassigned,
				Students:   len(group),
				Percent:    percent(unassigned, len(group)),
			})
		}
	}

	r.Sessions = buildSessions(in, assignments)
	r.Trials = buildTrials(in)
	return r
}

func buildTallies(in Input) []Tally {
	votes := solver.Tally(in.Students, in.Sessions)
	sessionNames := make([]string, 0, len(votes))
	for name := range votes {
		sessionNames = append(sessionNames, name)
	}
	names.Sort(sessionNames, in.Mode)
	out := make([]Tally, len(sessionNames))
	for i, name := range sessionNames {
		out[i] = Tally{Session: name, Votes: votes[name]}
	}
	return out
}

// countChoices returns one entry per rank present, ascending, with the
// unassigned entry last.
func countChoices(assignments []solver.Assignment) []ChoiceCount {
	counts := make(map[int]int)
	for _, a := range assignments {
		counts[a.Rank]++
	}
	ranks := make([]int, 0, len(counts))
	for rank := range counts {
		ranks = append(ranks, rank)
	}
	slices.SortFunc(ranks, func(a, b int) int {
		switch {
		case a < 0:
			return 1
		case b < 0:
			return -1
		}
		return cmp.Compare(a, b)
	})
	out := make([]ChoiceCount, len(ranks))
	for i, rank := range ranks {
		out[i] = ChoiceCount{
			Rank:    rank,
			Label:   names.ChoiceLabel(rank),
			Count:   counts[rank],
			Percent: percent(counts[rank], len(assignments)),
		}
	}
	return out
}

func buildSessions(in Input, assignments []solver.Assignment) []SessionStats {
	rankSum := make(map[string]int)
	for _, a := range assignments {
		if a.Assigned() {
			rankSum[a.Session] += a.Rank + 1
		}
	}
	sessions := in.Outcome.Sessions()
	slices.SortFunc(sessions, func(a, b *core.Session) int {
		return names.Compare(a.Name(), b.Name(), in.Mode)
	})
	out := make([]SessionStats, len(sessions))
	for i, s := range sessions {
		st := SessionStats{
			Name:     s.Name(),
			Filled:   s.Size(),
			Capacity: s.Capacity(),
			Full:     !s.HasSpace(),
		}
		if s.Size() > 0 {
			st.Score = round2(float64(rankSum[s.Name()]) / float64(s.Size()))
		}
		if worst, ok := s.Worst(); ok && st.Full {
			st.Cutoff = worst.Grade()
		}
		out[i] = st
	}
	return out
}

func buildTrials(in Input) TrialStats {
	ts := TrialStats{Trials: len(in.Scores), BestIndex: in.BestIndex}
	if len(in.Scores) == 0 {
		return ts
	}
	values := make([]float64, len(in.Scores))
	for i, s := range in.Scores {
		values[i] = float64(s)
	}
	ts.Min, ts.Max = slices.Min(in.Scores), slices.Max(in.Scores)
	if len(values) < 2 {
		ts.Mean = values[0]
		return ts
	}
	mean, std := stat.MeanStdDev(values, nil)
	ts.Mean, ts.StdDev = round2(mean), round2(std)
	return ts
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
