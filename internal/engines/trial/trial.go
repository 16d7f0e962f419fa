package trial

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/llm-d-incubation/session-matcher/internal/logging"
	"github.com/llm-d-incubation/session-matcher/pkg/core"
	"github.com/llm-d-incubation/session-matcher/pkg/solver"
)

// Runner is an interface that defines the method for searching the best matching over several trials
type Runner interface {
	// Run executes the configured trials over the problem and returns the best outcome
	Run(ctx context.Context, problem *Problem) (*Result, error)
}

// Strategy is an enumeration of the different strategies that can be used by the Runner
type Strategy int

// enumeration of Strategy
const (
	SequentialStrategy Strategy = iota
	ParallelStrategy
)

func (s Strategy) String() string {
	switch s {
	case SequentialStrategy:
		return "sequential"
	case ParallelStrategy:
		return "parallel"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a strategy name to its Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sequential":
		return SequentialStrategy, nil
	case "parallel":
		return ParallelStrategy, nil
	default:
		return SequentialStrategy, fmt.Errorf("unsupported trial strategy: %q", name)
	}
}

// NewRunner is a factory that creates a new Runner based on the provided strategy
func NewRunner(strategy Strategy, config *Config) (Runner, error) {
	switch strategy {
	case SequentialStrategy:
		return NewSequentialRunner(config)
	case ParallelStrategy:
		return NewParallelRunner(config)
	default:
		return nil, fmt.Errorf("unsupported trial strategy: %v", strategy)
	}
}

// Observer receives every finished trial. Parallel runners call it from
// several goroutines.
type Observer interface {
	ObserveTrial(index int, outcome *solver.Outcome, elapsed time.Duration)
}

// Config holds configuration shared by all runners
type Config struct {
	// Iterations is the number of trials to run, at least 1
	Iterations int
	// Presort is the pre-seeding depth, 0 disables pre-seeding
	Presort int
	// Seed is the base seed; trial i shuffles with (Seed, i). 0 draws a random seed.
	Seed uint64
	// Parallelism bounds concurrent trials of the parallel runner, 0 means unbounded
	Parallelism int
	// Observer is optional
	Observer Observer
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Presort < 0 {
		return fmt.Errorf("presort depth cannot be negative, got %d", c.Presort)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism cannot be negative, got %d", c.Parallelism)
	}
	return nil
}

func (c *Config) resolveSeed() uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return rand.Uint64()
}

// Problem holds the initial students and sessions. Runners treat it as
// read-only and hand every trial its own copies.
type Problem struct {
	Students []*core.Student
	Sessions []*core.Session
}

// instance returns a fresh copy of the initial state.
func (p *Problem) instance() ([]*core.Student, []*core.Session) {
	students := make([]*core.Student, len(p.Students))
	for i, st := range p.Students {
		students[i] = st.Clone()
		students[i].Reset()
	}
	sessions := make([]*core.Session, len(p.Sessions))
	for i, s := range p.Sessions {
		sessions[i] = s.Empty()
	}
	return students, sessions
}

// Result is the best trial found by a Runner.
type Result struct {
	Best      *solver.Outcome
	BestIndex int
	// Seed is the base seed actually used
	Seed uint64
	// Scores holds the score of every counted trial in index order. Trials
	// after the first zero score are not counted.
	Scores []int
}

// Trials returns the number of counted trials.
func (r *Result) Trials() int { return len(r.Scores) }

// runTrial matches one fresh instance of the problem.
func runTrial(ctx context.Context, config *Config, problem *Problem, seed uint64, index int) (*solver.Outcome, error) {
	students, sessions := problem.instance()

	start := time.Now()
	outcome, err := solver.Match(ctx, students, sessions, config.Presort, solver.WithSeed(seed, uint64(index)))
	if err != nil {
		return nil, fmt.Errorf("trial %d: %w", index, err)
	}
	elapsed := time.Since(start)

	if config.Observer != nil {
		config.Observer.ObserveTrial(index, outcome, elapsed)
	}
	logging.FromContext(ctx).V(logging.DEBUG).Info("Trial completed",
		"trial", index, "score", outcome.Score(), "unassigned", len(outcome.Unassigned()), "elapsed", elapsed)
	return outcome, nil
}
