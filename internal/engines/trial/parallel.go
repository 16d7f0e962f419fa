package trial

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/llm-d-incubation/session-matcher/internal/engines/common"
	"github.com/llm-d-incubation/session-matcher/internal/logging"
	"github.com/llm-d-incubation/session-matcher/pkg/solver"
)

// ParallelRunner runs trials concurrently. Its Result equals the one of a
// SequentialRunner with the same Config: trials started after an earlier
// zero score are ignored.
type ParallelRunner struct {
	config *Config
}

// NewParallelRunner creates a new ParallelRunner instance.
func NewParallelRunner(config *Config) (*ParallelRunner, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &ParallelRunner{config: config}, nil
}

// Run executes the trials on a bounded errgroup
func (r *ParallelRunner) Run(ctx context.Context, problem *Problem) (*Result, error) {
	logger := logging.FromContext(ctx)
	seed := r.config.resolveSeed()
	n := r.config.Iterations
	tracker := common.NewBestTracker[*solver.Outcome]()
	scores := make([]int, n)

	g, gctx := errgroup.WithContext(ctx)
	if r.config.Parallelism > 0 {
		g.SetLimit(r.config.Parallelism)
	}
	for i := 0; i < n; i++ {
		if tracker.Skip(i) {
			break
		}
		g.Go(func() error {
			if tracker.Skip(i) {
				return nil
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := runTrial(gctx, r.config, problem, seed, i)
			if err != nil {
				return err
			}
			scores[i] = outcome.Score()
			tracker.Offer(i, outcome.Score(), outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counted := n
	if zeroAt, ok := tracker.ZeroAt(); ok {
		counted = zeroAt + 1
	}
	best, _ := tracker.Best()
	logger.Info("Trials completed", "strategy", ParallelStrategy, "trials", counted,
		"bestTrial", best.Index, "score", best.Score, "seed", seed)
	return &Result{Best: best.Value, BestIndex: best.Index, Seed: seed, Scores: scores[:counted]}, nil
}
