package trial

import (
	"context"

	"github.com/llm-d-incubation/session-matcher/internal/engines/common"
	"github.com/llm-d-incubation/session-matcher/internal/logging"
	"github.com/llm-d-incubation/session-matcher/pkg/solver"
)

// SequentialRunner runs trials one after another and stops at the first
// trial that leaves nobody unassigned.
type SequentialRunner struct {
	config *Config
}

// NewSequentialRunner creates a new SequentialRunner instance.
func NewSequentialRunner(config *Config) (*SequentialRunner, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &SequentialRunner{config: config}, nil
}

// Run executes the trials in index order
func (r *SequentialRunner) Run(ctx context.Context, problem *Problem) (*Result, error) {
	logger := logging.FromContext(ctx)
	seed := r.config.resolveSeed()
	tracker := common.NewBestTracker[*solver.Outcome]()
	scores := make([]int, 0, r.config.Iterations)

	for i := 0; i < r.config.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := runTrial(ctx, r.config, problem, seed, i)
		if err != nil {
			return nil, err
		}
		scores = append(scores, outcome.Score())
		if tracker.Offer(i, outcome.Score(), outcome) {
			logger.V(logging.DEBUG).Info("New best trial", "trial", i, "score", outcome.Score())
		}
		if outcome.Score() == 0 {
			break
		}
	}

	best, _ := tracker.Best()
	logger.Info("Trials completed", "strategy", SequentialStrategy, "trials", len(scores),
		"bestTrial", best.Index, "score", best.Score, "seed", seed)
	return &Result{Best: best.Value, BestIndex: best.Index, Seed: seed, Scores: scores}, nil
}
