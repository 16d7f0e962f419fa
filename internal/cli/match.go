package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
	"github.com/llm-d-incubation/session-matcher/internal/archive"
	"github.com/llm-d-incubation/session-matcher/internal/config"
	"github.com/llm-d-incubation/session-matcher/internal/engines/trial"
	"github.com/llm-d-incubation/session-matcher/internal/logging"
	"github.com/llm-d-incubation/session-matcher/internal/metrics"
	"github.com/llm-d-incubation/session-matcher/internal/records"
	"github.com/llm-d-incubation/session-matcher/internal/report"
	"github.com/llm-d-incubation/session-matcher/pkg/core"
)

func newMatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match SESSIONS STUDENTS OUTPUT",
		Short: "Match students to sessions and write the assignment file",
		Long: `match reads SESSIONS (CLASSNAME, NUM_SPACES rows, or a YAML file with a
sessions list) and STUDENTS (SID, GRADE, CHOICE_1, ... rows), runs the
requested number of trials and writes OUTPUT as "SID,Ticket Type" rows.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			return runMatch(ctx, cmd, cfg, args[0], args[1], args[2])
		},
	}

	f := cmd.Flags()
	f.IntP(config.KeyIterations, "n", 1, "number of shuffled trials; the best is kept")
	f.Int(config.KeyPresort, 0, "pre-seed students whose top choices are uncontested down to this depth")
	f.Bool(config.KeyNumeric, false, "treat session names as integers")
	f.Uint64(config.KeySeed, 0, "base seed of the trials, 0 for random")
	f.String(config.KeyStrategy, trial.SequentialStrategy.String(), "trial strategy: sequential or parallel")
	f.Int(config.KeyParallelism, 0, "maximum concurrent trials of the parallel strategy, 0 for unbounded")
	f.Int(config.KeyMaxChoices, 0, "only read this many choices per student, 0 for all")
	f.BoolP(config.KeyForce, "f", false, "overwrite OUTPUT if it exists")
	f.BoolP(config.KeyVerbose, "v", false, "print the statistics report")
	f.String(config.KeyReportFormat, string(report.FormatText), "report format: text, yaml or json")
	f.String(config.KeyMetricsFile, "", "write Prometheus metrics to this textfile")
	f.String(config.KeyArchive, "", "archive the run: memory://, sqlite://PATH, PATH.db or postgres://...")
	return cmd
}

func runMatch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, sessionsPath, studentsPath, outputPath string) error {
	logger := logging.FromContext(ctx)
	if err := records.CheckWritable(outputPath, cfg.Force); err != nil {
		return err
	}

	source := records.NewFileSource(sessionsPath, studentsPath, records.LoadOptions{
		Mode:       cfg.Mode(),
		MaxChoices: cfg.MaxChoices,
	})
	problem, err := loadProblem(ctx, source, cfg)
	if err != nil {
		return err
	}

	capacity := 0
	for _, s := range problem.Sessions {
		capacity += s.Capacity()
	}
	if capacity < len(problem.Students) {
		logger.Info("Total capacity is below the number of students, some will be unassigned",
			"capacity", capacity, "students", len(problem.Students))
	}

	recorder, err := metrics.NewRecorder(nil)
	if err != nil {
		return err
	}
	strategy, err := trial.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	runner, err := trial.NewRunner(strategy, cfg.TrialConfig(recorder))
	if err != nil {
		return err
	}
	result, err := runner.Run(ctx, problem)
	if err != nil {
		return fmt.Errorf("matching failed: %w", err)
	}
	best := result.Best
	recorder.ObserveOutcome(best)

	assignments := records.FromOutcome(best, cfg.Mode())
	written, err := records.WriteFile(outputPath, assignments, cfg.Force)
	if err != nil {
		return err
	}
	logger.Info("Wrote assignments", "path", outputPath, "rows", written)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Assigned %d of %d students, score %d (best of %d trials: #%d, seed %d)\n",
		best.AssignedCount(), len(problem.Students), best.Score(),
		result.Trials(), result.BestIndex, result.Seed)

	if cfg.Verbose {
		format, err := report.ParseFormat(cfg.ReportFormat)
		if err != nil {
			return err
		}
		rep := report.Build(report.Input{
			Outcome:   best,
			Students:  problem.Students,
			Sessions:  problem.Sessions,
			Mode:      cfg.Mode(),
			Scores:    result.Scores,
			BestIndex: result.BestIndex,
			Seed:      result.Seed,
		})
		if err := report.Render(out, rep, format); err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
	}

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		logger.V(logging.DEBUG).Info("Wrote metrics", "path", cfg.MetricsFile)
	}

	if cfg.Archive != "" {
		summary := &v1alpha1.RunSummary{
			CreatedAt:   time.Now().UTC(),
			Strategy:    strategy.String(),
			Seed:        result.Seed,
			Iterations:  cfg.Iterations,
			Presort:     cfg.PresortDepth(),
			Trials:      result.Trials(),
			BestTrial:   result.BestIndex,
			Score:       best.Score(),
			Students:    len(problem.Students),
			Sessions:    len(problem.Sessions),
			Unassigned:  len(best.Unassigned()),
			Assignments: assignments,
		}
		id, err := saveRun(ctx, cfg.Archive, summary)
		if err != nil {
			return err
		}
		logger.Info("Archived run", "runID", id)
		fmt.Fprintf(out, "Run %s archived\n", id)
	}
	return nil
}

// loadProblem reads records from source and builds the matching entities.
func loadProblem(ctx context.Context, source records.Source, cfg *config.Config) (*trial.Problem, error) {
	sessionRecords, err := source.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	sessionRecords = config.ApplyOverrides(ctx, sessionRecords, cfg.Overrides, cfg.Mode())
	studentRecords, err := source.Students(ctx)
	if err != nil {
		return nil, err
	}

	problem := &trial.Problem{
		Sessions: make([]*core.Session, 0, len(sessionRecords)),
		Students: make([]*core.Student, 0, len(studentRecords)),
	}
	for i := range sessionRecords {
		s, err := sessionRecords[i].ToSession()
		if err != nil {
			return nil, err
		}
		problem.Sessions = append(problem.Sessions, s)
	}
	for i := range studentRecords {
		problem.Students = append(problem.Students, studentRecords[i].ToStudent())
	}
	logging.FromContext(ctx).Info("Loaded input",
		"source", source.Name(), "sessions", len(problem.Sessions), "students", len(problem.Students))
	return problem, nil
}

func saveRun(ctx context.Context, dsn string, summary *v1alpha1.RunSummary) (string, error) {
	store, err := archive.Open(ctx, dsn)
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()
	return store.Save(ctx, summary)
}
