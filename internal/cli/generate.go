package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/session-matcher/internal/config"
	"github.com/llm-d-incubation/session-matcher/internal/generator"
	"github.com/llm-d-incubation/session-matcher/internal/logging"
	"github.com/llm-d-incubation/session-matcher/internal/records"
	"github.com/llm-d-incubation/session-matcher/internal/utils/names"
)

const (
	flagChoices      = "choices"
	flagRandomGrades = "random-grades"
)

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate SESSIONS STUDENTS OUTPUT",
		Short: "Write a student file with random choices for testing",
		Long: `generate reads the session names from SESSIONS and the student rows from
STUDENTS and writes OUTPUT with a fixed number of distinct random sessions
per student. Rows without an integer grade are copied unchanged.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			choices, err := cmd.Flags().GetInt(flagChoices)
			if err != nil {
				return err
			}
			randomGrades, err := cmd.Flags().GetBool(flagRandomGrades)
			if err != nil {
				return err
			}
			gen := generator.Config{Choices: choices, RandomGrades: randomGrades, Seed: cfg.Seed}
			return runGenerate(ctx, cmd, cfg, gen, args[0], args[1], args[2])
		},
	}

	f := cmd.Flags()
	f.Int(flagChoices, generator.DefaultChoices, "distinct sessions per student")
	f.Bool(flagRandomGrades, false, "replace every grade with a random one in 9-12")
	f.Uint64(config.KeySeed, 0, "generator seed, 0 for random")
	f.BoolP(config.KeyForce, "f", false, "overwrite OUTPUT if it exists")
	return cmd
}

func runGenerate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, gen generator.Config, sessionsPath, studentsPath, outputPath string) error {
	if err := records.CheckWritable(outputPath, cfg.Force); err != nil {
		return err
	}

	source := records.NewFileSource(sessionsPath, studentsPath, records.LoadOptions{Mode: names.ModeNamed})
	sessions, err := source.Sessions(ctx)
	if err != nil {
		return err
	}
	sessionNames := make([]string, len(sessions))
	for i, s := range sessions {
		sessionNames[i] = s.Name
	}
	g, err := generator.NewGenerator(sessionNames, gen)
	if err != nil {
		return err
	}

	in, err := os.Open(studentsPath)
	if err != nil {
		return fmt.Errorf("opening students: %w", err)
	}
	defer in.Close()
	out, err := records.CreateFile(outputPath, cfg.Force)
	if err != nil {
		return err
	}
	n, err := g.Generate(ctx, in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("generating %s: %w", outputPath, err)
	}

	logging.FromContext(ctx).V(logging.DEBUG).Info("Wrote generated students", "path", outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Generated choices for %d students\n", n)
	return nil
}
