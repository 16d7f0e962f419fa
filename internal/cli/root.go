// Package cli holds the cobra commands of the session-matcher binary.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/session-matcher/internal/config"
	"github.com/llm-d-incubation/session-matcher/internal/logging"
)

const flagConfig = "config"

// NewRootCommand returns the session-matcher command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "session-matcher",
		Short: "Assign students to capacity-limited sessions by grade priority",
		Long: `session-matcher places students into sessions using deferred acceptance.
Students propose to sessions in preference order; a full session keeps the
higher grades and turns the rest away. Several shuffled trials can be run and
the one leaving the least grade weight unassigned is kept.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String(flagConfig, "", "optional YAML config file")
	pf.String(config.KeyLogLevel, "info", "log level: error, warn, info, debug or trace")
	pf.Bool(config.KeyDevelopment, false, "human-readable console logs")

	root.AddCommand(newMatchCommand(), newGenerateCommand(), newHistoryCommand())
	return root
}

// setup resolves the configuration of cmd and returns a context carrying
// the configured logger.
func setup(cmd *cobra.Command) (context.Context, *config.Config, error) {
	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, nil, err
	}
	file, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(v, file)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.IntoContext(ctx, logger), cfg, nil
}
