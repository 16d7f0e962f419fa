package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/llm-d-incubation/session-matcher/internal/archive"
	"github.com/llm-d-incubation/session-matcher/internal/config"
	"github.com/llm-d-incubation/session-matcher/internal/report"
)

const flagLimit = "limit"

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List archived runs or show one of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.Archive == "" {
				return fmt.Errorf("--%s is required", config.KeyArchive)
			}
			limit, err := cmd.Flags().GetInt(flagLimit)
			if err != nil {
				return err
			}

			store, err := archive.Open(ctx, cfg.Archive)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				return showRun(ctx, cmd.OutOrStdout(), store, args[0], cfg.ReportFormat)
			}
			return listRuns(ctx, cmd.OutOrStdout(), store, limit)
		},
	}

	f := cmd.Flags()
	f.String(config.KeyArchive, "", "archive DSN: sqlite://PATH, PATH.db or postgres://...")
	f.Int(flagLimit, 20, "maximum number of runs listed, 0 for all")
	f.String(config.KeyReportFormat, string(report.FormatYAML), "format of a single run: yaml or json")
	return cmd
}

func listRuns(ctx context.Context, w io.Writer, store archive.Store, limit int) error {
	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSTRATEGY\tTRIALS\tSCORE\tUNASSIGNED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%d/%d\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Strategy,
			r.Trials, r.Iterations, r.Score, r.Unassigned, r.Students)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, w io.Writer, store archive.Store, id, format string) error {
	run, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	if f == report.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(run); err != nil {
		return err
	}
	return enc.Close()
}
