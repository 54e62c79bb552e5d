package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/batch"
)

var clearAllFlag bool

// NewRunsCmd creates the runs subcommand
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and retry batch runs that had failures",
		RunE:  runRunsList,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled runs, newest first",
		Args:  cobra.NoArgs,
		RunE:  runRunsList,
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the failures of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsShow,
	}

	retryCmd := &cobra.Command{
		Use:   "retry <id>",
		Short: "Re-run only the failed items of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsRetry,
	}

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove expired runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsClean,
	}
	cleanCmd.Flags().BoolVar(&clearAllFlag, "all", false, "Remove every run")

	cmd.AddCommand(listCmd, showCmd, retryCmd, cleanCmd)
	return cmd
}

func runRunsList(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	runs, err := app.RunSvc.List(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No journaled runs")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID), r.Kind, tui.FormatDateTime(r.CreatedAt),
			fmt.Sprintf("%d/%d", r.Succeeded, r.Total), tui.FormatInt(r.Failed), tui.FormatDateTime(r.ExpiresAt),
		})
	}
	renderTable(out, []string{"ID", "Kind", "Started", "Succeeded", "Failed", "Expires"}, rows)

	stats, err := app.RunSvc.Stats(ctx)
	if err == nil {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d runs, %s on disk, kept for %s",
			stats.RunCount, formatSize(stats.TotalSize), app.Config.Journal.TTL)))
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	run, err := app.RunSvc.Show(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, run)
	}

	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Kind)
	fmt.Fprintf(out, "  Started:   %s\n", tui.FormatDateTime(run.CreatedAt))
	fmt.Fprintf(out, "  Succeeded: %d/%d\n", run.Succeeded, run.Total)
	if run.Halted != "" {
		fmt.Fprintf(out, "  Stopped:   %s\n", run.Halted)
	}
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(run.Failures))
	for _, f := range run.Failures {
		rows = append(rows, []string{f.Key, tui.Truncate(f.Reason, 70)})
	}
	renderTable(out, []string{"Item", "Reason"}, rows)
	return nil
}

func runRunsRetry(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	return runBatchCmd(cmd, func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error) {
		return app.RunSvc.Retry(ctx, args[0], onProgress)
	})
}

func runRunsClean(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if clearAllFlag {
		if err := app.RunSvc.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "All runs removed")
	} else {
		cleaned, err := app.RunSvc.CleanExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d expired runs\n", cleaned)
	}

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
