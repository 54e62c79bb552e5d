package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
)

// NewCheckCmd creates the check subcommand
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify configuration, backend reachability and the run journal",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	steps := []string{"Loading configuration", "Reaching backend", "Reading run journal"}
	progress := tui.NewProgressDisplay(cmd.OutOrStdout(), steps, quietFlag)

	progress.StartStep(0)
	app, err := GetApp()
	if err != nil {
		progress.FailStep(0, err.Error())
		return err
	}
	progress.CompleteStep(0, globalConfigPath)

	spinnerDone := progress.StartSpinner()
	defer close(spinnerDone)

	ctx := cmd.Context()
	var failed error

	progress.StartStep(1)
	start := time.Now()
	if err := app.Backend.Ping(ctx); err != nil {
		progress.FailStep(1, err.Error())
		failed = errors.Join(failed, err)
	} else {
		progress.CompleteStep(1, fmt.Sprintf("%s in %s", app.Config.API.BaseURL, time.Since(start).Round(time.Millisecond)))
	}

	progress.StartStep(2)
	stats, err := app.RunSvc.Stats(ctx)
	if err != nil {
		progress.FailStep(2, err.Error())
		failed = errors.Join(failed, err)
	} else {
		progress.CompleteStep(2, fmt.Sprintf("%d runs, %s", stats.RunCount, formatSize(stats.TotalSize)))
	}

	return failed
}
