package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/batch"
)

// shownFailures caps the failure reasons printed after a batch.
const shownFailures = 5

// batchCall is a service method that runs a batch and reports progress.
type batchCall func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error)

// runBatchCmd runs call with a live progress display on stderr, prints the
// report and returns an error when any item failed.
func runBatchCmd(cmd *cobra.Command, call batchCall) error {
	progress := tui.NewBatchProgress(cmd.ErrOrStderr(), quietFlag || jsonOutput())
	report, err := call(cmd.Context(), progress.Update)
	progress.Finish()
	if err != nil {
		return err
	}

	if err := printReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	return reportError(report)
}

func reportError(r *application.BatchReport) error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%d of %d items failed, %d rows rejected", r.Failed, r.Total, len(r.Rejected))
}

// reportView is the JSON shape of a BatchReport
type reportView struct {
	Label        string                    `json:"label"`
	Total        int                       `json:"total"`
	Succeeded    int                       `json:"succeeded"`
	Failed       int                       `json:"failed"`
	NotAttempted int                       `json:"notAttempted"`
	Halted       string                    `json:"halted,omitempty"`
	DurationMS   int64                     `json:"durationMs"`
	Failures     []application.FailureLine `json:"failures"`
	Rejected     []application.RowError    `json:"rejected,omitempty"`
	RunID        string                    `json:"runId,omitempty"`
}

func newReportView(r *application.BatchReport) reportView {
	v := reportView{
		Label:        r.Label,
		Total:        r.Total,
		Succeeded:    r.Succeeded,
		Failed:       r.Failed,
		NotAttempted: r.NotAttempted,
		DurationMS:   r.Duration.Milliseconds(),
		Failures:     r.Failures,
		Rejected:     r.Rejected,
		RunID:        r.RunID,
	}
	if r.Halted != nil {
		v.Halted = r.Halted.Error()
	}
	return v
}

func printReport(w io.Writer, r *application.BatchReport) error {
	if jsonOutput() {
		return writeJSON(w, newReportView(r))
	}

	status := okStyle.Render("✓")
	if !r.OK() {
		status = failStyle.Render("✗")
	}
	fmt.Fprintf(w, "%s %s: %d/%d succeeded (%.1fs)\n", status, r.Label, r.Succeeded, r.Total, r.Duration.Seconds())

	if len(r.Rejected) > 0 {
		fmt.Fprintf(w, "\n%d rows rejected before upload:\n", len(r.Rejected))
		for i, re := range r.Rejected {
			if i == shownFailures {
				fmt.Fprintf(w, "  ... and %d more\n", len(r.Rejected)-shownFailures)
				break
			}
			fmt.Fprintf(w, "  row %d: %s\n", re.Row, re.Reason)
		}
	}

	if r.Failed > 0 {
		fmt.Fprintf(w, "\nFailures (%d):\n", r.Failed)
		for _, f := range r.FirstFailures(shownFailures) {
			fmt.Fprintf(w, "  ✗ %s: %s\n", f.Key, f.Reason)
		}
		if r.Failed > shownFailures {
			fmt.Fprintf(w, "  ... and %d more\n", r.Failed-shownFailures)
		}
	}

	if r.Halted != nil {
		fmt.Fprintf(w, "\nStopped early: %v (%d not attempted)\n", r.Halted, r.NotAttempted)
	}
	if r.RunID != "" {
		fmt.Fprintf(w, "\nRetry the failed items with: stockdesk runs retry %s\n", r.RunID)
	}
	return nil
}
