package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/domain"
)

var (
	historyQuery  application.HistoryQuery
	historyEntity string
	historyAction string
	historySince  string
)

// NewHistoryCmd creates the history subcommand
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the activity log, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	f := cmd.Flags()
	f.StringVar(&historyEntity, "entity", "", "product, inventory or transaction")
	f.StringVar(&historyAction, "action", "", "create, update, delete, import, export, stock_in, stock_out")
	f.StringVar(&historyQuery.Actor, "actor", "", "Who made the change")
	f.StringVar(&historySince, "since", "", "Lookback (7d, 12h) or date YYYY-MM-DD")
	f.IntVar(&historyQuery.Page, "page", 1, "Page number")
	f.IntVar(&historyQuery.PageSize, "page-size", 0, "Rows per page (default from config)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	q := historyQuery
	q.Entity = domain.Entity(historyEntity)
	q.Action = domain.Action(historyAction)
	if q.Since, err = parseSince(historySince, time.Now()); err != nil {
		return err
	}
	if q.PageSize == 0 {
		q.PageSize = app.Config.Display.PageSize
	}

	page, err := app.HistorySvc.List(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, page)
	}
	if page.Total == 0 {
		fmt.Fprintln(out, "No activity found")
		return nil
	}

	rows := make([][]string, 0, len(page.Items))
	for _, a := range page.Items {
		rows = append(rows, []string{
			tui.FormatDateTime(a.At), string(a.Action), string(a.Entity), a.Actor, tui.Truncate(a.Summary, 60),
		})
	}
	renderTable(out, []string{"When", "Action", "Entity", "Actor", "Summary"}, rows)
	pageFooter(out, page.Page, page.TotalPages, page.Total, "entries")
	return nil
}
