package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
)

// barWidth is the widest bar drawn in dashboard charts.
const barWidth = 30

var dashboardOpts application.DashboardOptions

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)
	figureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	inStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	outStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// NewDashboardCmd creates the dashboard subcommand
func NewDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show stock totals, low stock and recent flow",
		Args:  cobra.NoArgs,
		RunE:  runDashboard,
	}

	cmd.Flags().IntVar(&dashboardOpts.Days, "days", 0, "Days of daily in/out to show (default from config)")
	cmd.Flags().IntVar(&dashboardOpts.Top, "top", 0, "Products in the outflow ranking (default from config)")
	return cmd
}

func runDashboard(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	opts := dashboardOpts
	if opts.Days == 0 {
		opts.Days = app.Config.Display.TrendDays
	}
	if opts.Top == 0 {
		opts.Top = app.Config.Display.Top
	}

	ov, err := app.DashboardSvc.Overview(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, ov)
	}
	renderOverview(out, ov, opts)
	return nil
}

func renderOverview(w io.Writer, ov *application.Overview, opts application.DashboardOptions) {
	figure := func(label, value string) string {
		return panelStyle.Render(mutedStyle.Render(label) + "\n" + figureStyle.Render(value))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		figure("Products", tui.FormatInt(ov.ProductCount)),
		figure("Units on hand", tui.FormatInt(ov.TotalUnits)),
		figure("Stock value", tui.FormatMoney(ov.StockValue)),
		figure("Low stock", tui.FormatInt(len(ov.LowStock))),
	))

	fmt.Fprintf(w, "\nLast %d days: %s in, %s out\n", opts.Days,
		inStyle.Render(tui.FormatInt(ov.In)), outStyle.Render(tui.FormatInt(ov.Out)))
	peak := 1
	for _, d := range ov.Daily {
		peak = max(peak, d.In, d.Out)
	}
	for _, d := range ov.Daily {
		fmt.Fprintf(w, "  %s  %s %s\n", d.Date.Format("01-02"),
			inStyle.Render(fmt.Sprintf("%-*s", barWidth, bar(d.In, peak))+fmt.Sprintf(" %6s", tui.FormatInt(d.In))),
			outStyle.Render(fmt.Sprintf("%-*s", barWidth, bar(d.Out, peak))+fmt.Sprintf(" %6s", tui.FormatInt(d.Out))))
	}

	if len(ov.LowStock) > 0 {
		fmt.Fprintln(w, "\nBelow safety stock:")
		rows := make([][]string, 0, len(ov.LowStock))
		for _, l := range ov.LowStock {
			rows = append(rows, []string{l.Code, tui.Truncate(l.Name, 32), tui.FormatInt(l.Ending), tui.FormatInt(l.SafetyStock)})
		}
		renderTable(w, []string{"Code", "Product", "On hand", "Safety"}, rows)
	}

	if len(ov.TopOutflow) > 0 {
		fmt.Fprintf(w, "\nTop %d by outflow:\n", len(ov.TopOutflow))
		rows := make([][]string, 0, len(ov.TopOutflow))
		for i, p := range ov.TopOutflow {
			rows = append(rows, []string{fmt.Sprintf("%d", i+1), p.Code, tui.Truncate(p.Name, 32), tui.FormatInt(p.Out)})
		}
		renderTable(w, []string{"#", "Code", "Product", "Out"}, rows)
	}

	if len(ov.ByCategory) > 0 {
		fmt.Fprintln(w, "\nUnits by category:")
		peak := 1
		for _, c := range ov.ByCategory {
			peak = max(peak, c.Units)
		}
		for _, c := range ov.ByCategory {
			name := c.Category
			if name == "" {
				name = "(none)"
			}
			fmt.Fprintf(w, "  %-16s %s %s\n", tui.Truncate(name, 16), bar(c.Units, peak), tui.FormatInt(c.Units))
		}
	}
}

// bar draws n against peak, at least one cell when n is positive
func bar(n, peak int) string {
	if n <= 0 || peak <= 0 {
		return ""
	}
	cells := max(n*barWidth/peak, 1)
	return strings.Repeat("█", cells)
}
