package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
)

var (
	inventoryQuery  application.InventoryQuery
	inventoryYes    bool
	inventoryPeriod string
	ledgerDrifted   bool
)

// NewInventoryCmd creates the inventory subcommand
func NewInventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "Manage period inventory records",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List inventory records",
		Args:  cobra.NoArgs,
		RunE:  runInventoryList,
	}
	addInventoryQueryFlags(listCmd)

	importCmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import inventory records from CSV",
		Long: `Import inventory records from CSV.

Ending stock is always recomputed as opening + in - out before upload.`,
		Args: cobra.ExactArgs(1),
		RunE: runInventoryImport,
	}

	exportCmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Export inventory records to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runInventoryExport,
	}
	addInventoryQueryFlags(exportCmd)

	deleteAllCmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every inventory record",
		Args:  cobra.NoArgs,
		RunE:  runInventoryDeleteAll,
	}
	deleteAllCmd.Flags().BoolVarP(&inventoryYes, "yes", "y", false, "Skip confirmation")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show computed stock movement for a period",
		Args:  cobra.NoArgs,
		RunE:  runInventoryLedger,
	}
	ledgerCmd.Flags().StringVar(&inventoryPeriod, "period", "", "Period YYYY-MM (default: current month)")
	ledgerCmd.Flags().BoolVar(&ledgerDrifted, "drifted", false, "Only show lines whose stored ending stock differs")

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Rewrite records that disagree with the ledger",
		Args:  cobra.NoArgs,
		RunE:  runInventoryReconcile,
	}
	reconcileCmd.Flags().StringVar(&inventoryPeriod, "period", "", "Period YYYY-MM (default: current month)")

	cmd.AddCommand(listCmd, importCmd, exportCmd, deleteAllCmd, ledgerCmd, reconcileCmd)
	return cmd
}

func addInventoryQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&inventoryQuery.Period, "period", "", "Period YYYY-MM")
	f.StringVarP(&inventoryQuery.Keyword, "keyword", "k", "", "Match code, name or location")
	f.BoolVar(&inventoryQuery.LowOnly, "low", false, "Only records below safety stock")
	f.StringVar(&inventoryQuery.Sort, "sort", "", "Sort as field[:asc|desc], fields: "+strings.Join(application.InventorySortFields(), ", "))
	f.IntVar(&inventoryQuery.Page, "page", 1, "Page number")
	f.IntVar(&inventoryQuery.PageSize, "page-size", 0, "Rows per page (default from config)")
}

func period() string {
	if inventoryPeriod == "" {
		return domain.CurrentPeriod(time.Now())
	}
	return inventoryPeriod
}

func runInventoryList(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	q := inventoryQuery
	if q.PageSize == 0 {
		q.PageSize = app.Config.Display.PageSize
	}
	page, err := app.InventorySvc.List(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, page)
	}
	if page.Total == 0 {
		fmt.Fprintln(out, "No inventory records found")
		return nil
	}

	rows := make([][]string, 0, len(page.Items))
	for _, r := range page.Items {
		ending := tui.FormatInt(r.EndingStock)
		if r.IsLow() {
			ending = failStyle.Render(ending + " low")
		}
		rows = append(rows, []string{
			r.ID, r.Period, r.ProductCode, tui.Truncate(r.ProductName, 28),
			tui.FormatInt(r.OpeningStock), tui.FormatInt(r.StockIn), tui.FormatInt(r.StockOut),
			ending, r.Location,
		})
	}
	renderTable(out, []string{"ID", "Period", "Code", "Product", "Opening", "In", "Out", "Ending", "Location"}, rows)
	pageFooter(out, page.Page, page.TotalPages, page.Total, "records")
	return nil
}

func runInventoryImport(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	sheet, err := app.Sheets.Read(args[0])
	if err != nil {
		return err
	}

	return runBatchCmd(cmd, func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error) {
		return app.InventorySvc.ImportSheet(ctx, sheet, onProgress)
	})
}

func runInventoryExport(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	sheet, err := app.InventorySvc.Export(cmd.Context(), inventoryQuery)
	if err != nil {
		return err
	}
	if err := app.Sheets.Write(args[0], sheet); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d inventory records to %s\n", len(sheet.Rows), args[0])
	return nil
}

func runInventoryDeleteAll(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	ok, err := confirm("Delete every inventory record? This cannot be undone.", inventoryYes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
		return nil
	}

	return runBatchCmd(cmd, func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error) {
		return app.InventorySvc.DeleteAll(ctx, onProgress)
	})
}

// confirm asks question on a terminal; yes skips the prompt
func confirm(question string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !tui.IsTerminal(os.Stdin) {
		return false, fmt.Errorf("%w: confirmation required, pass --yes", domain.ErrInvalidInput)
	}
	return tui.Confirm(question)
}

func runInventoryLedger(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	lines, err := app.InventorySvc.Ledger(cmd.Context(), period())
	if err != nil {
		return err
	}
	if ledgerDrifted {
		kept := lines[:0]
		for _, l := range lines {
			if l.Drift() != 0 {
				kept = append(kept, l)
			}
		}
		lines = kept
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, lines)
	}
	if len(lines) == 0 {
		fmt.Fprintf(out, "No ledger lines for %s\n", period())
		return nil
	}

	rows := make([][]string, 0, len(lines))
	drifted := 0
	for _, l := range lines {
		stored, drift := "-", ""
		if l.HasRecord {
			stored = tui.FormatInt(l.Stored)
		}
		if d := l.Drift(); d != 0 {
			drift = failStyle.Render(fmt.Sprintf("%+d", d))
			drifted++
		}
		rows = append(rows, []string{
			l.ProductCode, tui.Truncate(l.ProductName, 28),
			tui.FormatInt(l.Opening), tui.FormatInt(l.In), tui.FormatInt(l.Out),
			tui.FormatInt(l.Ending), stored, drift,
		})
	}
	renderTable(out, []string{"Code", "Product", "Opening", "In", "Out", "Ending", "Stored", "Drift"}, rows)
	if drifted > 0 {
		fmt.Fprintf(out, "%d lines drift from their records; run \"stockdesk inventory reconcile --period %s\"\n", drifted, period())
	}
	return nil
}

func runInventoryReconcile(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	p := period()
	return runBatchCmd(cmd, func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error) {
		return app.InventorySvc.Reconcile(ctx, p, onProgress)
	})
}
