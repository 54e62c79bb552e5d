package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
)

// maxPickRows bounds the records offered by interactive pickers.
const maxPickRows = 500

var (
	txQuery   application.TxQuery
	txType    string
	txFrom    string
	txTo      string
	txIDsFile string
	txPick    bool
)

// NewTxCmd creates the tx subcommand
func NewTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Manage stock transactions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runTxList,
	}
	addTxQueryFlags(listCmd)

	importCmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Record transactions from CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runTxImport,
	}

	exportCmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Export transactions to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runTxExport,
	}
	addTxQueryFlags(exportCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete [ids...]",
		Short: "Delete transactions",
		Long: `Delete transactions in chunks.

IDs come from arguments, from a file with --file, or from an interactive
picker over the transactions matching the list filters with --pick.`,
		RunE: runTxDelete,
	}
	deleteCmd.Flags().StringVarP(&txIDsFile, "file", "f", "", "File with transaction IDs (one per line)")
	deleteCmd.Flags().BoolVar(&txPick, "pick", false, "Pick transactions interactively")
	addTxQueryFlags(deleteCmd)

	cmd.AddCommand(listCmd, importCmd, exportCmd, deleteCmd)
	return cmd
}

func addTxQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&txType, "type", "", "Direction: in or out")
	f.StringVar(&txQuery.Product, "product", "", "Product code or ID")
	f.StringVar(&txFrom, "from", "", "First day, YYYY-MM-DD")
	f.StringVar(&txTo, "to", "", "Last day, YYYY-MM-DD")
	f.StringVarP(&txQuery.Keyword, "keyword", "k", "", "Match code, name, operator, reference or note")
	f.StringVar(&txQuery.Sort, "sort", "", "Sort as field[:asc|desc], fields: "+strings.Join(application.TxSortFields(), ", "))
	f.IntVar(&txQuery.Page, "page", 1, "Page number")
	f.IntVar(&txQuery.PageSize, "page-size", 0, "Rows per page (default from config)")
}

// buildTxQuery resolves the string flags into a query
func buildTxQuery(app *App) (application.TxQuery, error) {
	q := txQuery
	if txType != "" {
		typ, err := domain.ParseTxType(txType)
		if err != nil {
			return q, err
		}
		q.Type = typ
	}

	r, err := parseDateRange(txFrom, txTo)
	if err != nil {
		return q, err
	}
	q.Range = r

	if q.PageSize == 0 {
		q.PageSize = app.Config.Display.PageSize
	}
	return q, nil
}

func runTxList(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	q, err := buildTxQuery(app)
	if err != nil {
		return err
	}
	page, err := app.TxSvc.List(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, page)
	}
	if page.Total == 0 {
		fmt.Fprintln(out, "No transactions found")
		return nil
	}

	rows := make([][]string, 0, len(page.Items))
	for _, t := range page.Items {
		rows = append(rows, []string{
			t.ID, tui.FormatDateTime(t.OccurredAt), strings.ToUpper(string(t.Type)),
			t.ProductCode, tui.Truncate(t.ProductName, 28), tui.FormatInt(t.Quantity),
			tui.FormatMoney(t.Amount()), t.Operator, t.Reference,
		})
	}
	renderTable(out, []string{"ID", "When", "Type", "Code", "Product", "Qty", "Amount", "Operator", "Ref"}, rows)
	pageFooter(out, page.Page, page.TotalPages, page.Total, "transactions")
	return nil
}

func runTxImport(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	sheet, err := app.Sheets.Read(args[0])
	if err != nil {
		return err
	}

	return runBatchCmd(cmd, func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error) {
		return app.TxSvc.ImportSheet(ctx, sheet, onProgress)
	})
}

func runTxExport(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	q, err := buildTxQuery(app)
	if err != nil {
		return err
	}
	sheet, err := app.TxSvc.Export(cmd.Context(), q)
	if err != nil {
		return err
	}
	if err := app.Sheets.Write(args[0], sheet); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(sheet.Rows), args[0])
	return nil
}

func runTxDelete(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	ids, err := CollectIDs(args, txIDsFile)
	if err != nil {
		return fmt.Errorf("failed to collect ids: %w", err)
	}

	if txPick {
		picked, err := pickTransactions(cmd, app)
		if err != nil {
			return err
		}
		ids = append(ids, picked...)
	}

	if len(ids) == 0 {
		return fmt.Errorf("%w: no transaction ids given", domain.ErrInvalidInput)
	}

	return runBatchCmd(cmd, func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error) {
		return app.TxSvc.BatchDelete(ctx, ids, onProgress)
	})
}

func pickTransactions(cmd *cobra.Command, app *App) ([]string, error) {
	q, err := buildTxQuery(app)
	if err != nil {
		return nil, err
	}
	q.Page, q.PageSize = 1, maxPickRows

	page, err := app.TxSvc.List(cmd.Context(), q)
	if err != nil {
		return nil, err
	}

	items := make([]tui.PickItem, 0, len(page.Items))
	for _, t := range page.Items {
		items = append(items, tui.PickItem{Label: tui.FormatTxLine(t, 24), Value: t.ID})
	}
	return tui.RunPicker("Select transactions to delete:", items)
}
