package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/domain"
)

var (
	stockEntry application.StockEntry
	stockAt    string
)

// NewStockCmd creates the stock subcommand
func NewStockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Record a single stock movement",
	}

	inCmd := &cobra.Command{
		Use:   "in",
		Short: "Record goods received",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStock(cmd, domain.TxIn)
		},
	}
	outCmd := &cobra.Command{
		Use:   "out",
		Short: "Record goods issued",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStock(cmd, domain.TxOut)
		},
	}

	for _, c := range []*cobra.Command{inCmd, outCmd} {
		f := c.Flags()
		f.StringVar(&stockEntry.Code, "code", "", "Product code")
		f.IntVar(&stockEntry.Quantity, "qty", 0, "Quantity")
		f.Float64Var(&stockEntry.UnitPrice, "price", 0, "Unit price (default: product price)")
		f.StringVar(&stockEntry.Operator, "operator", "", "Operator (default: api.operator)")
		f.StringVar(&stockEntry.Reference, "ref", "", "Reference document")
		f.StringVar(&stockEntry.Note, "note", "", "Note")
		f.StringVar(&stockAt, "at", "", `When it happened, "YYYY-MM-DD HH:MM" (default: now)`)
		_ = c.MarkFlagRequired("code")
		_ = c.MarkFlagRequired("qty")
	}

	cmd.AddCommand(inCmd, outCmd)
	return cmd
}

func runStock(cmd *cobra.Command, typ domain.TxType) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	entry := stockEntry
	if entry.At, err = parseAt(stockAt); err != nil {
		return err
	}
	if entry.Operator == "" {
		entry.Operator = app.Config.API.Operator
	}

	record := app.TxSvc.StockIn
	if typ == domain.TxOut {
		record = app.TxSvc.StockOut
	}
	tx, err := record(cmd.Context(), entry)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, tx)
	}
	fmt.Fprintf(out, "%s Recorded %s %s x %s (%s) at %s\n",
		okStyle.Render("✓"), typ, tui.FormatInt(tx.Quantity), tx.ProductCode, tx.ProductName,
		tui.FormatDateTime(tx.OccurredAt))
	return nil
}
