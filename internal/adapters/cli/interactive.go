package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/domain"
)

var stdin = bufio.NewReader(os.Stdin)

// prompt reads one trimmed line from stdin
func prompt(label string) string {
	fmt.Print(label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func runInteractiveMenu(cmd *cobra.Command) error {
	options := []tui.MenuOption{
		{Label: "Dashboard", Value: "dashboard"},
		{Label: "List products", Value: "products"},
		{Label: "Record stock in", Value: "in"},
		{Label: "Record stock out", Value: "out"},
		{Label: "Import a CSV file", Value: "import", Hint: "products, inventory or transactions"},
		{Label: "Delete transactions", Value: "tx-delete", Hint: "pick from the latest entries"},
		{Label: "Retry a failed run", Value: "runs", Hint: "re-run only the failed items"},
	}

	selected, err := tui.RunMenu("What would you like to do?", options)
	if err != nil {
		return err
	}

	switch selected {
	case "dashboard":
		return runDashboard(cmd, nil)
	case "products":
		return runProductList(cmd, nil)
	case "in":
		return runStockInteractive(cmd, domain.TxIn)
	case "out":
		return runStockInteractive(cmd, domain.TxOut)
	case "import":
		return runImportInteractive(cmd)
	case "tx-delete":
		txPick = true
		return runTxDelete(cmd, nil)
	case "runs":
		return runRetryInteractive(cmd)
	case "":
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
	}

	return nil
}

func runStockInteractive(cmd *cobra.Command, typ domain.TxType) error {
	code := prompt("Product code: ")
	qty, err := strconv.Atoi(prompt("Quantity: "))
	if err != nil {
		return fmt.Errorf("%w: quantity must be a whole number", domain.ErrInvalidInput)
	}

	stockEntry = application.StockEntry{Code: code, Quantity: qty, Reference: prompt("Reference (optional): ")}
	return runStock(cmd, typ)
}

func runImportInteractive(cmd *cobra.Command) error {
	target, err := tui.RunMenu("What does the file contain?", []tui.MenuOption{
		{Label: "Products", Value: "products"},
		{Label: "Transactions", Value: "transactions"},
		{Label: "Inventory records", Value: "inventory"},
	})
	if err != nil || target == "" {
		return err
	}

	path := []string{prompt("CSV path: ")}
	switch target {
	case "products":
		ok, err := tui.Confirm("Update products whose code already exists?")
		if err != nil {
			return err
		}
		productUpsert = ok
		return runProductImport(cmd, path)
	case "transactions":
		return runTxImport(cmd, path)
	default:
		return runInventoryImport(cmd, path)
	}
}

func runRetryInteractive(cmd *cobra.Command) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	runs, err := app.RunSvc.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No journaled runs")
		return nil
	}

	options := make([]tui.MenuOption, 0, len(runs))
	for _, r := range runs {
		options = append(options, tui.MenuOption{
			Label: fmt.Sprintf("%s  %-20s %d failed  %s", shortID(r.ID), r.Kind, r.Failed, tui.FormatDateTime(r.CreatedAt)),
			Value: r.ID,
		})
	}
	id, err := tui.RunMenu("Which run should be retried?", options)
	if err != nil || id == "" {
		return err
	}
	return runRunsRetry(cmd, []string{id})
}
