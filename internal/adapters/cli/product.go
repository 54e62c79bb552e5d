package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/adapters/cli/tui"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/batch"
	"github.com/devbush/stockdesk/internal/domain"
)

var (
	productQuery application.ProductQuery

	productFields   domain.Product
	productUpsert   bool
	productIDsFile  string
	productPick     bool
	productColumns  []string
	productPickCols bool
)

// NewProductCmd creates the product subcommand
func NewProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "product",
		Aliases: []string{"products"},
		Short:   "Manage the product catalog",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE:  runProductList,
	}
	addProductQueryFlags(listCmd)

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE:  runProductGet,
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE:  runProductAdd,
	}
	addProductFieldFlags(addCmd)
	_ = addCmd.MarkFlagRequired("code")
	_ = addCmd.MarkFlagRequired("name")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a product",
		Args:  cobra.ExactArgs(1),
		RunE:  runProductUpdate,
	}
	addProductFieldFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete [ids...]",
		Short: "Delete products",
		Long: `Delete one product, or many in chunks.

IDs come from arguments, from a file with --file (one per line), or from an
interactive picker with --pick.`,
		RunE: runProductDelete,
	}
	deleteCmd.Flags().StringVarP(&productIDsFile, "file", "f", "", "File with product IDs (one per line)")
	deleteCmd.Flags().BoolVar(&productPick, "pick", false, "Pick products interactively")
	addProductQueryFlags(deleteCmd)

	importCmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import products from CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runProductImport,
	}
	importCmd.Flags().BoolVar(&productUpsert, "upsert", false, "Update products whose code already exists")

	exportCmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Export products to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runProductExport,
	}
	addProductQueryFlags(exportCmd)
	exportCmd.Flags().StringSliceVar(&productColumns, "columns", nil, "Columns to export (default all)")
	exportCmd.Flags().BoolVar(&productPickCols, "pick-columns", false, "Choose columns interactively")

	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories and product counts",
		Args:  cobra.NoArgs,
		RunE:  runProductCategories,
	}

	cmd.AddCommand(listCmd, getCmd, addCmd, updateCmd, deleteCmd, importCmd, exportCmd, categoriesCmd)
	return cmd
}

func addProductQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&productQuery.Keyword, "keyword", "k", "", "Match code, name or spec")
	cmd.Flags().StringVar(&productQuery.Category, "category", "", "Exact category")
	cmd.Flags().StringVar(&productQuery.Sort, "sort", "", "Sort as field[:asc|desc], fields: "+strings.Join(application.ProductSortFields(), ", "))
	cmd.Flags().IntVar(&productQuery.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&productQuery.PageSize, "page-size", 0, "Rows per page (default from config)")
}

func addProductFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&productFields.Code, "code", "", "Product code")
	f.StringVar(&productFields.Name, "name", "", "Product name")
	f.StringVar(&productFields.Category, "category", "", "Category")
	f.StringVar(&productFields.Unit, "unit", "", "Unit of measure")
	f.StringVar(&productFields.Spec, "spec", "", "Specification")
	f.Float64Var(&productFields.Price, "price", 0, "Unit price")
	f.IntVar(&productFields.SafetyStock, "safety-stock", 0, "Low-stock threshold")
	f.StringVar(&productFields.Remark, "remark", "", "Remark")
}

func runProductList(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	q := productQuery
	if q.PageSize == 0 {
		q.PageSize = app.Config.Display.PageSize
	}
	page, err := app.CatalogSvc.List(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, page)
	}
	if page.Total == 0 {
		fmt.Fprintln(out, "No products found")
		return nil
	}

	rows := make([][]string, 0, len(page.Items))
	for _, p := range page.Items {
		rows = append(rows, []string{
			p.ID, p.Code, tui.Truncate(p.Name, 32), p.Category, p.Unit,
			tui.FormatMoney(p.Price), tui.FormatInt(p.SafetyStock),
		})
	}
	renderTable(out, []string{"ID", "Code", "Name", "Category", "Unit", "Price", "Safety"}, rows)
	pageFooter(out, page.Page, page.TotalPages, page.Total, "products")
	return nil
}

func runProductGet(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	p, err := app.CatalogSvc.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printProduct(cmd, p)
}

func printProduct(cmd *cobra.Command, p *domain.Product) error {
	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, p)
	}

	renderTable(out, []string{"Field", "Value"}, [][]string{
		{"ID", p.ID},
		{"Code", p.Code},
		{"Name", p.Name},
		{"Category", p.Category},
		{"Unit", p.Unit},
		{"Spec", p.Spec},
		{"Price", tui.FormatMoney(p.Price)},
		{"Safety stock", tui.FormatInt(p.SafetyStock)},
		{"Remark", p.Remark},
		{"Updated", tui.FormatDateTime(p.UpdatedAt)},
	})
	return nil
}

func runProductAdd(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	p := productFields
	created, err := app.CatalogSvc.Create(cmd.Context(), &p)
	if err != nil {
		return err
	}
	return printProduct(cmd, created)
}

func runProductUpdate(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	p, err := app.CatalogSvc.Get(ctx, args[0])
	if err != nil {
		return err
	}

	// Only flags the user set replace stored values
	flags := cmd.Flags()
	changed := false
	apply := func(name string, set func()) {
		if flags.Changed(name) {
			set()
			changed = true
		}
	}
	apply("code", func() { p.Code = productFields.Code })
	apply("name", func() { p.Name = productFields.Name })
	apply("category", func() { p.Category = productFields.Category })
	apply("unit", func() { p.Unit = productFields.Unit })
	apply("spec", func() { p.Spec = productFields.Spec })
	apply("price", func() { p.Price = productFields.Price })
	apply("safety-stock", func() { p.SafetyStock = productFields.SafetyStock })
	apply("remark", func() { p.Remark = productFields.Remark })
	if !changed {
		return fmt.Errorf("%w: nothing to update, pass at least one field flag", domain.ErrInvalidInput)
	}

	updated, err := app.CatalogSvc.Update(ctx, p)
	if err != nil {
		return err
	}
	return printProduct(cmd, updated)
}

func runProductDelete(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ids, err := CollectIDs(args, productIDsFile)
	if err != nil {
		return fmt.Errorf("failed to collect ids: %w", err)
	}

	if productPick {
		picked, err := pickProducts(cmd, app)
		if err != nil {
			return err
		}
		ids = append(ids, picked...)
	}

	switch len(ids) {
	case 0:
		return fmt.Errorf("%w: no product ids given", domain.ErrInvalidInput)
	case 1:
		if err := app.CatalogSvc.Delete(ctx, ids[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted product %s\n", ids[0])
		return nil
	}

	return runBatchCmd(cmd, func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error) {
		return app.CatalogSvc.DeleteMany(ctx, ids, onProgress)
	})
}

func pickProducts(cmd *cobra.Command, app *App) ([]string, error) {
	q := productQuery
	q.Page, q.PageSize = 1, maxPickRows
	page, err := app.CatalogSvc.List(cmd.Context(), q)
	if err != nil {
		return nil, err
	}

	items := make([]tui.PickItem, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, tui.PickItem{
			Label: fmt.Sprintf("%-12s %s", p.Code, tui.Truncate(p.Name, 40)),
			Value: p.ID,
		})
	}
	return tui.RunPicker("Select products to delete:", items)
}

func runProductImport(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	sheet, err := app.Sheets.Read(args[0])
	if err != nil {
		return err
	}

	opts := application.ImportOptions{Upsert: productUpsert}
	return runBatchCmd(cmd, func(ctx context.Context, onProgress batch.ProgressFunc) (*application.BatchReport, error) {
		return app.CatalogSvc.ImportSheet(ctx, sheet, opts, onProgress)
	})
}

func runProductExport(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	columns := productColumns
	for _, c := range columns {
		if !slices.Contains(application.ProductColumns, c) {
			return fmt.Errorf("%w: unknown column %q, available: %s",
				domain.ErrInvalidInput, c, strings.Join(application.ProductColumns, ", "))
		}
	}
	if productPickCols {
		columns, err = tui.RunColumnPicker("Columns to export:", application.ProductColumns, []string{application.ColCode})
		if err != nil {
			return err
		}
		if columns == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}

	sheet, err := app.CatalogSvc.Export(cmd.Context(), productQuery, columns)
	if err != nil {
		return err
	}
	if err := app.Sheets.Write(args[0], sheet); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", len(sheet.Rows), args[0])
	return nil
}

func runProductCategories(cmd *cobra.Command, args []string) error {
	app, err := GetApp()
	if err != nil {
		return err
	}

	cats, err := app.CatalogSvc.Categories(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, cats)
	}

	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{c.Name, tui.FormatInt(c.Count)})
	}
	renderTable(out, []string{"Category", "Products"}, rows)
	return nil
}
