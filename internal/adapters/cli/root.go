package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devbush/stockdesk/internal/config"
)

// Output modes for --output
const (
	outputTable = "table"
	outputJSON  = "json"
)

var (
	// Global flags
	configFlag    string
	apiURLFlag    string
	chunkSizeFlag int
	delayFlag     string
	quietFlag     bool
	logLevelFlag  string
	outputFlag    string
)

var (
	globalConfig     *config.Config
	globalConfigPath string
	logCloser        io.Closer
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stockdesk",
		Short: "Warehouse inventory console",
		Long: `stockdesk manages a warehouse inventory backend from the terminal.

Products, stock transactions and period inventory records can be listed,
imported from CSV, exported and deleted in bulk. Bulk operations run in
chunks; failures are kept locally and can be retried with "stockdesk runs".

Run without arguments for an interactive menu.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE:              runRoot,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.stockdesk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Backend base URL")
	rootCmd.PersistentFlags().IntVar(&chunkSizeFlag, "chunk-size", 0, "Operations in flight per chunk")
	rootCmd.PersistentFlags().StringVar(&delayFlag, "delay", "", "Pause between chunks (e.g., 300ms, 1s)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", outputTable, "Output format: table, json")

	// Add subcommands
	rootCmd.AddCommand(NewProductCmd())
	rootCmd.AddCommand(NewStockCmd())
	rootCmd.AddCommand(NewTxCmd())
	rootCmd.AddCommand(NewInventoryCmd())
	rootCmd.AddCommand(NewHistoryCmd())
	rootCmd.AddCommand(NewDashboardCmd())
	rootCmd.AddCommand(NewRunsCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewCheckCmd())

	return rootCmd
}

// setup resolves configuration (file, then .env and environment, then
// flags) and puts the logger on the command context.
func setup(cmd *cobra.Command, _ []string) error {
	path := configFlag
	if path == "" {
		path = config.ConfigPath()
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if cfg.API.Operator == "" {
		cfg.API.Operator = os.Getenv("USER")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if outputFlag != outputTable && outputFlag != outputJSON {
		return fmt.Errorf("unknown output format: %s", outputFlag)
	}

	logger, closer, err := config.InitLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	closeLog()
	logCloser = closer

	cmd.SetContext(logger.WithContext(cmd.Context()))

	globalConfig = cfg
	globalConfigPath = path
	globalApp = nil
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = apiURLFlag
	}
	if flags.Changed("chunk-size") {
		cfg.Batch.ChunkSize = chunkSizeFlag
	}
	if flags.Changed("delay") {
		cfg.Batch.Delay = delayFlag
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevelFlag
	}
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	return runInteractiveMenu(cmd)
}

func jsonOutput() bool {
	return outputFlag == outputJSON
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	closeLog()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
