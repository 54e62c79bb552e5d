package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/devbush/stockdesk/internal/config"
)

var configForce bool

// NewConfigCmd creates the config subcommand
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	initCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *globalConfig
	if shown.API.Token != "" {
		shown.API.Token = "********"
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, shown)
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintf(out, "# %s\n%s", globalConfigPath, data)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(globalConfigPath); err == nil && !configForce {
		return fmt.Errorf("%s already exists, pass --force to overwrite", globalConfigPath)
	}

	if err := config.DefaultConfig().Save(globalConfigPath); err != nil {
		return err
	}
	if err := config.EnsureDirs(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", globalConfigPath)
	return nil
}
