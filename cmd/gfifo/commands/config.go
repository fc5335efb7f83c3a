package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialize the config file",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return output(cmd, GetConfig())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), GetConfig().File)
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if _, err := os.Stat(cfg.File); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfg.File)
		}
		if serverURL != "" {
			cfg.Client.URL = serverURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "wrote %s", cfg.File)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configViewCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
