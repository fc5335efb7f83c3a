package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/cmd/gfifo/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("output") {
			return output(cmd, build.Get())
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, build.String())
		if IsVerbose() {
			info := build.Get()
			fmt.Fprintf(w, "  go:     %s\n", info.Go)
			fmt.Fprintf(w, "  config: %s\n", GetConfig().File)
			fmt.Fprintf(w, "  server: %s\n", clientURL())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
