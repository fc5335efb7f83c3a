package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/pkg/cli"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all buffered bytes",
	Long: `Send the RESET control command. Buffered bytes are dropped; writers
blocked on a full buffer are woken.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Reset(cmd.Context()); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "buffer reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
