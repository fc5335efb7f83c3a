package commands

import (
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Show buffer statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		st, err := c.Stat(cmd.Context())
		if err != nil {
			return err
		}
		return output(cmd, st)
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
