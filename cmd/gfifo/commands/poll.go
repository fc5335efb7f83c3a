package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/pkg/fifo"
)

var (
	pollRead  bool
	pollWrite bool
	pollWait  bool
)

type pollResult struct {
	Ready    string `json:"ready" yaml:"ready"`
	Readable bool   `json:"readable" yaml:"readable"`
	Writable bool   `json:"writable" yaml:"writable"`
}

var pollCmd = &cobra.Command{
	Use:   "poll [--read] [--write] [--wait]",
	Short: "Report buffer readiness",
	Long: `Report which directions are ready: readable when the buffer holds
data, writable when it has free space. Without --read or --write both are
checked. With --wait the command blocks until one of them is ready.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var interest fifo.Mask
		if pollRead {
			interest |= fifo.Readable
		}
		if pollWrite {
			interest |= fifo.Writable
		}
		if interest == 0 {
			interest = fifo.All
		}

		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		var ready fifo.Mask
		if pollWait {
			ready, err = c.Wait(cmd.Context(), interest)
		} else {
			ready, err = c.Poll(cmd.Context(), interest)
		}
		if err != nil {
			return err
		}
		return output(cmd, pollResult{
			Ready:    ready.String(),
			Readable: ready&fifo.Readable != 0,
			Writable: ready&fifo.Writable != 0,
		})
	},
}

func init() {
	pollCmd.Flags().BoolVarP(&pollRead, "read", "r", false, "check readability")
	pollCmd.Flags().BoolVarP(&pollWrite, "write", "w", false, "check writability")
	pollCmd.Flags().BoolVar(&pollWait, "wait", false, "block until ready")
	rootCmd.AddCommand(pollCmd)
}
