package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/pkg/cli"
	"github.com/haivivi/gfifo/pkg/encoding"
	"github.com/haivivi/gfifo/pkg/fifo"
)

var (
	readNonblock bool
	readMax      int
	readFile     string
	readAs       string
)

type readResult struct {
	Read int `json:"read" yaml:"read"`
	Data any `json:"data" yaml:"data"`
}

var readCmd = &cobra.Command{
	Use:   "read [-n] [--max N]",
	Short: "Read bytes from the buffer",
	Long: `Read once, up to --max bytes, and print them unchanged to standard
output (or --file). A blocking read waits while the buffer is empty; with
-n an empty buffer fails immediately with "operation would block".

With --as hex or --as base64 the bytes are printed encoded, as a
structured result in the --output format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if readMax < 0 {
			return fmt.Errorf("--max must not be negative: %w", fifo.ErrInvalidArgument)
		}
		as, err := encoding.ParseName(readAs)
		if err != nil {
			return err
		}
		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		data, err := c.Read(cmd.Context(), readMax, readNonblock)
		if err != nil {
			return err
		}
		slog.Debug("gfifo: read", "bytes", len(data))

		if readFile != "" {
			return cli.OutputBytes(data, readFile)
		}
		if as != encoding.Raw {
			return output(cmd, readResult{Read: len(data), Data: as.Wrap(data)})
		}
		return cli.Output(data, cli.OutputOptions{Format: cli.FormatRaw, Writer: cmd.OutOrStdout()})
	},
}

func init() {
	readCmd.Flags().BoolVarP(&readNonblock, "nonblock", "n", false, "fail instead of waiting on an empty buffer")
	readCmd.Flags().IntVar(&readMax, "max", fifo.DefaultCapacity, "maximum number of bytes to read")
	readCmd.Flags().StringVarP(&readFile, "file", "f", "", "write the bytes to a file instead of stdout")
	readCmd.Flags().StringVar(&readAs, "as", "raw", "print bytes as raw, hex or base64")
	rootCmd.AddCommand(readCmd)
}
