package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/pkg/encoding"
)

var (
	writeNonblock bool
	writeOnce     bool
	writeAs       string
)

type writeResult struct {
	Written int `json:"written" yaml:"written"`
	Total   int `json:"total" yaml:"total"`
}

var writeCmd = &cobra.Command{
	Use:   "write [-n] [DATA...|-]",
	Short: "Write bytes to the buffer",
	Long: `Write the arguments (joined by spaces) or, with '-' or no arguments,
standard input.

A blocking write waits while the buffer is full and keeps writing until
all input is stored, like a shell redirect into a pipe. With --once only
one write is issued and a short count is reported as is. With -n a full
buffer fails immediately with "operation would block".

With --as hex or --as base64 the input is decoded before writing, so
binary data can be passed on the command line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		as, err := encoding.ParseName(writeAs)
		if err != nil {
			return err
		}

		var data []byte
		if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			data = b
		} else {
			data = []byte(strings.Join(args, " "))
		}
		if data, err = as.Decode(data); err != nil {
			return err
		}

		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		res := writeResult{Total: len(data)}
		for res.Written < len(data) || len(data) == 0 {
			n, err := c.Write(cmd.Context(), data[res.Written:], writeNonblock)
			res.Written += n
			if err != nil {
				return fmt.Errorf("write after %d of %d bytes: %w", res.Written, len(data), err)
			}
			slog.Debug("gfifo: written", "bytes", n, "total", res.Written)
			if writeOnce || writeNonblock || len(data) == 0 {
				break
			}
		}
		return output(cmd, res)
	},
}

func init() {
	writeCmd.Flags().BoolVarP(&writeNonblock, "nonblock", "n", false, "fail instead of waiting on a full buffer")
	writeCmd.Flags().BoolVar(&writeOnce, "once", false, "issue a single write and report a short count")
	writeCmd.Flags().StringVar(&writeAs, "as", "raw", "input encoding: raw, hex or base64")
	rootCmd.AddCommand(writeCmd)
}
