package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/pkg/cli"
	"github.com/haivivi/gfifo/pkg/fifo"
)

var watchCount int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print readiness events as they happen",
	Long: `Subscribe to the buffer and print each event until interrupted:
READABLE when an empty buffer receives data, WRITABLE when a full buffer
gains free space. Events are edge-triggered; a write into a non-empty
buffer produces nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := dial(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Subscribe(ctx); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		st := cli.NewStyles(cli.DefaultTheme)
		fmt.Fprintln(w, st.Header("gfifo watch", "server", clientURL()))

		last := time.Now()
		seen := 0
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-c.Events():
				if !ok {
					cli.PrintWarning(w, "server disconnected")
					return errors.New("connection closed")
				}
				now := time.Now()
				style := st.Readable
				if ev == fifo.EventWritable {
					style = st.Writable
				}
				detail := "+" + cli.FormatDuration(now.Sub(last))
				if stats, err := c.Stat(ctx); err == nil {
					detail = cli.FormatOccupancy(stats.Len, stats.Cap) + "  " + detail
				}
				fmt.Fprintln(w, st.EventLine(now, style, ev.String(), detail))
				last = now

				seen++
				if watchCount > 0 && seen >= watchCount {
					return c.Unsubscribe(ctx)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "exit after this many events (0 means run until interrupted)")
	rootCmd.AddCommand(watchCmd)
}
