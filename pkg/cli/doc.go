// Package cli provides terminal output helpers for the gfifo command.
//
// This package includes:
//   - Result rendering as YAML, JSON or raw bytes (Output, OutputBytes)
//   - Human readable sizes and durations (FormatBytes, FormatOccupancy)
//   - lipgloss styles for the event stream printed by `gfifo watch`
//
// Example usage:
//
//	format, err := cli.ParseFormat(flagValue)
//	cli.Output(stats, cli.OutputOptions{Format: format})
//
//	st := cli.NewStyles(cli.DefaultTheme)
//	fmt.Println(st.EventLine(time.Now(), st.Readable, "READABLE", "3 B / 4.00 KB (0%)"))
package cli
