// Package main is the entry point for the gfifo CLI.
//
// Usage:
//
//	gfifo [flags] <command> [args]
//
// Commands:
//
//	serve   - Host a buffer over WebSocket
//	write   - Write bytes (blocking or -n)
//	read    - Read bytes (blocking or -n)
//	reset   - Discard buffered bytes
//	poll    - Report readiness, optionally waiting
//	watch   - Print READABLE/WRITABLE events
//	stat    - Show buffer statistics
//	config  - Inspect or initialize the config file
//	version - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/gfifo/cmd/gfifo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
