package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/cmd/gfifo/internal/config"
	"github.com/haivivi/gfifo/pkg/cli"
	"github.com/haivivi/gfifo/pkg/fifonet"
)

var (
	// Global flags
	verbose      bool
	configFile   string
	serverURL    string
	outputFormat string

	// Global configuration (loaded before each command runs)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gfifo",
	Short: "Bounded byte-stream exchange point",
	Long: `gfifo - a fixed-capacity byte buffer shared by producers and consumers.

'gfifo serve' hosts the buffer over WebSocket; the other commands are
clients. Reads block while the buffer is empty and writes block while it
is full, unless -n (non-blocking) is given.

Configuration is read from the OS config directory:
  macOS:   ~/Library/Application Support/gfifo/config.yaml
  Linux:   ~/.config/gfifo/config.yaml
  Windows: %AppData%/gfifo/config.yaml

Examples:
  # Host a 4 KiB buffer
  gfifo serve --capacity 4096

  # Producer and consumer
  echo hello | gfifo write -
  gfifo read

  # Readiness, the select() view
  gfifo poll --wait --read

  # Edge-triggered events, the SIGIO view
  gfifo watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		if _, err := cli.ParseFormat(outputFormat); err != nil {
			return err
		}
		return loadConfig()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which interrupts blocking reads, waits and the server.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&configFile, "config", "", "config file (default $"+config.EnvPath+" or the OS config dir)")
	pf.StringVarP(&serverURL, "server", "s", "", "server URL (default from config, "+config.DefaultURL+")")
	pf.StringVarP(&outputFormat, "output", "o", "yaml", "output format (yaml, json)")
}

func setupLogger() {
	setupLoggerTo(os.Stderr)
}

func setupLoggerTo(w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	globalConfig = cfg
	return nil
}

// GetConfig returns the global configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		return config.Default()
	}
	return globalConfig
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// clientURL resolves the server URL: --server, then the config file.
func clientURL() string {
	if serverURL != "" {
		return serverURL
	}
	if u := GetConfig().Client.URL; u != "" {
		return u
	}
	return config.DefaultURL
}

// dial connects to the configured server.
func dial(cmd *cobra.Command) (*fifonet.Client, error) {
	url := clientURL()
	slog.Debug("gfifo: dialing", "url", url)
	return fifonet.Dial(cmd.Context(), url)
}

// output renders a structured result in the --output format.
func output(cmd *cobra.Command, v any) error {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.Output(v, cli.OutputOptions{Format: format, Writer: cmd.OutOrStdout()})
}
