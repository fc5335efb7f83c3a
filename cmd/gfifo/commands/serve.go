package commands

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/haivivi/gfifo/pkg/fifo"
	"github.com/haivivi/gfifo/pkg/fifonet"
)

var (
	serveListen   string
	servePath     string
	serveCapacity int
	serveMetrics  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host a buffer over WebSocket",
	Long: `Host one shared buffer. Every WebSocket connection to --path is a
session on it. /healthz reports the buffer stats and /metrics exposes
Prometheus metrics unless --metrics=false.

Flags override the server section of the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := GetConfig().Server
		flags := cmd.Flags()
		if flags.Changed("listen") {
			sc.Listen = serveListen
		}
		if flags.Changed("path") {
			sc.Path = servePath
		}
		if flags.Changed("capacity") {
			sc.Capacity = serveCapacity
		}
		if flags.Changed("metrics") {
			sc.Metrics = serveMetrics
		}
		if sc.Capacity <= 0 {
			return fmt.Errorf("capacity must be positive, got %d", sc.Capacity)
		}

		logger := slog.Default()
		f, err := fifo.New(fifo.Config{Capacity: sc.Capacity, Logger: logger})
		if err != nil {
			return err
		}
		defer f.Close()

		var reg *prometheus.Registry
		if sc.Metrics {
			reg = prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		srv, err := fifonet.NewServer(fifonet.ServerConfig{
			FIFO:     f,
			Path:     sc.Path,
			Registry: reg,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		ln, err := net.Listen("tcp", sc.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", sc.Listen, err)
		}
		return srv.Serve(cmd.Context(), ln)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", ":7070", "TCP address to listen on")
	serveCmd.Flags().StringVar(&servePath, "path", fifonet.DefaultPath, "WebSocket endpoint path")
	serveCmd.Flags().IntVar(&serveCapacity, "capacity", fifo.DefaultCapacity, "buffer capacity in bytes")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "serve Prometheus metrics on /metrics")
	rootCmd.AddCommand(serveCmd)
}
