// Package config provides the configuration file for the gfifo CLI.
//
// The file lives under os.UserConfigDir()/gfifo/:
//
//	~/Library/Application Support/gfifo/config.yaml   (macOS)
//	~/.config/gfifo/config.yaml                       (Linux)
//	%AppData%/gfifo/config.yaml                       (Windows)
//
// GFIFO_CONFIG overrides the location. A missing file is not an error: the
// defaults are used.
//
// Example:
//
//	server:
//	  listen: ":7070"
//	  path: /fifo
//	  capacity: 4096
//	  metrics: true
//	client:
//	  url: ws://127.0.0.1:7070/fifo
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "gfifo"

	// fileName is the configuration file inside appDir.
	fileName = "config.yaml"

	// EnvPath names the environment variable that overrides the file path.
	EnvPath = "GFIFO_CONFIG"
)

// Defaults.
const (
	DefaultListen   = ":7070"
	DefaultPath     = "/fifo"
	DefaultCapacity = 0x1000
	DefaultURL      = "ws://127.0.0.1:7070/fifo"
)

// Config is the CLI configuration.
type Config struct {
	// File is the path the configuration was loaded from.
	File string `json:"-" yaml:"-"`

	Server Server `json:"server" yaml:"server"`
	Client Client `json:"client" yaml:"client"`
}

// Server configures `gfifo serve`.
type Server struct {
	// Listen is the TCP address to listen on.
	Listen string `json:"listen" yaml:"listen"`

	// Path is the WebSocket endpoint path.
	Path string `json:"path" yaml:"path"`

	// Capacity is the buffer size in bytes.
	Capacity int `json:"capacity" yaml:"capacity"`

	// Metrics enables the /metrics endpoint.
	Metrics bool `json:"metrics" yaml:"metrics"`
}

// Client configures the client commands.
type Client struct {
	// URL is the server endpoint, e.g. ws://127.0.0.1:7070/fifo.
	URL string `json:"url" yaml:"url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Listen:   DefaultListen,
			Path:     DefaultPath,
			Capacity: DefaultCapacity,
			Metrics:  true,
		},
		Client: Client{URL: DefaultURL},
	}
}

// DefaultFile returns the configuration file path, honoring GFIFO_CONFIG.
func DefaultFile() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	path, err := DefaultFile()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path. Fields absent from the file
// keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.File = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values a server or client would reject later.
func (c *Config) Validate() error {
	if c.Server.Capacity <= 0 {
		return fmt.Errorf("server.capacity must be positive, got %d", c.Server.Capacity)
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path must start with '/', got %q", c.Server.Path)
	}
	if c.Client.URL != "" {
		u, err := url.Parse(c.Client.URL)
		if err != nil {
			return fmt.Errorf("client.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("client.url scheme must be ws or wss, got %q", u.Scheme)
		}
	}
	return nil
}

// Save writes the configuration to c.File.
func (c *Config) Save() error {
	if c.File == "" {
		return fmt.Errorf("config has no file path")
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", c.File, err)
	}
	return nil
}
