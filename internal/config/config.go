// Package config loads and validates the jlsvc configuration file.
package config

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tessro/jlsvc/internal/paths"
)

// DefaultLogLevel is used when no log level is configured.
const DefaultLogLevel = "info"

// Config represents config.toml.
//
// The worker launch command is not configurable; see worker.DefaultLaunch.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Daemon  DaemonConfig  `toml:"daemon"`
	Metrics MetricsConfig `toml:"metrics"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// File is the log file path. Empty means ~/.jlsvc/jlsvc.log.
	File string `toml:"file"`
}

// DaemonConfig controls the command bridge.
type DaemonConfig struct {
	// Socket is the Unix socket path. Empty means ~/.jlsvc/jlsvc.sock.
	Socket string `toml:"socket"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is a host:port for /metrics. Empty disables the endpoint.
	Listen string `toml:"listen"`
}

// Path returns the default config file path.
func Path() (string, error) {
	return paths.ConfigPath()
}

// Load loads the config from the default path.
// Returns nil config and nil error if the file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the config from a specific path and validates it.
// Returns nil config and nil error if the file doesn't exist.
func LoadFromPath(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetLogLevel returns the configured log level or DefaultLogLevel.
func (c *Config) GetLogLevel() string {
	if c != nil && c.Log.Level != "" {
		return c.Log.Level
	}
	return DefaultLogLevel
}

// GetLogFile returns the configured log file or the default log path.
func (c *Config) GetLogFile() string {
	if c != nil && c.Log.File != "" {
		return c.Log.File
	}
	return paths.LogPath()
}

// GetSocketPath returns the configured socket path or the default.
func (c *Config) GetSocketPath() string {
	if c != nil && c.Daemon.Socket != "" {
		return c.Daemon.Socket
	}
	return paths.SocketPath()
}

// GetMetricsListen returns the metrics listen address, or "" when disabled.
func (c *Config) GetMetricsListen() string {
	if c == nil {
		return ""
	}
	return c.Metrics.Listen
}

// Effective returns a copy with every default filled in.
func (c *Config) Effective() *Config {
	return &Config{
		Log: LogConfig{
			Level: c.GetLogLevel(),
			File:  c.GetLogFile(),
		},
		Daemon: DaemonConfig{
			Socket: c.GetSocketPath(),
		},
		Metrics: MetricsConfig{
			Listen: c.GetMetricsListen(),
		},
	}
}

// Encode writes the config as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
