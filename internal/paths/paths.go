// Package paths provides a single source of truth for jlsvc file paths.
// All path helpers honor environment variable overrides for isolated testing.
//
// Path resolution precedence:
//  1. Specific env vars (JLSVC_SOCKET_PATH, JLSVC_PID_PATH) take highest priority
//  2. JLSVC_DIR sets the base directory (derives socket/pid/log/config)
//  3. Default behavior (~/.jlsvc, ~/.config/jlsvc) when no env vars are set
package paths

import (
	"os"
	"path/filepath"
)

// Environment variable names for path overrides.
const (
	// EnvDir is the base directory override (e.g., /tmp/jlsvc-e2e).
	EnvDir = "JLSVC_DIR"

	// EnvSocketPath overrides the socket path directly.
	EnvSocketPath = "JLSVC_SOCKET_PATH"

	// EnvPIDPath overrides the PID file path directly.
	EnvPIDPath = "JLSVC_PID_PATH"
)

// BaseDir returns the jlsvc base directory (~/.jlsvc by default).
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".jlsvc"), nil
}

// ConfigDir returns the config directory (~/.config/jlsvc by default,
// JLSVC_DIR/config when JLSVC_DIR is set).
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return filepath.Join(dir, "config"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jlsvc"), nil
}

// ConfigPath returns the path to config.toml inside ConfigDir.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SocketPath returns the daemon socket path.
// Precedence: JLSVC_SOCKET_PATH > JLSVC_DIR/jlsvc.sock > ~/.jlsvc/jlsvc.sock
func SocketPath() string {
	if path := os.Getenv(EnvSocketPath); path != "" {
		return path
	}
	return inBase("jlsvc.sock")
}

// PIDPath returns the daemon PID file path.
// Precedence: JLSVC_PID_PATH > JLSVC_DIR/jlsvc.pid > ~/.jlsvc/jlsvc.pid
func PIDPath() string {
	if path := os.Getenv(EnvPIDPath); path != "" {
		return path
	}
	return inBase("jlsvc.pid")
}

// LogPath returns the default daemon log file path.
func LogPath() string {
	return inBase("jlsvc.log")
}

func inBase(name string) string {
	base, err := BaseDir()
	if err != nil {
		return filepath.Join(os.TempDir(), name)
	}
	return filepath.Join(base, name)
}
