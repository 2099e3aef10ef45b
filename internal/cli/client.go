package cli

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/tessro/jlsvc/internal/daemon"
	"github.com/tessro/jlsvc/internal/paths"
)

// ErrDaemonNotRunning indicates the daemon is not running.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// socketPath is the path to the daemon socket (can be overridden for testing).
var socketPath string

// SetSocketPath overrides the default socket path.
// This is primarily useful for testing.
func SetSocketPath(path string) {
	socketPath = path
}

// getSocketPath returns the socket path to use.
// Precedence: SetSocketPath > JLSVC_SOCKET_PATH > config daemon.socket > default.
func getSocketPath() string {
	if socketPath != "" {
		return socketPath
	}
	if env := os.Getenv(paths.EnvSocketPath); env != "" {
		return env
	}
	cfg, err := loadConfig()
	if err != nil {
		return daemon.DefaultSocketPath()
	}
	return cfg.GetSocketPath()
}

// NewClient creates a new daemon client with the configured socket path.
func NewClient() *daemon.Client {
	return daemon.NewClient(getSocketPath())
}

// ConnectClient creates and connects a daemon client.
// Returns ErrDaemonNotRunning if the daemon is not running.
func ConnectClient() (*daemon.Client, error) {
	client := NewClient()
	if err := client.Connect(); err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && isNotListening(opErr) {
			return nil, ErrDaemonNotRunning
		}
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	return client, nil
}

// isNotListening reports whether a dial failed because nothing is bound to
// the socket.
func isNotListening(err *net.OpError) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENOENT) ||
		os.IsNotExist(err.Err)
}

// MustConnect creates and connects a daemon client, exiting on failure.
// This is a convenience function for CLI commands that require a daemon connection.
func MustConnect() *daemon.Client {
	client, err := ConnectClient()
	if err != nil {
		if errors.Is(err, ErrDaemonNotRunning) {
			fmt.Fprintln(os.Stderr, "🧪 jlsvc daemon is not running")
			fmt.Fprintln(os.Stderr, "   Start it with: jlsvc server start")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "🧪 Error connecting to daemon: %v\n", err)
		os.Exit(1)
	}
	return client
}
