// Package version holds the jlsvc build stamp.
package version

import "fmt"

// Set at link time:
//
//	go build -ldflags "-X github.com/tessro/jlsvc/internal/version.Version=v0.1.0" ./cmd/jlsvc
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the full build stamp, e.g. "v0.1.0 (commit: abc123, built: 2026-01-02)".
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
