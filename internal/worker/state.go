// Package worker guards the lifecycle of the single external worker process.
//
// A Guard owns at most one Handle at a time. Start refuses to launch a second
// worker while one is held, and Stop refuses to stop a worker that was never
// started. All operations are serialized by one mutex.
package worker

import "time"

// State is the guard's belief about the worker slot.
type State string

const (
	// StateIdle means no handle is held.
	StateIdle State = "idle"
	// StateRunning means a handle from a successful Start is held.
	StateRunning State = "running"
)

// StateChange describes a transition of the guard.
type StateChange struct {
	Old State
	New State
	PID int
}

// Snapshot is a point-in-time view of the guard.
type Snapshot struct {
	State     State
	PID       int
	StartedAt time.Time
}

// Uptime returns how long the current worker has been held.
// Returns zero when idle.
func (s Snapshot) Uptime() time.Duration {
	if s.State != StateRunning || s.StartedAt.IsZero() {
		return 0
	}
	return time.Since(s.StartedAt)
}
