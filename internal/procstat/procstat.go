// Package procstat samples OS-level statistics of a running process.
package procstat

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrInvalidPID is returned for non-positive process IDs.
var ErrInvalidPID = errors.New("procstat: invalid pid")

// Stats is a point-in-time sample of one process.
type Stats struct {
	PID        int
	Alive      bool
	RSSBytes   uint64
	CPUPercent float64
}

// Sample reads liveness, resident memory and lifetime CPU usage for pid.
// A process that no longer exists yields Alive=false and a nil error.
func Sample(pid int) (Stats, error) {
	if pid <= 0 {
		return Stats{}, ErrInvalidPID
	}
	st := Stats{PID: pid}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return st, nil
		}
		return st, fmt.Errorf("open process %d: %w", pid, err)
	}

	running, err := p.IsRunning()
	if err != nil || !running {
		return st, nil
	}
	// Killed but not yet reaped.
	if status, err := p.Status(); err == nil && slices.Contains(status, process.Zombie) {
		return st, nil
	}
	st.Alive = true

	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		st.RSSBytes = mem.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	return st, nil
}
