package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/jlsvc/internal/event"
)

// Errors returned by guard operations. Their text is what callers of the
// command bridge see.
var (
	ErrAlreadyRunning = errors.New("already running")
	ErrNotRunning     = errors.New("not running")
	ErrStopFailed     = errors.New("failed to stop")
	ErrSpawnFailed    = errors.New("failed to start")
)

// Handle is an opaque reference to a launched worker process.
type Handle interface {
	PID() int
	// Kill signals the process to terminate. It does not wait for exit.
	Kill() error
}

// Spawner launches a worker process.
type Spawner interface {
	Spawn() (Handle, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func() (Handle, error)

// Spawn implements Spawner.
func (f SpawnerFunc) Spawn() (Handle, error) {
	return f()
}

// Guard serializes start and stop requests for one worker slot.
type Guard struct {
	spawner Spawner

	mu sync.Mutex
	// +checklocks:mu
	handle Handle
	// +checklocks:mu
	startedAt time.Time
	// pending holds transitions not yet delivered, oldest first.
	// +checklocks:mu
	pending []StateChange
	// +checklocks:mu
	delivering bool

	changes event.Emitter[StateChange]
}

// Exiter is implemented by handles that can report when the process has
// exited and been reaped.
type Exiter interface {
	Done() <-chan struct{}
}

// NewGuard creates an idle guard that launches workers with spawner.
func NewGuard(spawner Spawner) *Guard {
	return &Guard{spawner: spawner}
}

// Start launches the worker unless one is already held.
// Returns ErrAlreadyRunning if a handle is stored, or an error wrapping
// ErrSpawnFailed if the process could not be created.
func (g *Guard) Start() error {
	log := slog.With("component", "worker")

	g.mu.Lock()
	if g.handle != nil {
		pid := g.handle.PID()
		g.mu.Unlock()
		log.Debug("start refused, worker already held", "pid", pid)
		return ErrAlreadyRunning
	}

	h, err := g.spawner.Spawn()
	if err != nil {
		g.mu.Unlock()
		log.Error("worker spawn failed", "error", err)
		return fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	g.handle = h
	g.startedAt = time.Now()
	pid := h.PID()
	g.pending = append(g.pending, StateChange{Old: StateIdle, New: StateRunning, PID: pid})
	g.mu.Unlock()

	log.Info("worker started", "pid", pid)
	g.deliver()
	return nil
}

// Stop takes the handle out of the guard and signals the worker to terminate.
// The guard is idle afterwards even if the signal fails; in that case the
// returned error wraps ErrStopFailed.
func (g *Guard) Stop() error {
	_, err := g.stop()
	return err
}

// StopWait is Stop followed by waiting up to timeout for the process to
// exit. Handles that do not implement Exiter are not waited for.
func (g *Guard) StopWait(timeout time.Duration) error {
	h, err := g.stop()
	if err != nil {
		return err
	}
	ex, ok := h.(Exiter)
	if !ok {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ex.Done():
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: worker %d did not exit within %s", ErrStopFailed, h.PID(), timeout)
	}
}

func (g *Guard) stop() (Handle, error) {
	log := slog.With("component", "worker")

	g.mu.Lock()
	h := g.handle
	if h == nil {
		g.mu.Unlock()
		return nil, ErrNotRunning
	}
	g.handle = nil
	g.startedAt = time.Time{}
	pid := h.PID()
	killErr := h.Kill()
	g.pending = append(g.pending, StateChange{Old: StateRunning, New: StateIdle, PID: pid})
	g.mu.Unlock()

	g.deliver()

	if killErr != nil {
		log.Error("failed to stop worker", "pid", pid, "error", killErr)
		return h, fmt.Errorf("%w: %w", ErrStopFailed, killErr)
	}
	log.Info("worker stopped", "pid", pid)
	return h, nil
}

// deliver emits queued transitions in the order they happened. Only one
// goroutine delivers at a time; others leave their transition queued for it.
func (g *Guard) deliver() {
	g.mu.Lock()
	if g.delivering {
		g.mu.Unlock()
		return
	}
	g.delivering = true
	for len(g.pending) > 0 {
		c := g.pending[0]
		g.pending = g.pending[1:]
		g.mu.Unlock()
		g.changes.Emit(c)
		g.mu.Lock()
	}
	g.delivering = false
	g.mu.Unlock()
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.handle == nil {
		return StateIdle
	}
	return StateRunning
}

// IsRunning reports whether a worker handle is held.
func (g *Guard) IsRunning() bool {
	return g.State() == StateRunning
}

// Snapshot returns the state, pid and start time under one lock.
func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.handle == nil {
		return Snapshot{State: StateIdle}
	}
	return Snapshot{
		State:     StateRunning,
		PID:       g.handle.PID(),
		StartedAt: g.startedAt,
	}
}

// OnStateChange registers fn to be called after every transition.
// Transitions are delivered one at a time in the order they happened, so an
// idle->running change always precedes the running->idle change that ends it.
// fn runs outside the guard's lock and may call back into the guard. When
// another transition is being delivered concurrently, Start or Stop can
// return before fn has seen its own transition.
func (g *Guard) OnStateChange(fn func(StateChange)) (unsubscribe func()) {
	return g.changes.OnEvent(fn)
}
