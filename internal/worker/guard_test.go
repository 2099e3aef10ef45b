package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeHandle records kills and can be told to fail them.
type fakeHandle struct {
	pid     int
	killErr error
	kills   atomic.Int32
}

func (h *fakeHandle) PID() int { return h.pid }

func (h *fakeHandle) Kill() error {
	h.kills.Add(1)
	return h.killErr
}

// fakeSpawner hands out fakeHandles with increasing pids.
type fakeSpawner struct {
	mu      sync.Mutex
	spawned []*fakeHandle
	err     error
	killErr error
}

func (s *fakeSpawner) Spawn() (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	h := &fakeHandle{pid: 1000 + len(s.spawned), killErr: s.killErr}
	s.spawned = append(s.spawned, h)
	return h, nil
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spawned)
}

func TestNewGuard(t *testing.T) {
	g := NewGuard(&fakeSpawner{})

	if g.State() != StateIdle {
		t.Errorf("initial state = %v, want %v", g.State(), StateIdle)
	}
	if g.IsRunning() {
		t.Error("IsRunning() = true for new guard")
	}
	snap := g.Snapshot()
	if snap.PID != 0 || !snap.StartedAt.IsZero() || snap.Uptime() != 0 {
		t.Errorf("idle snapshot = %+v, want zero values", snap)
	}
}

func TestStartStop(t *testing.T) {
	sp := &fakeSpawner{}
	g := NewGuard(sp)

	if err := g.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	snap := g.Snapshot()
	if snap.State != StateRunning {
		t.Errorf("state after Start = %v, want %v", snap.State, StateRunning)
	}
	if snap.PID != 1000 {
		t.Errorf("PID = %d, want 1000", snap.PID)
	}
	if snap.StartedAt.IsZero() {
		t.Error("StartedAt not recorded")
	}

	if err := g.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if g.State() != StateIdle {
		t.Errorf("state after Stop = %v, want %v", g.State(), StateIdle)
	}
	if got := sp.spawned[0].kills.Load(); got != 1 {
		t.Errorf("kills = %d, want 1", got)
	}
}

func TestStartTwiceAlreadyRunning(t *testing.T) {
	sp := &fakeSpawner{}
	g := NewGuard(sp)

	if err := g.Start(); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	err := g.Start()
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start() error = %v, want %v", err, ErrAlreadyRunning)
	}
	if sp.count() != 1 {
		t.Errorf("spawned %d processes, want 1", sp.count())
	}
	if g.Snapshot().PID != 1000 {
		t.Error("handle was replaced by the refused Start")
	}
}

func TestStopNotRunning(t *testing.T) {
	g := NewGuard(&fakeSpawner{})

	err := g.Stop()
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Stop() error = %v, want %v", err, ErrNotRunning)
	}
	if g.State() != StateIdle {
		t.Errorf("state = %v, want %v", g.State(), StateIdle)
	}
}

func TestSpawnFailedIsRecoverable(t *testing.T) {
	cause := errors.New("exec: \"julia\": executable file not found in $PATH")
	sp := &fakeSpawner{err: cause}
	g := NewGuard(sp)

	err := g.Start()
	if !errors.Is(err, ErrSpawnFailed) {
		t.Fatalf("Start() error = %v, want %v", err, ErrSpawnFailed)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Start() error = %v, want it to wrap the spawn cause", err)
	}
	if g.State() != StateIdle {
		t.Errorf("state = %v, want %v", g.State(), StateIdle)
	}

	// Once spawning works again the guard starts normally.
	sp.err = nil
	if err := g.Start(); err != nil {
		t.Fatalf("Start() after recovery error = %v", err)
	}
}

func TestStopFailedStillIdle(t *testing.T) {
	sp := &fakeSpawner{killErr: errors.New("operation not permitted")}
	g := NewGuard(sp)

	if err := g.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err := g.Stop()
	if !errors.Is(err, ErrStopFailed) {
		t.Fatalf("Stop() error = %v, want %v", err, ErrStopFailed)
	}
	if g.State() != StateIdle {
		t.Errorf("state after failed Stop = %v, want %v", g.State(), StateIdle)
	}

	// The failed stop leaks no running state.
	sp.killErr = nil
	if err := g.Start(); err != nil {
		t.Fatalf("Start() after failed Stop error = %v", err)
	}
	if sp.count() != 2 {
		t.Errorf("spawned %d processes, want 2", sp.count())
	}
}

// TestRunningMatchesHistory drives random-ish operation sequences and checks
// that the guard is running exactly when the last successful Start has not
// been followed by any Stop.
func TestRunningMatchesHistory(t *testing.T) {
	sequences := [][]string{
		{"start", "stop", "start", "start", "stop", "stop"},
		{"stop", "stop", "start", "stop-fail", "start"},
		{"start", "stop-fail", "stop", "start", "stop-fail"},
		{"start", "start", "start", "stop", "start", "stop"},
	}

	for i, seq := range sequences {
		sp := &fakeSpawner{}
		g := NewGuard(sp)
		want := false

		for j, op := range seq {
			switch op {
			case "start":
				err := g.Start()
				if want && !errors.Is(err, ErrAlreadyRunning) {
					t.Fatalf("seq %d op %d: Start() error = %v, want %v", i, j, err, ErrAlreadyRunning)
				}
				if !want && err != nil {
					t.Fatalf("seq %d op %d: Start() error = %v", i, j, err)
				}
				want = true
			case "stop", "stop-fail":
				if op == "stop-fail" {
					sp.mu.Lock()
					for _, h := range sp.spawned {
						h.killErr = errors.New("kill failed")
					}
					sp.mu.Unlock()
				}
				_ = g.Stop()
				want = false
			}
			if got := g.IsRunning(); got != want {
				t.Fatalf("seq %d op %d (%s): IsRunning() = %v, want %v", i, j, op, got, want)
			}
		}
	}
}

func TestConcurrentStartSpawnsOnce(t *testing.T) {
	sp := &fakeSpawner{}
	g := NewGuard(sp)

	const callers = 32
	var wg sync.WaitGroup
	var ok, refused atomic.Int32
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := g.Start()
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyRunning):
				refused.Add(1)
			default:
				t.Errorf("Start() unexpected error = %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if ok.Load() != 1 {
		t.Errorf("successful starts = %d, want 1", ok.Load())
	}
	if refused.Load() != callers-1 {
		t.Errorf("refused starts = %d, want %d", refused.Load(), callers-1)
	}
	if sp.count() != 1 {
		t.Errorf("spawned %d processes, want 1", sp.count())
	}
}

func TestConcurrentStopStopsOnce(t *testing.T) {
	sp := &fakeSpawner{}
	g := NewGuard(sp)
	if err := g.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Stop(); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, ErrNotRunning) {
				t.Errorf("Stop() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 {
		t.Errorf("successful stops = %d, want 1", ok.Load())
	}
	if got := sp.spawned[0].kills.Load(); got != 1 {
		t.Errorf("kills = %d, want 1", got)
	}
}

func TestOnStateChange(t *testing.T) {
	g := NewGuard(&fakeSpawner{})

	var changes []StateChange
	unsubscribe := g.OnStateChange(func(c StateChange) {
		changes = append(changes, c)
		// Callbacks run outside the lock.
		_ = g.State()
	})

	_ = g.Start()
	_ = g.Start() // refused, no transition
	_ = g.Stop()
	_ = g.Stop() // refused, no transition

	want := []StateChange{
		{Old: StateIdle, New: StateRunning, PID: 1000},
		{Old: StateRunning, New: StateIdle, PID: 1000},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d: %v", len(changes), len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}

	unsubscribe()
	_ = g.Start()
	if len(changes) != len(want) {
		t.Error("callback invoked after unsubscribe")
	}
}

func TestOnStateChangeOrderUnderContention(t *testing.T) {
	sp := &fakeSpawner{}
	g := NewGuard(sp)

	var mu sync.Mutex
	var changes []StateChange
	g.OnStateChange(func(c StateChange) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
		// Widen the window for a competing transition to be queued.
		time.Sleep(50 * time.Microsecond)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (i+j)%2 == 0 {
					_ = g.Start()
				} else {
					_ = g.Stop()
				}
			}
		}(i)
	}
	wg.Wait()
	_ = g.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 {
		t.Fatal("no transitions delivered")
	}
	prev := StateIdle
	for i, c := range changes {
		if c.Old != prev {
			t.Fatalf("change %d = %+v, follows state %s", i, c, prev)
		}
		if i%2 == 1 && c.PID != changes[i-1].PID {
			t.Fatalf("change %d stops pid %d, started pid %d", i, c.PID, changes[i-1].PID)
		}
		prev = c.New
	}
	if prev != StateIdle {
		t.Errorf("last delivered state = %s, want idle", prev)
	}
	if want := 2 * sp.count(); len(changes) != want {
		t.Errorf("delivered %d changes, want %d", len(changes), want)
	}
}

// exitingHandle reports exit through Done once killed.
type exitingHandle struct {
	fakeHandle
	exitOnKill bool
	done       chan struct{}
}

func (h *exitingHandle) Kill() error {
	if h.exitOnKill {
		close(h.done)
	}
	return h.fakeHandle.Kill()
}

func (h *exitingHandle) Done() <-chan struct{} { return h.done }

func TestStopWait(t *testing.T) {
	tests := []struct {
		name       string
		exitOnKill bool
		wantErr    error
	}{
		{"exits", true, nil},
		{"lingers", false, ErrStopFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &exitingHandle{fakeHandle: fakeHandle{pid: 42}, exitOnKill: tt.exitOnKill, done: make(chan struct{})}
			g := NewGuard(SpawnerFunc(func() (Handle, error) { return h, nil }))
			if err := g.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			err := g.StopWait(50 * time.Millisecond)
			if tt.wantErr == nil && err != nil {
				t.Errorf("StopWait() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("StopWait() error = %v, want %v", err, tt.wantErr)
			}
			if g.IsRunning() {
				t.Error("guard running after StopWait")
			}
			if got := h.kills.Load(); got != 1 {
				t.Errorf("kills = %d, want 1", got)
			}
		})
	}
}

func TestStopWaitNotRunning(t *testing.T) {
	g := NewGuard(&fakeSpawner{})
	if err := g.StopWait(time.Second); !errors.Is(err, ErrNotRunning) {
		t.Errorf("StopWait() error = %v, want %v", err, ErrNotRunning)
	}
}

func TestSpawnerFunc(t *testing.T) {
	called := false
	g := NewGuard(SpawnerFunc(func() (Handle, error) {
		called = true
		return &fakeHandle{pid: 7}, nil
	}))

	if err := g.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !called {
		t.Error("SpawnerFunc was not called")
	}
	if g.Snapshot().PID != 7 {
		t.Errorf("PID = %d, want 7", g.Snapshot().PID)
	}
}
