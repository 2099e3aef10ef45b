package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/tessro/jlsvc/internal/logging"
)

// maxLineLength bounds a buffered output line before it is logged anyway.
const maxLineLength = 64 * 1024

// waitDelay bounds how long reaping waits for output pipes held open by
// grandchildren after the worker exits.
const waitDelay = 2 * time.Second

// ExecSpawner launches workers as OS processes.
type ExecSpawner struct {
	// BuildCommand creates the command to run. It must not be started yet.
	BuildCommand func() (*exec.Cmd, error)

	// Dir is the working directory. Relative paths in the command, such as
	// the default ./src-julia project, resolve against it. Empty inherits the
	// daemon's working directory.
	Dir string
}

// NewExecSpawner creates a spawner for the given command builder.
func NewExecSpawner(build func() (*exec.Cmd, error)) *ExecSpawner {
	return &ExecSpawner{BuildCommand: build}
}

// Spawn starts the process and returns its handle.
// The child is reaped in the background once it exits.
func (s *ExecSpawner) Spawn() (Handle, error) {
	cmd, err := s.BuildCommand()
	if err != nil {
		return nil, fmt.Errorf("build command: %w", err)
	}
	if s.Dir != "" {
		cmd.Dir = s.Dir
	}

	log := slog.With("component", "worker")

	stdout := newLineLogger(log, slog.LevelInfo, "stdout")
	stderr := newLineLogger(log, slog.LevelWarn, "stderr")
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	log.Debug("spawning worker", "cmd", cmd.String(), "dir", cmd.Dir)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	p := &process{cmd: cmd, done: make(chan struct{}), log: log}
	go p.reap(stdout, stderr)
	return p, nil
}

// process is the Handle for an exec-launched worker.
type process struct {
	cmd  *exec.Cmd
	done chan struct{}
	log  *slog.Logger

}

func (p *process) PID() int {
	return p.cmd.Process.Pid
}

// Kill sends SIGKILL. A process that already exited counts as killed.
func (p *process) Kill() error {
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Done is closed after the process has exited and been reaped.
func (p *process) Done() <-chan struct{} {
	return p.done
}

func (p *process) reap(outputs ...*lineLogger) {
	defer logging.LogPanic("worker-reaper", nil)

	err := p.cmd.Wait()
	for _, o := range outputs {
		o.Flush()
	}

	code := -1
	if p.cmd.ProcessState != nil {
		code = p.cmd.ProcessState.ExitCode()
	}
	p.log.Info("worker exited", "pid", p.cmd.Process.Pid, "exit_code", code, "error", err)
	close(p.done)
}

// lineLogger is an io.Writer that logs each complete line it receives.
type lineLogger struct {
	log    *slog.Logger
	level  slog.Level
	stream string

	mu sync.Mutex
	// +checklocks:mu
	buf bytes.Buffer
}

func newLineLogger(log *slog.Logger, level slog.Level, stream string) *lineLogger {
	return &lineLogger{log: log, level: level, stream: stream}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf.Write(p)
	for {
		i := bytes.IndexByte(l.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := l.buf.Next(i + 1)
		l.emit(line[:i])
	}
	if l.buf.Len() > maxLineLength {
		l.emit(l.buf.Bytes())
		l.buf.Reset()
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buf.Len() > 0 {
		l.emit(l.buf.Bytes())
		l.buf.Reset()
	}
}

// +checklocks:l.mu
func (l *lineLogger) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	l.log.Log(context.Background(), l.level, "worker output", "stream", l.stream, "line", string(line))
}
