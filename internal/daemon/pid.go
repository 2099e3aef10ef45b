package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tessro/jlsvc/internal/paths"
)

// DefaultPIDPath returns the default PID file path.
func DefaultPIDPath() string {
	return paths.PIDPath()
}

// PIDFile is a held, locked PID file.
type PIDFile struct {
	path string
	f    *os.File
}

// AcquirePID takes an exclusive lock on the PID file and writes the current
// process ID into it. Returns ErrAlreadyRunning if another live process
// holds the lock.
func AcquirePID(path string) (*PIDFile, error) {
	if path == "" {
		path = DefaultPIDPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create pid directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open pid file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("lock pid file: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("truncate pid file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("sync pid file: %w", err)
	}

	return &PIDFile{path: path, f: f}, nil
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// Release removes the PID file and drops the lock.
func (p *PIDFile) Release() error {
	if p == nil || p.f == nil {
		return nil
	}
	err := RemovePID(p.path)
	p.f.Close()
	p.f = nil
	return err
}

// ReadPID reads the process ID from the PID file.
// Returns 0 and an error if the file doesn't exist or is invalid.
func ReadPID(path string) (int, error) {
	if path == "" {
		path = DefaultPIDPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("read pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid: %w", err)
	}
	return pid, nil
}

// RemovePID removes the PID file.
// It returns nil if the file doesn't exist.
func RemovePID(path string) error {
	if path == "" {
		path = DefaultPIDPath()
	}

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 checks existence without delivering anything.
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return errors.Is(err, syscall.EPERM)
}

// IsDaemonRunning checks if the daemon is running by reading the PID file
// and verifying the process exists.
func IsDaemonRunning(pidPath string) (bool, int) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return false, 0
	}
	if IsProcessRunning(pid) {
		return true, pid
	}
	return false, 0
}

// CleanStalePID removes the PID file if the process it names is not running.
// Returns true if a stale PID file was removed.
func CleanStalePID(pidPath string) bool {
	if pidPath == "" {
		pidPath = DefaultPIDPath()
	}
	if _, err := os.Stat(pidPath); err != nil {
		return false
	}
	if running, _ := IsDaemonRunning(pidPath); running {
		return false
	}
	return RemovePID(pidPath) == nil
}

// WaitForExit polls the PID file until no live daemon owns it or timeout
// elapses. Returns false on timeout.
func WaitForExit(pidPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if running, _ := IsDaemonRunning(pidPath); !running {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
}
