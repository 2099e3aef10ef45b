// Package service implements the jlsvc command table on top of the worker
// guard. It is the daemon.Handler behind the command bridge.
package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tessro/jlsvc/internal/daemon"
	"github.com/tessro/jlsvc/internal/metrics"
	"github.com/tessro/jlsvc/internal/procstat"
	"github.com/tessro/jlsvc/internal/version"
	"github.com/tessro/jlsvc/internal/worker"
)

// Version is the daemon version reported by ping and status.
var Version = version.Version

// closeWait bounds how long Close waits for a stopped worker to exit.
const closeWait = 5 * time.Second

// Worker is the lifecycle surface the service drives.
// *worker.Guard implements it.
type Worker interface {
	Start() error
	Stop() error
	StopWait(timeout time.Duration) error
	Snapshot() worker.Snapshot
}

// Options configures a Service.
type Options struct {
	// Command is the worker command line shown in status output.
	Command string
	// SocketPath is the bridge socket, reported in status output.
	SocketPath string
	// Metrics records command outcomes. May be nil.
	Metrics *metrics.Metrics
	// Sample reads OS statistics for the worker pid. Defaults to procstat.Sample.
	Sample func(pid int) (procstat.Stats, error)
}

// Service handles bridge requests. It implements daemon.Handler.
type Service struct {
	worker    Worker
	opts      Options
	startedAt time.Time
	log       *slog.Logger

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// New creates a Service driving w.
func New(w Worker, opts Options) *Service {
	if opts.Sample == nil {
		opts.Sample = procstat.Sample
	}
	return &Service{
		worker:     w,
		opts:       opts,
		startedAt:  time.Now(),
		log:        slog.With("component", "service"),
		shutdownCh: make(chan struct{}),
	}
}

// Handle processes bridge requests and returns responses.
// Implements daemon.Handler.
func (s *Service) Handle(ctx context.Context, req *daemon.Request) *daemon.Response {
	s.log.Debug("handling request", "type", req.Type, "id", req.ID)
	switch req.Type {
	// Worker commands
	case daemon.MsgGreet:
		return s.handleGreet(ctx, req)
	case daemon.MsgStartService:
		return s.handleStartService(ctx, req)
	case daemon.MsgStopService:
		return s.handleStopService(ctx, req)

	// Server management
	case daemon.MsgPing:
		return s.handlePing(ctx, req)
	case daemon.MsgStatus:
		return s.handleStatus(ctx, req)
	case daemon.MsgShutdown:
		return s.handleShutdown(ctx, req)

	default:
		return errorResponse(req, "unknown message type: "+string(req.Type))
	}
}

// Done is closed once a shutdown request has been accepted.
func (s *Service) Done() <-chan struct{} {
	return s.shutdownCh
}

// Close stops a running worker so it does not outlive the daemon, and waits
// for the process to exit. Call it only after the bridge stops accepting
// requests, or a later start_service can launch a worker nobody stops.
func (s *Service) Close() error {
	err := s.worker.StopWait(closeWait)
	if errors.Is(err, worker.ErrNotRunning) {
		return nil
	}
	if err != nil {
		s.log.Warn("stop worker on close failed", "error", err)
		return err
	}
	s.log.Info("stopped worker on close")
	return nil
}

// daemonStatus describes the hosting daemon.
func (s *Service) daemonStatus() daemon.DaemonStatus {
	return daemon.DaemonStatus{
		PID:       os.Getpid(),
		StartedAt: s.startedAt,
		Version:   Version,
		Socket:    s.opts.SocketPath,
	}
}

// workerStatus builds the worker section of a status response.
func (s *Service) workerStatus() daemon.WorkerStatus {
	snap := s.worker.Snapshot()
	st := daemon.WorkerStatus{
		State:   string(snap.State),
		Command: s.opts.Command,
	}
	if snap.State != worker.StateRunning {
		return st
	}

	st.PID = snap.PID
	st.StartedAt = snap.StartedAt
	st.Uptime = snap.Uptime().Round(time.Second).String()

	stats, err := s.opts.Sample(snap.PID)
	if err != nil {
		s.log.Debug("sample worker process failed", "pid", snap.PID, "error", err)
		return st
	}
	st.Alive = stats.Alive
	st.RSSBytes = stats.RSSBytes
	st.CPUPercent = stats.CPUPercent
	return st
}
