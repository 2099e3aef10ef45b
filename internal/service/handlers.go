package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tessro/jlsvc/internal/daemon"
	"github.com/tessro/jlsvc/internal/greeting"
	"github.com/tessro/jlsvc/internal/metrics"
	"github.com/tessro/jlsvc/internal/worker"
)

// handleGreet responds with the greeting for the requested name.
func (s *Service) handleGreet(ctx context.Context, req *daemon.Request) *daemon.Response {
	var greetReq daemon.GreetRequest
	if err := unmarshalPayload(req.Payload, &greetReq); err != nil {
		return errorResponse(req, "invalid payload: "+err.Error())
	}

	s.opts.Metrics.ObserveGreet()
	return successResponse(req, daemon.GreetResponse{
		Message: greeting.Greet(greetReq.Name),
	})
}

// handleStartService launches the worker.
func (s *Service) handleStartService(ctx context.Context, req *daemon.Request) *daemon.Response {
	err := s.worker.Start()
	switch {
	case err == nil:
		s.opts.Metrics.ObserveStart(metrics.ResultOK)
		return successResponse(req, nil)
	case errors.Is(err, worker.ErrAlreadyRunning):
		s.opts.Metrics.ObserveStart(metrics.ResultAlreadyRunning)
		return errorResponse(req, worker.ErrAlreadyRunning.Error())
	default:
		// "failed to start: <cause>"
		s.opts.Metrics.ObserveStart(metrics.ResultSpawnFailed)
		return errorResponse(req, err.Error())
	}
}

// handleStopService kills the worker.
func (s *Service) handleStopService(ctx context.Context, req *daemon.Request) *daemon.Response {
	err := s.worker.Stop()
	switch {
	case err == nil:
		s.opts.Metrics.ObserveStop(metrics.ResultOK)
		return successResponse(req, nil)
	case errors.Is(err, worker.ErrNotRunning):
		s.opts.Metrics.ObserveStop(metrics.ResultNotRunning)
		return errorResponse(req, worker.ErrNotRunning.Error())
	default:
		s.opts.Metrics.ObserveStop(metrics.ResultStopFailed)
		return errorResponse(req, worker.ErrStopFailed.Error())
	}
}

// handlePing responds to ping requests.
func (s *Service) handlePing(ctx context.Context, req *daemon.Request) *daemon.Response {
	uptime := time.Since(s.startedAt)
	return successResponse(req, daemon.PingResponse{
		Version:   Version,
		Uptime:    uptime.Round(time.Second).String(),
		StartedAt: s.startedAt,
	})
}

// handleStatus reports daemon and worker status.
func (s *Service) handleStatus(ctx context.Context, req *daemon.Request) *daemon.Response {
	return successResponse(req, daemon.StatusResponse{
		Daemon: s.daemonStatus(),
		Worker: s.workerStatus(),
	})
}

// handleShutdown signals Done. The caller hosting the server performs the
// actual teardown.
func (s *Service) handleShutdown(ctx context.Context, req *daemon.Request) *daemon.Response {
	s.shutdownOnce.Do(func() {
		s.log.Info("shutdown requested")
		close(s.shutdownCh)
	})
	return successResponse(req, nil)
}

// successResponse creates a success response with the given payload.
func successResponse(req *daemon.Request, payload any) *daemon.Response {
	return &daemon.Response{
		Type:    req.Type,
		ID:      req.ID,
		Success: true,
		Payload: payload,
	}
}

// errorResponse creates an error response.
func errorResponse(req *daemon.Request, msg string) *daemon.Response {
	return &daemon.Response{
		Type:    req.Type,
		ID:      req.ID,
		Success: false,
		Error:   msg,
	}
}

// unmarshalPayload converts an any payload to a specific type.
func unmarshalPayload(payload any, dst any) error {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
