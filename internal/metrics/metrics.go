// Package metrics exposes worker lifecycle counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tessro/jlsvc/internal/logging"
)

const namespace = "jlsvc"

// Outcome labels for start and stop counters.
const (
	ResultOK             = "ok"
	ResultAlreadyRunning = "already_running"
	ResultSpawnFailed    = "spawn_failed"
	ResultNotRunning     = "not_running"
	ResultStopFailed     = "stop_failed"
)

// Metrics owns a private registry so tests and multiple daemons in one
// process don't collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	starts    *prometheus.CounterVec
	stops     *prometheus.CounterVec
	greetings prometheus.Counter
}

// New creates the registry. running reports whether the guard currently
// holds a worker and backs the jlsvc_worker_running gauge.
func New(running func() bool) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		starts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "starts_total",
			Help:      "Worker start requests by outcome",
		}, []string{"result"}),
		stops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "stops_total",
			Help:      "Worker stop requests by outcome",
		}, []string{"result"}),
		greetings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "greetings_total",
			Help:      "Greet commands served",
		}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "running",
		Help:      "1 if a worker handle is held, 0 otherwise",
	}, func() float64 {
		if running != nil && running() {
			return 1
		}
		return 0
	})

	// Pre-populate labels so every series exists from the first scrape.
	for _, r := range []string{ResultOK, ResultAlreadyRunning, ResultSpawnFailed} {
		m.starts.WithLabelValues(r)
	}
	for _, r := range []string{ResultOK, ResultNotRunning, ResultStopFailed} {
		m.stops.WithLabelValues(r)
	}

	return m
}

// ObserveStart records the outcome of a start request.
func (m *Metrics) ObserveStart(result string) {
	if m == nil {
		return
	}
	m.starts.WithLabelValues(result).Inc()
}

// ObserveStop records the outcome of a stop request.
func (m *Metrics) ObserveStop(result string) {
	if m == nil {
		return
	}
	m.stops.WithLabelValues(result).Inc()
}

// ObserveGreet counts a served greeting.
func (m *Metrics) ObserveGreet() {
	if m == nil {
		return
	}
	m.greetings.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	})
}

// Serve listens on addr and serves /metrics until ctx is cancelled.
// ready, if non-nil, receives the bound address once listening.
func (m *Metrics) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	if ready != nil {
		ready(ln.Addr())
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		defer logging.LogPanic("metrics-shutdown", nil)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics endpoint listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
