package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/jlsvc/internal/daemon"
	"github.com/tessro/jlsvc/internal/logging"
	"github.com/tessro/jlsvc/internal/metrics"
	"github.com/tessro/jlsvc/internal/paths"
	"github.com/tessro/jlsvc/internal/service"
	"github.com/tessro/jlsvc/internal/worker"
)

var (
	serverLogStderr bool
	serverWorkDir   string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the jlsvc daemon server",
	Long:  "Commands for managing the jlsvc daemon server lifecycle.",
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the jlsvc daemon in the foreground",
	Long:  "Run the daemon that serves greet, start_service and stop_service over the local socket. Stops on SIGINT, SIGTERM or 'jlsvc server stop'.",
	Args:  cobra.NoArgs,
	RunE:  runServerStart,
}

var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the jlsvc daemon server",
	Long:  "Stop the running jlsvc daemon server. A running Julia worker is stopped first.",
	Args:  cobra.NoArgs,
	RunE:  runServerStop,
}

// stopWait bounds how long 'server stop' waits for the daemon to exit.
const stopWait = 10 * time.Second

func runServerStop(cmd *cobra.Command, args []string) error {
	client := MustConnect()
	defer client.Close()

	if err := client.Shutdown(); err != nil {
		return fmt.Errorf("shutdown daemon: %w", err)
	}

	// The daemon releases its pid file only after the worker is stopped.
	if !daemon.WaitForExit(paths.PIDPath(), stopWait) {
		return fmt.Errorf("jlsvc daemon did not exit within %s", stopWait)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "🧪 jlsvc daemon stopped")
	return nil
}

// serverOptions wires one daemon instance.
type serverOptions struct {
	SocketPath    string
	PIDPath       string
	MetricsListen string
	Launch        worker.LaunchSpec
	Spawner       worker.Spawner
	// Ready is called once the socket accepts connections.
	Ready func()
}

func runServerStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := logging.ParseLevel(cfg.GetLogLevel())
	var cleanup func()
	if serverLogStderr {
		cleanup, err = logging.SetupMulti(cfg.GetLogFile(), os.Stderr, level)
	} else {
		cleanup, err = logging.Setup(cfg.GetLogFile(), level)
	}
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workDir, err := resolveWorkDir(serverWorkDir)
	if err != nil {
		return err
	}
	slog.Info("worker working directory", "dir", workDir)

	sock := getSocketPath()
	launch := worker.DefaultLaunch
	spawner := worker.NewExecSpawner(worker.JuliaCommand(launch))
	spawner.Dir = workDir
	return runServer(ctx, serverOptions{
		SocketPath:    sock,
		PIDPath:       paths.PIDPath(),
		MetricsListen: cfg.GetMetricsListen(),
		Launch:        launch,
		Spawner:       spawner,
		Ready: func() {
			fmt.Printf("🧪 jlsvc daemon listening on %s\n", sock)
		},
	})
}

// resolveWorkDir returns the absolute directory the worker runs in.
// The launch command's ./src-julia paths are relative to it. Empty means the
// directory the daemon was started from.
func resolveWorkDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve worker directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("worker directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("worker directory %s is not a directory", abs)
	}
	return abs, nil
}

// runServer hosts the command bridge until ctx is cancelled or a shutdown
// request arrives, then stops the worker and tears the server down.
func runServer(ctx context.Context, opts serverOptions) error {
	pid, err := daemon.AcquirePID(opts.PIDPath)
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("jlsvc daemon is already running (pid file %s)", opts.PIDPath)
		}
		return err
	}
	defer pid.Release()

	guard := worker.NewGuard(opts.Spawner)
	guard.OnStateChange(func(c worker.StateChange) {
		slog.Debug("worker state changed", "old", c.Old, "new", c.New, "pid", c.PID)
	})

	m := metrics.New(guard.IsRunning)
	svc := service.New(guard, service.Options{
		Command:    opts.Launch.String(),
		SocketPath: opts.SocketPath,
		Metrics:    m,
	})

	srv := daemon.NewServer(opts.SocketPath, svc)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metricsErr := make(chan error, 1)
	if opts.MetricsListen != "" {
		go func() {
			defer logging.LogPanic("metrics-server", nil)
			metricsErr <- m.Serve(ctx, opts.MetricsListen, nil)
		}()
	}

	if opts.Ready != nil {
		opts.Ready()
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("signal received, shutting down")
	case <-svc.Done():
		slog.Info("shutdown requested by client")
	case err := <-metricsErr:
		if err != nil {
			slog.Error("metrics endpoint failed", "error", err)
			runErr = err
		}
	}

	// Close the bridge first so no start_service can slip in after the
	// worker is stopped.
	cancel()
	if err := srv.Stop(); err != nil {
		slog.Warn("stop server failed", "error", err)
	}
	if err := svc.Close(); err != nil {
		slog.Warn("stop worker during shutdown failed", "error", err)
	}
	return runErr
}

func init() {
	serverStartCmd.Flags().BoolVar(&serverLogStderr, "log-stderr", false, "Also write logs to stderr")
	serverStartCmd.Flags().StringVar(&serverWorkDir, "workdir", "", "Directory the Julia worker runs in (default: current directory)")
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverStopCmd)
	rootCmd.AddCommand(serverCmd)
}
