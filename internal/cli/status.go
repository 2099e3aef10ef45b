package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tessro/jlsvc/internal/daemon"
	"github.com/tessro/jlsvc/internal/paths"
)

var statusOutput string

var (
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and worker status",
	Long:  "Display the status of the jlsvc daemon and the Julia worker it guards.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	switch statusOutput {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", statusOutput)
	}

	client, err := ConnectClient()
	if err != nil {
		if errors.Is(err, ErrDaemonNotRunning) {
			return reportNotListening(cmd.OutOrStdout(), paths.PIDPath())
		}
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	return writeStatus(cmd.OutOrStdout(), status, statusOutput)
}

// reportNotListening explains an unreachable socket using the pid file.
// A live pid means the daemon is up but not serving; a dead one is stale and
// is removed.
func reportNotListening(w io.Writer, pidPath string) error {
	if running, pid := daemon.IsDaemonRunning(pidPath); running {
		return fmt.Errorf("jlsvc daemon (pid %d) is running but not answering on %s", pid, getSocketPath())
	}
	if daemon.CleanStalePID(pidPath) {
		fmt.Fprintln(w, "🧪 jlsvc daemon is not running (removed stale pid file)")
		return nil
	}
	fmt.Fprintln(w, "🧪 jlsvc daemon is not running")
	return nil
}

// writeStatus renders status in the requested format.
func writeStatus(w io.Writer, status *daemon.StatusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(status)
	}

	uptime := time.Since(status.Daemon.StartedAt).Truncate(time.Second)
	fmt.Fprintf(w, "🧪 jlsvc daemon running (pid %d, uptime %s, version %s)\n",
		status.Daemon.PID, uptime, status.Daemon.Version)
	fmt.Fprintf(w, "   Socket: %s\n\n", status.Daemon.Socket)

	ws := status.Worker
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "WORKER\tPID\tUPTIME\tRSS\tCPU\tCOMMAND")
	pid, up, rss, cpu := "-", "-", "-", "-"
	if ws.PID > 0 {
		pid = fmt.Sprintf("%d", ws.PID)
		up = ws.Uptime
		rss = formatBytes(ws.RSSBytes)
		cpu = fmt.Sprintf("%.1f%%", ws.CPUPercent)
	}
	_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", workerState(ws), pid, up, rss, cpu, ws.Command)
	return tw.Flush()
}

// workerState colors the state column. A held handle whose process is gone
// is shown as exited; the guard still reports it as running.
func workerState(ws daemon.WorkerStatus) string {
	switch {
	case ws.State == "running" && !ws.Alive:
		return warnStyle.Render("running (exited)")
	case ws.State == "running":
		return runningStyle.Render("running")
	default:
		return idleStyle.Render(ws.State)
	}
}

// formatBytes formats a byte count in binary units.
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.AddCommand(statusCmd)
}
