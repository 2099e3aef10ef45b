package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tessro/jlsvc/internal/daemon"
)

func sampleStatus() *daemon.StatusResponse {
	return &daemon.StatusResponse{
		Daemon: daemon.DaemonStatus{
			PID:       100,
			StartedAt: time.Now().Add(-time.Minute),
			Version:   "dev",
			Socket:    "/tmp/jlsvc.sock",
		},
		Worker: daemon.WorkerStatus{
			State:     "running",
			Command:   "julia --project=./src-julia src-julia/julia-server.jl",
			PID:       4242,
			StartedAt: time.Now().Add(-10 * time.Second),
			Uptime:    "10s",
			Alive:     true,
			RSSBytes:  150 * 1024 * 1024,
		},
	}
}

func TestWriteStatus_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStatus(&buf, sampleStatus(), "table"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"pid 100", "/tmp/jlsvc.sock", "WORKER", "4242", "150.0 MiB", "julia --project"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteStatus_Idle(t *testing.T) {
	st := sampleStatus()
	st.Worker = daemon.WorkerStatus{State: "idle", Command: "julia"}

	var buf bytes.Buffer
	if err := writeStatus(&buf, st, "table"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "idle") {
		t.Errorf("output missing idle state:\n%s", buf.String())
	}
}

func TestWriteStatus_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStatus(&buf, sampleStatus(), "json"); err != nil {
		t.Fatal(err)
	}
	var got daemon.StatusResponse
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Worker.PID != 4242 || got.Worker.State != "running" {
		t.Errorf("Worker = %+v", got.Worker)
	}
}

func TestWriteStatus_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStatus(&buf, sampleStatus(), "yaml"); err != nil {
		t.Fatal(err)
	}
	var got map[string]map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got["worker"]["state"] != "running" || got["daemon"]["socket"] != "/tmp/jlsvc.sock" {
		t.Errorf("yaml = %v", got)
	}
}

func TestWorkerState(t *testing.T) {
	tests := []struct {
		name string
		ws   daemon.WorkerStatus
		want string
	}{
		{"idle", daemon.WorkerStatus{State: "idle"}, "idle"},
		{"running", daemon.WorkerStatus{State: "running", Alive: true}, "running"},
		{"exited", daemon.WorkerStatus{State: "running"}, "running (exited)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workerState(tt.ws); !strings.Contains(got, tt.want) {
				t.Errorf("workerState() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestReportNotListening(t *testing.T) {
	isolate(t)
	SetSocketPath(shortSocketPath(t))

	tests := []struct {
		name       string
		pid        int // 0 writes no pid file
		wantOut    string
		wantErr    string
		wantRemove bool
	}{
		{name: "no pid file", wantOut: "daemon is not running\n"},
		{name: "stale pid file", pid: 1 << 30, wantOut: "removed stale pid file", wantRemove: true},
		{name: "live pid", pid: os.Getpid(), wantErr: "not answering"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pidPath := filepath.Join(t.TempDir(), "jlsvc.pid")
			if tt.pid != 0 {
				if err := os.WriteFile(pidPath, []byte(strconv.Itoa(tt.pid)+"\n"), 0600); err != nil {
					t.Fatal(err)
				}
			}

			var buf bytes.Buffer
			err := reportNotListening(&buf, pidPath)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.wantOut) {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantOut)
			}
			_, statErr := os.Stat(pidPath)
			if tt.wantRemove && !os.IsNotExist(statErr) {
				t.Error("stale pid file not removed")
			}
		})
	}
}

func TestStatus_DaemonNotRunning(t *testing.T) {
	isolate(t)
	SetSocketPath(shortSocketPath(t))
	statusOutput = "table"

	var buf bytes.Buffer
	statusCmd.SetOut(&buf)
	defer statusCmd.SetOut(nil)

	if err := statusCmd.RunE(statusCmd, nil); err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(buf.String(), "not running") {
		t.Errorf("output = %q", buf.String())
	}
}
