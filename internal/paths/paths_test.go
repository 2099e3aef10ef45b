package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseDir(t *testing.T) {
	t.Run("default uses home directory", func(t *testing.T) {
		t.Setenv(EnvDir, "")

		dir, err := BaseDir()
		if err != nil {
			t.Fatalf("BaseDir() error = %v", err)
		}
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".jlsvc")
		if dir != expected {
			t.Errorf("BaseDir() = %q, want %q", dir, expected)
		}
	})

	t.Run("JLSVC_DIR overrides default", func(t *testing.T) {
		t.Setenv(EnvDir, "/tmp/jlsvc-test")

		dir, err := BaseDir()
		if err != nil {
			t.Fatalf("BaseDir() error = %v", err)
		}
		if dir != "/tmp/jlsvc-test" {
			t.Errorf("BaseDir() = %q, want %q", dir, "/tmp/jlsvc-test")
		}
	})
}

func TestConfigPath(t *testing.T) {
	t.Run("default uses home config directory", func(t *testing.T) {
		t.Setenv(EnvDir, "")

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath() error = %v", err)
		}
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "jlsvc", "config.toml")
		if path != expected {
			t.Errorf("ConfigPath() = %q, want %q", path, expected)
		}
	})

	t.Run("JLSVC_DIR overrides to JLSVC_DIR/config", func(t *testing.T) {
		t.Setenv(EnvDir, "/tmp/jlsvc-test")

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath() error = %v", err)
		}
		if path != "/tmp/jlsvc-test/config/config.toml" {
			t.Errorf("ConfigPath() = %q", path)
		}
	})
}

func TestSocketPath(t *testing.T) {
	tests := []struct {
		name   string
		dir    string
		socket string
		want   string
	}{
		{"JLSVC_DIR derives socket", "/tmp/jlsvc-test", "", "/tmp/jlsvc-test/jlsvc.sock"},
		{"JLSVC_SOCKET_PATH wins", "/tmp/jlsvc-test", "/tmp/custom.sock", "/tmp/custom.sock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDir, tt.dir)
			t.Setenv(EnvSocketPath, tt.socket)
			if got := SocketPath(); got != tt.want {
				t.Errorf("SocketPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPIDPath(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		pid  string
		want string
	}{
		{"JLSVC_DIR derives pid", "/tmp/jlsvc-test", "", "/tmp/jlsvc-test/jlsvc.pid"},
		{"JLSVC_PID_PATH wins", "/tmp/jlsvc-test", "/tmp/custom.pid", "/tmp/custom.pid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDir, tt.dir)
			t.Setenv(EnvPIDPath, tt.pid)
			if got := PIDPath(); got != tt.want {
				t.Errorf("PIDPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogPath(t *testing.T) {
	t.Setenv(EnvDir, "/tmp/jlsvc-test")
	if got := LogPath(); got != "/tmp/jlsvc-test/jlsvc.log" {
		t.Errorf("LogPath() = %q", got)
	}
}
