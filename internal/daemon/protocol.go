// Package daemon provides the jlsvc command bridge: a Unix socket server,
// its client and the JSON envelope they exchange.
package daemon

import "time"

// MessageType names a command invocable over the bridge.
type MessageType string

const (
	// Worker commands
	MsgGreet        MessageType = "greet"
	MsgStartService MessageType = "start_service"
	MsgStopService  MessageType = "stop_service"

	// Server management
	MsgPing     MessageType = "ping"
	MsgStatus   MessageType = "status"
	MsgShutdown MessageType = "shutdown"
)

// Request is the envelope for all bridge requests.
type Request struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id,omitempty"`      // Optional request ID for correlation
	Payload any         `json:"payload,omitempty"` // Type-specific payload
}

// Response is the envelope for all bridge responses.
// Error is plain text; there are no structured error codes.
type Response struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id,omitempty"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Payload any         `json:"payload,omitempty"`
}

// GreetRequest is the payload for greet requests.
type GreetRequest struct {
	Name string `json:"name"`
}

// GreetResponse is the payload for greet responses.
type GreetResponse struct {
	Message string `json:"message"`
}

// PingResponse is the payload for ping responses.
type PingResponse struct {
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	StartedAt time.Time `json:"started_at"`
}

// StatusResponse is the payload for status responses.
type StatusResponse struct {
	Daemon DaemonStatus `json:"daemon" yaml:"daemon"`
	Worker WorkerStatus `json:"worker" yaml:"worker"`
}

// DaemonStatus contains daemon health info.
type DaemonStatus struct {
	PID       int       `json:"pid" yaml:"pid"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Version   string    `json:"version" yaml:"version"`
	Socket    string    `json:"socket" yaml:"socket"`
}

// WorkerStatus describes the guarded worker process.
type WorkerStatus struct {
	State     string    `json:"state" yaml:"state"` // idle or running
	Command   string    `json:"command" yaml:"command"`
	PID       int       `json:"pid,omitempty" yaml:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string    `json:"uptime,omitempty" yaml:"uptime,omitempty"`

	// Alive is false when the guard holds a handle but the OS process has
	// already exited.
	Alive      bool    `json:"alive" yaml:"alive"`
	RSSBytes   uint64  `json:"rss_bytes,omitempty" yaml:"rss_bytes,omitempty"`
	CPUPercent float64 `json:"cpu_percent,omitempty" yaml:"cpu_percent,omitempty"`
}
