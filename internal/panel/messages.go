package panel

import (
	"time"

	"github.com/tessro/jlsvc/internal/daemon"
)

// statusMsg carries a status refresh.
type statusMsg struct {
	Status *daemon.StatusResponse
	Err    error
}

// resultMsg is the outcome of one command invocation.
type resultMsg struct {
	Command daemon.MessageType
	Text    string
	Err     error
}

// tickMsg triggers the periodic status refresh.
type tickMsg time.Time
