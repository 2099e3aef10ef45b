package daemon

import (
	"errors"
	"fmt"
)

// Sentinel errors for daemon client operations.
// These can be checked using errors.Is().
var (
	// ErrNotConnected is returned when an operation is attempted without a connection.
	ErrNotConnected = errors.New("daemon: not connected")

	// ErrAlreadyRunning is returned when a second daemon would share a PID file.
	ErrAlreadyRunning = errors.New("daemon: already running")
)

// ServerError is a failed response from the daemon. Message is the plain
// error text the command produced, e.g. "already running".
type ServerError struct {
	Operation MessageType
	Message   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// NewServerError creates a new ServerError for the given operation.
func NewServerError(operation MessageType, message string) *ServerError {
	return &ServerError{
		Operation: operation,
		Message:   message,
	}
}

// ErrorText returns the command's plain error text if err is a
// *ServerError, and err.Error() otherwise.
func ErrorText(err error) string {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
