package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/tessro/jlsvc/internal/logging"
)

// Validation errors.
var (
	ErrInvalidLogLevel      = errors.New("unknown log level")
	ErrInvalidListenAddress = errors.New("listen address must be host:port")
)

// ValidationError wraps a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks every field that has a restricted value set.
// A nil config is valid.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := ValidateLogLevel(c.Log.Level); err != nil {
		return err
	}
	return ValidateListenAddress(c.Metrics.Listen)
}

// ValidateLogLevel accepts "" (default) or one of logging.Levels.
func ValidateLogLevel(level string) error {
	if level == "" || logging.ValidLevel(level) {
		return nil
	}
	return &ValidationError{
		Field:   "log.level",
		Value:   level,
		Message: "must be one of " + strings.Join(logging.Levels, ", "),
		Err:     ErrInvalidLogLevel,
	}
}

// ValidateListenAddress accepts "" (disabled) or host:port with a numeric port.
func ValidateListenAddress(addr string) error {
	if addr == "" {
		return nil
	}
	invalid := &ValidationError{
		Field:   "metrics.listen",
		Value:   addr,
		Message: "must be host:port, e.g. 127.0.0.1:9464",
		Err:     ErrInvalidListenAddress,
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return invalid
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return invalid
	}
	return nil
}
