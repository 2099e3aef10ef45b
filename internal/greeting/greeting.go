// Package greeting implements the greet command.
package greeting

import "fmt"

// Greet returns the greeting for name.
func Greet(name string) string {
	return fmt.Sprintf("Hello, %s! You've been greeted from Rust!", name)
}
