// Package shared provides constants and types used across CLI subpackages.
// This package has no dependencies on other CLI packages to avoid circular imports.
package shared

import (
	"errors"
	"fmt"
)

// Command group IDs for organizing help output
const (
	GroupLinting     = "linting"
	GroupInformation = "information"
)

// ConfigFlagName is the persistent flag naming the local configuration file.
const ConfigFlagName = "config"

// Exit codes for CLI commands. Findings never change the exit code.
const (
	ExitSuccess            = 0
	ExitFailure            = 1
	ExitInvalidArguments   = 3
	ExitFatalConfiguration = 6
)

// exitError is a custom error type that carries an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

// NewExitError creates a new exit error with the given code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// WithExitCode attaches an exit code to err.
func WithExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// ExitCode returns the exit code from an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return ExitFailure
}
