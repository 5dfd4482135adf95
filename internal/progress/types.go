// Package progress shows which include is being resolved. On a terminal it
// animates a spinner on stderr; otherwise it prints one line per include.
package progress

import apperrors "github.com/smurf667/pipeline-consigliere/internal/errors"

// StepInfo describes one include resolution step
type StepInfo struct {
	// Name is the include being resolved (path, URL, project or component)
	Name string
	// Number is the 1-based position of the include in discovery order
	Number int
	// Total is the number of includes discovered so far; it grows while
	// resolved files declare further includes
	Total int
}

// Validate checks that all StepInfo fields meet validation requirements
func (s StepInfo) Validate() error {
	if s.Name == "" {
		return apperrors.NewArgumentError("step name cannot be empty")
	}
	if s.Number <= 0 {
		return apperrors.NewArgumentError("step number must be > 0")
	}
	if s.Total < s.Number {
		return apperrors.NewArgumentError("step number cannot exceed total steps")
	}
	return nil
}

// TerminalCapabilities encapsulates detected terminal features
type TerminalCapabilities struct {
	// IsTTY indicates whether stderr is a terminal (vs pipe/redirect)
	IsTTY bool
	// SupportsColor indicates whether terminal supports ANSI color codes
	SupportsColor bool
	// SupportsUnicode indicates whether terminal supports Unicode characters
	SupportsUnicode bool
}

// ProgressSymbols defines the character set for visual indicators
type ProgressSymbols struct {
	// Checkmark is the success indicator ("✓" or "[OK]")
	Checkmark string
	// Failure is the failure indicator ("✗" or "[FAIL]")
	Failure string
	// SpinnerSet is the index into spinner.CharSets
	SpinnerSet int
}
