// Package progress_test tests stderr capability detection with environment variable overrides.
// Related: internal/progress/terminal.go
// Tags: progress, terminal, capabilities, env-vars, unicode, colors
package progress_test

import (
	"testing"

	"github.com/smurf667/pipeline-consigliere/internal/progress"
)

// TestDetectTerminalCapabilities tests terminal capability detection
func TestDetectTerminalCapabilities(t *testing.T) {
	tests := map[string]struct {
		env         map[string]string
		wantColor   bool
		wantUnicode bool
	}{
		"NO_COLOR disables color": {
			env: map[string]string{"NO_COLOR": "1"},
		},
		"CONSIGLIERE_ASCII forces ASCII": {
			env: map[string]string{"CONSIGLIERE_ASCII": "1"},
		},
		"both NO_COLOR and CONSIGLIERE_ASCII": {
			env: map[string]string{"NO_COLOR": "1", "CONSIGLIERE_ASCII": "1"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			caps := progress.DetectTerminalCapabilities()

			if _, set := tt.env["NO_COLOR"]; set && caps.SupportsColor {
				t.Errorf("DetectTerminalCapabilities() SupportsColor = true with NO_COLOR set, want false")
			}
			if _, set := tt.env["CONSIGLIERE_ASCII"]; set && caps.SupportsUnicode {
				t.Errorf("DetectTerminalCapabilities() SupportsUnicode = true with CONSIGLIERE_ASCII=1, want false")
			}
			if !caps.IsTTY && (caps.SupportsColor || caps.SupportsUnicode) {
				t.Errorf("DetectTerminalCapabilities() = %+v, want no color or Unicode without a TTY", caps)
			}
		})
	}
}

// TestSelectSymbols tests symbol selection based on capabilities
func TestSelectSymbols(t *testing.T) {
	tests := map[string]struct {
		capabilities  progress.TerminalCapabilities
		wantCheckmark string
		wantFailure   string
		wantSpinner   int
	}{
		"Unicode support enabled": {
			capabilities:  progress.TerminalCapabilities{IsTTY: true, SupportsUnicode: true, SupportsColor: true},
			wantCheckmark: "✓",
			wantFailure:   "✗",
			wantSpinner:   14,
		},
		"ASCII fallback mode": {
			capabilities:  progress.TerminalCapabilities{IsTTY: true},
			wantCheckmark: "[OK]",
			wantFailure:   "[FAIL]",
			wantSpinner:   9,
		},
		"non-TTY mode": {
			capabilities:  progress.TerminalCapabilities{},
			wantCheckmark: "[OK]",
			wantFailure:   "[FAIL]",
			wantSpinner:   9,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			symbols := progress.SelectSymbols(tt.capabilities)

			if symbols.Checkmark != tt.wantCheckmark {
				t.Errorf("SelectSymbols() Checkmark = %q, want %q", symbols.Checkmark, tt.wantCheckmark)
			}
			if symbols.Failure != tt.wantFailure {
				t.Errorf("SelectSymbols() Failure = %q, want %q", symbols.Failure, tt.wantFailure)
			}
			if symbols.SpinnerSet != tt.wantSpinner {
				t.Errorf("SelectSymbols() SpinnerSet = %d, want %d", symbols.SpinnerSet, tt.wantSpinner)
			}
		})
	}
}
