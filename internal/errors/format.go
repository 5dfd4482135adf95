package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// FormatError renders err with colors for terminal output.
func FormatError(err error) string {
	return formatError(err, true)
}

// FormatErrorPlain renders err without ANSI escape codes.
func FormatErrorPlain(err error) string {
	return formatError(err, false)
}

// FormatSimpleError renders a non-CLI error under the given category heading.
func FormatSimpleError(err error, category ErrorCategory) string {
	if err == nil {
		return ""
	}
	return FormatError(Wrap(err, category))
}

// PrintError writes the formatted error to stderr.
func PrintError(err error) {
	FprintError(os.Stderr, err)
}

// FprintError writes the formatted error to w.
func FprintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(err))
}

func formatError(err error, colored bool) string {
	if err == nil {
		return ""
	}
	cliErr := AsCLIError(err)
	if cliErr == nil {
		cliErr = Wrap(err, Runtime)
	}

	heading := fmt.Sprint
	bold := fmt.Sprint
	dim := fmt.Sprint
	if colored {
		heading = color.New(color.FgRed, color.Bold).SprintFunc()
		bold = color.New(color.Bold).SprintFunc()
		dim = color.New(color.Faint).SprintFunc()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", heading(cliErr.Category.String()+":"), cliErr.Message)
	if cliErr.Usage != "" {
		fmt.Fprintf(&b, "\n%s\n  %s\n", bold("Usage:"), cliErr.Usage)
	}
	if len(cliErr.Remediation) > 0 {
		fmt.Fprintf(&b, "\n%s\n", bold("To fix this:"))
		for i, step := range cliErr.Remediation {
			fmt.Fprintf(&b, "  %s %s\n", dim(fmt.Sprintf("%d.", i+1)), step)
		}
	}
	return b.String()
}
