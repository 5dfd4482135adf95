// Package prompt asks the user what to do with each fix in interactive mode.
package prompt

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Choice is the answer for one fix.
type Choice int

const (
	// Accept applies the fix.
	Accept Choice = iota
	// Ignore skips this fix.
	Ignore
	// IgnoreAll skips this fix and every later fix of the same rule.
	IgnoreAll
)

var labels = []string{"Accept", "Ignore", "Ignore all of these"}

func (c Choice) String() string {
	if c < 0 || int(c) >= len(labels) {
		return "unknown"
	}
	return labels[c]
}

// Prompter asks a question and returns the selected choice.
type Prompter interface {
	Ask(question string) (Choice, error)
}

// New returns the interactive selector when in is a terminal and a plain
// line prompter otherwise.
func New(in io.Reader, out io.Writer) Prompter {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewSelector(in, out)
	}
	return NewLinePrompter(in, out)
}
