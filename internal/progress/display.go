package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Display renders include resolution progress
type Display struct {
	capabilities TerminalCapabilities
	symbols      ProgressSymbols
	out          io.Writer
	spinner      *spinner.Spinner
}

// NewDisplay creates a display writing to out, normally os.Stderr so that
// progress never mixes with a fixed file printed to stdout.
func NewDisplay(caps TerminalCapabilities, out io.Writer) *Display {
	return &Display{
		capabilities: caps,
		symbols:      SelectSymbols(caps),
		out:          out,
	}
}

// StartStep begins displaying progress for an include
func (d *Display) StartStep(step StepInfo) error {
	if err := step.Validate(); err != nil {
		return err
	}
	d.StopSpinner()

	msg := resolvingMessage(step)
	if d.capabilities.IsTTY {
		d.spinner = spinner.New(
			spinner.CharSets[d.symbols.SpinnerSet],
			100*time.Millisecond,
		)
		d.spinner.Writer = d.out
		d.spinner.Suffix = " " + msg
		d.spinner.Start()
		return nil
	}
	fmt.Fprintln(d.out, msg)
	return nil
}

// CompleteStep stops the spinner and reports how many documents the include
// contributed
func (d *Display) CompleteStep(step StepInfo, documents int) {
	d.StopSpinner()
	mark := paint(d.symbols.Checkmark, color.FgGreen, d.capabilities)
	fmt.Fprintf(d.out, "%s %s %s (%d document%s)\n", mark,
		stepCounter(step), step.Name, documents, plural(documents))
}

// FailStep stops the spinner and displays failure status
func (d *Display) FailStep(step StepInfo, err error) {
	d.StopSpinner()
	mark := paint(d.symbols.Failure, color.FgRed, d.capabilities)
	fmt.Fprintf(d.out, "%s %s %s unresolved: %v\n", mark,
		stepCounter(step), step.Name, err)
}

// StopSpinner stops the spinner without reporting anything
func (d *Display) StopSpinner() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
