package progress

import (
	"fmt"

	"github.com/fatih/color"
)

func stepCounter(step StepInfo) string {
	return fmt.Sprintf("[%d/%d]", step.Number, step.Total)
}

func resolvingMessage(step StepInfo) string {
	return stepCounter(step) + " Resolving include " + step.Name
}

// paint colors mark for stderr. color.NoColor reflects stdout, so the
// decision is made from the capabilities of the stream actually written.
func paint(mark string, attr color.Attribute, caps TerminalCapabilities) string {
	c := color.New(attr)
	if caps.SupportsColor && caps.SupportsUnicode {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(mark)
}
