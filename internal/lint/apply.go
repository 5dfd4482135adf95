package lint

import (
	"fmt"

	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/prompt"
	"github.com/smurf667/pipeline-consigliere/internal/report"
)

// Applier applies the fixes of a summary to the root document.
type Applier struct {
	// Level is the minimum severity of fixes to apply.
	Level Severity
	// Prompter is asked before every fix; nil applies every eligible fix.
	Prompter prompt.Prompter
	Log      report.Logger
}

// Apply runs the eligible fixes in detection order and returns how many were
// applied. A fix that fails is logged and skipped.
func (a *Applier) Apply(summary *Summary, doc *document.Document) (int, error) {
	log := a.Log
	if log == nil {
		log = report.Discard{}
	}
	ignoreAll := make(map[string]bool)
	applied := 0
	for _, d := range summary.Fixes() {
		if ignoreAll[d.Rule.ID] || d.Rule.Severity < a.Level {
			continue
		}
		if a.Prompter != nil {
			choice, err := a.Prompter.Ask(Question(d))
			if err != nil {
				return applied, err
			}
			switch choice {
			case prompt.Ignore:
				continue
			case prompt.IgnoreAll:
				ignoreAll[d.Rule.ID] = true
				continue
			}
		}
		if err := d.Fix.Apply(doc); err != nil {
			log.Warnf("Cannot %s for [%s]: %v", d.Fix, d.Rule.ID, err)
			continue
		}
		applied++
	}
	return applied, nil
}

// Question is the interactive prompt for a fix.
func Question(d Diagnostic) string {
	if d.Line > 0 {
		return fmt.Sprintf("Handle [%s] for line %d: %s?", d.Rule.ID, d.Line, d.Message)
	}
	return fmt.Sprintf("Handle [%s]: %s?", d.Rule.ID, d.Message)
}
