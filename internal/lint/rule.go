// Package lint runs rules over a pipeline document, reports findings and
// applies the fixes they carry.
package lint

import (
	"fmt"
	"strings"

	"github.com/smurf667/pipeline-consigliere/internal/document"
)

// Severity of a rule. Fixes can be limited to a minimum severity.
type Severity int

const (
	Info Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity parses "info", "warn" or "error".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return Info, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return Info, fmt.Errorf("unknown severity %q", s)
}

// Rule describes one check. Check is called for every key/value pair of the
// root document; Finally is called once after the traversal. Either may be
// nil. Rules keep state across calls only through the Run.
type Rule struct {
	ID          string
	Title       string
	Description string
	Severity    Severity
	// OptIn rules only run when enabled explicitly.
	OptIn bool

	Check   func(run *Run, v Visit) (*Finding, error)
	Finally func(run *Run, doc *document.Document, includes []*document.Document) (*Finding, error)
}

// Finding is a rule match. Fix is optional.
type Finding struct {
	Message string
	Fix     document.Command
}

// Visit is the pair a Check is called for.
type Visit struct {
	Key   string
	Value any
	// Depth is 0 for top-level keys and 1 for their direct children.
	Depth    int
	Pair     document.Pair
	Document *document.Document

	resolve func() (map[string]any, error)
}

// Resolve returns the effective value of the entry with extends, anchors,
// merge keys and included definitions applied. It returns nil when the entry
// inherits nothing.
func (v Visit) Resolve() (map[string]any, error) {
	if v.resolve == nil {
		return nil, nil
	}
	return v.resolve()
}

// Run is the state of one lint run, shared by all rules.
type Run struct {
	flags map[string]bool
}

// NewRun creates empty run state.
func NewRun() *Run {
	return &Run{flags: make(map[string]bool)}
}

// Set records a named flag.
func (r *Run) Set(name string, value bool) {
	r.flags[name] = value
}

// Flag returns a flag recorded earlier in the run.
func (r *Run) Flag(name string) bool {
	return r.flags[name]
}
