package lint

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/pipeline"
	"github.com/smurf667/pipeline-consigliere/internal/report"
)

// IgnoreDirective followed by a rule id in a comment suppresses that rule
// for the commented entry.
const IgnoreDirective = "pipeline-consigliere-ignore"

// Reporter receives every finding that is not suppressed.
type Reporter interface {
	Finding(e report.Entry)
}

// Diagnostic is a reported finding.
type Diagnostic struct {
	Rule    *Rule
	Message string
	Fix     document.Command
	// Line and Column are 0 for findings of Finally hooks.
	Line   int
	Column int
}

// Summary collects the diagnostics of a run.
type Summary struct {
	Diagnostics []Diagnostic
	counts      [Error + 1]int
}

// Count returns the number of diagnostics with severity s.
func (s *Summary) Count(sev Severity) int {
	if sev < Info || sev > Error {
		return 0
	}
	return s.counts[sev]
}

// Fixes returns the fixable diagnostics in detection order.
func (s *Summary) Fixes() []Diagnostic {
	var fixes []Diagnostic
	for _, d := range s.Diagnostics {
		if d.Fix != nil {
			fixes = append(fixes, d)
		}
	}
	return fixes
}

func (s *Summary) add(d Diagnostic) {
	s.Diagnostics = append(s.Diagnostics, d)
	s.counts[d.Rule.Severity]++
}

// Engine dispatches rules over the root document of a model.
type Engine struct {
	rules    []*Rule
	model    *pipeline.Model
	resolver *pipeline.Resolver
	out      Reporter
}

// NewEngine creates an engine. Resolution warnings go to log, findings to out.
func NewEngine(rules []*Rule, model *pipeline.Model, log report.Logger, out Reporter) *Engine {
	return &Engine{
		rules:    rules,
		model:    model,
		resolver: pipeline.NewResolver(model, log),
		out:      out,
	}
}

// Lint checks every pair of the root document with every rule, then runs
// the Finally hooks. Findings reach the Reporter only once the whole run
// succeeded. A rule error, such as a *pipeline.HierarchyError, aborts the
// run without reporting anything.
func (e *Engine) Lint(ctx context.Context) (*Summary, error) {
	doc := e.model.Root
	run := NewRun()
	summary := &Summary{}

	err := doc.Visit(func(pair document.Pair, ancestors []*yaml.Node) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := e.visit(doc, pair, ancestors)
		for _, rule := range e.rules {
			if rule.Check == nil {
				continue
			}
			finding, err := rule.Check(run, v)
			if err != nil {
				return fmt.Errorf("rule %s on %q: %w", rule.ID, v.Key, err)
			}
			if finding == nil || ignored(pair.SourceText(), rule.ID) {
				continue
			}
			summary.add(Diagnostic{
				Rule: rule, Message: finding.Message, Fix: finding.Fix,
				Line: pair.Line(), Column: pair.Column(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, rule := range e.rules {
		if rule.Finally == nil {
			continue
		}
		finding, err := rule.Finally(run, doc, e.model.Includes)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		if finding == nil || ignored(doc.SourceText(), rule.ID) {
			continue
		}
		summary.add(Diagnostic{Rule: rule, Message: finding.Message, Fix: finding.Fix})
	}
	e.publish(summary)
	return summary, nil
}

// visit prepares the arguments of a Check. The resolver is bound only when
// the entry can inherit something: it holds an alias, declares extends or
// is defined in the merged view. Its result is computed once.
func (e *Engine) visit(doc *document.Document, pair document.Pair, ancestors []*yaml.Node) Visit {
	key := pair.Name()
	value := pair.Materialize()
	v := Visit{Key: key, Value: value, Depth: document.Depth(ancestors), Pair: pair, Document: doc}
	if document.ContainsRef(value) || document.HasKey(value, pipeline.ExtendsKey) || e.model.View[key] != nil {
		var (
			resolved map[string]any
			err      error
			done     bool
		)
		v.resolve = func() (map[string]any, error) {
			if !done {
				resolved, err = e.resolver.Resolve(key, value)
				done = true
			}
			return resolved, err
		}
	}
	return v
}

func (e *Engine) publish(summary *Summary) {
	if e.out == nil {
		return
	}
	for _, d := range summary.Diagnostics {
		e.out.Finding(report.Entry{
			Severity:    d.Rule.Severity.String(),
			Title:       d.Rule.Title,
			Message:     d.Message,
			Description: d.Rule.Description,
			Line:        d.Line,
			Column:      d.Column,
		})
	}
}

func ignored(source, id string) bool {
	return strings.Contains(source, IgnoreDirective+" "+id)
}
