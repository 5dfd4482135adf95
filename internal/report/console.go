// Package report renders lint findings, warnings and summaries to the console.
package report

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// Logger receives non-fatal warnings from resolution and include expansion.
type Logger interface {
	Warnf(format string, args ...any)
}

// Entry is one finding as shown to the user.
type Entry struct {
	Severity    string
	Title       string
	Message     string
	Description string
	// Line and Column are 1-based; zero means the finding has no position.
	Line   int
	Column int
}

// Console writes colored output to a writer.
type Console struct {
	out io.Writer

	info    func(a ...any) string
	warn    func(a ...any) string
	err     func(a ...any) string
	title   func(a ...any) string
	message func(a ...any) string
	text    func(a ...any) string
}

// NewConsole creates a console writer. Colors follow fatih/color's terminal
// detection and the NO_COLOR convention.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:     out,
		info:    color.New(color.FgHiWhite).SprintFunc(),
		warn:    color.New(color.FgHiYellow).SprintFunc(),
		err:     color.New(color.FgHiRed).SprintFunc(),
		title:   color.New(color.FgHiWhite, color.Bold).SprintFunc(),
		message: color.New(color.FgHiBlue).SprintFunc(),
		text:    color.New(color.FgHiGreen).SprintFunc(),
	}
}

// Warnf prints a [WARN] line.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintf(c.out, "%s %s\n", c.warn("[WARN]"), fmt.Sprintf(format, args...))
}

// Errorf prints a red message without a severity tag.
func (c *Console) Errorf(format string, args ...any) {
	fmt.Fprintln(c.out, c.err(fmt.Sprintf(format, args...)))
}

// Printf prints plain text.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Finding prints a finding: severity tag, title and position, then the
// message and the word-wrapped rule description.
func (c *Console) Finding(e Entry) {
	tag := "[" + strings.ToUpper(e.Severity) + "]"
	switch e.Severity {
	case "info":
		tag = c.info(tag)
	case "warn":
		tag = c.warn(tag)
	case "error":
		tag = c.err(tag)
	}
	position := ""
	if e.Line > 0 {
		position = fmt.Sprintf(" (%d:%d)", e.Line, e.Column)
	}
	fmt.Fprintf(c.out, "%s %s%s\n", tag, c.title(e.Title), position)
	fmt.Fprintf(c.out, "  %s\n", c.message(e.Message))
	if e.Description != "" {
		fmt.Fprintf(c.out, "  %s\n", c.text(WordWrap(e.Description, 75, "  ")))
	}
}

// Summary prints the severity count line.
func (c *Console) Summary(errors, warnings, infos int) {
	fmt.Fprintf(c.out, "\n%s\n", SummaryLine(errors, warnings, infos))
}

// SummaryLine formats the severity counts.
func SummaryLine(errors, warnings, infos int) string {
	return fmt.Sprintf("Errors: %d Warnings: %d Notifications: %d", errors, warnings, infos)
}

// FixHint prints how many fixes --fix would apply.
func (c *Console) FixHint(n int) {
	plural := ""
	if n > 1 {
		plural = "es"
	}
	fmt.Fprintln(c.out, c.warn(fmt.Sprintf("%d fix%s can be applied if the --fix flag is used.", n, plural)))
}

// Rule prints one line of the rule listing.
func (c *Console) Rule(id string, width int, title string) {
	fmt.Fprintf(c.out, "  %s %s\n", c.warn(fmt.Sprintf("%-*s", width, id)), c.text(title))
}

var whitespace = regexp.MustCompile(`\s+`)

// WordWrap collapses whitespace and breaks text into lines of at most width
// characters; continuation lines are prefixed with indent.
func WordWrap(text string, width int, indent string) string {
	words := strings.Fields(whitespace.ReplaceAllString(text, " "))
	var lines []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+1+len(w) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n"+indent)
}

// Discard is a Logger that drops every warning.
type Discard struct{}

// Warnf does nothing.
func (Discard) Warnf(string, ...any) {}
