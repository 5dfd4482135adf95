package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LinePrompter reads numbered answers line by line.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
	// eof is set once the input ended; later questions are not asked.
	eof bool
}

// NewLinePrompter creates a prompter reading from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Ask prints the question with the numbered choices and reads the answer.
// An empty answer accepts; unknown answers are asked again. Once the input
// is exhausted every question is answered with Ignore.
func (p *LinePrompter) Ask(question string) (Choice, error) {
	for !p.eof {
		fmt.Fprintln(p.out, question)
		for i, label := range labels {
			fmt.Fprintf(p.out, "  %d) %s\n", i+1, label)
		}
		fmt.Fprint(p.out, "Choice [1]: ")

		line, err := p.in.ReadString('\n')
		if errors.Is(err, io.EOF) {
			p.eof = true
			if line == "" {
				fmt.Fprintln(p.out)
				break
			}
		} else if err != nil {
			return Ignore, fmt.Errorf("reading answer: %w", err)
		}
		if choice, ok := parseAnswer(line); ok {
			return choice, nil
		}
		fmt.Fprintf(p.out, "Unknown choice %q\n", strings.TrimSpace(line))
	}
	return Ignore, nil
}

func parseAnswer(line string) (Choice, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "1", "a", "accept", "y", "yes":
		return Accept, true
	case "2", "i", "ignore", "n", "no":
		return Ignore, true
	case "3", "all", "ignore all":
		return IgnoreAll, true
	}
	return Ignore, false
}
