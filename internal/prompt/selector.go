package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the user leaves the selector without choosing.
var ErrAborted = errors.New("fix selection aborted")

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Selector asks with an arrow-key menu on a terminal.
type Selector struct {
	in  io.Reader
	out io.Writer
}

// NewSelector creates a selector using in and out as the terminal.
func NewSelector(in io.Reader, out io.Writer) *Selector {
	return &Selector{in: in, out: out}
}

// Ask runs the menu until a choice is made.
func (s *Selector) Ask(question string) (Choice, error) {
	final, err := tea.NewProgram(newModel(question), tea.WithInput(s.in), tea.WithOutput(s.out)).Run()
	if err != nil {
		return Ignore, fmt.Errorf("running selector: %w", err)
	}
	m := final.(model)
	if m.aborted {
		return Ignore, ErrAborted
	}
	return m.choice, nil
}

type model struct {
	question string
	cursor   int
	choice   Choice
	done     bool
	aborted  bool
}

func newModel(question string) model {
	return model{question: question}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "tab":
		if m.cursor < len(labels)-1 {
			m.cursor++
		}
	case "1", "2", "3":
		m.cursor = int(key.Runes[0] - '1')
		fallthrough
	case "enter", " ":
		m.choice = Choice(m.cursor)
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(questionStyle.Render(m.question))
	b.WriteByte('\n')
	if m.done {
		b.WriteString("  " + selectedStyle.Render(m.choice.String()) + "\n")
		return b.String()
	}
	for i, label := range labels {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteByte('\n')
	}
	b.WriteString(hintStyle.Render("↑/↓ move • enter select • esc abort"))
	b.WriteByte('\n')
	return b.String()
}
