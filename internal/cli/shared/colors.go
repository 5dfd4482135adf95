package shared

import "github.com/fatih/color"

// Colors provides reusable color functions for CLI output.
type Colors struct {
	Cyan   func(a ...interface{}) string
	Green  func(a ...interface{}) string
	Yellow func(a ...interface{}) string
	Dim    func(a ...interface{}) string
	White  func(a ...interface{}) string
}

// NewColors creates a new Colors instance with standard terminal colors.
func NewColors() *Colors {
	return &Colors{
		Cyan:   color.New(color.FgCyan, color.Bold).SprintFunc(),
		Green:  color.New(color.FgHiGreen).SprintFunc(),
		Yellow: color.New(color.FgYellow).SprintFunc(),
		Dim:    color.New(color.Faint).SprintFunc(),
		White:  color.New(color.FgHiWhite, color.Bold).SprintFunc(),
	}
}
