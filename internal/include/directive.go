// Package include expands the include directives of a pipeline: local files,
// remote URLs, files of other projects and CI/CD components. Directives are
// resolved one at a time in discovery order, and every resolved document may
// declare further includes.
package include

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind discriminates the include variants.
type Kind int

const (
	Local Kind = iota
	Remote
	Project
	Component
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	case Project:
		return "project"
	case Component:
		return "component"
	default:
		return "unknown"
	}
}

// Directive is one include entry.
type Directive struct {
	Kind Kind
	// Location is the path of a Local include or the URL of a Remote one.
	Location  string
	Project   *ProjectSource
	Component *ComponentSource
}

// ProjectSource names files of another project on the same server.
type ProjectSource struct {
	Project string   `validate:"required"`
	Files   []string `validate:"min=1,dive,required"`
	Ref     string
}

// ComponentSource is a CI/CD component reference and the inputs passed to it.
type ComponentSource struct {
	Path    string `validate:"required"`
	Version string `validate:"required"`
	Inputs  map[string]any
}

func (d Directive) String() string {
	switch d.Kind {
	case Project:
		return d.Project.Project + ":" + strings.Join(d.Project.Files, ",")
	case Component:
		return d.Component.Path + "@" + d.Component.Version
	default:
		return d.Location
	}
}

var validate = validator.New()

// ParseDirectives turns the value of an include key (a string, a mapping or
// a list of either) into directives. Entries that cannot be understood are
// skipped and reported in the returned error.
func ParseDirectives(v any) ([]Directive, error) {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var directives []Directive
	var errs []error
	for _, item := range items {
		d, err := parseDirective(item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		directives = append(directives, d)
	}
	return directives, errors.Join(errs...)
}

func parseDirective(v any) (Directive, error) {
	switch t := v.(type) {
	case string:
		if isURL(t) {
			return Directive{Kind: Remote, Location: t}, nil
		}
		return Directive{Kind: Local, Location: t}, nil
	case map[string]any:
		switch {
		case t["local"] != nil:
			if s, ok := t["local"].(string); ok {
				return Directive{Kind: Local, Location: s}, nil
			}
		case t["remote"] != nil:
			if s, ok := t["remote"].(string); ok {
				return Directive{Kind: Remote, Location: s}, nil
			}
		case t["project"] != nil:
			return parseProject(t)
		case t["component"] != nil:
			return parseComponent(t)
		}
	}
	return Directive{}, fmt.Errorf("cannot handle include %v", v)
}

func parseProject(m map[string]any) (Directive, error) {
	src := &ProjectSource{}
	src.Project, _ = m["project"].(string)
	src.Ref = fmt.Sprint(valueOr(m["ref"], ""))
	switch files := m["file"].(type) {
	case string:
		src.Files = []string{files}
	case []any:
		for _, f := range files {
			if s, ok := f.(string); ok {
				src.Files = append(src.Files, s)
			}
		}
	}
	if err := validate.Struct(src); err != nil {
		return Directive{}, fmt.Errorf("invalid project include %v: %w", m["project"], err)
	}
	return Directive{Kind: Project, Project: src}, nil
}

func parseComponent(m map[string]any) (Directive, error) {
	ref, _ := m["component"].(string)
	src := &ComponentSource{}
	if at := strings.LastIndex(ref, "@"); at >= 0 {
		src.Path, src.Version = ref[:at], ref[at+1:]
	}
	if inputs, ok := m["inputs"].(map[string]any); ok {
		src.Inputs = inputs
	}
	if err := validate.Struct(src); err != nil {
		return Directive{}, fmt.Errorf("invalid component reference %s, expected <path>@<version>: %w", ref, err)
	}
	return Directive{Kind: Component, Component: src}, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
