package pipeline

import (
	"fmt"
	"slices"

	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/report"
)

// ExtendsKey is the job keyword naming the templates a job inherits from.
const ExtendsKey = "extends"

// HierarchyError reports a template that itself extends another template.
// Only one level of extends is supported, so this aborts the run.
type HierarchyError struct {
	Key      string
	Template string
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("%q extends %q, which extends another template; extension hierarchies are not supported", e.Key, e.Template)
}

// Resolver computes the effective value of an entry from the model.
type Resolver struct {
	model *Model
	log   report.Logger
}

// NewResolver creates a resolver over m. Warnings for unknown templates and
// anchors go to log.
func NewResolver(m *Model, log report.Logger) *Resolver {
	if log == nil {
		log = report.Discard{}
	}
	return &Resolver{model: m, log: log}
}

// Resolve returns the effective mapping for key, given the entry's own
// materialized value. The view entry of the same name is the base, own
// fields overwrite it, then every template named by extends overwrites the
// result in list order. Anchor references and merge keys are substituted
// last.
func (r *Resolver) Resolve(key string, own any) (map[string]any, error) {
	result := make(map[string]any)
	for _, layer := range []any{r.model.View[key], own} {
		if ref, ok := layer.(document.AnchorRef); ok {
			layer = r.Substitute(ref)
		}
		if m, ok := layer.(map[string]any); ok {
			for k, v := range m {
				result[k] = v
			}
		}
	}

	if ext, ok := result[ExtendsKey]; ok {
		delete(result, ExtendsKey)
		for _, name := range extendsNames(ext) {
			tmpl, found := r.model.Templates[name]
			if !found {
				r.log.Warnf("Cannot find %s (extended by %s)", name, key)
				continue
			}
			parent, _ := r.Substitute(tmpl).(map[string]any)
			if _, nested := parent[ExtendsKey]; nested {
				return nil, &HierarchyError{Key: key, Template: name}
			}
			for k, v := range parent {
				result[k] = v
			}
		}
	}

	resolved, _ := r.Substitute(result).(map[string]any)
	return resolved, nil
}

func extendsNames(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		names := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

// Substitute returns a deep copy of v with every anchor reference replaced by
// a copy of the anchor's value and every merge key expanded into its
// mapping. Keys written in the mapping win over merged ones, and earlier
// merge sources win over later ones. Unknown anchors and reference cycles
// become nil.
func (r *Resolver) Substitute(v any) any {
	return r.substitute(v, nil)
}

func (r *Resolver) substitute(v any, active []string) any {
	switch t := v.(type) {
	case document.AnchorRef:
		if slices.Contains(active, t.Name) {
			r.log.Warnf("Anchor %s references itself; ignoring the inner reference", t.Name)
			return nil
		}
		target, ok := r.model.Anchors[t.Name]
		if !ok {
			r.log.Warnf("Cannot find anchor %s", t.Name)
			return nil
		}
		return r.substitute(target, append(active[:len(active):len(active)], t.Name))
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = r.substitute(item, active)
		}
		return items
	case map[string]any:
		out := make(map[string]any, len(t))
		if merge, ok := t[document.MergeKey]; ok {
			sources := []any{merge}
			if list, isList := merge.([]any); isList {
				sources = list
			}
			for i := len(sources) - 1; i >= 0; i-- {
				if m, isMap := r.substitute(sources[i], active).(map[string]any); isMap {
					for k, item := range m {
						out[k] = item
					}
				}
			}
		}
		for k, item := range t {
			if k == document.MergeKey {
				continue
			}
			out[k] = r.substitute(item, active)
		}
		return out
	}
	return v
}
