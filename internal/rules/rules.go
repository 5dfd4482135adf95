// Package rules holds the built-in lint rules.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/lint"
)

// Options are the values inserted by fixes.
type Options struct {
	// Timeout is set on jobs without a timeout.
	Timeout string
	// ExpireIn is set on artifacts without an expiry.
	ExpireIn string
}

// DefaultOptions returns the fix values used unless configured otherwise.
func DefaultOptions() Options {
	return Options{Timeout: "10 minutes", ExpireIn: "12 hours"}
}

// Builtins returns every built-in rule, opt-in ones included, sorted by id.
func Builtins(opts Options) []*lint.Rule {
	defaults := DefaultOptions()
	if opts.Timeout == "" {
		opts.Timeout = defaults.Timeout
	}
	if opts.ExpireIn == "" {
		opts.ExpireIn = defaults.ExpireIn
	}
	all := []*lint.Rule{
		artifactsExpire(opts.ExpireIn),
		interruptible(),
		haveRules(),
		timeout(opts.Timeout),
		workflow(),
		kebabCase(),
	}
	slices.SortFunc(all, func(a, b *lint.Rule) int { return strings.Compare(a.ID, b.ID) })
	return all
}

// Select returns the active rules: every rule that is not opt-in plus the
// enabled ones, minus the disabled ones. Unknown ids are an error.
func Select(all []*lint.Rule, enabled, disabled []string) ([]*lint.Rule, error) {
	known := make(map[string]bool, len(all))
	for _, r := range all {
		known[r.ID] = true
	}
	for _, id := range slices.Concat(enabled, disabled) {
		if !known[id] {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
	}

	var active []*lint.Rule
	for _, r := range all {
		if slices.Contains(disabled, r.ID) {
			continue
		}
		if r.OptIn && !slices.Contains(enabled, r.ID) {
			continue
		}
		active = append(active, r)
	}
	return active, nil
}

// lacks reports whether neither the entry nor what it inherits sets
// property.
func lacks(v lint.Visit, property string) (bool, error) {
	if document.HasKey(v.Value, property) {
		return false, nil
	}
	full, err := v.Resolve()
	if err != nil {
		return false, err
	}
	_, ok := full[property]
	return !ok, nil
}

// prepend returns a fix inserting key: value as the first entry of the
// visited mapping, or nil when the value is not a mapping.
func prepend(v lint.Visit, key string, value any) (document.Command, error) {
	if v.Pair.Value.Kind != yaml.MappingNode {
		return nil, nil
	}
	node, err := document.NewValueNode(value)
	if err != nil {
		return nil, err
	}
	return document.InsertPair{Mapping: v.Pair.Value, Index: 0, Key: key, Value: node}, nil
}
