package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MergeKey is the YAML merge key.
const MergeKey = "<<"

// AnchorRef is the materialized form of an alias. It is kept as a reference
// so that the resolver can substitute the anchor's value later, using the
// anchor registry of the whole pipeline rather than of a single file.
type AnchorRef struct {
	Name string
}

func (r AnchorRef) String() string {
	return "*" + r.Name
}

// Materialize converts a node into plain Go data: nil, bool, int, float64,
// string, []any, map[string]any and AnchorRef. Duplicate mapping keys resolve
// to the last occurrence.
func Materialize(n *yaml.Node) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return Materialize(n.Content[0])
	case yaml.AliasNode:
		return AnchorRef{Name: n.Value}
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			items = append(items, Materialize(item))
		}
		return items
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[keyString(n.Content[i])] = Materialize(n.Content[i+1])
		}
		return m
	case yaml.ScalarNode:
		return scalar(n)
	}
	return nil
}

func scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool", "!!int", "!!float":
		var v any
		if err := n.Decode(&v); err == nil {
			return v
		}
	}
	return n.Value
}

func keyString(k *yaml.Node) string {
	switch k.Kind {
	case yaml.ScalarNode:
		if k.ShortTag() == "!!merge" {
			return MergeKey
		}
		return k.Value
	case yaml.AliasNode:
		return "*" + k.Value
	default:
		return fmt.Sprint(Materialize(k))
	}
}

// HasKey reports whether v is a mapping containing key.
func HasKey(v any, key string) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[key]
	return ok
}

// ContainsRef reports whether v contains an AnchorRef anywhere.
func ContainsRef(v any) bool {
	switch t := v.(type) {
	case AnchorRef:
		return true
	case []any:
		for _, item := range t {
			if ContainsRef(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range t {
			if ContainsRef(item) {
				return true
			}
		}
	}
	return false
}
