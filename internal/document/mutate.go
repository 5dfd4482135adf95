package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Command is a deferred mutation of a document, attached to a finding and
// applied only in the fix phase.
type Command interface {
	Apply(d *Document) error
	String() string
}

// InsertPair inserts Key: Value into Mapping.
type InsertPair struct {
	Mapping *yaml.Node
	// Index is the pair position; a negative index appends.
	Index int
	// After, when set, places the pair right after the last pair whose key
	// is listed, or appends when none is present. It is evaluated when the
	// command is applied.
	After       []string
	Key         string
	Value       *yaml.Node
	SpaceBefore bool
}

func (c InsertPair) Apply(d *Document) error {
	index := c.Index
	if len(c.After) > 0 {
		index = lastIndexOf(c.Mapping, c.After) + 1
		if index == 0 {
			index = -1
		}
	}
	return d.InsertPair(c.Mapping, index, c.Key, c.Value, c.SpaceBefore)
}

func (c InsertPair) String() string {
	return fmt.Sprintf("insert %q", c.Key)
}

// DeleteKey removes Key from Mapping.
type DeleteKey struct {
	Mapping *yaml.Node
	Key     string
}

func (c DeleteKey) Apply(d *Document) error {
	if !d.DeleteKey(c.Mapping, c.Key) {
		return fmt.Errorf("key %q not found", c.Key)
	}
	return nil
}

func (c DeleteKey) String() string {
	return fmt.Sprintf("delete %q", c.Key)
}

// PopLast removes the last item of Sequence.
type PopLast struct {
	Sequence *yaml.Node
}

func (c PopLast) Apply(d *Document) error {
	_, err := d.PopLast(c.Sequence)
	return err
}

func (c PopLast) String() string {
	return "remove last item"
}

// RenameKey changes the text of a key node.
type RenameKey struct {
	Key  *yaml.Node
	Name string
}

func (c RenameKey) Apply(d *Document) error {
	d.RenameKey(c.Key, c.Name)
	return nil
}

func (c RenameKey) String() string {
	return fmt.Sprintf("rename %q to %q", c.Key.Value, c.Name)
}

// InsertPair inserts a new key/value pair at index (negative appends).
func (d *Document) InsertPair(mapping *yaml.Node, index int, key string, value *yaml.Node, spaceBefore bool) error {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return fmt.Errorf("insert %q: target is not a mapping", key)
	}
	if value == nil {
		return fmt.Errorf("insert %q: missing value", key)
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	pairs := len(mapping.Content) / 2
	if index < 0 || index > pairs {
		index = pairs
	}
	at := index * 2
	content := make([]*yaml.Node, 0, len(mapping.Content)+2)
	content = append(content, mapping.Content[:at]...)
	content = append(content, keyNode, value)
	content = append(content, mapping.Content[at:]...)
	mapping.Content = content
	d.touch(mapping)
	d.inserted[keyNode] = struct{}{}
	if spaceBefore {
		d.spaced[keyNode] = struct{}{}
	}
	return nil
}

// DeleteKey removes the first pair with the given key. It reports whether a
// pair was removed.
func (d *Document) DeleteKey(mapping *yaml.Node, key string) bool {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if keyString(mapping.Content[i]) == key {
			mapping.Content = append(mapping.Content[:i:i], mapping.Content[i+2:]...)
			d.reshape(mapping)
			return true
		}
	}
	return false
}

// PopLast removes and returns the last item of a sequence.
func (d *Document) PopLast(seq *yaml.Node) (*yaml.Node, error) {
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("pop: target is not a sequence")
	}
	if len(seq.Content) == 0 {
		return nil, fmt.Errorf("pop: sequence is empty")
	}
	last := seq.Content[len(seq.Content)-1]
	seq.Content = seq.Content[:len(seq.Content)-1]
	d.reshape(seq)
	return last, nil
}

// RenameKey sets the text of a key node.
func (d *Document) RenameKey(key *yaml.Node, name string) {
	key.Value = name
	d.reshape(key)
}

func (d *Document) touch(n *yaml.Node) {
	d.touched[n] = struct{}{}
}

func (d *Document) reshape(n *yaml.Node) {
	d.touch(n)
	d.reshaped[n] = struct{}{}
}

// NewValueNode encodes a Go value into a node.
func NewValueNode(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	return &n, nil
}

// ParseValueNode parses YAML text into a value node, keeping key order and
// scalar styles.
func ParseValueNode(text string) (*yaml.Node, error) {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(text), &n); err != nil {
		return nil, fmt.Errorf("parsing value: %w", err)
	}
	if len(n.Content) == 0 {
		return nil, fmt.Errorf("parsing value: empty document")
	}
	return n.Content[0], nil
}

func lastIndexOf(mapping *yaml.Node, keys []string) int {
	found := -1
	if mapping == nil {
		return found
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := keyString(mapping.Content[i])
		for _, k := range keys {
			if name == k {
				found = i / 2
			}
		}
	}
	return found
}
