// Package document wraps the yaml.v3 node tree of a pipeline file.
//
// A Document keeps the original source next to the parsed tree so that a file
// without mutations serializes back byte-for-byte, and a mutated file only
// re-encodes the top-level entries that were actually changed.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one parsed pipeline file (the root file or an included one).
type Document struct {
	Path string

	source  []byte
	lines   []string
	node    *yaml.Node
	layout  *layout
	touched map[*yaml.Node]struct{}
	spaced  map[*yaml.Node]struct{}
	// inserted holds the key nodes added by InsertPair.
	inserted map[*yaml.Node]struct{}
	// reshaped holds nodes changed by anything other than an insertion.
	reshaped map[*yaml.Node]struct{}
}

// Parse parses a single YAML document. On a syntax error the returned
// Document is empty but usable, and the error describes what went wrong.
func Parse(path string, src []byte) (*Document, error) {
	doc := newDocument(path, src)
	var node yaml.Node
	if err := yaml.Unmarshal(src, &node); err != nil {
		return doc, fmt.Errorf("parsing %s: %w", path, err)
	}
	if node.Kind == yaml.DocumentNode {
		doc.node = &node
	}
	doc.layout = newLayout(doc.lines, doc.Root())
	return doc, nil
}

// ParseAll parses every document of a multi-document stream. The returned
// documents carry no source text; use FromNode to turn one into a
// serializable Document.
func ParseAll(path string, src []byte) ([]*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	var docs []*Document
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return docs, fmt.Errorf("parsing %s: %w", path, err)
		}
		doc := newDocument(path, nil)
		doc.node = &node
		docs = append(docs, doc)
	}
}

// FromNode encodes n and parses the result, producing a Document whose
// positions and source text are consistent with its tree.
func FromNode(path string, n *yaml.Node) (*Document, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	return Parse(path, buf.Bytes())
}

func newDocument(path string, src []byte) *Document {
	return &Document{
		Path:    path,
		source:  src,
		lines:   splitLines(src),
		node:    &yaml.Node{Kind: yaml.DocumentNode},
		touched:  make(map[*yaml.Node]struct{}),
		spaced:   make(map[*yaml.Node]struct{}),
		inserted: make(map[*yaml.Node]struct{}),
		reshaped: make(map[*yaml.Node]struct{}),
	}
}

// Node returns the yaml document node.
func (d *Document) Node() *yaml.Node {
	return d.node
}

// Root returns the top-level mapping, or nil when the document is empty or
// its content is not a mapping.
func (d *Document) Root() *yaml.Node {
	if len(d.node.Content) == 0 {
		return nil
	}
	if n := d.node.Content[0]; n.Kind == yaml.MappingNode {
		return n
	}
	return nil
}

// Value materializes the whole document.
func (d *Document) Value() any {
	return Materialize(d.node)
}

// Map materializes the document as a mapping; non-mapping documents yield an
// empty map.
func (d *Document) Map() map[string]any {
	if m, ok := d.Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Pairs returns the top-level pairs in document order.
func (d *Document) Pairs() []Pair {
	root := d.Root()
	if root == nil {
		return nil
	}
	pairs := make([]Pair, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		pairs = append(pairs, Pair{Key: root.Content[i], Value: root.Content[i+1], Parent: root, doc: d})
	}
	return pairs
}

// SourceText returns the original source of the whole document.
func (d *Document) SourceText() string {
	return string(d.source)
}

// Modified reports whether any mutation was applied.
func (d *Document) Modified() bool {
	return len(d.touched) > 0
}

func splitLines(src []byte) []string {
	if len(src) == 0 {
		return nil
	}
	return strings.SplitAfter(string(src), "\n")
}
