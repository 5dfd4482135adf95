package document

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Pair is a key/value entry of a mapping node.
type Pair struct {
	Key    *yaml.Node
	Value  *yaml.Node
	Parent *yaml.Node

	doc *Document
}

// Name returns the key text.
func (p Pair) Name() string {
	return keyString(p.Key)
}

// Anchor returns the anchor defined on the value, if any.
func (p Pair) Anchor() string {
	return p.Value.Anchor
}

// Line returns the 1-based line of the key.
func (p Pair) Line() int {
	return p.Key.Line
}

// Column returns the 1-based column of the key.
func (p Pair) Column() int {
	return p.Key.Column
}

// Materialize returns the plain value of the pair.
func (p Pair) Materialize() any {
	return Materialize(p.Value)
}

// SourceText returns the original source lines spanned by the pair together
// with every comment attached to its key and value.
func (p Pair) SourceText() string {
	var b strings.Builder
	for _, c := range []string{
		p.Key.HeadComment, p.Key.LineComment, p.Key.FootComment,
		p.Value.HeadComment, p.Value.LineComment, p.Value.FootComment,
	} {
		if c != "" {
			b.WriteString(c)
			b.WriteByte('\n')
		}
	}
	if p.doc == nil || p.Key.Line == 0 {
		return b.String()
	}
	start := p.Key.Line - 1
	end := lastLine(p.Value)
	if end < p.Key.Line {
		end = p.Key.Line
	}
	if end > len(p.doc.lines) {
		end = len(p.doc.lines)
	}
	if start < end {
		b.WriteString(strings.Join(p.doc.lines[start:end], ""))
	}
	return b.String()
}

// lastLine returns the last 1-based source line covered by n.
func lastLine(n *yaml.Node) int {
	last := n.Line
	if n.Kind == yaml.ScalarNode {
		last += strings.Count(strings.TrimRight(n.Value, "\n"), "\n")
		if n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
			last++
		}
	}
	if n.Kind == yaml.AliasNode {
		return last
	}
	for _, c := range n.Content {
		if l := lastLine(c); l > last {
			last = l
		}
	}
	return last
}

// VisitFunc is called for every pair. ancestors holds the enclosing mapping
// nodes from the root down to, and including, the pair's own mapping.
type VisitFunc func(pair Pair, ancestors []*yaml.Node) error

// Depth returns the nesting depth for an ancestor chain: top-level keys are
// at depth 0, their direct children at depth 1.
func Depth(ancestors []*yaml.Node) int {
	return len(ancestors) - 1
}

// Visit walks every pair at every depth in pre-order, descending into
// sequence items. Aliases are not followed. The first error stops the walk.
func (d *Document) Visit(fn VisitFunc) error {
	if len(d.node.Content) == 0 {
		return nil
	}
	return d.visit(d.node.Content[0], nil, fn)
}

func (d *Document) visit(n *yaml.Node, ancestors []*yaml.Node, fn VisitFunc) error {
	switch n.Kind {
	case yaml.MappingNode:
		chain := append(ancestors[:len(ancestors):len(ancestors)], n)
		for i := 0; i+1 < len(n.Content); i += 2 {
			pair := Pair{Key: n.Content[i], Value: n.Content[i+1], Parent: n, doc: d}
			if err := fn(pair, chain); err != nil {
				return err
			}
			if err := d.visit(pair.Value, chain, fn); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if err := d.visit(item, ancestors, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Walk calls fn for n and every node below it in pre-order. Alias targets
// are not followed.
func Walk(n *yaml.Node, fn func(*yaml.Node)) {
	if n == nil {
		return
	}
	fn(n)
	if n.Kind == yaml.AliasNode {
		return
	}
	for _, c := range n.Content {
		Walk(c, fn)
	}
}
