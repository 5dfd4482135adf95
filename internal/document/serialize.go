package document

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// chunk is the source text of one top-level pair.
type chunk struct {
	// lead holds the blank and column-0 comment lines directly above the key.
	lead string
	// body runs from the key line up to the next lead.
	body string
}

// layout splits the source into a preamble, one chunk per top-level key and a
// trailer. Concatenated in order they reproduce the source exactly.
type layout struct {
	preamble string
	chunks   map[*yaml.Node]chunk
	trailer  string
	indent   int
}

func newLayout(lines []string, root *yaml.Node) *layout {
	if root == nil || root.Style&yaml.FlowStyle != 0 || len(root.Content) == 0 {
		return nil
	}
	var keys []*yaml.Node
	prev := -1
	for i := 0; i+1 < len(root.Content); i += 2 {
		k := root.Content[i]
		start := k.Line - 1
		if start <= prev || start >= len(lines) {
			return nil
		}
		keys = append(keys, k)
		prev = start
	}

	l := &layout{chunks: make(map[*yaml.Node]chunk, len(keys)), indent: detectIndent(lines)}
	leadStart := func(i int) int {
		floor := 0
		if i > 0 {
			floor = keys[i-1].Line
		}
		s := keys[i].Line - 1
		for s > floor && detached(lines[s-1]) {
			s--
		}
		return s
	}

	first := leadStart(0)
	l.preamble = strings.Join(lines[:first], "")
	for i, k := range keys {
		begin := leadStart(i)
		end := len(lines)
		if i+1 < len(keys) {
			end = leadStart(i + 1)
		} else {
			end = k.Line
			for j := len(lines); j > k.Line; j-- {
				if !detached(lines[j-1]) {
					end = j
					break
				}
			}
			l.trailer = strings.Join(lines[end:], "")
		}
		l.chunks[k] = chunk{
			lead: strings.Join(lines[begin:k.Line-1], ""),
			body: strings.Join(lines[k.Line-1:end], ""),
		}
	}
	return l
}

// detached reports whether a line belongs to the gap between top-level
// entries rather than to an entry's body.
func detached(line string) bool {
	trimmed := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return true
	}
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "---") ||
		strings.HasPrefix(trimmed, "...")
}

func detectIndent(lines []string) int {
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		n := len(line) - len(trimmed)
		if n == 0 || strings.TrimSpace(trimmed) == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if n >= 2 && n <= 8 {
			return n
		}
		break
	}
	return 2
}

// Serialize renders the document. Without mutations the original source is
// returned unchanged. Otherwise untouched top-level entries keep their
// original text and only changed or new entries are re-encoded.
func (d *Document) Serialize() ([]byte, error) {
	if !d.Modified() {
		return bytes.Clone(d.source), nil
	}
	root := d.Root()
	if d.layout == nil || root == nil {
		return d.encodeAll()
	}

	var b bytes.Buffer
	b.WriteString(d.layout.preamble)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if c, ok := d.layout.chunks[key]; ok {
			b.WriteString(c.lead)
			if !d.dirty(key, value) {
				b.WriteString(c.body)
				continue
			}
			if body, ok := d.splice(key, value, c); ok {
				b.WriteString(body)
				continue
			}
		} else if _, ok := d.spaced[key]; ok {
			ensureNewline(&b)
			b.WriteByte('\n')
		}
		encoded, err := d.encodePair(key, value)
		if err != nil {
			return nil, err
		}
		ensureNewline(&b)
		b.Write(encoded)
	}
	b.WriteString(d.layout.trailer)
	return b.Bytes(), nil
}

func (d *Document) dirty(key, value *yaml.Node) bool {
	if _, ok := d.touched[key]; ok {
		return true
	}
	found := false
	Walk(value, func(n *yaml.Node) {
		if _, ok := d.touched[n]; ok {
			found = true
		}
	})
	return found
}

// splice renders a dirty top-level entry whose only changes are pairs
// inserted into block mappings. Each run of new pairs is encoded on its own
// and placed above the original key that follows it, so every original line
// stays as written. It reports false when the entry needs a full re-encode.
func (d *Document) splice(key, value *yaml.Node, c chunk) (string, bool) {
	if _, ok := d.touched[key]; ok {
		return "", false
	}
	var targets []*yaml.Node
	plain := true
	Walk(value, func(n *yaml.Node) {
		if _, ok := d.touched[n]; !ok {
			return
		}
		_, reshaped := d.reshaped[n]
		if reshaped || n.Kind != yaml.MappingNode || n.Style&yaml.FlowStyle != 0 {
			plain = false
			return
		}
		targets = append(targets, n)
	})
	if !plain {
		return "", false
	}

	type insertion struct {
		at   int
		text string
	}
	lines := splitLines([]byte(c.body))
	var inserts []insertion
	for _, m := range targets {
		var run []*yaml.Node
		for i := 0; i+1 < len(m.Content); i += 2 {
			k := m.Content[i]
			if _, ok := d.inserted[k]; ok {
				run = append(run, k, m.Content[i+1])
				continue
			}
			if len(run) == 0 {
				continue
			}
			at, indent, ok := insertionPoint(lines, k, key.Line)
			if !ok {
				return "", false
			}
			text, err := d.encodeRun(run, indent)
			if err != nil {
				return "", false
			}
			inserts = append(inserts, insertion{at: at, text: text})
			run = nil
		}
		if len(run) > 0 {
			// trailing pairs have no original key to anchor on
			return "", false
		}
	}

	slices.SortFunc(inserts, func(a, b insertion) int { return cmp.Compare(b.at, a.at) })
	for _, in := range inserts {
		lines = slices.Insert(lines, in.at, in.text)
	}
	return strings.Join(lines, ""), true
}

// insertionPoint returns the body line above which pairs preceding the
// original key k go, and k's indentation. Comment lines directly above k at
// the same indentation stay attached to k. first is the source line number
// of the body's first line.
func insertionPoint(lines []string, k *yaml.Node, first int) (int, int, bool) {
	at := k.Line - first
	indent := k.Column - 1
	if at < 1 || at >= len(lines) || indent < 1 || len(lines[at]) < indent {
		return 0, 0, false
	}
	if strings.TrimLeft(lines[at][:indent], " ") != "" {
		// the key shares its line with something else, like "- key: v"
		return 0, 0, false
	}
	for at > 1 {
		prev := lines[at-1]
		trimmed := strings.TrimLeft(prev, " ")
		if !strings.HasPrefix(trimmed, "#") || len(prev)-len(trimmed) != indent {
			break
		}
		at--
	}
	return at, indent, true
}

// encodeRun encodes consecutive new pairs indented to column indent.
func (d *Document) encodeRun(run []*yaml.Node, indent int) (string, error) {
	out, err := d.encode(&yaml.Node{Kind: yaml.MappingNode, Content: run})
	if err != nil {
		return "", err
	}
	pad := strings.Repeat(" ", indent)
	var b strings.Builder
	if _, ok := d.spaced[run[0]]; ok {
		b.WriteByte('\n')
	}
	for _, line := range splitLines(trimDetached(out)) {
		if strings.TrimSpace(line) != "" {
			b.WriteString(pad)
		}
		b.WriteString(line)
	}
	return b.String(), nil
}

func (d *Document) indent() int {
	if d.layout != nil {
		return d.layout.indent
	}
	return detectIndent(d.lines)
}

func (d *Document) encodePair(key, value *yaml.Node) ([]byte, error) {
	k := *key
	// the head comment is part of the preserved lead
	k.HeadComment = ""
	m := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{&k, value}}
	out, err := d.encode(m)
	if err != nil {
		return nil, err
	}
	return trimDetached(out), nil
}

func (d *Document) encodeAll() ([]byte, error) {
	return d.encode(d.node)
}

func (d *Document) encode(n *yaml.Node) ([]byte, error) {
	defer untagMergeKeys(n)()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(d.indent())
	if err := enc.Encode(n); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", d.Path, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", d.Path, err)
	}
	return buf.Bytes(), nil
}

// untagMergeKeys clears the explicit !!merge tag the parser puts on "<<" keys,
// which yaml.v3 would otherwise write out as "!!merge <<". The returned
// function restores the tags.
func untagMergeKeys(n *yaml.Node) func() {
	tags := make(map[*yaml.Node]string)
	Walk(n, func(m *yaml.Node) {
		if m.Kind != yaml.MappingNode {
			return
		}
		for i := 0; i+1 < len(m.Content); i += 2 {
			if k := m.Content[i]; k.Kind == yaml.ScalarNode && k.Value == MergeKey && k.ShortTag() == "!!merge" {
				tags[k] = k.Tag
			}
		}
	})
	for k := range tags {
		k.Tag = ""
	}
	return func() {
		for k, tag := range tags {
			k.Tag = tag
		}
	}
}

// trimDetached drops trailing blank and column-0 comment lines, which the
// preserved source already carries.
func trimDetached(out []byte) []byte {
	lines := splitLines(out)
	end := len(lines)
	for end > 1 && detached(lines[end-1]) {
		end--
	}
	text := strings.Join(lines[:end], "")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return []byte(text)
}

func ensureNewline(b *bytes.Buffer) {
	if b.Len() > 0 && b.Bytes()[b.Len()-1] != '\n' {
		b.WriteByte('\n')
	}
}
