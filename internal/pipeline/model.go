package pipeline

import (
	"gopkg.in/yaml.v3"

	"github.com/smurf667/pipeline-consigliere/internal/document"
)

// Model is the merged view of a root pipeline file and everything it
// includes. It is built once per lint run.
type Model struct {
	Root *document.Document
	// Anchors maps anchor names to their materialized values. Later
	// definitions overwrite earlier ones, root first, then includes in
	// discovery order.
	Anchors map[string]any
	// Templates maps top-level keys starting with "." to their values, with
	// the same overwrite order.
	Templates map[string]any
	// View is the shallow merge of the root and every included document.
	View map[string]any
	// Includes are the resolved sub-documents in discovery order.
	Includes []*document.Document
}

// NewModel scans the root document and returns the model together with the
// include directives the root declares.
func NewModel(root *document.Document) (*Model, []any) {
	m := &Model{
		Root:      root,
		Anchors:   make(map[string]any),
		Templates: make(map[string]any),
		View:      make(map[string]any),
	}
	for k, v := range root.Map() {
		m.View[k] = v
	}
	return m, m.Scan(root)
}

// Add registers a resolved sub-document: it is appended to Includes, merged
// over View and scanned for anchors and templates. The include directives it
// declares are returned so that the caller can queue them.
func (m *Model) Add(doc *document.Document) []any {
	m.Includes = append(m.Includes, doc)
	for k, v := range doc.Map() {
		m.View[k] = v
	}
	return m.Scan(doc)
}

// Scan records the anchors and templates of doc and returns the values of its
// top-level include keys.
func (m *Model) Scan(doc *document.Document) []any {
	document.Walk(doc.Node(), func(n *yaml.Node) {
		if n.Anchor != "" {
			m.Anchors[n.Anchor] = document.Materialize(n)
		}
	})

	var includes []any
	for _, pair := range doc.Pairs() {
		name := pair.Name()
		if IsTemplate(name) {
			m.Templates[name] = pair.Materialize()
		}
		if name == "include" {
			includes = append(includes, pair.Materialize())
		}
	}
	return includes
}
