package include

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smurf667/pipeline-consigliere/internal/document"
)

// Unresolved replaces a component placeholder whose input cannot be found.
const Unresolved = "UNRESOLVED_PLACEHOLDER"

var placeholder = regexp.MustCompile(`\$\[\[\s*(.*?)\s*\]\]`)

// component fetches templates/<name>.yml of the component project. The file
// holds the `spec:` header declaring the inputs, then the template itself.
// The caller's inputs are merged over the declared ones and substituted into
// the template, which becomes a single synthetic document.
func (e *Expander) component(ctx context.Context, src *ComponentSource) ([]*document.Document, error) {
	api, token, err := e.credentials(Component, src.Path)
	if err != nil {
		return nil, err
	}

	segments := strings.Split(src.Path, "/")
	file := "templates/" + segments[len(segments)-1] + ".yml"
	project := e.expandVariables(strings.Join(segments[:len(segments)-1], "/"))
	if fqdn := e.getenv(EnvServerFQDN); fqdn != "" {
		project = strings.Replace(project, fqdn, "", 1)
	}
	project = strings.TrimPrefix(project, "/")
	ref := src.Version
	if ref == "latest" {
		ref = ""
	}

	target := rawFileURL(api, project, file, ref)
	body, err := e.fetch(ctx, target, token)
	if err != nil {
		return nil, err
	}
	docs, err := document.ParseAll(target, body)
	if err != nil {
		return nil, err
	}
	if len(docs) < 2 {
		return nil, fmt.Errorf("could not get component documents for %s", target)
	}

	inputs := declaredInputs(docs[0].Value())
	if inputs != nil && src.Inputs != nil {
		deepMerge(inputs, src.Inputs)
	}
	values := map[string]any{"inputs": inputs}
	document.Walk(docs[1].Node(), func(n *yaml.Node) {
		if n.Kind == yaml.ScalarNode {
			n.Value = e.replacePlaceholders(n.Value, values)
		}
	})

	doc, err := document.FromNode(src.Path+"@"+src.Version, docs[1].Node())
	if err != nil {
		return nil, err
	}
	return []*document.Document{doc}, nil
}

// declaredInputs returns spec.inputs of the component descriptor.
func declaredInputs(descriptor any) map[string]any {
	root, _ := descriptor.(map[string]any)
	spec, _ := root["spec"].(map[string]any)
	inputs, _ := spec["inputs"].(map[string]any)
	return inputs
}

// deepMerge copies source into target. Mappings present on both sides are
// merged recursively; anything else from source replaces the target value.
func deepMerge(target, source map[string]any) {
	for k, v := range source {
		if sm, ok := v.(map[string]any); ok {
			if tm, ok := target[k].(map[string]any); ok {
				deepMerge(tm, sm)
				continue
			}
		}
		target[k] = v
	}
}

func (e *Expander) replacePlaceholders(s string, values map[string]any) string {
	if !strings.Contains(s, "$[[") {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		if v, ok := lookupInput(values, path); ok {
			return v
		}
		e.log.Warnf("Could not resolve placeholder %s in component inputs", path)
		return Unresolved
	})
}

// lookupInput follows path as far as it resolves. The value reached is used
// when it is a scalar, or through its default when it is a mapping with one.
func lookupInput(values map[string]any, path string) (string, bool) {
	var value any = values
	for _, key := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok || m[key] == nil {
			break
		}
		value = m[key]
	}
	switch v := value.(type) {
	case string:
		return v, true
	case map[string]any:
		def, ok := v["default"]
		if !ok {
			return "", false
		}
		if def == nil {
			return "", true
		}
		return fmt.Sprint(def), true
	case []any, nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}
