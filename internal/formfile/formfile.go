// Package formfile reads request forms from YAML files, keeping the key
// order of every mapping.
package formfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/curler/client/form"
)

// ErrNotMapping is returned when the document root is not a mapping.
var ErrNotMapping = errors.New("form file must hold a mapping")

// Load reads and parses the YAML form at path.
func Load(path string) (form.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return f, nil
}

// Parse decodes a YAML mapping into a form. Nested mappings become nested
// forms and sequences become forms keyed by index. An empty document
// yields an empty form.
func Parse(data []byte) (form.Form, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return form.Form{}, nil
	}

	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	return fromMapping(root)
}

func fromMapping(n *yaml.Node) (form.Form, error) {
	out := make(form.Form, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := resolve(n.Content[i])
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: keys must be scalars", key.Line)
		}

		v, err := fromNode(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key.Value, err)
		}
		out = append(out, form.Pair{Key: key.Value, Value: v})
	}

	return out, nil
}

func fromNode(n *yaml.Node) (any, error) {
	n = resolve(n)

	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "", nil
		}
		if n.Tag == "!!bool" {
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		}
		return n.Value, nil
	case yaml.MappingNode:
		return fromMapping(n)
	case yaml.SequenceNode:
		out := make(form.Form, 0, len(n.Content))
		for i, item := range n.Content {
			v, err := fromNode(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, form.Pair{Key: strconv.Itoa(i), Value: v})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
