// Package source reads style declarations from YAML (or JSON) documents
// preserving declaration order.
//
// Mapping values become nested blocks, scalars are taken as raw CSS text
// and sequences of scalars are joined with ", " (handy for font stacks and
// transitions). Anchors, aliases and merge keys are supported.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"stylec/sheet"
)

const mergeKey = "<<"

// Load reads the first document from r.
func Load(r io.Reader) (*sheet.Style, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return sheet.NewStyle(), nil
		}
		return nil, fmt.Errorf("unable to decode declarations: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return sheet.NewStyle(), nil
	}
	root := resolve(doc.Content[0])
	if isNull(root) {
		return sheet.NewStyle(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, nodeError(root, "top level must be a mapping of rules")
	}
	st := sheet.NewStyle()
	if err := fill(st, root); err != nil {
		return nil, err
	}
	return st, nil
}

// LoadFile reads declarations from file.
func LoadFile(path string) (*sheet.Style, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

func fill(st *sheet.Style, n *yaml.Node) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolve(n.Content[i+1])
		if k.Kind != yaml.ScalarNode {
			return nodeError(k, "property name must be a scalar")
		}
		if k.Value == mergeKey && k.Tag == "!!merge" {
			if err := merge(st, v); err != nil {
				return err
			}
			continue
		}
		val, err := value(v)
		if err != nil {
			return fmt.Errorf("%q: %w", k.Value, err)
		}
		st.Set(k.Value, val)
	}
	return nil
}

func merge(st *sheet.Style, v *yaml.Node) error {
	switch v.Kind {
	case yaml.MappingNode:
		return fill(st, v)
	case yaml.SequenceNode:
		for _, item := range v.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode {
				return nodeError(item, "merge sequence must hold mappings")
			}
			if err := fill(st, item); err != nil {
				return err
			}
		}
		return nil
	}
	return nodeError(v, "merge value must be a mapping")
}

func value(n *yaml.Node) (sheet.Value, error) {
	switch {
	case isNull(n):
		return sheet.Nested(sheet.NewStyle()), nil
	case n.Kind == yaml.ScalarNode:
		return sheet.Raw(n.Value), nil
	case n.Kind == yaml.MappingNode:
		st := sheet.NewStyle()
		if err := fill(st, n); err != nil {
			return sheet.Value{}, err
		}
		return sheet.Nested(st), nil
	case n.Kind == yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			item = resolve(item)
			if item.Kind != yaml.ScalarNode || isNull(item) {
				return sheet.Value{}, nodeError(item, "list items must be scalars")
			}
			items = append(items, item.Value)
		}
		return sheet.Raw(strings.Join(items, ", ")), nil
	}
	return sheet.Value{}, nodeError(n, "unsupported value")
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func nodeError(n *yaml.Node, msg string) error {
	return fmt.Errorf("line %d:%d: %s", n.Line, n.Column, msg)
}
