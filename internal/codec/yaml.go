// internal/codec/yaml.go
package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/accumate/docfilter/internal/types"
)

// DecodeYAML decodes a single YAML document into a value, keeping mapping
// key order. Scalars are typed by YAML's own resolution rules (so "30" is a
// string and 30 is a number); aliases are expanded.
func DecodeYAML(data []byte) (types.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return types.Null{}, nil
	}
	return fromNode(&doc)
}

// DecodeYAMLMapping decodes a YAML document whose top level is a mapping.
func DecodeYAMLMapping(data []byte) (types.Mapping, error) {
	v, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(types.Mapping)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", types.ErrNotADocument, v.Kind())
	}
	return m, nil
}

func fromNode(n *yaml.Node) (types.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return types.Null{}, nil
		}
		return fromNode(n.Content[0])

	case yaml.AliasNode:
		return fromNode(n.Alias)

	case yaml.SequenceNode:
		seq := make(types.Sequence, 0, len(n.Content))
		for i, child := range n.Content {
			v, err := fromNode(child)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			seq = append(seq, v)
		}
		return seq, nil

	case yaml.MappingNode:
		m := make(types.Mapping, 0, len(n.Content)/2)
		index := make(map[string]int)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			v, err := fromNode(valNode)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", keyNode.Value, err)
			}
			if j, dup := index[keyNode.Value]; dup {
				m[j].Value = v
				continue
			}
			index[keyNode.Value] = len(m)
			m = append(m, types.Entry{Key: keyNode.Value, Value: v})
		}
		return m, nil

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!timestamp", "!!binary":
			return types.String(n.Value), nil
		}
		var native any
		if err := n.Decode(&native); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		v, err := types.FromNative(native)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}
