package doc

import (
	"encoding/json"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Unmarshal parses a JSON or YAML object into an ordered document.
// Nested objects become D, arrays []any, integers int64 and floats float64.
// Integers that overflow int64 are kept as json.Number.
func Unmarshal(data []byte) (D, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if n.Kind == 0 {
		return D{}, nil
	}
	root := &n
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return D{}, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse document: expected an object at line %d", root.Line)
	}
	return fromMapping(root)
}

// UnmarshalYAML keeps field order when a document is embedded in a YAML file.
func (d *D) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected an object", value.Line)
	}
	parsed, err := fromMapping(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalJSON keeps field order when a document is decoded from JSON.
func (d *D) UnmarshalJSON(data []byte) error {
	parsed, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func fromMapping(n *yaml.Node) (D, error) {
	d := make(D, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		v, err := nodeValue(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", n.Content[i].Value, err)
		}
		d = append(d, E{Key: n.Content[i].Value, Value: v})
	}
	return d, nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		return fromMapping(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.ScalarNode:
		return scalarValue(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

var integerLiteral = regexp.MustCompile(`^[-+]?[0-9]+$`)

func scalarValue(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		err := n.Decode(&b)
		return b, err
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return json.Number(n.Value), nil
		}
		return i, nil
	case "!!float":
		// yaml.v3 tags integers beyond int64 as !!float.
		if integerLiteral.MatchString(n.Value) {
			return json.Number(n.Value), nil
		}
		var f float64
		err := n.Decode(&f)
		return f, err
	default:
		return n.Value, nil
	}
}
