package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-openapi/inflect"
	yaml "gopkg.in/yaml.v3"
)

// parseYAML reads a YAML document shaped as a sequence of single-key
// mappings into the same node tree parseXML produces:
//
//	# login.yaml
//	- message:
//	    name: Login
//	    fields:
//	      - {name: user, type: std::string, default: '""'}
//
// Scalar values become attributes. A sequence under key K becomes
// children tagged singular(K); scalar items get a "name" attribute.
// "argument" and "result" scalars become children with a "type" attribute.
func parseYAML(r io.Reader) (*node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	top := doc.Content[0]
	if top.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: top level must be a sequence of entries", top.Line)
	}
	root := &node{tag: "schema", attrs: map[string]string{}, line: top.Line}
	for _, item := range top.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, fmt.Errorf("line %d: entry must be a single-key mapping", item.Line)
		}
		key, val := item.Content[0], item.Content[1]
		n, err := yamlEntry(key.Value, key.Line, val)
		if err != nil {
			return nil, err
		}
		root.children = append(root.children, n)
	}
	return root, nil
}

func yamlEntry(tag string, line int, val *yaml.Node) (*node, error) {
	n := &node{tag: tag, attrs: map[string]string{}, line: line}
	if val.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s body must be a mapping", val.Line, tag)
	}
	for i := 0; i+1 < len(val.Content); i += 2 {
		k, v := val.Content[i], val.Content[i+1]
		switch {
		case (k.Value == "argument" || k.Value == "result") && v.Kind == yaml.ScalarNode:
			n.children = append(n.children, &node{
				tag:   k.Value,
				attrs: map[string]string{"type": v.Value},
				line:  v.Line,
			})
		case v.Kind == yaml.SequenceNode:
			child := inflect.Singularize(k.Value)
			for _, item := range v.Content {
				c, err := yamlChild(child, item)
				if err != nil {
					return nil, err
				}
				n.children = append(n.children, c)
			}
		default:
			lit, err := yamlLiteral(v)
			if err != nil {
				return nil, err
			}
			n.attrs[k.Value] = lit
		}
	}
	return n, nil
}

func yamlChild(tag string, item *yaml.Node) (*node, error) {
	c := &node{tag: tag, attrs: map[string]string{}, line: item.Line}
	switch item.Kind {
	case yaml.ScalarNode:
		c.attrs["name"] = item.Value
	case yaml.MappingNode:
		for i := 0; i+1 < len(item.Content); i += 2 {
			lit, err := yamlLiteral(item.Content[i+1])
			if err != nil {
				return nil, err
			}
			c.attrs[item.Content[i].Value] = lit
		}
	default:
		return nil, fmt.Errorf("line %d: unsupported %s item", item.Line, tag)
	}
	return c, nil
}

// yamlLiteral renders a value node back into the literal spelling used by
// XML attributes. Flow collections become brace lists, so an unquoted
// `default: {}` means the same thing as default="{}".
func yamlLiteral(v *yaml.Node) (string, error) {
	switch v.Kind {
	case yaml.ScalarNode:
		return v.Value, nil
	case yaml.MappingNode:
		if len(v.Content) == 0 {
			return "{}", nil
		}
	case yaml.SequenceNode:
		items := make([]string, 0, len(v.Content))
		for _, it := range v.Content {
			s, err := yamlLiteral(it)
			if err != nil {
				return "", err
			}
			items = append(items, s)
		}
		return "{" + strings.Join(items, ", ") + "}", nil
	}
	return "", fmt.Errorf("line %d: unsupported value", v.Line)
}
