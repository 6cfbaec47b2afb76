package schema

import (
	"fmt"
	"time"
)

// Tag identifies the kind of a top-level schema entry.
type Tag string

const (
	TagMessage    Tag = "message"
	TagRemoteCall Tag = "remote-call"
	TagPlainData  Tag = "plain-data"
	TagState      Tag = "state"
)

// Attribute names understood on top-level entries.
const (
	AttrName        = "name"
	AttrTypeID      = "type-id"
	AttrMaxSize     = "max-size"
	AttrCodeField   = "code-field"
	AttrCodeName    = "code-name"
	AttrDefaultCode = "default-code"
)

// Legacy spellings accepted for tags and attributes.
var (
	tagAliases = map[string]Tag{
		"message":     TagMessage,
		"protocol":    TagMessage,
		"remote-call": TagRemoteCall,
		"rpc":         TagRemoteCall,
		"plain-data":  TagPlainData,
		"rpcdata":     TagPlainData,
		"state":       TagState,
	}
	attrAliases = map[string]string{
		"maxsize":      AttrMaxSize,
		"max_size":     AttrMaxSize,
		"typeid":       AttrTypeID,
		"type_id":      AttrTypeID,
		"codefield":    AttrCodeField,
		"code_field":   AttrCodeField,
		"code_name":    AttrCodeName,
		"default_code": AttrDefaultCode,
	}
)

// Field is one raw `field` child: name, type spelling and default literal.
type Field struct {
	Name    string
	Type    string
	Default string
	Pos     Pos
}

// Entry is a raw top-level element record. Attribute values stay
// uninterpreted strings; the IR builder gives them meaning.
type Entry struct {
	Tag       Tag
	Name      string
	Attrs     map[string]string
	Fields    []Field
	Includes  []string
	Argument  string
	Result    string
	Protocols []string
	Pos       Pos
}

// Attr returns the named attribute and whether it was present.
func (e *Entry) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// Document is one parsed schema document.
type Document struct {
	Path    string
	Index   bool
	ModTime time.Time
	Entries []Entry
}

// Set is the loader output: every successfully parsed document in
// processing order, plus every schema document that was discovered
// (including skipped ones) for timestamp checks.
type Set struct {
	Dir       string
	IndexPath string
	Documents []Document
	Sources   []string
	Skipped   []string
}

// Entries returns all entries in processing order.
func (s *Set) Entries() []Entry {
	var out []Entry
	for _, d := range s.Documents {
		out = append(out, d.Entries...)
	}
	return out
}

// node is the format-neutral element tree both readers produce.
type node struct {
	tag      string
	attrs    map[string]string
	children []*node
	line     int
}

func (n *node) attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func normalizeAttrs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if alias, ok := attrAliases[k]; ok {
			k = alias
		}
		out[k] = v
	}
	return out
}

// buildEntry converts a top-level node into an Entry, enforcing the
// required attributes for its tag.
func buildEntry(path string, n *node, index bool) (*Entry, error) {
	tag, ok := tagAliases[n.tag]
	if !ok {
		return nil, nil
	}
	pos := Pos{File: path, Line: n.line}
	attrs := normalizeAttrs(n.attrs)
	name := attrs[AttrName]
	if name == "" {
		return nil, NewValidationError(tag, "", pos, fmt.Sprintf("missing required attribute %q", AttrName))
	}
	if tag == TagState && !index {
		return nil, NewValidationError(tag, name, pos, "state groups may only be declared in the index document")
	}
	e := &Entry{Tag: tag, Name: name, Attrs: attrs, Pos: pos}

	if tag == TagMessage || tag == TagRemoteCall {
		for _, req := range []string{AttrTypeID, AttrMaxSize} {
			if v, ok := attrs[req]; !ok || v == "" {
				return nil, NewValidationError(tag, name, pos, fmt.Sprintf("missing required attribute %q", req))
			}
		}
	}

	for _, c := range n.children {
		cpos := Pos{File: path, Line: c.line}
		switch c.tag {
		case "field":
			f, err := buildField(tag, name, cpos, c)
			if err != nil {
				return nil, err
			}
			e.Fields = append(e.Fields, f)
		case "include":
			v, ok := c.attr("name")
			if !ok || v == "" {
				return nil, NewValidationError(tag, name, cpos, `include missing required attribute "name"`)
			}
			e.Includes = append(e.Includes, v)
		case "argument", "result":
			if tag != TagRemoteCall {
				return nil, NewValidationError(tag, name, cpos, fmt.Sprintf("%q is only valid inside remote-call", c.tag))
			}
			v, ok := c.attr("type")
			if !ok || v == "" {
				return nil, NewValidationError(tag, name, cpos, fmt.Sprintf("%s missing required attribute %q", c.tag, "type"))
			}
			if c.tag == "argument" {
				e.Argument = v
			} else {
				e.Result = v
			}
		case "protocol":
			if tag != TagState {
				return nil, NewValidationError(tag, name, cpos, `"protocol" is only valid inside state`)
			}
			v, ok := c.attr("name")
			if !ok || v == "" {
				return nil, NewValidationError(tag, name, cpos, `protocol missing required attribute "name"`)
			}
			e.Protocols = append(e.Protocols, v)
		default:
			return nil, NewValidationError(tag, name, cpos, fmt.Sprintf("unknown child element %q", c.tag))
		}
	}

	if tag == TagRemoteCall {
		if e.Argument == "" {
			return nil, NewValidationError(tag, name, pos, "missing required argument type")
		}
		if e.Result == "" {
			return nil, NewValidationError(tag, name, pos, "missing required result type")
		}
	}
	return e, nil
}

func buildField(tag Tag, owner string, pos Pos, c *node) (Field, error) {
	fname, ok := c.attr("name")
	if !ok || fname == "" {
		return Field{}, NewValidationError(tag, owner, pos, `field missing required attribute "name"`)
	}
	ftype, ok := c.attr("type")
	if !ok || ftype == "" {
		return Field{}, NewFieldError(tag, owner, fname, pos, `missing required attribute "type"`)
	}
	def, ok := c.attr("default")
	if !ok {
		return Field{}, NewFieldError(tag, owner, fname, pos, "field missing default")
	}
	return Field{Name: fname, Type: ftype, Default: def, Pos: pos}, nil
}
