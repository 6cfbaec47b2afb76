package ir

import (
	"fmt"
	"regexp"
	"strings"
)

// TypeKind classifies a field type.
type TypeKind int

const (
	KindScalar TypeKind = iota
	KindString
	KindContainer
	KindMessage
)

func (k TypeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindString:
		return "string"
	case KindContainer:
		return "container"
	case KindMessage:
		return "message"
	default:
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
}

// Container names, spelled without the std:: prefix.
const (
	Vector       = "vector"
	Set          = "set"
	UnorderedSet = "unordered_set"
	Map          = "map"
	UnorderedMap = "unordered_map"
	Pair         = "pair"
)

var containerArity = map[string]int{
	Vector:       1,
	Set:          1,
	UnorderedSet: 1,
	Map:          2,
	UnorderedMap: 2,
	Pair:         2,
}

// Scalar describes one of the basic scalar types.
type Scalar struct {
	Name   string
	Bits   int
	Signed bool
	Float  bool
	Bool   bool
}

// Scalars is the closed set of basic type names.
var Scalars = map[string]Scalar{
	"bool":      {Name: "bool", Bits: 8, Bool: true},
	"char":      {Name: "char", Bits: 8, Signed: true},
	"int8_t":    {Name: "int8_t", Bits: 8, Signed: true},
	"uint8_t":   {Name: "uint8_t", Bits: 8},
	"short":     {Name: "short", Bits: 16, Signed: true},
	"int16_t":   {Name: "int16_t", Bits: 16, Signed: true},
	"uint16_t":  {Name: "uint16_t", Bits: 16},
	"int":       {Name: "int", Bits: 32, Signed: true},
	"int32_t":   {Name: "int32_t", Bits: 32, Signed: true},
	"uint32_t":  {Name: "uint32_t", Bits: 32},
	"float":     {Name: "float", Bits: 32, Signed: true, Float: true},
	"double":    {Name: "double", Bits: 64, Signed: true, Float: true},
	"long":      {Name: "long", Bits: 64, Signed: true},
	"long long": {Name: "long long", Bits: 64, Signed: true},
	"int64_t":   {Name: "int64_t", Bits: 64, Signed: true},
	"uint64_t":  {Name: "uint64_t", Bits: 64},
}

// IsBasicType reports whether name is one of the basic scalar types.
func IsBasicType(name string) bool {
	_, ok := Scalars[normalizeSpaces(name)]
	return ok
}

// TypeRef is a parsed field type.
type TypeRef struct {
	Kind   TypeKind
	Name   string // scalar name, message name, or container name
	Params []TypeRef
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)

// ParseType parses a C++-style type spelling. The std:: prefix on
// containers and strings is optional.
func ParseType(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeRef{}, fmt.Errorf("empty type")
	}
	open := strings.IndexByte(s, '<')
	if open < 0 {
		if strings.ContainsAny(s, ">,") {
			return TypeRef{}, fmt.Errorf("malformed type %q", s)
		}
		name := normalizeSpaces(s)
		if sc, ok := Scalars[name]; ok {
			return TypeRef{Kind: KindScalar, Name: sc.Name}, nil
		}
		base := strings.TrimPrefix(name, "std::")
		if base == "string" {
			return TypeRef{Kind: KindString, Name: "string"}, nil
		}
		if _, ok := containerArity[base]; ok {
			return TypeRef{}, fmt.Errorf("container %q requires type parameters", name)
		}
		if !identRE.MatchString(name) {
			return TypeRef{}, fmt.Errorf("unknown type %q", s)
		}
		return TypeRef{Kind: KindMessage, Name: name}, nil
	}

	if !strings.HasSuffix(s, ">") {
		return TypeRef{}, fmt.Errorf("malformed type %q: missing closing '>'", s)
	}
	base := strings.TrimPrefix(strings.TrimSpace(s[:open]), "std::")
	arity, ok := containerArity[base]
	if !ok {
		return TypeRef{}, fmt.Errorf("unsupported template type %q", strings.TrimSpace(s[:open]))
	}
	args, err := splitParams(s[open+1 : len(s)-1])
	if err != nil {
		return TypeRef{}, fmt.Errorf("malformed type %q: %w", s, err)
	}
	if len(args) != arity {
		return TypeRef{}, fmt.Errorf("%s takes %d type parameter(s), got %d", base, arity, len(args))
	}
	t := TypeRef{Kind: KindContainer, Name: base}
	for _, a := range args {
		p, err := ParseType(a)
		if err != nil {
			return TypeRef{}, err
		}
		t.Params = append(t.Params, p)
	}
	return t, nil
}

// splitParams splits a template argument list at top-level commas.
func splitParams(s string) ([]string, error) {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced '>'")
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '<'")
	}
	out = append(out, s[start:])
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
		if out[i] == "" {
			return nil, fmt.Errorf("empty type parameter")
		}
	}
	return out, nil
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// String returns the canonical C++ spelling.
func (t TypeRef) String() string {
	switch t.Kind {
	case KindString:
		return "std::string"
	case KindContainer:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return "std::" + t.Name + "<" + strings.Join(parts, ", ") + ">"
	default:
		return t.Name
	}
}

// IsBasic reports whether t is a basic scalar.
func (t TypeRef) IsBasic() bool {
	return t.Kind == KindScalar
}

// Composite reports whether t is anything other than a basic scalar.
// Composite fields get move-constructor overloads.
func (t TypeRef) Composite() bool {
	return t.Kind != KindScalar
}

// Scalar returns the scalar description of a basic type.
func (t TypeRef) Scalar() (Scalar, bool) {
	if t.Kind != KindScalar {
		return Scalar{}, false
	}
	sc, ok := Scalars[t.Name]
	return sc, ok
}

// Walk visits t and every nested type parameter, depth first.
func (t TypeRef) Walk(fn func(TypeRef)) {
	fn(t)
	for _, p := range t.Params {
		p.Walk(fn)
	}
}

// MessageRefs returns the distinct message names referenced by t, in
// first-seen order.
func (t TypeRef) MessageRefs() []string {
	var out []string
	seen := map[string]bool{}
	t.Walk(func(r TypeRef) {
		if r.Kind == KindMessage && !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	})
	return out
}
