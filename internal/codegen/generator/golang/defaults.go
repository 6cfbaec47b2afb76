package golang

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/Alia5/progen/internal/ir"
)

// fieldDefault is a declared default translated to Go.
type fieldDefault struct {
	// value builds the default expression; nil when reset is set.
	value func() *jen.Statement
	// empty marks nil containers, so presence checks can use len.
	empty bool
	// reset marks a message-typed field whose default is its own Reset.
	reset bool
}

// translateDefault converts a C++-style default literal into Go.
func (e emitter) translateDefault(t ir.TypeRef, lit string) (fieldDefault, error) {
	lit = strings.TrimSpace(lit)
	switch t.Kind {
	case ir.KindScalar:
		sc, _ := t.Scalar()
		v, err := scalarLiteral(sc, lit)
		if err != nil {
			return fieldDefault{}, err
		}
		return fieldDefault{value: func() *jen.Statement { return jen.Id(v) }}, nil
	case ir.KindString:
		v, err := stringLiteral(lit)
		if err != nil {
			return fieldDefault{}, err
		}
		return fieldDefault{value: func() *jen.Statement { return jen.Lit(v) }}, nil
	case ir.KindMessage:
		if lit != "{}" {
			return fieldDefault{}, fmt.Errorf("default %q: only {} is supported for %s", lit, t.Name)
		}
		return fieldDefault{reset: true}, nil
	}

	items, braced := splitList(lit)
	if !braced {
		return fieldDefault{}, fmt.Errorf("default %q is not a brace initializer", lit)
	}
	if len(items) == 0 {
		if t.Name == ir.Pair {
			return fieldDefault{value: func() *jen.Statement { return e.pairDefault(t) }}, nil
		}
		return fieldDefault{value: func() *jen.Statement { return jen.Nil() }, empty: true}, nil
	}

	switch t.Name {
	case ir.Vector, ir.Set, ir.UnorderedSet:
		el := t.Params[0]
		var vals []string
		for _, it := range items {
			v, err := primitiveLiteral(el, it)
			if err != nil {
				return fieldDefault{}, err
			}
			vals = append(vals, v)
		}
		build := func() []jen.Code {
			out := make([]jen.Code, 0, len(vals))
			for _, v := range vals {
				out = append(out, primitiveExpr(el, v))
			}
			return out
		}
		if t.Name == ir.Vector {
			return fieldDefault{value: func() *jen.Statement { return e.goType(t).Values(build()...) }}, nil
		}
		return fieldDefault{value: func() *jen.Statement {
			return jen.Qual(e.rt, "SetOf").Types(e.goType(el)).Call(build()...)
		}}, nil
	case ir.Pair:
		if len(items) != 2 {
			return fieldDefault{}, fmt.Errorf("default %q: a pair takes two values", lit)
		}
		first, err := primitiveLiteral(t.Params[0], items[0])
		if err != nil {
			return fieldDefault{}, err
		}
		second, err := primitiveLiteral(t.Params[1], items[1])
		if err != nil {
			return fieldDefault{}, err
		}
		return fieldDefault{value: func() *jen.Statement {
			return e.goType(t).Values(jen.Dict{
				jen.Id("First"):  primitiveExpr(t.Params[0], first),
				jen.Id("Second"): primitiveExpr(t.Params[1], second),
			})
		}}, nil
	default:
		return fieldDefault{}, fmt.Errorf("default %q: only {} is supported for %s", lit, t.Name)
	}
}

// pairDefault builds the value-initialized pair t. Message members hold
// their own declared defaults, the way Unpack builds them.
func (e emitter) pairDefault(t ir.TypeRef) *jen.Statement {
	d := jen.Dict{}
	for i, member := range []string{"First", "Second"} {
		p := t.Params[i]
		switch {
		case p.Kind == ir.KindMessage:
			d[jen.Id(member)] = jen.Op("*").Id("New" + typeName(p.Name)).Call()
		case p.Kind == ir.KindContainer && p.Name == ir.Pair && holdsMessage(p):
			d[jen.Id(member)] = e.pairDefault(p)
		}
	}
	return e.goType(t).Values(d)
}

// holdsMessage reports whether a message is stored by value somewhere
// inside the pair t.
func holdsMessage(t ir.TypeRef) bool {
	for _, p := range t.Params {
		if p.Kind == ir.KindMessage || (p.Kind == ir.KindContainer && p.Name == ir.Pair && holdsMessage(p)) {
			return true
		}
	}
	return false
}

// primitiveLiteral translates a brace-list element. Only scalars and
// strings may appear inside brace defaults.
func primitiveLiteral(t ir.TypeRef, lit string) (string, error) {
	switch t.Kind {
	case ir.KindScalar:
		sc, _ := t.Scalar()
		return scalarLiteral(sc, lit)
	case ir.KindString:
		return stringLiteral(lit)
	default:
		return "", fmt.Errorf("default element %q: %s values cannot be listed", lit, t)
	}
}

func primitiveExpr(t ir.TypeRef, v string) *jen.Statement {
	if t.Kind == ir.KindString {
		return jen.Lit(v)
	}
	return jen.Id(v)
}

// scalarLiteral returns canonical Go source for a scalar default.
func scalarLiteral(sc ir.Scalar, lit string) (string, error) {
	if lit == "{}" {
		if sc.Bool {
			return "false", nil
		}
		return "0", nil
	}
	if sc.Bool {
		if lit == "true" || lit == "false" {
			return lit, nil
		}
		return "", fmt.Errorf("default %q is not a bool", lit)
	}
	if sc.Float {
		s := strings.TrimRight(lit, "fFlL")
		v, err := strconv.ParseFloat(s, sc.Bits)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return "", fmt.Errorf("default %q is not a %s literal", lit, sc.Name)
		}
		return strconv.FormatFloat(v, 'g', -1, sc.Bits), nil
	}

	if len(lit) >= 3 && lit[0] == '\'' && lit[len(lit)-1] == '\'' {
		r, _, tail, err := strconv.UnquoteChar(lit[1:len(lit)-1], '\'')
		if err != nil || tail != "" {
			return "", fmt.Errorf("default %q is not a character literal", lit)
		}
		lit = strconv.Itoa(int(r))
	}
	s := strings.TrimRight(lit, "uUlL")
	if sc.Signed {
		v, err := strconv.ParseInt(s, 0, sc.Bits)
		if err != nil {
			return "", fmt.Errorf("default %q does not fit %s", lit, sc.Name)
		}
		return strconv.FormatInt(v, 10), nil
	}
	v, err := strconv.ParseUint(s, 0, sc.Bits)
	if err != nil {
		return "", fmt.Errorf("default %q does not fit %s", lit, sc.Name)
	}
	return strconv.FormatUint(v, 10), nil
}

func stringLiteral(lit string) (string, error) {
	switch lit {
	case "{}", "std::string()", "std::string{}":
		return "", nil
	}
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		v, err := strconv.Unquote(lit)
		if err != nil {
			return "", fmt.Errorf("default %s is not a valid string literal", lit)
		}
		return v, nil
	}
	return "", fmt.Errorf("default %q is not a string literal", lit)
}

// splitList splits "{a, b}" into its elements. Commas inside quotes do not
// split.
func splitList(lit string) ([]string, bool) {
	if !strings.HasPrefix(lit, "{") || !strings.HasSuffix(lit, "}") {
		return nil, false
	}
	body := strings.TrimSpace(lit[1 : len(lit)-1])
	if body == "" {
		return nil, true
	}
	var (
		out   []string
		start int
		quote byte
	)
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		case quote == 0 && c == ',':
			out = append(out, strings.TrimSpace(body[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(body[start:])), true
}
