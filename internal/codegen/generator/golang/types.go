package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/Alia5/progen/internal/codegen/common"
	"github.com/Alia5/progen/internal/ir"
)

// goScalars maps schema scalar names to Go types. The stream method for a
// type is Write/Read plus its title-cased name.
var goScalars = map[string]string{
	"bool":      "bool",
	"char":      "int8",
	"int8_t":    "int8",
	"uint8_t":   "uint8",
	"short":     "int16",
	"int16_t":   "int16",
	"uint16_t":  "uint16",
	"int":       "int32",
	"int32_t":   "int32",
	"uint32_t":  "uint32",
	"float":     "float32",
	"double":    "float64",
	"long":      "int64",
	"long long": "int64",
	"int64_t":   "int64",
	"uint64_t":  "uint64",
}

var streamSuffix = map[string]string{
	"bool":    "Bool",
	"int8":    "Int8",
	"uint8":   "Uint8",
	"int16":   "Int16",
	"uint16":  "Uint16",
	"int32":   "Int32",
	"uint32":  "Uint32",
	"int64":   "Int64",
	"uint64":  "Uint64",
	"float32": "Float32",
	"float64": "Float64",
	"string":  "String",
}

// typeName returns the Go type name of a definition.
func typeName(name string) string {
	return common.ToPascalCase(name)
}

// fieldName returns the exported Go name of a schema field.
func fieldName(name string) string {
	return common.ToPascalCase(name)
}

func lowerFirst(s string) string {
	return common.ToCamelCase(s)
}

// emitter renders Go expressions for schema types. rt is the import path
// of the runtime package.
type emitter struct {
	rt string
}

func (e emitter) stream() *jen.Statement {
	return jen.Op("*").Qual(e.rt, "Stream")
}

// goType returns the Go spelling of t.
func (e emitter) goType(t ir.TypeRef) *jen.Statement {
	switch t.Kind {
	case ir.KindScalar:
		return jen.Id(goScalars[t.Name])
	case ir.KindString:
		return jen.String()
	case ir.KindMessage:
		return jen.Id(typeName(t.Name))
	}
	switch t.Name {
	case ir.Vector:
		return jen.Index().Add(e.goType(t.Params[0]))
	case ir.Set, ir.UnorderedSet:
		return jen.Map(e.goType(t.Params[0])).Struct()
	case ir.Map, ir.UnorderedMap:
		return jen.Map(e.goType(t.Params[0])).Add(e.goType(t.Params[1]))
	default:
		return jen.Qual(e.rt, "Pair").Types(e.goType(t.Params[0]), e.goType(t.Params[1]))
	}
}

// primitive reports whether t has a direct stream method.
func primitive(t ir.TypeRef) bool {
	return t.Kind == ir.KindScalar || t.Kind == ir.KindString
}

// isComparable reports whether values of t can be compared with ==.
func isComparable(t ir.TypeRef) bool {
	if primitive(t) {
		return true
	}
	return t.Kind == ir.KindContainer && t.Name == ir.Pair && isComparable(t.Params[0]) && isComparable(t.Params[1])
}

func suffix(t ir.TypeRef) string {
	if t.Kind == ir.KindString {
		return "String"
	}
	return streamSuffix[goScalars[t.Name]]
}

// writer returns a func(*Stream, T) value that encodes t.
func (e emitter) writer(t ir.TypeRef) *jen.Statement {
	if primitive(t) {
		return jen.Parens(e.stream()).Dot("Write" + suffix(t))
	}
	return jen.Func().Params(jen.Id("s").Add(e.stream()), jen.Id("v").Add(e.goType(t))).Block(
		e.write(t, jen.Id("v")),
	)
}

// write returns a statement encoding v of type t into s.
func (e emitter) write(t ir.TypeRef, v jen.Code) *jen.Statement {
	switch {
	case primitive(t):
		return jen.Id("s").Dot("Write" + suffix(t)).Call(v)
	case t.Kind == ir.KindMessage:
		return jen.Add(v).Dot("Pack").Call(jen.Id("s"))
	}
	switch t.Name {
	case ir.Vector:
		return jen.Qual(e.rt, "WriteSlice").Call(jen.Id("s"), v, e.writer(t.Params[0]))
	case ir.Set, ir.UnorderedSet:
		return jen.Qual(e.rt, "WriteSet").Call(jen.Id("s"), v, e.writer(t.Params[0]))
	case ir.Map, ir.UnorderedMap:
		return jen.Qual(e.rt, "WriteMap").Call(jen.Id("s"), v, e.writer(t.Params[0]), e.writer(t.Params[1]))
	default:
		return jen.Qual(e.rt, "WritePair").Call(jen.Id("s"), v, e.writer(t.Params[0]), e.writer(t.Params[1]))
	}
}

// reader returns a func(*Stream) T value that decodes t.
func (e emitter) reader(t ir.TypeRef) *jen.Statement {
	if primitive(t) {
		return jen.Parens(e.stream()).Dot("Read" + suffix(t))
	}
	if t.Kind == ir.KindMessage {
		return jen.Func().Params(jen.Id("s").Add(e.stream())).Add(e.goType(t)).Block(
			jen.Var().Id("v").Add(e.goType(t)),
			jen.Id("v").Dot("Reset").Call(),
			jen.Id("v").Dot("Unpack").Call(jen.Id("s")),
			jen.Return(jen.Id("v")),
		)
	}
	return jen.Func().Params(jen.Id("s").Add(e.stream())).Add(e.goType(t)).Block(
		jen.Return(e.readExpr(t)),
	)
}

// readExpr returns an expression decoding a container or primitive t.
func (e emitter) readExpr(t ir.TypeRef) *jen.Statement {
	if primitive(t) {
		return jen.Id("s").Dot("Read" + suffix(t)).Call()
	}
	switch t.Name {
	case ir.Vector:
		return jen.Qual(e.rt, "ReadSlice").Call(jen.Id("s"), e.reader(t.Params[0]))
	case ir.Set, ir.UnorderedSet:
		return jen.Qual(e.rt, "ReadSet").Call(jen.Id("s"), e.reader(t.Params[0]))
	case ir.Map, ir.UnorderedMap:
		return jen.Qual(e.rt, "ReadMap").Call(jen.Id("s"), e.reader(t.Params[0]), e.reader(t.Params[1]))
	default:
		return jen.Qual(e.rt, "ReadPair").Call(jen.Id("s"), e.reader(t.Params[0]), e.reader(t.Params[1]))
	}
}

// read returns a statement decoding into target.
func (e emitter) read(t ir.TypeRef, target func() *jen.Statement) *jen.Statement {
	if t.Kind == ir.KindMessage {
		return target().Dot("Unpack").Call(jen.Id("s"))
	}
	return target().Op("=").Add(e.readExpr(t))
}

// equal returns a boolean expression comparing a and b of type t. Both
// operands must be addressable.
func (e emitter) equal(t ir.TypeRef, a, b func() *jen.Statement) *jen.Statement {
	if isComparable(t) {
		return a().Op("==").Add(b())
	}
	if t.Kind == ir.KindMessage {
		return a().Dot("Equal").Call(jen.Op("&").Add(b()))
	}
	x := func() *jen.Statement { return jen.Id("x") }
	y := func() *jen.Statement { return jen.Id("y") }
	switch t.Name {
	case ir.Vector:
		el := t.Params[0]
		if isComparable(el) {
			return jen.Qual("slices", "Equal").Call(a(), b())
		}
		return jen.Qual("slices", "EqualFunc").Call(a(), b(), jen.Func().Params(
			jen.List(jen.Id("x"), jen.Id("y")).Add(e.goType(el)),
		).Bool().Block(jen.Return(e.equal(el, x, y))))
	case ir.Set, ir.UnorderedSet:
		return jen.Qual("maps", "Equal").Call(a(), b())
	case ir.Map, ir.UnorderedMap:
		val := t.Params[1]
		if isComparable(val) {
			return jen.Qual("maps", "Equal").Call(a(), b())
		}
		return jen.Qual("maps", "EqualFunc").Call(a(), b(), jen.Func().Params(
			jen.List(jen.Id("x"), jen.Id("y")).Add(e.goType(val)),
		).Bool().Block(jen.Return(e.equal(val, x, y))))
	default:
		first := func(f func() *jen.Statement) func() *jen.Statement {
			return func() *jen.Statement { return f().Dot("First") }
		}
		second := func(f func() *jen.Statement) func() *jen.Statement {
			return func() *jen.Statement { return f().Dot("Second") }
		}
		return jen.Parens(
			e.equal(t.Params[0], first(a), first(b)).Op("&&").Add(e.equal(t.Params[1], second(a), second(b))),
		)
	}
}

// shallow reports whether assigning a value of t already copies it fully.
func shallow(t ir.TypeRef) bool {
	return isComparable(t)
}

// clone returns an expression deep-copying src of type t.
func (e emitter) clone(t ir.TypeRef, src func() *jen.Statement) *jen.Statement {
	if shallow(t) {
		return src()
	}
	if t.Kind == ir.KindMessage {
		return jen.Op("*").Add(src()).Dot("Clone").Call()
	}
	switch t.Name {
	case ir.Vector:
		el := t.Params[0]
		if shallow(el) {
			return jen.Qual("slices", "Clone").Call(src())
		}
		return jen.Qual(e.rt, "CloneSlice").Call(src(), jen.Func().Params(jen.Id("v").Add(e.goType(el))).Add(e.goType(el)).Block(
			jen.Return(e.clone(el, func() *jen.Statement { return jen.Id("v") })),
		))
	case ir.Set, ir.UnorderedSet:
		return jen.Qual("maps", "Clone").Call(src())
	case ir.Map, ir.UnorderedMap:
		val := t.Params[1]
		if shallow(val) {
			return jen.Qual("maps", "Clone").Call(src())
		}
		return jen.Qual(e.rt, "CloneMap").Call(src(), jen.Func().Params(jen.Id("v").Add(e.goType(val))).Add(e.goType(val)).Block(
			jen.Return(e.clone(val, func() *jen.Statement { return jen.Id("v") })),
		))
	default:
		return e.goType(t).Values(jen.Dict{
			jen.Id("First"):  e.clone(t.Params[0], func() *jen.Statement { return src().Dot("First") }),
			jen.Id("Second"): e.clone(t.Params[1], func() *jen.Statement { return src().Dot("Second") }),
		})
	}
}
