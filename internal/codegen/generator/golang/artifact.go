package golang

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/Alia5/progen/internal/codegen/common"
	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/ir"
)

// goField is a schema field with its Go spellings resolved.
type goField struct {
	meta.Field
	Go    string // struct field name
	Param string // NewXWith parameter name
	Const string // presence bit constant
	Def   fieldDefault
}

// typeGen renders the files of one artifact.
type typeGen struct {
	e      emitter
	a      meta.Artifact
	name   string
	code   string // struct field holding the presence mask
	codeTy string
	fields []goField
}

func newTypeGen(e emitter, a meta.Artifact) (*typeGen, error) {
	g := &typeGen{e: e, a: a, name: typeName(a.Name)}
	if a.Code != nil {
		g.code = fieldName(a.Code.Name)
		g.codeTy = goScalars[a.Code.Type]
	}
	for _, f := range a.Fields {
		def, err := e.translateDefault(f.Type, f.Default)
		if err != nil {
			return nil, &GenerationError{Name: a.Name, Field: f.Name, Rule: "default", Cause: err}
		}
		gf := goField{
			Field: f,
			Go:    fieldName(f.Name),
			Param: lowerFirst(f.Name),
			Const: g.name + "Field" + fieldName(f.Name),
			Def:   def,
		}
		if token.IsKeyword(gf.Param) || gf.Param == "m" {
			gf.Param += "Value"
		}
		g.fields = append(g.fields, gf)
	}
	return g, nil
}

func (g *typeGen) has(c meta.Capability) bool {
	return g.a.Caps.Has(c)
}

func (g *typeGen) rpc() bool {
	return g.a.Kind == ir.RemoteCall
}

func recv() *jen.Statement {
	return jen.Id("m")
}

func (g *typeGen) recvParams() *jen.Statement {
	return jen.Params(jen.Id("m").Op("*").Id(g.name))
}

func (f goField) sel() func() *jen.Statement {
	return func() *jen.Statement { return jen.Id("m").Dot(f.Go) }
}

// newFile starts a generated Go file carrying the progen header.
func newFile(pkg, source string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(strings.TrimSuffix(common.FileHeader("//", source), "\n"))
	return f
}

// decl separates top-level declarations and attaches their doc comment.
func decl(f *jen.File, doc ...string) {
	f.Line()
	for _, d := range doc {
		f.Comment(d)
	}
}

// interfaceFile renders the type, its constructors and every capability
// that is not part of the wire format.
func (g *typeGen) interfaceFile(pkg string) *jen.File {
	f := newFile(pkg, g.a.Source)
	f.ImportName(g.e.rt, "octets")

	if g.has(meta.CapTypeID) {
		decl(f, g.name+"TypeID is the wire type id of "+g.name+".")
		f.Const().Id(g.name+"TypeID").Qual(g.e.rt, "TypeID").Op("=").
			Id(strconv.FormatUint(uint64(g.a.TypeID), 10))
	}
	if g.a.Code != nil {
		g.presenceConsts(f)
	}
	g.structDecl(f)
	g.constructors(f)
	g.reset(f)
	g.equal(f)
	g.clone(f)
	if g.has(meta.CapTypeID) {
		g.identity(f)
	}
	if g.has(meta.CapSparse) {
		g.sparse(f)
	}
	if g.has(meta.CapRunHook) {
		g.runHook(f)
	}
	if g.has(meta.CapServerHook) {
		g.callHooks(f)
	}
	if g.has(meta.CapDump) {
		decl(f)
		f.Func().Add(g.recvParams()).Id("String").Params().String().Block(
			jen.Var().Id("b").Qual("strings", "Builder"),
			recv().Dot("Dump").Call(jen.Op("&").Id("b")),
			jen.Return(jen.Id("b").Dot("String").Call()),
		)
	}
	return f
}

func (g *typeGen) presenceConsts(f *jen.File) {
	var defs []jen.Code
	for _, fd := range g.fields {
		defs = append(defs, jen.Id(fd.Const).Id(g.codeTy).Op("=").Lit(1).Op("<<").Lit(fd.Index))
	}
	defs = append(defs, jen.Id(g.name+"AllFields").Id(g.codeTy).Op("=").
		Id(strconv.FormatUint(g.a.Code.AllFields, 10)))
	decl(f, "Presence bits of "+g.name+"."+g.code+".")
	f.Const().Defs(defs...)
}

func (g *typeGen) structDecl(f *jen.File) {
	var members []jen.Code
	if g.rpc() {
		members = append(members,
			jen.Id("TraceID").Uint64(),
			jen.Id("IsServer").Bool(),
			jen.Id("Argument").Op("*").Id(typeName(g.a.Argument)),
			jen.Id("Result").Op("*").Id(typeName(g.a.Result)),
		)
	}
	if g.a.Code != nil {
		members = append(members, jen.Id(g.code).Id(g.codeTy))
	}
	for _, fd := range g.fields {
		members = append(members, jen.Id(fd.Go).Add(g.e.goType(fd.Type)))
	}

	switch g.a.Kind {
	case ir.Message:
		decl(f, g.name+" is the "+g.a.Name+" message.")
	case ir.RemoteCall:
		decl(f,
			g.name+" is the "+g.a.Name+" remote call. The client sends Argument;",
			"the server answers with Result under the same TraceID.",
		)
	default:
		decl(f, g.name+" is plain data embedded in messages.")
	}
	f.Type().Id(g.name).Struct(members...)
}

func (g *typeGen) constructors(f *jen.File) {
	decl(f, "New"+g.name+" returns a "+g.name+" holding its declared defaults.")
	f.Func().Id("New"+g.name).Params().Op("*").Id(g.name).Block(
		jen.Id("m").Op(":=").Op("&").Id(g.name).Values(),
		recv().Dot("Reset").Call(),
		jen.Return(recv()),
	)
	if len(g.fields) == 0 {
		return
	}

	var params []jen.Code
	body := []jen.Code{jen.Id("m").Op(":=").Id("New" + g.name).Call()}
	for _, fd := range g.fields {
		params = append(params, jen.Id(fd.Param).Add(g.e.goType(fd.Type)))
	}
	if code := g.defaultCode(); code != nil {
		body = append(body, recv().Dot(g.code).Op("=").Add(code))
	}
	for _, fd := range g.fields {
		body = append(body, recv().Dot(fd.Go).Op("=").Id(fd.Param))
	}
	body = append(body, jen.Return(recv()))

	doc := "New" + g.name + "With returns a " + g.name + " holding the given values."
	if g.a.Code != nil {
		doc = "New" + g.name + "With returns a " + g.name + " holding the given values with the default presence mask."
	}
	decl(f, doc)
	f.Func().Id("New" + g.name + "With").Params(params...).Op("*").Id(g.name).Block(body...)
}

// defaultCode returns the default presence mask, or nil when it is zero.
func (g *typeGen) defaultCode() *jen.Statement {
	c := g.a.Code
	if c == nil || len(g.fields) == 0 {
		return nil
	}
	if c.DefaultAll {
		return jen.Id(g.name + "AllFields")
	}
	var expr *jen.Statement
	for _, fd := range g.fields {
		if c.DefaultMask&fd.Bit == 0 {
			continue
		}
		if expr == nil {
			expr = jen.Id(fd.Const)
			continue
		}
		expr = expr.Op("|").Id(fd.Const)
	}
	return expr
}

func (g *typeGen) reset(f *jen.File) {
	var body []jen.Code
	if g.rpc() {
		body = append(body,
			recv().Dot("TraceID").Op("=").Lit(0),
			recv().Dot("IsServer").Op("=").False(),
			recv().Dot("Argument").Op("=").Id("New"+typeName(g.a.Argument)).Call(),
			recv().Dot("Result").Op("=").Id("New"+typeName(g.a.Result)).Call(),
		)
	}
	if g.a.Code != nil {
		body = append(body, recv().Dot(g.code).Op("=").Lit(0))
	}
	for _, fd := range g.fields {
		if fd.Def.reset {
			body = append(body, recv().Dot(fd.Go).Dot("Reset").Call())
			continue
		}
		body = append(body, recv().Dot(fd.Go).Op("=").Add(fd.Def.value()))
	}
	decl(f, "Reset restores every field to its declared default.")
	f.Func().Add(g.recvParams()).Id("Reset").Params().Block(body...)
}

func (g *typeGen) equal(f *jen.File) {
	other := func(name string) func() *jen.Statement {
		return func() *jen.Statement { return jen.Id("o").Dot(name) }
	}
	var terms []*jen.Statement
	if g.rpc() {
		terms = append(terms,
			recv().Dot("Argument").Dot("Equal").Call(jen.Id("o").Dot("Argument")),
			recv().Dot("Result").Dot("Equal").Call(jen.Id("o").Dot("Result")),
		)
	}
	if g.a.Code != nil {
		terms = append(terms, recv().Dot(g.code).Op("==").Id("o").Dot(g.code))
	}
	for _, fd := range g.fields {
		terms = append(terms, g.e.equal(fd.Type, fd.sel(), other(fd.Go)))
	}

	var result *jen.Statement
	for i, t := range terms {
		if i == 0 {
			result = t
			continue
		}
		result = result.Op("&&").Line().Add(t)
	}
	if result == nil {
		result = jen.True()
	}

	if g.rpc() {
		decl(f, "Equal reports whether m and o carry the same argument and result. The", "trace id is not compared.")
	} else {
		decl(f, "Equal reports whether m and o hold the same values.")
	}
	f.Func().Add(g.recvParams()).Id("Equal").Params(jen.Id("o").Op("*").Id(g.name)).Bool().Block(
		jen.If(jen.Id("m").Op("==").Nil().Op("||").Id("o").Op("==").Nil()).Block(
			jen.Return(jen.Id("m").Op("==").Id("o")),
		),
		jen.Return(result),
	)
}

func (g *typeGen) clone(f *jen.File) {
	body := []jen.Code{jen.Id("c").Op(":=").Op("*").Id("m")}
	if g.rpc() {
		for _, side := range []string{"Argument", "Result"} {
			body = append(body, jen.If(recv().Dot(side).Op("!=").Nil()).Block(
				jen.Id("c").Dot(side).Op("=").Add(recv().Dot(side).Dot("Clone").Call()),
			))
		}
	}
	for _, fd := range g.fields {
		if shallow(fd.Type) {
			continue
		}
		body = append(body, jen.Id("c").Dot(fd.Go).Op("=").Add(g.e.clone(fd.Type, fd.sel())))
	}
	body = append(body, jen.Return(jen.Op("&").Id("c")))
	decl(f, "Clone returns a deep copy of m.")
	f.Func().Add(g.recvParams()).Id("Clone").Params().Op("*").Id(g.name).Block(body...)
}

func (g *typeGen) identity(f *jen.File) {
	rt := g.e.rt
	decl(f)
	f.Func().Add(g.recvParams()).Id("TypeID").Params().Qual(rt, "TypeID").Block(
		jen.Return(jen.Id(g.name + "TypeID")),
	)
	decl(f)
	f.Func().Add(g.recvParams()).Id("Name").Params().String().Block(jen.Return(jen.Lit(g.a.Name)))
	decl(f, "MaxSize is the largest encoded body Decode accepts. Zero means unbounded.")
	f.Func().Add(g.recvParams()).Id("MaxSize").Params().Uint64().Block(
		jen.Return(jen.Id(strconv.FormatUint(g.a.MaxSize, 10))),
	)
	decl(f, "Dup returns a clone of m for dispatch tables.")
	f.Func().Add(g.recvParams()).Id("Dup").Params().Qual(rt, "Message").Block(
		jen.Return(recv().Dot("Clone").Call()),
	)
}

func (g *typeGen) sparse(f *jen.File) {
	mask := func() *jen.Statement { return recv().Dot(g.code) }
	for _, fd := range g.fields {
		decl(f, "Set"+fd.Go+" assigns "+fd.Go+" and marks it present.")
		f.Func().Add(g.recvParams()).Id("Set"+fd.Go).Params(jen.Id("v").Add(g.e.goType(fd.Type))).Block(
			mask().Op("|=").Id(fd.Const),
			recv().Dot(fd.Go).Op("=").Id("v"),
		)
		decl(f, "Mark"+fd.Go+" marks "+fd.Go+" present without changing it.")
		f.Func().Add(g.recvParams()).Id("Mark" + fd.Go).Params().Block(
			mask().Op("|=").Id(fd.Const),
		)
	}

	decl(f, "SetAllFields marks every field present.")
	f.Func().Add(g.recvParams()).Id("SetAllFields").Params().Block(
		mask().Op("=").Id(g.name + "AllFields"),
	)

	var body []jen.Code
	for _, fd := range g.fields {
		body = append(body, jen.If(g.isDefault(fd)...).Block(
			mask().Op("&^=").Id(fd.Const),
		))
	}
	decl(f, "ClearDefaults drops the presence bit of every field holding its declared", "default, so Pack omits it.")
	f.Func().Add(g.recvParams()).Id("ClearDefaults").Params().Block(body...)
}

// isDefault returns the if-header under which fd holds its declared
// default.
func (g *typeGen) isDefault(fd goField) []jen.Code {
	value := fd.Def.value
	if fd.Type.Name == ir.Pair {
		// Composite literals in an if header must be parenthesized.
		value = func() *jen.Statement { return jen.Parens(fd.Def.value()) }
	}
	switch {
	case fd.Def.reset:
		return []jen.Code{recv().Dot(fd.Go).Dot("Equal").Call(jen.Id("New" + typeName(fd.Type.Name)).Call())}
	case fd.Def.empty:
		return []jen.Code{jen.Len(recv().Dot(fd.Go)).Op("==").Lit(0)}
	case isComparable(fd.Type):
		return []jen.Code{recv().Dot(fd.Go).Op("==").Add(value())}
	}
	d := func() *jen.Statement { return jen.Id("d") }
	return []jen.Code{
		jen.Id("d").Op(":=").Add(value()),
		g.e.equal(fd.Type, fd.sel(), d),
	}
}

func (g *typeGen) runHook(f *jen.File) {
	h := lowerFirst(g.a.Name) + "Handler"
	fn := jen.Func().Params(jen.Op("*").Id(g.name))
	decl(f)
	f.Var().Id(h).Add(fn)
	decl(f,
		"Handle"+g.name+" sets the function Run passes "+g.name+" messages to.",
		"Handlers are set during initialization, before messages are dispatched.",
	)
	f.Func().Id("Handle" + g.name).Params(jen.Id("h").Add(jen.Func().Params(jen.Op("*").Id(g.name)))).Block(
		jen.Id(h).Op("=").Id("h"),
	)
	decl(f, "Run passes m to the registered handler. Without one it does nothing.")
	f.Func().Add(g.recvParams()).Id("Run").Params().Error().Block(
		jen.If(jen.Id("h").Op(":=").Id(h), jen.Id("h").Op("!=").Nil()).Block(
			jen.Id("h").Call(recv()),
		),
		jen.Return(jen.Nil()),
	)
}

func (g *typeGen) callHooks(f *jen.File) {
	rt := g.e.rt
	arg := func() *jen.Statement { return jen.Op("*").Id(typeName(g.a.Argument)) }
	res := func() *jen.Statement { return jen.Op("*").Id(typeName(g.a.Result)) }
	serverFn := func() *jen.Statement {
		return jen.Func().Params(jen.Id("arg").Add(arg()), jen.Id("res").Add(res())).Error()
	}
	clientFn := func() *jen.Statement {
		return jen.Func().Params(jen.Id("arg").Add(arg()), jen.Id("res").Add(res()))
	}
	timeoutFn := func() *jen.Statement {
		return jen.Func().Params(jen.Id("arg").Add(arg()))
	}

	base := lowerFirst(g.a.Name)
	server, client, timeout := base+"ServerHandler", base+"ClientHandler", base+"TimeoutHandler"

	decl(f)
	f.Var().Defs(
		jen.Id(server).Add(serverFn()),
		jen.Id(client).Add(clientFn()),
		jen.Id(timeout).Add(timeoutFn()),
	)

	decl(f, "Handle"+g.name+"Server sets the function that answers "+g.name+" requests.")
	f.Func().Id("Handle" + g.name + "Server").Params(jen.Id("h").Add(serverFn())).Block(jen.Id(server).Op("=").Id("h"))
	decl(f, "Handle"+g.name+"Client sets the function that receives "+g.name+" results.")
	f.Func().Id("Handle" + g.name + "Client").Params(jen.Id("h").Add(clientFn())).Block(jen.Id(client).Op("=").Id("h"))
	decl(f, "Handle"+g.name+"Timeout sets the function called when a "+g.name+" call expires.")
	f.Func().Id("Handle" + g.name + "Timeout").Params(jen.Id("h").Add(timeoutFn())).Block(jen.Id(timeout).Op("=").Id("h"))

	decl(f, "Serve fills Result from Argument using the server handler.")
	f.Func().Add(g.recvParams()).Id("Serve").Params().Error().Block(
		jen.Id("h").Op(":=").Id(server),
		jen.If(jen.Id("h").Op("==").Nil()).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(
				jen.Lit("%w: remote call "+g.a.Name+" (%d)"),
				jen.Qual(rt, "ErrUnhandled"),
				jen.Id(g.name+"TypeID"),
			)),
		),
		jen.Return(jen.Id("h").Call(recv().Dot("Argument"), recv().Dot("Result"))),
	)
	decl(f, "Complete hands a received result to the client handler.")
	f.Func().Add(g.recvParams()).Id("Complete").Params().Block(
		jen.If(jen.Id("h").Op(":=").Id(client), jen.Id("h").Op("!=").Nil()).Block(
			jen.Id("h").Call(recv().Dot("Argument"), recv().Dot("Result")),
		),
	)
	decl(f, "Timeout reports an unanswered call to the timeout handler.")
	f.Func().Add(g.recvParams()).Id("Timeout").Params().Block(
		jen.If(jen.Id("h").Op(":=").Id(timeout), jen.Id("h").Op("!=").Nil()).Block(
			jen.Id("h").Call(recv().Dot("Argument")),
		),
	)
	decl(f, "TimeoutSeconds is how long a caller waits for the result.")
	f.Func().Add(g.recvParams()).Id("TimeoutSeconds").Params().Int().Block(
		jen.Return(jen.Qual(rt, "DefaultTimeout")),
	)
	decl(f, "Run serves requests and completes responses.")
	f.Func().Add(g.recvParams()).Id("Run").Params().Error().Block(
		jen.If(recv().Dot("IsServer")).Block(
			jen.Return(recv().Dot("Serve").Call()),
		),
		recv().Dot("Complete").Call(),
		jen.Return(jen.Nil()),
	)

	decl(f, "Call"+g.name+" returns a request carrying a copy of arg under a fresh trace id.")
	f.Func().Id("Call"+g.name).Params(jen.Id("arg").Add(arg())).Op("*").Id(g.name).Block(
		jen.Id("m").Op(":=").Id("New"+g.name).Call(),
		recv().Dot("TraceID").Op("=").Qual(rt, "NextTraceID").Call(),
		jen.If(jen.Id("arg").Op("!=").Nil()).Block(
			recv().Dot("Argument").Op("=").Id("arg").Dot("Clone").Call(),
		),
		jen.Return(recv()),
	)
}
