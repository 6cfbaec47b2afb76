package golang

import (
	"github.com/dave/jennifer/jen"

	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/ir"
)

// wireFile renders Pack, Unpack and Dump. Fields travel in declaration
// order; a sparse type sends its mask first and only the marked fields.
func (g *typeGen) wireFile(pkg string) *jen.File {
	f := newFile(pkg, g.a.Source)
	f.ImportName(g.e.rt, "octets")
	stream := func() jen.Code { return jen.Id("s").Add(g.e.stream()) }

	var pack, unpack []jen.Code
	if g.rpc() {
		// The direction flag is inverted on the wire: a request leaves the
		// client with IsServer unset and arrives at the server with it set.
		pack = append(pack,
			jen.Id("s").Dot("WriteUint64").Call(recv().Dot("TraceID")),
			jen.Id("s").Dot("WriteBool").Call(jen.Op("!").Add(recv().Dot("IsServer"))),
			recv().Dot("Argument").Dot("Pack").Call(jen.Id("s")),
			jen.If(recv().Dot("IsServer")).Block(
				recv().Dot("Result").Dot("Pack").Call(jen.Id("s")),
			),
		)
		ensure := func(side, typ string) jen.Code {
			return jen.If(recv().Dot(side).Op("==").Nil()).Block(
				recv().Dot(side).Op("=").Id("New" + typeName(typ)).Call(),
			)
		}
		unpack = append(unpack,
			recv().Dot("TraceID").Op("=").Id("s").Dot("ReadUint64").Call(),
			recv().Dot("IsServer").Op("=").Id("s").Dot("ReadBool").Call(),
			ensure("Argument", g.a.Argument),
			recv().Dot("Argument").Dot("Unpack").Call(jen.Id("s")),
			jen.If(jen.Op("!").Add(recv().Dot("IsServer"))).Block(
				ensure("Result", g.a.Result),
				recv().Dot("Result").Dot("Unpack").Call(jen.Id("s")),
			),
		)
	}

	if g.a.Code != nil {
		suffix := streamSuffix[g.codeTy]
		pack = append(pack, jen.Id("s").Dot("Write"+suffix).Call(recv().Dot(g.code)))
		unpack = append(unpack, recv().Dot(g.code).Op("=").Id("s").Dot("Read"+suffix).Call())
	}
	for _, fd := range g.fields {
		w := g.e.write(fd.Type, fd.sel()())
		r := g.e.read(fd.Type, fd.sel())
		if g.a.Code == nil {
			pack = append(pack, w)
			unpack = append(unpack, r)
			continue
		}
		present := func() *jen.Statement {
			return recv().Dot(g.code).Op("&").Id(fd.Const).Op("!=").Lit(0)
		}
		pack = append(pack, jen.If(present()).Block(w))
		unpack = append(unpack, jen.If(present()).Block(r))
	}

	decl(f, "Pack implements octets.Marshaler.")
	f.Func().Add(g.recvParams()).Id("Pack").Params(stream()).Block(pack...)
	decl(f, "Unpack implements octets.Marshaler. Fields missing from a sparse", "encoding keep their current values; call Reset first for defaults.")
	f.Func().Add(g.recvParams()).Id("Unpack").Params(stream()).Block(unpack...)

	if g.has(meta.CapDump) {
		g.dump(f)
	}
	return f
}

// dump renders Dump as "Name{field=value, ...}".
func (g *typeGen) dump(f *jen.File) {
	w := func() *jen.Statement { return jen.Id("w") }
	text := func(s string) jen.Code {
		return jen.Qual("fmt", "Fprint").Call(w(), jen.Lit(s))
	}
	body := []jen.Code{text(g.a.Name + "{")}
	sep := ""
	if g.a.Code != nil {
		body = append(body,
			text(g.a.Code.Name+"="),
			jen.Qual(g.e.rt, "DumpValue").Call(w(), recv().Dot(g.code)),
		)
		sep = ", "
	}
	for _, fd := range g.fields {
		v := recv().Dot(fd.Go)
		if fd.Type.Kind == ir.KindMessage {
			v = jen.Op("&").Add(v)
		}
		body = append(body,
			text(sep+fd.Name+"="),
			jen.Qual(g.e.rt, "DumpValue").Call(w(), v),
		)
		sep = ", "
	}
	body = append(body, text("}"))

	decl(f, "Dump writes a readable rendering of m.")
	f.Func().Add(g.recvParams()).Id("Dump").Params(jen.Id("w").Qual("io", "Writer")).Block(body...)
}
