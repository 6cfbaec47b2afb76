package golang

import (
	"strconv"

	"github.com/dave/jennifer/jen"

	"github.com/Alia5/progen/internal/codegen/common"
	"github.com/Alia5/progen/internal/codegen/meta"
)

// stateFile registers the members of one state group with its dispatch
// table when the package is initialized.
func stateFile(e emitter, pkg string, st meta.State) *jen.File {
	f := newFile(pkg, st.Source)
	f.ImportName(e.rt, "octets")
	body := []jen.Code{jen.Id("t").Op(":=").Qual(e.rt, "Table").Call(jen.Lit(st.Name))}
	for _, m := range st.Members {
		n := typeName(m.Name)
		body = append(body, jen.Id("t").Dot("MustRegister").Call(jen.Id(n+"TypeID"), jen.Id("New"+n).Call()))
	}
	decl(f)
	f.Func().Id("init").Params().Block(body...)
	return f
}

// definitionsFile enumerates every identified type.
func definitionsFile(e emitter, pkg string, defs meta.Definitions) *jen.File {
	f := newFile(pkg, "")
	f.ImportName(e.rt, "octets")

	decl(f, "MaxTypeID is the largest type id in use.")
	f.Const().Id("MaxTypeID").Qual(e.rt, "TypeID").Op("=").Id(strconv.FormatUint(uint64(defs.Max), 10))

	ids := make([]jen.Code, 0, len(defs.Entries))
	names := jen.Dict{}
	for _, m := range defs.Entries {
		id := typeName(m.Name) + "TypeID"
		ids = append(ids, jen.Id(id))
		names[jen.Id(id)] = jen.Lit(m.Name)
	}
	decl(f, "TypeIDs lists every type id in ascending order.")
	f.Var().Id("TypeIDs").Op("=").Index().Qual(e.rt, "TypeID").Values(ids...)
	decl(f, "TypeNames maps every type id to its definition name.")
	f.Var().Id("TypeNames").Op("=").Map(jen.Qual(e.rt, "TypeID")).String().Values(names)
	return f
}

// fileNames returns the output files of one artifact.
func fileNames(a meta.Artifact) (iface, wire string) {
	base := common.ToSnakeCase(a.Name)
	return base + ".go", base + "_wire.go"
}

func stateFileName(st meta.State) string {
	return "state_" + common.ToSnakeCase(st.Name) + ".go"
}
