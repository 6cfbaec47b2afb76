package cpp

import (
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/Alia5/progen/internal/codegen/common"
	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/ir"
)

func tplFuncs() template.FuncMap {
	return template.FuncMap{
		"upper": common.ToUpper,
	}
}

func writeFileHeader(source string) string {
	return common.FileHeader("//", source)
}

var containerHeaders = map[string]string{
	ir.Vector:       "<vector>",
	ir.Set:          "<set>",
	ir.UnorderedSet: "<unordered_set>",
	ir.Map:          "<map>",
	ir.UnorderedMap: "<unordered_map>",
	ir.Pair:         "<utility>",
}

type fieldView struct {
	Name        string
	Type        string
	BitName     string
	Index       int
	Decl        string
	DefaultExpr string
	PackLine    string
	UnpackLine  string
}

type codeView struct {
	Name        string
	Type        string
	DefaultExpr string
	AllExpr     string
}

type classView struct {
	Header     string
	NS         string
	Name       string
	Base       string
	DupBase    string
	Includes   []string
	TypeID     ir.TypeID
	MaxSize    uint64
	HasTypeID  bool
	Message    bool
	RPC        bool
	Dump       bool
	Preamble   bool
	Argument   string
	Result     string
	Code       *codeView
	Fields     []fieldView
	Ctors      []string
	DefaultCtr string
	EqualExpr  string
	DumpLines  []string
}

type stateView struct {
	Header  string
	NS      string
	Members []meta.Member
}

type definitionsView struct {
	Header string
	NS     string
	meta.Definitions
}

func baseClass(k ir.Kind) string {
	switch k {
	case ir.Message:
		return "protocol"
	case ir.RemoteCall:
		return "rpc"
	default:
		return "rpcdata"
	}
}

func newClassView(a meta.Artifact, ns string) classView {
	base := baseClass(a.Kind)
	v := classView{
		Header:    writeFileHeader(a.Source),
		NS:        ns,
		Name:      a.Name,
		Base:      ns + "::" + base,
		DupBase:   ns + "::protocol",
		Includes:  includes(a),
		TypeID:    a.TypeID,
		MaxSize:   a.MaxSize,
		HasTypeID: a.Caps.Has(meta.CapTypeID),
		Message:   a.Caps.Has(meta.CapRunHook),
		RPC:       a.Caps.Has(meta.CapServerHook),
		Dump:      a.Caps.Has(meta.CapDump),
		Argument:  a.Argument,
		Result:    a.Result,
	}
	if a.Kind == ir.PlainData {
		v.DupBase = ns + "::rpcdata"
	}
	v.Preamble = v.HasTypeID || v.RPC || v.Message || a.Code != nil

	codeName := ""
	if a.Code != nil {
		codeName = a.Code.Name
		v.Code = &codeView{
			Name:        a.Code.Name,
			Type:        a.Code.Type,
			DefaultExpr: defaultCodeExpr(a),
			AllExpr:     allFieldsExpr(len(a.Fields)),
		}
	}

	for _, f := range a.Fields {
		typ := f.Type.String()
		fv := fieldView{
			Name:    f.Name,
			Type:    typ,
			BitName: f.BitName,
			Index:   f.Index,
		}
		if f.Default == "{}" {
			fv.Decl = typ + " " + f.Name + "{}"
			fv.DefaultExpr = typ + "()"
		} else {
			fv.Decl = typ + " " + f.Name + " = " + f.Default
			fv.DefaultExpr = f.Default
		}
		if codeName != "" {
			fv.PackLine = fmt.Sprintf("if (%s & %s) os << %s;", codeName, f.BitName, f.Name)
			fv.UnpackLine = fmt.Sprintf("if (%s & %s) os >> %s;", codeName, f.BitName, f.Name)
		} else {
			fv.PackLine = "os << " + f.Name + ";"
			fv.UnpackLine = "os >> " + f.Name + ";"
		}
		v.Fields = append(v.Fields, fv)
	}

	ctorBody := "{}"
	v.DefaultCtr = a.Name + "() = default;"
	if v.RPC {
		ctorBody = "{ _argument = new argument_type(); _result = new result_type(); }"
		v.DefaultCtr = a.Name + "() " + ctorBody
	}
	v.Ctors = fieldConstructors(a, v.Code, ctorBody)
	v.EqualExpr = equalExpr(a, v.RPC)
	v.DumpLines = dumpLines(a)
	return v
}

// includes returns the include targets of a header: the base class header,
// sorted system headers, sorted headers of referenced definitions, then the
// schema's own includes in declaration order.
func includes(a meta.Artifact) []string {
	out := []string{`"` + baseClass(a.Kind) + `.h"`}

	var system []string
	if a.Caps.Has(meta.CapRunHook) || a.Caps.Has(meta.CapServerHook) {
		system = append(system, "<functional>")
	}
	for _, f := range a.Fields {
		f.Type.Walk(func(t ir.TypeRef) {
			switch t.Kind {
			case ir.KindString:
				system = append(system, "<string>")
			case ir.KindContainer:
				system = append(system, containerHeaders[t.Name])
			}
		})
	}
	slices.Sort(system)
	out = append(out, slices.Compact(system)...)

	refs := slices.Clone(a.Refs)
	if a.Kind == ir.RemoteCall {
		refs = append(refs, a.Argument, a.Result)
	}
	refs = slices.DeleteFunc(refs, func(r string) bool { return r == a.Name || r == "" })
	slices.Sort(refs)
	for _, r := range slices.Compact(refs) {
		out = append(out, `"`+r+`.h"`)
	}

	for _, inc := range a.Includes {
		if !strings.HasPrefix(inc, "<") && !strings.HasPrefix(inc, `"`) {
			inc = `"` + inc + `"`
		}
		if !slices.Contains(out, inc) {
			out = append(out, inc)
		}
	}
	return out
}

func allFieldsExpr(n int) string {
	if n >= 64 {
		return "~0ull"
	}
	return fmt.Sprintf("(1ull << %d) - 1", n)
}

func defaultCodeExpr(a meta.Artifact) string {
	switch {
	case a.Code.DefaultAll:
		return meta.AllFieldsName
	case a.Code.DefaultMask == 0:
		return "0"
	}
	var names []string
	for _, f := range a.Fields {
		if a.Code.DefaultMask&f.Bit != 0 {
			names = append(names, f.BitName)
		}
	}
	return strings.Join(names, " | ")
}

// fieldConstructors returns the all-fields constructor and, when any field
// is composite, its move overload.
func fieldConstructors(a meta.Artifact, code *codeView, body string) []string {
	if len(a.Fields) == 0 {
		return nil
	}
	build := func(move bool) string {
		var params, inits []string
		if code != nil {
			inits = append(inits, code.Name+"("+code.DefaultExpr+")")
		}
		for _, f := range a.Fields {
			typ := f.Type.String()
			switch {
			case !f.Composite:
				params = append(params, typ+" _"+f.Name)
				inits = append(inits, f.Name+"(_"+f.Name+")")
			case move:
				params = append(params, typ+"&& _"+f.Name)
				inits = append(inits, f.Name+"(std::move(_"+f.Name+"))")
			default:
				params = append(params, "const "+typ+"& _"+f.Name)
				inits = append(inits, f.Name+"(_"+f.Name+")")
			}
		}
		return fmt.Sprintf("%s(%s) : %s %s", a.Name, strings.Join(params, ", "), strings.Join(inits, ", "), body)
	}
	ctors := []string{build(false)}
	if a.Caps.Has(meta.CapMoveConstructor) {
		ctors = append(ctors, build(true))
	}
	return ctors
}

func equalExpr(a meta.Artifact, rpc bool) string {
	var terms []string
	if a.Code != nil {
		terms = append(terms, a.Code.Name+" == rhs."+a.Code.Name)
	}
	for _, f := range a.Fields {
		terms = append(terms, f.Name+" == rhs."+f.Name)
	}
	if rpc {
		terms = append(terms, "*argument() == *rhs.argument()", "*result() == *rhs.result()")
	}
	if len(terms) == 0 {
		return "true"
	}
	return strings.Join(terms, "\n            && ")
}

func dumpLines(a meta.Artifact) []string {
	var lines []string
	sep := ""
	if a.Code != nil {
		lines = append(lines, fmt.Sprintf(`out << "%s=" << %s;`, a.Code.Name, a.Code.Name))
		sep = ", "
	}
	for _, f := range a.Fields {
		lines = append(lines, fmt.Sprintf(`out << "%s%s=" << %s;`, sep, f.Name, f.Name))
		sep = ", "
	}
	return lines
}
