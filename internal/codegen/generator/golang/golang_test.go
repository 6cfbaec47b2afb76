package golang

import (
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/progen/internal/codegen/common"
	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/codegen/output"
	"github.com/Alia5/progen/internal/ir"
	"github.com/Alia5/progen/internal/schema"
)

func build(t *testing.T, entries ...schema.Entry) *meta.Metadata {
	t.Helper()
	reg, err := ir.Build(nil, &schema.Set{Documents: []schema.Document{{Path: "proto.xml", Entries: entries}}})
	require.NoError(t, err)
	return meta.New(reg)
}

func entry(tag schema.Tag, name string, attrs map[string]string, fields ...schema.Field) schema.Entry {
	a := map[string]string{schema.AttrName: name}
	for k, v := range attrs {
		a[k] = v
	}
	return schema.Entry{Tag: tag, Name: name, Attrs: a, Fields: fields, Pos: schema.Pos{File: "proto.xml", Line: 1}}
}

func plain(name string, fields ...schema.Field) schema.Entry {
	return entry(schema.TagPlainData, name, nil, fields...)
}

func field(name, typ, def string) schema.Field {
	return schema.Field{Name: name, Type: typ, Default: def}
}

func fixture(t *testing.T) *meta.Metadata {
	t.Helper()
	return build(t,
		plain("Item",
			field("id", "uint32_t", "0"),
			field("tags", "std::vector<std::string>", "{}"),
		),
		entry(schema.TagMessage, "Login",
			map[string]string{schema.AttrTypeID: "3", schema.AttrMaxSize: "256", schema.AttrCodeField: "uint16_t", schema.AttrDefaultCode: "ALL"},
			field("user", "std::string", `""`),
			field("level", "int", "1"),
			field("items", "std::map<int, Item>", "{}"),
		),
		schema.Entry{
			Tag: schema.TagRemoteCall, Name: "Echo", Argument: "Item", Result: "Item",
			Attrs: map[string]string{schema.AttrName: "Echo", schema.AttrTypeID: "7", schema.AttrMaxSize: "64"},
			Pos:   schema.Pos{File: "proto.xml", Line: 1},
		},
		schema.Entry{Tag: schema.TagState, Name: "lobby", Protocols: []string{"Login", "Echo"}, Pos: schema.Pos{File: "proto.xml", Line: 1}},
	)
}

// squash collapses whitespace so assertions do not depend on gofmt
// alignment.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func rendered(t *testing.T, md *meta.Metadata) map[string]string {
	t.Helper()
	files, err := Render(md)
	require.NoError(t, err)
	out := map[string]string{}
	fset := token.NewFileSet()
	for _, f := range files {
		parsed, err := parser.ParseFile(fset, f.Path, f.Data, parser.ParseComments)
		require.NoError(t, err, f.Path)
		assert.Equal(t, DefaultPackage, parsed.Name.Name, f.Path)
		assert.True(t, common.IsGenerated(f.Data), f.Path)
		out[f.Path] = squash(string(f.Data))
	}
	return out
}

func TestRenderFileOrder(t *testing.T) {
	files, err := Render(fixture(t))
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"item.go", "item_wire.go",
		"login.go", "login_wire.go",
		"echo.go", "echo_wire.go",
		"state_lobby.go",
		"definitions.go",
	}, paths)
}

func TestRenderContents(t *testing.T) {
	out := rendered(t, fixture(t))

	tests := []struct {
		file string
		want []string
	}{
		{"item.go", []string{
			"type Item struct { ID uint32 Tags []string }",
			"func NewItemWith(id uint32, tags []string) *Item {",
			"c.Tags = slices.Clone(m.Tags)",
			"func (m *Item) Equal(o *Item) bool {",
		}},
		{"item_wire.go", []string{
			"s.WriteUint32(m.ID)",
			"m.Tags = octets.ReadSlice(s, (*octets.Stream).ReadString)",
			`fmt.Fprint(w, "Item{")`,
			`fmt.Fprint(w, ", tags=")`,
		}},
		{"login.go", []string{
			`"github.com/Alia5/progen/pkg/octets"`,
			"const LoginTypeID octets.TypeID = 3",
			"LoginFieldUser uint16 = 1 << 0",
			"LoginFieldItems uint16 = 1 << 2",
			"LoginAllFields uint16 = 7",
			"m.Code = LoginAllFields",
			"m.Level = 1",
			"m.Items = nil",
			`func (m *Login) Name() string { return "Login" }`,
			"func (m *Login) MaxSize() uint64 { return 256 }",
			"func HandleLogin(h func(*Login)) {",
			"if m.Level == 1 { m.Code &^= LoginFieldLevel }",
			"if len(m.Items) == 0 { m.Code &^= LoginFieldItems }",
			"func (m *Login) String() string {",
		}},
		{"login_wire.go", []string{
			"s.WriteUint16(m.Code)",
			"if m.Code&LoginFieldUser != 0 { s.WriteString(m.User) }",
			"m.Code = s.ReadUint16()",
		}},
		{"echo.go", []string{
			"type Echo struct { TraceID uint64 IsServer bool Argument *Item Result *Item }",
			"func HandleEchoServer(h func(arg *Item, res *Item) error) {",
			"octets.ErrUnhandled",
			"func (m *Echo) TimeoutSeconds() int { return octets.DefaultTimeout }",
			"func CallEcho(arg *Item) *Echo {",
			"m.TraceID = octets.NextTraceID()",
		}},
		{"echo_wire.go", []string{
			"s.WriteUint64(m.TraceID)",
			"s.WriteBool(!m.IsServer)",
			"if m.IsServer { m.Result.Pack(s) }",
			"if !m.IsServer {",
		}},
		{"state_lobby.go", []string{
			`t := octets.Table("lobby")`,
			"t.MustRegister(LoginTypeID, NewLogin())",
			"t.MustRegister(EchoTypeID, NewEcho())",
		}},
		{"definitions.go", []string{
			"const MaxTypeID octets.TypeID = 7",
			"var TypeIDs = []octets.TypeID{LoginTypeID, EchoTypeID}",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			for _, w := range tt.want {
				assert.Contains(t, out[tt.file], w)
			}
		})
	}

	assert.NotContains(t, out["echo.go"], "func (m *Echo) Dump(")
	assert.NotContains(t, out["item.go"], "TypeID")
}

func TestRenderDefaults(t *testing.T) {
	out := rendered(t, build(t,
		plain("Point", field("x", "int", "0")),
		entry(schema.TagMessage, "Config",
			map[string]string{schema.AttrTypeID: "1", schema.AttrMaxSize: "128", schema.AttrCodeField: "uint8_t", schema.AttrDefaultCode: "title|ratio"},
			field("title", "std::string", `"guest"`),
			field("ratio", "float", "0.5f"),
			field("flags", "uint8_t", "0x10"),
			field("nums", "std::vector<int>", "{1, 2}"),
			field("seen", "std::set<int64_t>", "{3}"),
			field("origin", "Point", "{}"),
			field("on", "bool", "true"),
		),
	))

	cfg := out["config.go"]
	for _, w := range []string{
		`m.Title = "guest"`,
		"m.Ratio = 0.5",
		"m.Flags = 16",
		"m.Nums = []int32{1, 2}",
		"m.Seen = octets.SetOf[int64](3)",
		"m.Origin.Reset()",
		"m.On = true",
		"m.Code = ConfigFieldTitle | ConfigFieldRatio",
		"if d := []int32{1, 2}; slices.Equal(m.Nums, d) {",
		"if m.Origin.Equal(NewPoint()) {",
	} {
		assert.Contains(t, cfg, w)
	}
	assert.Contains(t, out["config_wire.go"], "octets.DumpValue(w, &m.Origin)")
}

func TestRenderPairDefaultsHoldMessageDefaults(t *testing.T) {
	out := rendered(t, build(t,
		plain("Inner", field("b", "std::string", `"x"`)),
		entry(schema.TagMessage, "Big",
			map[string]string{schema.AttrTypeID: "1", schema.AttrMaxSize: "128", schema.AttrCodeField: "uint8_t"},
			field("pi", "std::pair<Inner, int>", "{}"),
			field("nested", "std::pair<bool, std::pair<int, Inner>>", "{}"),
			field("pp", "std::pair<int, std::string>", "{}"),
		),
	))

	big := out["big.go"]
	for _, w := range []string{
		"m.Pi = octets.Pair[Inner, int32]{ First: *NewInner(), }",
		"m.Nested = octets.Pair[bool, octets.Pair[int32, Inner]]{ Second: octets.Pair[int32, Inner]{ Second: *NewInner(), }, }",
		"m.Pp = octets.Pair[int32, string]{}",
		"if d := (octets.Pair[Inner, int32]{ First: *NewInner(), }); (m.Pi.First.Equal(&d.First) && m.Pi.Second == d.Second) {",
		"if m.Pp == (octets.Pair[int32, string]{}) {",
	} {
		assert.Contains(t, big, w)
	}
}

func TestRenderOptions(t *testing.T) {
	md := fixture(t)
	md.Package = "wire"
	md.Runtime = "example.com/rt/octets"
	files, err := Render(md)
	require.NoError(t, err)
	for _, f := range files {
		assert.True(t, strings.HasPrefix(string(f.Data), "// Code generated by progen"), f.Path)
		assert.Contains(t, string(f.Data), "package wire", f.Path)
	}
	assert.Contains(t, string(files[2].Data), `"example.com/rt/octets"`)
}

func TestRenderIsDeterministic(t *testing.T) {
	first, err := Render(fixture(t))
	require.NoError(t, err)
	second, err := Render(fixture(t))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateOwnsOnlyGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "handlers.go"), []byte("package protocol\n"), 0o644))

	w := output.NewWriter(nil, Layout(root))
	require.NoError(t, Generate(slog.New(slog.DiscardHandler), w, fixture(t)))
	assert.Len(t, w.Written(), 8)

	files, err := Layout(root).Files()
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.NotContains(t, names, "handlers.go")
	assert.NotContains(t, names, AggregateFile)
	assert.Contains(t, names, "login_wire.go")
}

func TestValidate(t *testing.T) {
	login := func(fields ...schema.Field) schema.Entry {
		return entry(schema.TagMessage, "Login", map[string]string{schema.AttrTypeID: "3", schema.AttrMaxSize: "64"}, fields...)
	}
	echo := schema.Entry{
		Tag: schema.TagRemoteCall, Name: "Echo", Argument: "Item", Result: "Item",
		Attrs: map[string]string{schema.AttrName: "Echo", schema.AttrTypeID: "7", schema.AttrMaxSize: "64"},
	}
	item := plain("Item", field("id", "int", "0"))

	tests := []struct {
		name    string
		entries []schema.Entry
		pkg     string
		rule    string
	}{
		{"bool set key", []schema.Entry{login(field("s", "std::set<bool>", "{}"))}, "", "key type"},
		{"message map key", []schema.Entry{item, login(field("m", "std::map<Item, int>", "{}"))}, "", "key type"},
		{"unknown message", []schema.Entry{login(field("x", "Missing", "{}"))}, "", "reference"},
		{"embedded remote call", []schema.Entry{item, echo, login(field("e", "Echo", "{}"))}, "", "reference"},
		{"value cycle", []schema.Entry{
			plain("A", field("b", "B", "{}")),
			plain("B", field("a", "std::pair<int, A>", "{}")),
		}, "", "cycle"},
		{"bad integer default", []schema.Entry{login(field("n", "int", "abc"))}, "", "default"},
		{"out of range default", []schema.Entry{login(field("n", "uint8_t", "300"))}, "", "default"},
		{"message default", []schema.Entry{item, login(field("i", "Item", "Item(1)"))}, "", "default"},
		{"map literal default", []schema.Entry{login(field("m", "std::map<int, int>", "{{1, 2}}"))}, "", "default"},
		{"field shadows method", []schema.Entry{login(field("reset", "int", "0"))}, "", "name"},
		{"fields share a Go name", []schema.Entry{login(field("user_name", "int", "0"), field("userName", "int", "0"))}, "", "name"},
		{"types share a Go name", []schema.Entry{plain("Abc"), plain("ABC")}, "", "name"},
		{"test file", []schema.Entry{plain("ParserTest")}, "", "file name"},
		{"platform file", []schema.Entry{plain("ConfigWindows")}, "", "file name"},
		{"package name", []schema.Entry{item}, "my-pkg", "package"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := build(t, tt.entries...)
			md.Package = tt.pkg
			err := Validate(md)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrGeneration)
			var ge *GenerationError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.rule, ge.Rule)
		})
	}
}

func TestValidateAcceptsIndirectRecursion(t *testing.T) {
	md := build(t,
		plain("Node", field("children", "std::vector<Tree>", "{}")),
		plain("Tree", field("root", "Node", "{}")),
	)
	assert.NoError(t, Validate(md))
}

func TestScalarLiteral(t *testing.T) {
	tests := []struct {
		typ, lit, want string
		wantErr        bool
	}{
		{typ: "int", lit: "0x10", want: "16"},
		{typ: "int", lit: "010", want: "8"},
		{typ: "int", lit: "-7", want: "-7"},
		{typ: "uint32_t", lit: "5u", want: "5"},
		{typ: "long long", lit: "-9LL", want: "-9"},
		{typ: "char", lit: "'a'", want: "97"},
		{typ: "float", lit: "1.5f", want: "1.5"},
		{typ: "double", lit: "{}", want: "0"},
		{typ: "bool", lit: "true", want: "true"},
		{typ: "bool", lit: "{}", want: "false"},
		{typ: "bool", lit: "1", wantErr: true},
		{typ: "int8_t", lit: "128", wantErr: true},
		{typ: "uint8_t", lit: "-1", wantErr: true},
		{typ: "double", lit: "inf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.typ+" "+tt.lit, func(t *testing.T) {
			got, err := scalarLiteral(ir.Scalars[tt.typ], tt.lit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringLiteral(t *testing.T) {
	got, err := stringLiteral(`"a\"b\n"`)
	require.NoError(t, err)
	assert.Equal(t, "a\"b\n", got)

	got, err = stringLiteral("std::string()")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = stringLiteral("guest")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	items, ok := splitList(`{1, 2}`)
	assert.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, items)

	items, ok = splitList(`{"a,b", 'c'}`)
	assert.True(t, ok)
	assert.Equal(t, []string{`"a,b"`, `'c'`}, items)

	items, ok = splitList("{ }")
	assert.True(t, ok)
	assert.Empty(t, items)

	_, ok = splitList("1")
	assert.False(t, ok)
}
