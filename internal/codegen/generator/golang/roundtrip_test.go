package golang

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/schema"
)

// roundTripSchema covers every field shape the backend emits: scalars,
// strings, nested containers, embedded messages, pairs holding messages,
// a sparse message and a remote call.
func roundTripSchema(t *testing.T) *meta.Metadata {
	t.Helper()
	return build(t,
		plain("Inner",
			field("a", "int", "0"),
			field("b", "std::string", `"x"`),
			field("c", "std::vector<std::vector<int>>", "{}"),
		),
		entry(schema.TagMessage, "Big",
			map[string]string{schema.AttrTypeID: "1", schema.AttrMaxSize: "4096"},
			field("flag", "bool", "true"),
			field("ch", "char", "'a'"),
			field("u8", "uint8_t", "7"),
			field("i16", "short", "-3"),
			field("u64", "uint64_t", "0xff"),
			field("ratio", "float", "1.5f"),
			field("d", "double", "2.25"),
			field("title", "std::string", `"big"`),
			field("nums", "std::vector<int>", "{1, 2, 3}"),
			field("tags", "std::set<std::string>", `{"a", "b"}`),
			field("idx", "std::map<int, std::string>", "{}"),
			field("inner", "Inner", "{}"),
			field("inners", "std::vector<Inner>", "{}"),
			field("byName", "std::unordered_map<std::string, Inner>", "{}"),
			field("pi", "std::pair<Inner, int>", "{}"),
			field("pp", "std::pair<int, std::string>", `{4, "four"}`),
			field("nested", "std::pair<std::pair<Inner, int>, bool>", "{}"),
		),
		entry(schema.TagMessage, "Patch",
			map[string]string{schema.AttrTypeID: "2", schema.AttrMaxSize: "1024", schema.AttrCodeField: "uint8_t", schema.AttrDefaultCode: "count|label"},
			field("count", "int", "5"),
			field("label", "std::string", `"s"`),
			field("items", "std::vector<Inner>", "{}"),
			field("pi", "std::pair<Inner, int>", "{}"),
		),
		schema.Entry{
			Tag: schema.TagRemoteCall, Name: "Ask", Argument: "Inner", Result: "Big",
			Attrs: map[string]string{schema.AttrName: "Ask", schema.AttrTypeID: "3", schema.AttrMaxSize: "4096"},
			Pos:   schema.Pos{File: "proto.xml", Line: 1},
		},
		schema.Entry{Tag: schema.TagState, Name: "lobby", Protocols: []string{"Big", "Patch", "Ask"}, Pos: schema.Pos{File: "proto.xml", Line: 1}},
	)
}

// TestGeneratedCodeRoundTrips compiles the rendered package together with
// testdata/roundtrip_test.go.in and runs it with the go tool.
func TestGeneratedCodeRoundTrips(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles generated code")
	}
	gobin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not available")
	}

	dir, err := os.MkdirTemp("testdata", "roundtrip-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	files, err := Render(roundTripSchema(t))
	require.NoError(t, err)
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.Path), f.Data, 0o644))
	}
	src, err := os.ReadFile(filepath.Join("testdata", "roundtrip_test.go.in"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roundtrip_test.go"), src, 0o644))

	cmd := exec.Command(gobin, "test", "-count=1", "./"+filepath.ToSlash(dir))
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "go test on generated package failed:\n%s", out)
}
