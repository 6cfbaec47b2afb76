package generator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/progen/internal/codegen/generator/golang"
	"github.com/Alia5/progen/internal/ir"
	"github.com/Alia5/progen/internal/schema"
)

const indexXML = `<?xml version="1.0"?>
<protocols>
  <plain-data name="Item">
    <field name="id" type="uint32_t" default="0"/>
  </plain-data>
  <state name="lobby">
    <protocol name="Login"/>
    <protocol name="Echo"/>
  </state>
</protocols>
`

const loginXML = `<protocols>
  <message name="Login" type-id="3" max-size="256" code-field="uint8_t" default-code="ALL">
    <field name="user" type="std::string" default="&quot;&quot;"/>
    <field name="items" type="std::vector&lt;Item&gt;" default="{}"/>
  </message>
</protocols>
`

const echoYAML = `- remote-call: {name: Echo, type-id: 7, max-size: 64, argument: Item, result: Item}
`

type env struct {
	schema string
	out    string
	marker string
}

func newEnv(t *testing.T, docs map[string]string) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		schema: filepath.Join(dir, "schema"),
		out:    filepath.Join(dir, "out"),
		marker: filepath.Join(dir, "progen"),
	}
	require.NoError(t, os.MkdirAll(e.schema, 0o755))
	require.NoError(t, os.WriteFile(e.marker, []byte("bin"), 0o755))
	past := time.Now().Add(-time.Hour)
	for name, body := range docs {
		p := filepath.Join(e.schema, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		require.NoError(t, os.Chtimes(p, past, past))
	}
	require.NoError(t, os.Chtimes(e.marker, past, past))
	return e
}

func defaultDocs() map[string]string {
	return map[string]string{"index.xml": indexXML, "login.xml": loginXML, "echo.yaml": echoYAML}
}

func (e *env) run(t *testing.T, lang string, mutate ...func(*Options)) (*Result, error) {
	t.Helper()
	opts := Options{SchemaDir: e.schema, OutputDir: e.out, Lang: lang, Manifest: true, VersionMarker: e.marker}
	for _, m := range mutate {
		m(&opts)
	}
	g, err := New(nil, opts)
	require.NoError(t, err)
	return g.Run()
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var out []string
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestRunCpp(t *testing.T) {
	e := newEnv(t, defaultDocs())

	res, err := e.run(t, "cpp")
	require.NoError(t, err)
	assert.False(t, res.UpToDate)
	assert.Equal(t, []string{
		"include/Item.h", "source/Item.cpp",
		"include/Echo.h", "source/Echo.cpp",
		"include/Login.h", "source/Login.cpp",
		"state/lobby.cpp",
		"prot_define.h",
	}, rel(t, e.out, res.Written))
	assert.FileExists(t, filepath.Join(e.out, ".progen-manifest.json"))

	res, err = e.run(t, "cpp")
	require.NoError(t, err)
	assert.True(t, res.UpToDate)
	assert.Empty(t, res.Written)
}

func TestRunTouchedSchemaRegeneratesEverything(t *testing.T) {
	e := newEnv(t, defaultDocs())
	_, err := e.run(t, "cpp")
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(e.schema, "echo.yaml"), future, future))

	res, err := e.run(t, "cpp")
	require.NoError(t, err)
	assert.False(t, res.UpToDate)
	assert.Len(t, res.Written, 8)
}

func TestRunForce(t *testing.T) {
	e := newEnv(t, defaultDocs())
	_, err := e.run(t, "cpp")
	require.NoError(t, err)

	res, err := e.run(t, "cpp", func(o *Options) { o.Force = true })
	require.NoError(t, err)
	assert.False(t, res.UpToDate)
}

func TestRunDetectsTamperedArtifact(t *testing.T) {
	e := newEnv(t, defaultDocs())
	_, err := e.run(t, "cpp")
	require.NoError(t, err)

	header := filepath.Join(e.out, "include", "Login.h")
	info, err := os.Stat(header)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(header, []byte("// edited\n"), 0o644))
	require.NoError(t, os.Chtimes(header, info.ModTime(), info.ModTime()))

	res, err := e.run(t, "cpp")
	require.NoError(t, err)
	assert.False(t, res.UpToDate)

	res, err = e.run(t, "cpp", func(o *Options) { o.Manifest = false })
	require.NoError(t, err)
	assert.True(t, res.UpToDate)
}

func TestRunRemovesStaleArtifacts(t *testing.T) {
	e := newEnv(t, defaultDocs())
	_, err := e.run(t, "cpp")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(e.schema, "echo.yaml"), []byte("- plain-data: {name: Spare}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.schema, "index.xml"), []byte(`<protocols>
  <plain-data name="Item">
    <field name="id" type="uint32_t" default="0"/>
  </plain-data>
</protocols>
`), 0o644))
	future := time.Now().Add(time.Hour)
	for _, name := range []string{"echo.yaml", "index.xml"} {
		require.NoError(t, os.Chtimes(filepath.Join(e.schema, name), future, future))
	}

	_, err = e.run(t, "cpp")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(e.out, "include", "Echo.h"))
	assert.NoFileExists(t, filepath.Join(e.out, "state", "lobby.cpp"))
	assert.FileExists(t, filepath.Join(e.out, "include", "Spare.h"))
}

func TestRunRemovedDocumentRegenerates(t *testing.T) {
	const extraXML = `<protocols><message name="Extra" type-id="11" max-size="8"/></protocols>`

	tests := []struct {
		name     string
		manifest bool
		dirTime  time.Duration
	}{
		// The manifest alone notices, even with the directory mtime reset.
		{"manifest", true, -time.Hour},
		{"timestamps only", false, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := defaultDocs()
			docs["extra.xml"] = extraXML
			e := newEnv(t, docs)
			manifest := func(o *Options) { o.Manifest = tt.manifest }

			_, err := e.run(t, "cpp", manifest)
			require.NoError(t, err)
			require.FileExists(t, filepath.Join(e.out, "include", "Extra.h"))

			require.NoError(t, os.Remove(filepath.Join(e.schema, "extra.xml")))
			stamp := time.Now().Add(tt.dirTime)
			require.NoError(t, os.Chtimes(e.schema, stamp, stamp))

			res, err := e.run(t, "cpp", manifest)
			require.NoError(t, err)
			assert.False(t, res.UpToDate)
			assert.NoFileExists(t, filepath.Join(e.out, "include", "Extra.h"))
			defs, err := os.ReadFile(filepath.Join(e.out, "prot_define.h"))
			require.NoError(t, err)
			assert.NotContains(t, string(defs), "EXTRA")
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	a := newEnv(t, defaultDocs())
	b := newEnv(t, defaultDocs())
	resA, err := a.run(t, "go")
	require.NoError(t, err)
	_, err = b.run(t, "go")
	require.NoError(t, err)

	for _, p := range rel(t, a.out, resA.Written) {
		want, err := os.ReadFile(filepath.Join(a.out, p))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(b.out, p))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), p)
	}
}

func TestRunGo(t *testing.T) {
	e := newEnv(t, defaultDocs())
	require.NoError(t, os.MkdirAll(e.out, 0o755))
	handwritten := filepath.Join(e.out, "handlers.go")
	require.NoError(t, os.WriteFile(handwritten, []byte("package protocol\n"), 0o644))

	res, err := e.run(t, "go", func(o *Options) { o.Package = "protocol" })
	require.NoError(t, err)
	assert.Contains(t, rel(t, e.out, res.Written), "definitions.go")
	assert.Contains(t, rel(t, e.out, res.Written), "state_lobby.go")

	res, err = e.run(t, "go", func(o *Options) { o.Force = true })
	require.NoError(t, err)
	assert.Len(t, res.Written, 8)
	assert.FileExists(t, handwritten)
}

func TestRunErrorsLeaveOutputUntouched(t *testing.T) {
	tests := []struct {
		name  string
		lang  string
		extra map[string]string
		is    error
	}{
		{
			name:  "duplicate type id",
			lang:  "cpp",
			extra: map[string]string{"zz.xml": `<p><message name="Other" type-id="3" max-size="8"/></p>`},
			is:    ir.ErrDuplicateID,
		},
		{
			name:  "unresolved remote-call argument",
			lang:  "cpp",
			extra: map[string]string{"zz.xml": `<p><rpc name="Ping" type-id="9" max-size="8"><argument type="Nope"/><result type="Item"/></rpc></p>`},
			is:    ir.ErrUnresolvedReference,
		},
		{
			name:  "missing required attribute",
			lang:  "cpp",
			extra: map[string]string{"zz.xml": `<p><message name="Other" max-size="8"/></p>`},
			is:    schema.ErrValidation,
		},
		{
			name:  "go backend rejects",
			lang:  "go",
			extra: map[string]string{"zz.xml": `<p><plain-data name="Bad"><field name="n" type="int" default="abc"/></plain-data></p>`},
			is:    golang.ErrGeneration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, defaultDocs())
			first, err := e.run(t, tt.lang)
			require.NoError(t, err)

			for name, body := range tt.extra {
				require.NoError(t, os.WriteFile(filepath.Join(e.schema, name), []byte(body), 0o644))
			}
			_, err = e.run(t, tt.lang)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
			for _, p := range first.Written {
				assert.FileExists(t, p)
			}
		})
	}
}

func TestRunSkipsMalformedDocument(t *testing.T) {
	docs := defaultDocs()
	docs["broken.xml"] = "<protocols><message"
	e := newEnv(t, docs)

	res, err := e.run(t, "cpp")
	require.NoError(t, err)
	assert.Len(t, res.Written, 8)
}

func TestNewRejectsUnknownLanguage(t *testing.T) {
	_, err := New(nil, Options{SchemaDir: "s", OutputDir: "o", Lang: "cobol"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cpp, go")
}
