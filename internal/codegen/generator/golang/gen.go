// Package golang renders artifact descriptions as a Go package built on
// the octets runtime. Each definition becomes <name>.go with the type and
// its hooks plus <name>_wire.go with the codec; state groups register
// themselves from state_<group>.go and definitions.go enumerates the ids.
package golang

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/Alia5/progen/internal/codegen/common"
	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/codegen/output"
)

const (
	// AggregateFile enumerates every type id.
	AggregateFile = "definitions.go"
	// DefaultPackage names the generated package when none is configured.
	DefaultPackage = "protocol"
	// DefaultRuntime is the import path of the runtime package.
	DefaultRuntime = "github.com/Alia5/progen/pkg/octets"
)

// Layout returns the Go output layout below root. Generated files share the
// directory with hand-written ones, so only files carrying the progen
// header are owned.
func Layout(root string) output.Layout {
	return output.Layout{
		Root:      root,
		Dirs:      []string{"."},
		Aggregate: AggregateFile,
		Owned:     common.IsGenerated,
	}
}

// File is one rendered output file.
type File struct {
	Path string
	Data []byte
}

func settings(md *meta.Metadata) (emitter, string) {
	pkg := md.Package
	if pkg == "" {
		pkg = DefaultPackage
	}
	rt := md.Runtime
	if rt == "" {
		rt = DefaultRuntime
	}
	return emitter{rt: rt}, pkg
}

// Render renders every file in write order without touching the disk.
func Render(md *meta.Metadata) ([]File, error) {
	e, pkg := settings(md)
	check := *md
	check.Package = pkg
	if err := validate(&check); err != nil {
		return nil, err
	}

	var files []File
	add := func(path, owner string, render func() ([]byte, error)) error {
		data, err := render()
		if err != nil {
			return &GenerationError{Name: owner, Rule: "render", Cause: err}
		}
		files = append(files, File{Path: path, Data: data})
		return nil
	}

	for _, a := range md.Artifacts {
		g, err := newTypeGen(e, a)
		if err != nil {
			return nil, err
		}
		iface, wire := fileNames(a)
		if err := add(iface, a.Name, renderFile(g.interfaceFile(pkg))); err != nil {
			return nil, err
		}
		if err := add(wire, a.Name, renderFile(g.wireFile(pkg))); err != nil {
			return nil, err
		}
	}
	for _, st := range md.States {
		if err := add(stateFileName(st), st.Name, renderFile(stateFile(e, pkg, st))); err != nil {
			return nil, err
		}
	}
	if err := add(AggregateFile, "", renderFile(definitionsFile(e, pkg, md.Definitions))); err != nil {
		return nil, err
	}
	return files, nil
}

type renderer interface {
	Render(w io.Writer) error
}

func renderFile(f renderer) func() ([]byte, error) {
	return func() ([]byte, error) {
		var buf bytes.Buffer
		if err := f.Render(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// Validate reports whether md can be rendered as Go.
func Validate(md *meta.Metadata) error {
	_, err := Render(md)
	return err
}

// Generate writes every Go artifact for md.
func Generate(logger *slog.Logger, w *output.Writer, md *meta.Metadata) error {
	files, err := Render(md)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := w.Write(f.Path, f.Data); err != nil {
			return err
		}
	}
	_, pkg := settings(md)
	logger.Info("Generated Go package", "package", pkg, "files", len(files), "dir", w.Layout().Root)
	return nil
}
