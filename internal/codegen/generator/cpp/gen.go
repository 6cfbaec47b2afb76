// Package cpp renders artifact descriptions as C++ classes built on the
// bee runtime: one header and one source file per definition, one
// registration unit per state group and the prot_define.h aggregate.
package cpp

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/codegen/output"
)

// Output subdirectories and the aggregate file name.
const (
	IncludeDir    = "include"
	SourceDir     = "source"
	StateDir      = "state"
	AggregateFile = "prot_define.h"
)

// DefaultNamespace is the namespace of the runtime base classes.
const DefaultNamespace = "bee"

// Layout returns the C++ output layout below root.
func Layout(root string) output.Layout {
	return output.Layout{
		Root:      root,
		Dirs:      []string{IncludeDir, SourceDir, StateDir},
		Aggregate: AggregateFile,
	}
}

var (
	headerTmpl     = template.Must(template.New("header").Funcs(tplFuncs()).Parse(headerTemplate))
	sourceTmpl     = template.Must(template.New("source").Funcs(tplFuncs()).Parse(sourceTemplate))
	stateTmpl      = template.Must(template.New("state").Funcs(tplFuncs()).Parse(stateTemplate))
	definitionTmpl = template.Must(template.New("definitions").Funcs(tplFuncs()).Parse(definitionsTemplate))
)

// Generate writes every C++ artifact for md.
func Generate(logger *slog.Logger, w *output.Writer, md *meta.Metadata) error {
	for _, dir := range w.Layout().DirPaths() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &output.WriteError{Path: dir, Cause: err}
		}
	}

	ns := md.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	for _, a := range md.Artifacts {
		view := newClassView(a, ns)
		if err := render(w, IncludeDir+"/"+a.Name+".h", headerTmpl, view); err != nil {
			return err
		}
		if err := render(w, SourceDir+"/"+a.Name+".cpp", sourceTmpl, view); err != nil {
			return err
		}
		logger.Debug("Generated class", "name", a.Name, "kind", a.Kind.String(), "caps", a.Caps.String())
	}

	for _, st := range md.States {
		view := stateView{Header: writeFileHeader(st.Source), NS: ns, Members: st.Members}
		if err := render(w, StateDir+"/"+st.Name+".cpp", stateTmpl, view); err != nil {
			return err
		}
		logger.Debug("Generated state registration", "state", st.Name, "protocols", len(st.Members))
	}

	view := definitionsView{Header: writeFileHeader(""), NS: ns, Definitions: md.Definitions}
	if err := render(w, AggregateFile, definitionTmpl, view); err != nil {
		return err
	}

	logger.Info("Generated C++ protocol sources", "dir", w.Layout().Root, "classes", len(md.Artifacts), "states", len(md.States))
	return nil
}

// Render renders a single artifact's header and source without touching the
// filesystem.
func Render(a meta.Artifact, namespace string) (header, source []byte, err error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	view := newClassView(a, namespace)
	var h, s bytes.Buffer
	if err := headerTmpl.Execute(&h, view); err != nil {
		return nil, nil, fmt.Errorf("render %s.h: %w", a.Name, err)
	}
	if err := sourceTmpl.Execute(&s, view); err != nil {
		return nil, nil, fmt.Errorf("render %s.cpp: %w", a.Name, err)
	}
	return h.Bytes(), s.Bytes(), nil
}

func render(w *output.Writer, rel string, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	return w.Write(rel, buf.Bytes())
}
