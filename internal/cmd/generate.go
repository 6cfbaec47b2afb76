package cmd

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Alia5/progen/internal/codegen/generator"
	"github.com/Alia5/progen/internal/codegen/generator/cpp"
	"github.com/Alia5/progen/internal/codegen/generator/golang"
)

type Generate struct {
	Schema     string `help:"Directory containing the schema documents" aliases:"xmlpath" required:"" type:"path" env:"PROGEN_SCHEMA"`
	Out        string `help:"Root directory for generated sources" aliases:"outpath" required:"" type:"path" env:"PROGEN_OUT"`
	Index      string `help:"Index document; defaults to index.xml, index.yaml or index.yml inside the schema directory" type:"path" env:"PROGEN_INDEX"`
	Lang       string `help:"Target language: cpp or go" enum:"cpp,go" default:"cpp" env:"PROGEN_LANG"`
	Force      bool   `help:"Regenerate even when the output is up to date" env:"PROGEN_FORCE"`
	NoManifest bool   `help:"Decide staleness from timestamps only" env:"PROGEN_NO_MANIFEST"`
	Namespace  string `help:"C++ namespace of the runtime base classes" default:"bee" env:"PROGEN_NAMESPACE"`
	Package    string `help:"Go package name of generated sources" default:"protocol" env:"PROGEN_PACKAGE"`
	Runtime    string `help:"Go import path of the runtime package" default:"github.com/Alia5/progen/pkg/octets" env:"PROGEN_RUNTIME"`
}

// Options converts the flags into pipeline options.
func (g *Generate) Options() generator.Options {
	opts := generator.Options{
		SchemaDir: g.Schema,
		OutputDir: g.Out,
		IndexPath: g.Index,
		Lang:      g.Lang,
		Force:     g.Force,
		Manifest:  !g.NoManifest,
		Namespace: g.Namespace,
		Package:   g.Package,
		Runtime:   g.Runtime,
	}
	if opts.Namespace == "" {
		opts.Namespace = cpp.DefaultNamespace
	}
	if opts.Package == "" {
		opts.Package = golang.DefaultPackage
	}
	return opts
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger) error {
	_, err := g.runOnce(logger)
	return err
}

// runOnce executes one batch under a fresh run id.
func (g *Generate) runOnce(logger *slog.Logger) (*generator.Result, error) {
	logger = logger.With("run", uuid.NewString())
	logger.Info("Starting protocol generation", "schema", g.Schema, "output", g.Out, "lang", g.Lang)

	gen, err := generator.New(logger, g.Options())
	if err != nil {
		return nil, err
	}
	res, err := gen.Run()
	if err != nil {
		return nil, fmt.Errorf("generate %s sources: %w", g.Lang, err)
	}
	return res, nil
}
