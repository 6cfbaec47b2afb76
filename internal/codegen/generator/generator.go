// Package generator runs one progen batch: load the schema directory,
// build and validate the registry, skip when the output is current and
// otherwise clean and re-emit every artifact through the selected backend.
package generator

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Alia5/progen/internal/codegen/common"
	"github.com/Alia5/progen/internal/codegen/generator/cpp"
	"github.com/Alia5/progen/internal/codegen/generator/golang"
	"github.com/Alia5/progen/internal/codegen/incremental"
	"github.com/Alia5/progen/internal/codegen/meta"
	"github.com/Alia5/progen/internal/codegen/output"
	"github.com/Alia5/progen/internal/ir"
	"github.com/Alia5/progen/internal/schema"
)

// Backend renders metadata for one target language.
type Backend struct {
	Name   string
	Layout func(root string) output.Layout
	// Validate rejects metadata the backend cannot express. It runs before
	// any output is touched. Nil means everything the IR accepts renders.
	Validate func(md *meta.Metadata) error
	Generate func(logger *slog.Logger, w *output.Writer, md *meta.Metadata) error
}

var backends = map[string]Backend{
	"cpp": {Name: "cpp", Layout: cpp.Layout, Generate: cpp.Generate},
	"go":  {Name: "go", Layout: golang.Layout, Validate: golang.Validate, Generate: golang.Generate},
}

// DefaultLang is the backend used when none is selected.
const DefaultLang = "cpp"

// Languages returns the registered backend names, sorted.
func Languages() []string {
	var out []string
	for k := range backends {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Lookup returns the backend registered under lang.
func Lookup(lang string) (Backend, error) {
	b, ok := backends[lang]
	if !ok {
		return Backend{}, fmt.Errorf("unsupported language '%s' (supported: %s)", lang, strings.Join(Languages(), ", "))
	}
	return b, nil
}

// Options configures a run.
type Options struct {
	SchemaDir string
	OutputDir string
	// IndexPath overrides the index document; empty picks index.xml,
	// index.yaml or index.yml inside SchemaDir.
	IndexPath string
	Lang      string
	// Force regenerates even when the output is up to date.
	Force bool
	// Manifest enables the content-hash manifest on top of timestamps.
	Manifest bool
	// Package and Runtime configure the go backend.
	Package string
	Runtime string
	// Namespace configures the cpp backend.
	Namespace string
	// VersionMarker stands in for the generator binary in timestamp
	// comparisons. Empty means the running executable.
	VersionMarker string
}

// Result describes a finished run.
type Result struct {
	UpToDate bool
	// Written lists every artifact path in write order.
	Written []string
}

// Generator runs batches with fixed options.
type Generator struct {
	opts    Options
	logger  *slog.Logger
	backend Backend
}

// New validates opts and returns a Generator.
func New(logger *slog.Logger, opts Options) (*Generator, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Lang == "" {
		opts.Lang = DefaultLang
	}
	if opts.SchemaDir == "" {
		return nil, fmt.Errorf("schema directory is required")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	b, err := Lookup(opts.Lang)
	if err != nil {
		return nil, err
	}
	return &Generator{opts: opts, logger: logger, backend: b}, nil
}

// Metadata loads the schema directory and derives the artifact metadata
// without writing anything.
func (g *Generator) Metadata() (*meta.Metadata, *schema.Set, error) {
	set, err := schema.NewLoader(g.logger, g.opts.SchemaDir, g.opts.IndexPath).Load()
	if err != nil {
		return nil, nil, err
	}
	reg, err := ir.Build(g.logger, set)
	if err != nil {
		return nil, nil, err
	}
	md := meta.New(reg)
	md.Namespace = g.opts.Namespace
	md.Package = g.opts.Package
	md.Runtime = g.opts.Runtime
	if g.backend.Validate != nil {
		if err := g.backend.Validate(md); err != nil {
			return nil, nil, err
		}
	}
	return md, set, nil
}

// Run executes one batch. Every validation error is reported before the
// output directory is touched.
func (g *Generator) Run() (*Result, error) {
	md, set, err := g.Metadata()
	if err != nil {
		return nil, err
	}

	version, err := common.GetVersion()
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Generator version", append([]any{"version", version}, common.ParseVersion(version).LogAttrs()...)...)
	layout := g.backend.Layout(g.opts.OutputDir)

	sources := slices.Sorted(slices.Values(set.Sources))
	if !g.opts.Force {
		checker := &incremental.Checker{
			Logger:        g.logger,
			Sources:       set.Sources,
			Dirs:          sourceDirs(set),
			VersionMarker: g.opts.VersionMarker,
			Layout:        layout,
		}
		if g.opts.Manifest {
			checker.Manifest = &incremental.Expectation{Version: version, Backend: g.backend.Name, Sources: sources}
		}
		upToDate, err := checker.UpToDate()
		if err != nil {
			return nil, err
		}
		if upToDate {
			g.logger.Info("Generated code is up to date", "lang", g.backend.Name, "output", g.opts.OutputDir)
			return &Result{UpToDate: true}, nil
		}
	}

	removed, err := incremental.Clean(g.logger, layout)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Cleaned output", "removed", removed)

	w := output.NewWriter(g.logger, layout)
	if err := g.backend.Generate(g.logger, w, md); err != nil {
		return nil, err
	}

	if g.opts.Manifest {
		m := &incremental.Manifest{Version: version, Backend: g.backend.Name, Sources: sources, Artifacts: w.Hashes()}
		if err := m.Save(layout.Root); err != nil {
			return nil, err
		}
	}

	g.logger.Info("Generation complete", "lang", g.backend.Name, "output", g.opts.OutputDir,
		"definitions", len(md.Artifacts), "states", len(md.States), "files", len(w.Written()))
	return &Result{Written: w.Written()}, nil
}

// sourceDirs returns the schema directory and, when it lives elsewhere,
// the directory of the index document.
func sourceDirs(set *schema.Set) []string {
	dirs := []string{set.Dir}
	if set.IndexPath != "" {
		if d := filepath.Dir(set.IndexPath); filepath.Clean(d) != filepath.Clean(set.Dir) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}
