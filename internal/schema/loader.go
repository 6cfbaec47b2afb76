// Package schema reads schema documents into raw entry records.
//
// Documents are XML or YAML. A document that is not well-formed is logged
// and skipped; a well-formed document that is missing a required attribute
// aborts the whole load.
package schema

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Extensions recognized as schema documents.
var Extensions = []string{".xml", ".yaml", ".yml"}

// DefaultIndexNames are tried, in order, when no index path is configured.
var DefaultIndexNames = []string{"index.xml", "index.yaml", "index.yml"}

// Loader reads a schema directory.
type Loader struct {
	Dir    string
	Index  string // explicit index document; empty selects DefaultIndexNames inside Dir
	Logger *slog.Logger
}

// NewLoader creates a loader for dir.
func NewLoader(logger *slog.Logger, dir, index string) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{Dir: dir, Index: index, Logger: logger}
}

// IsSchemaFile reports whether path carries a schema document extension.
func IsSchemaFile(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// ResolveIndex returns the index document path, or "" when there is none.
func (l *Loader) ResolveIndex() string {
	if l.Index != "" {
		return l.Index
	}
	for _, name := range DefaultIndexNames {
		p := filepath.Join(l.Dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Discover lists the schema documents of the directory in processing
// order: the index first, then the rest sorted lexicographically.
func (l *Loader) Discover() (index string, docs []string, err error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return "", nil, fmt.Errorf("read schema directory: %w", err)
	}
	index = l.ResolveIndex()
	absIndex, _ := filepath.Abs(index)
	for _, e := range entries {
		if e.IsDir() || !IsSchemaFile(e.Name()) {
			continue
		}
		p := filepath.Join(l.Dir, e.Name())
		if index != "" {
			if abs, _ := filepath.Abs(p); abs == absIndex {
				continue
			}
		}
		docs = append(docs, p)
	}
	slices.Sort(docs)
	return index, docs, nil
}

// Load parses every document. Malformed documents are skipped with a
// warning; the first validation failure is returned.
func (l *Loader) Load() (*Set, error) {
	index, docs, err := l.Discover()
	if err != nil {
		return nil, err
	}
	set := &Set{Dir: l.Dir, IndexPath: index}

	paths := docs
	if index != "" {
		if _, err := os.Stat(index); err != nil {
			return nil, fmt.Errorf("index document: %w", err)
		}
		paths = append([]string{index}, docs...)
	}

	for _, p := range paths {
		set.Sources = append(set.Sources, p)
		doc, err := l.loadDocument(p, p == index)
		if err != nil {
			if IsParseError(err) {
				l.Logger.Warn("Skipping malformed schema document", "file", p, "error", err)
				set.Skipped = append(set.Skipped, p)
				continue
			}
			return nil, err
		}
		l.Logger.Debug("Loaded schema document", "file", p, "entries", len(doc.Entries), "index", doc.Index)
		set.Documents = append(set.Documents, *doc)
	}
	return set, nil
}

func (l *Loader) loadDocument(path string, index bool) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema document: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat schema document: %w", err)
	}

	root, err := parseDocument(path, f)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}

	doc := &Document{Path: path, Index: index, ModTime: st.ModTime()}
	for _, n := range root.children {
		e, err := buildEntry(path, n, index)
		if err != nil {
			return nil, err
		}
		if e == nil {
			l.Logger.Warn("Ignoring unknown schema element", "file", path, "line", n.line, "element", n.tag)
			continue
		}
		doc.Entries = append(doc.Entries, *e)
	}
	return doc, nil
}

func parseDocument(path string, r io.Reader) (*node, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(r)
	default:
		return parseXML(r)
	}
}
