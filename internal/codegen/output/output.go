// Package output owns the on-disk side of generation: which directories a
// backend writes, which files in them are its own, and the whole-file
// writer every artifact goes through.
package output

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrWrite marks filesystem failures while emitting artifacts.
var ErrWrite = errors.New("artifact write error")

// WriteError reports the artifact that could not be written.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	var b strings.Builder
	b.WriteString("progen: artifact write error: ")
	b.WriteString(e.Path)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

// IsWriteError reports whether err is an artifact write error.
func IsWriteError(err error) bool {
	return errors.Is(err, ErrWrite)
}

// Layout describes where a backend puts its artifacts.
type Layout struct {
	// Root is the output root; relative artifact paths are resolved
	// against it.
	Root string
	// Dirs are the directories the backend writes into, relative to Root.
	// They take part in the staleness check and are emptied by Clean.
	Dirs []string
	// Aggregate is the aggregate definitions file, relative to Root.
	Aggregate string
	// Owned selects which regular files in Dirs belong to the backend.
	// Nil means every regular file.
	Owned func(data []byte) bool
}

// Abs resolves a path relative to the layout root.
func (l Layout) Abs(rel string) string {
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}

// DirPaths returns the absolute output directories.
func (l Layout) DirPaths() []string {
	out := make([]string, 0, len(l.Dirs))
	for _, d := range l.Dirs {
		out = append(out, l.Abs(d))
	}
	return out
}

// AggregatePath returns the absolute aggregate file path.
func (l Layout) AggregatePath() string {
	return l.Abs(l.Aggregate)
}

// Files lists the absolute paths of every owned regular file in the output
// directories, sorted. Missing directories are skipped. The aggregate is
// not included.
func (l Layout) Files() ([]string, error) {
	var out []string
	agg := l.AggregatePath()
	for _, dir := range l.DirPaths() {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read output directory %s: %w", dir, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			p := filepath.Join(dir, e.Name())
			if p == agg {
				continue
			}
			if l.Owned != nil {
				data, err := os.ReadFile(p)
				if err != nil {
					return nil, fmt.Errorf("read %s: %w", p, err)
				}
				if !l.Owned(data) {
					continue
				}
			}
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Hash returns the hex blake2b-256 digest of data.
func Hash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Writer performs whole-file overwrites below a layout root and remembers
// what it wrote.
type Writer struct {
	layout  Layout
	logger  *slog.Logger
	hashes  map[string]string
	written []string
}

func NewWriter(logger *slog.Logger, layout Layout) *Writer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{layout: layout, logger: logger, hashes: make(map[string]string)}
}

// Layout returns the layout the writer writes into.
func (w *Writer) Layout() Layout {
	return w.layout
}

// Write replaces the artifact at rel (slash separated, relative to the
// root) with data.
func (w *Writer) Write(rel string, data []byte) error {
	path := w.layout.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &WriteError{Path: path, Cause: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &WriteError{Path: path, Cause: err}
	}
	w.hashes[filepath.ToSlash(rel)] = Hash(data)
	w.written = append(w.written, path)
	w.logger.Debug("Generated "+filepath.Base(path), "file", path, "bytes", len(data))
	return nil
}

// Written returns the absolute paths written so far, in write order.
func (w *Writer) Written() []string {
	return slices.Clone(w.written)
}

// Hashes returns the digest of every written artifact keyed by its
// slash-separated path relative to the root.
func (w *Writer) Hashes() map[string]string {
	out := make(map[string]string, len(w.hashes))
	for k, v := range w.hashes {
		out[k] = v
	}
	return out
}
