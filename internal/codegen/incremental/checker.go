// Package incremental decides whether a generation run can be skipped and
// clears stale output before a full regeneration.
package incremental

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/Alia5/progen/internal/codegen/output"
)

// Checker compares the newest input against the oldest output. Granularity
// is the whole batch: any newer input makes every artifact stale.
type Checker struct {
	Logger *slog.Logger
	// Sources are every schema document, including the index.
	Sources []string
	// Dirs hold the sources. A directory's mtime moves when a document is
	// added, removed or renamed, none of which touches the remaining sources.
	Dirs []string
	// VersionMarker is a file whose mtime stands for the generator version.
	// Empty means the running executable.
	VersionMarker string
	Layout        output.Layout
	// Manifest, when non-nil, must also match the output on disk.
	Manifest *Expectation
}

// Expectation is what a valid manifest has to record.
type Expectation struct {
	Version string
	Backend string
	// Sources is the sorted list of schema documents of the run.
	Sources []string
}

func (c *Checker) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// UpToDate reports whether the existing output can be kept as is.
func (c *Checker) UpToDate() (bool, error) {
	logger := c.logger()

	newest, newestPath, err := c.newestInput()
	if err != nil {
		return false, err
	}
	oldest, oldestPath, ok, err := c.oldestOutput()
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Debug("Output incomplete, regenerating")
		return false, nil
	}
	if newest.After(oldest) {
		logger.Debug("Schema newer than output, regenerating",
			"newest_input", newestPath, "newest_mtime", newest,
			"oldest_output", oldestPath, "oldest_mtime", oldest)
		return false, nil
	}

	if c.Manifest != nil {
		reason, err := c.verifyManifest()
		if err != nil {
			return false, err
		}
		if reason != "" {
			logger.Debug("Manifest mismatch, regenerating", "reason", reason)
			return false, nil
		}
	}
	return true, nil
}

func (c *Checker) newestInput() (time.Time, string, error) {
	var (
		newest time.Time
		path   string
	)
	inputs := append(slices.Clone(c.Sources), c.Dirs...)
	marker := c.VersionMarker
	if marker == "" {
		exe, err := os.Executable()
		if err == nil {
			marker = exe
		}
	}
	if marker != "" {
		inputs = append(inputs, marker)
	}
	for _, p := range inputs {
		info, err := os.Stat(p)
		if err != nil {
			return time.Time{}, "", fmt.Errorf("stat input %s: %w", p, err)
		}
		if info.ModTime().After(newest) {
			newest, path = info.ModTime(), p
		}
	}
	return newest, path, nil
}

// oldestOutput returns ok=false when any output directory or the aggregate
// file is missing.
func (c *Checker) oldestOutput() (oldest time.Time, path string, ok bool, err error) {
	consider := func(p string) (bool, error) {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("stat output %s: %w", p, err)
		}
		if path == "" || info.ModTime().Before(oldest) {
			oldest, path = info.ModTime(), p
		}
		return true, nil
	}

	for _, dir := range c.Layout.DirPaths() {
		found, err := consider(dir)
		if err != nil || !found {
			return time.Time{}, "", false, err
		}
	}
	found, err := consider(c.Layout.AggregatePath())
	if err != nil || !found {
		return time.Time{}, "", false, err
	}
	files, err := c.Layout.Files()
	if err != nil {
		return time.Time{}, "", false, err
	}
	for _, f := range files {
		if _, err := consider(f); err != nil {
			return time.Time{}, "", false, err
		}
	}
	return oldest, path, true, nil
}

// verifyManifest returns a non-empty reason when the manifest does not
// describe the output on disk.
func (c *Checker) verifyManifest() (string, error) {
	m, err := LoadManifest(c.Layout.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return "manifest missing", nil
	}
	if err != nil {
		return "", err
	}
	if m.Version != c.Manifest.Version {
		return fmt.Sprintf("generator version %s, manifest has %s", c.Manifest.Version, m.Version), nil
	}
	if m.Backend != c.Manifest.Backend {
		return fmt.Sprintf("backend %s, manifest has %s", c.Manifest.Backend, m.Backend), nil
	}
	if !slices.Equal(m.Sources, c.Manifest.Sources) {
		return fmt.Sprintf("schema documents changed: %d now, manifest has %d", len(c.Manifest.Sources), len(m.Sources)), nil
	}
	return m.Verify(c.Layout.Root)
}
