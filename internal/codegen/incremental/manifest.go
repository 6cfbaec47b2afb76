package incremental

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/Alia5/progen/internal/codegen/output"
)

// ManifestName is the file the manifest is stored in, below the output root.
const ManifestName = ".progen-manifest.json"

// Manifest records the content of a completed run.
type Manifest struct {
	Version   string            `json:"version"`
	Backend   string            `json:"backend"`
	Sources   []string          `json:"sources"`
	Artifacts map[string]string `json:"artifacts"`
}

// ManifestPath returns the manifest location below root.
func ManifestPath(root string) string {
	return filepath.Join(root, ManifestName)
}

// LoadManifest reads the manifest below root. A missing manifest yields an
// error matching fs.ErrNotExist.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(root))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", ManifestPath(root), err)
	}
	return &m, nil
}

// Save writes the manifest below root.
func (m *Manifest) Save(root string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(ManifestPath(root), data, 0o644); err != nil {
		return &output.WriteError{Path: ManifestPath(root), Cause: err}
	}
	return nil
}

// Verify hashes every recorded artifact and returns a non-empty reason on
// the first mismatch.
func (m *Manifest) Verify(root string) (string, error) {
	if len(m.Artifacts) == 0 {
		return "manifest lists no artifacts", nil
	}
	for _, rel := range slices.Sorted(maps.Keys(m.Artifacts)) {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if errors.Is(err, fs.ErrNotExist) {
			return rel + " missing", nil
		}
		if err != nil {
			return "", fmt.Errorf("read artifact %s: %w", rel, err)
		}
		if output.Hash(data) != m.Artifacts[rel] {
			return rel + " content changed", nil
		}
	}
	return "", nil
}

// RemoveManifest deletes the manifest below root if present.
func RemoveManifest(root string) error {
	err := os.Remove(ManifestPath(root))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove manifest: %w", err)
	}
	return nil
}
