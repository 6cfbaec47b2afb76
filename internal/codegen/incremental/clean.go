package incremental

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Alia5/progen/internal/codegen/output"
)

// Clean deletes the manifest, then every owned file in the layout's output
// directories and the aggregate file. It returns the number of files
// removed.
func Clean(logger *slog.Logger, layout output.Layout) (int, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := RemoveManifest(layout.Root); err != nil {
		return 0, err
	}

	files, err := layout.Files()
	if err != nil {
		return 0, err
	}
	if layout.Aggregate != "" {
		files = append(files, layout.AggregatePath())
	}

	removed := 0
	for _, f := range files {
		err := os.Remove(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("remove stale artifact %s: %w", f, err)
		}
		removed++
	}
	logger.Debug("Cleaned output", "root", layout.Root, "removed", removed)
	return removed, nil
}
