// Package watch re-runs generation when schema documents change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Alia5/progen/internal/schema"
)

// DefaultDebounce groups the bursts of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls Run once per burst of schema changes in Dirs.
type Watcher struct {
	Dirs     []string
	Debounce time.Duration
	Logger   *slog.Logger
	// Run performs one generation. Its error is logged and watching
	// continues.
	Run func() error
}

// relevant reports whether ev can change the generated output.
func relevant(ev fsnotify.Event) bool {
	if !schema.IsSchemaFile(ev.Name) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// Watch blocks until ctx is done.
func (w *Watcher) Watch(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	for _, d := range w.Dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
		logger.Info("Watching schema directory", "dir", d)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			logger.Debug("Schema changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error", "error", err)
		case <-timer.C:
			if err := w.Run(); err != nil {
				logger.Error("Generation failed", "error", err)
			}
		}
	}
}
