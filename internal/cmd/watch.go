package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Alia5/progen/internal/watch"
)

type Watch struct {
	Generate `embed:""`
	Debounce time.Duration `help:"Quiet period after the last change before regenerating" default:"200ms" env:"PROGEN_WATCH_DEBOUNCE"`
}

// Run is called by Kong when the watch command is executed.
func (w *Watch) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.WatchContext(ctx, logger)
}

// WatchContext generates once, then regenerates on every schema change
// until ctx is done.
func (w *Watch) WatchContext(ctx context.Context, logger *slog.Logger) error {
	if _, err := w.runOnce(logger); err != nil {
		logger.Error("Generation failed", "error", err)
	}

	dirs := []string{w.Schema}
	if w.Index != "" {
		if d := filepath.Dir(w.Index); filepath.Clean(d) != filepath.Clean(w.Schema) {
			dirs = append(dirs, d)
		}
	}
	watcher := &watch.Watcher{
		Dirs:     dirs,
		Debounce: w.Debounce,
		Logger:   logger,
		Run: func() error {
			_, err := w.runOnce(logger)
			return err
		},
	}
	return watcher.Watch(ctx)
}
