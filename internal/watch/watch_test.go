package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"xml write", fsnotify.Event{Name: "a/login.xml", Op: fsnotify.Write}, true},
		{"yaml create", fsnotify.Event{Name: "a/echo.yaml", Op: fsnotify.Create}, true},
		{"yml rename", fsnotify.Event{Name: "a/echo.yml", Op: fsnotify.Rename}, true},
		{"remove", fsnotify.Event{Name: "a/INDEX.XML", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "a/login.xml", Op: fsnotify.Chmod}, false},
		{"editor swap file", fsnotify.Event{Name: "a/.login.xml.swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev))
		})
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32
	w := &Watcher{
		Dirs:     []string{dir},
		Debounce: 100 * time.Millisecond,
		Run: func() error {
			runs.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "login.xml"), []byte("<p/>"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	w := &Watcher{Dirs: []string{filepath.Join(t.TempDir(), "missing")}, Run: func() error { return nil }}
	assert.Error(t, w.Watch(context.Background()))
}
