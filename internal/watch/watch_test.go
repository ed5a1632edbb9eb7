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

	"github.com/nonomal/HostlistsRegistry/pkg/logging"
)

func newWatcher(t *testing.T, run RunFunc) (*Watcher, string, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "services")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist"), 0755))
	source := filepath.Join(root, "dist", "services.json")

	w, err := New(dir, source, run,
		WithDebounce(20*time.Millisecond),
		WithLogger(logging.NewTestLogger(t).Logger),
	)
	require.NoError(t, err)
	return w, dir, source
}

func TestNewRequiresRun(t *testing.T) {
	_, err := New("services", "dist/services.json", nil)
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	w, dir, source := newWatcher(t, func(context.Context) error { return nil })

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"definition removed", fsnotify.Event{Name: filepath.Join(dir, "youtube.yml"), Op: fsnotify.Remove}, true},
		{"definition renamed", fsnotify.Event{Name: filepath.Join(dir, "youtube.yml"), Op: fsnotify.Rename}, true},
		{"definition created", fsnotify.Event{Name: filepath.Join(dir, "youtube.yml"), Op: fsnotify.Create}, false},
		{"definition written", fsnotify.Event{Name: filepath.Join(dir, "youtube.yml"), Op: fsnotify.Write}, false},
		{"other extension", fsnotify.Event{Name: filepath.Join(dir, "README.md"), Op: fsnotify.Remove}, false},
		{"nested file", fsnotify.Event{Name: filepath.Join(dir, "sub", "x.yml"), Op: fsnotify.Remove}, false},
		{"source written", fsnotify.Event{Name: source, Op: fsnotify.Write}, true},
		{"source created", fsnotify.Event{Name: source, Op: fsnotify.Create}, true},
		{"source chmod", fsnotify.Event{Name: source, Op: fsnotify.Chmod}, false},
		{"sibling of source", fsnotify.Event{Name: filepath.Join(filepath.Dir(source), "other.json"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestDirsDeduplicates(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, filepath.Join(root, "services.json"), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Len(t, w.dirs(), 1)
}

func TestRunTriggersOnRemoval(t *testing.T) {
	var (
		calls atomic.Int32
		dir   string
	)
	w, dir, _ := newWatcher(t, func(context.Context) error {
		calls.Add(1)
		// a restore writes the definition back
		return os.WriteFile(filepath.Join(dir, "youtube.yml"), []byte("id: youtube\n"), 0644)
	})
	path := filepath.Join(dir, "youtube.yml")
	require.NoError(t, os.WriteFile(path, []byte("id: youtube\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.Remove(path))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	// the restored file does not schedule another pass
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRunMissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "absent"), "services.json", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))
}
