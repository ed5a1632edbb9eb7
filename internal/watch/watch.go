// Package watch re-runs service restoration when definition files disappear
// or the built services artifact changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/nonomal/HostlistsRegistry/pkg/constants"
	"github.com/nonomal/HostlistsRegistry/pkg/logging"
)

// RunFunc performs one restoration pass.
type RunFunc func(ctx context.Context) error

// Watcher monitors the definitions directory and the source artifact.
type Watcher struct {
	servicesDir string
	sourcePath  string
	ext         string
	debounce    time.Duration
	logger      *zerolog.Logger
	run         RunFunc
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtension sets the definition file extension, including the dot.
func WithExtension(ext string) Option {
	return func(w *Watcher) {
		if ext != "" {
			w.ext = ext
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Watcher calling run after relevant changes.
func New(servicesDir, sourcePath string, run RunFunc, opts ...Option) (*Watcher, error) {
	if run == nil {
		return nil, fmt.Errorf("watch: run function cannot be nil")
	}

	absDir, err := filepath.Abs(servicesDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", servicesDir, err)
	}
	absSource, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", sourcePath, err)
	}

	w := &Watcher{
		servicesDir: absDir,
		sourcePath:  absSource,
		ext:         constants.DefinitionExtension,
		debounce:    constants.DefaultWatchDebounce,
		logger:      logging.NewNop(),
		run:         run,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is done. Passes run one at a time on the calling
// goroutine; a failed pass is logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Error().Err(err).Msg("Error closing file watcher")
		}
	}()

	// Watch parent directories; file watches are lost on remove and rename.
	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	w.logger.Info().
		Str("services_dir", w.servicesDir).
		Str("source", w.sourcePath).
		Dur("debounce", w.debounce).
		Msg("Watching for removed services")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Change detected")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if err := w.run(ctx); err != nil {
				w.logger.Error().Err(err).Msg("Restore failed")
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) dirs() []string {
	sourceDir := filepath.Dir(w.sourcePath)
	if sourceDir == w.servicesDir {
		return []string{w.servicesDir}
	}
	return []string{w.servicesDir, sourceDir}
}

// relevant reports whether event can change the restore outcome.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)

	if name == w.sourcePath {
		return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
	}

	// Only removal makes a service go missing; restore's own writes are ignored.
	if filepath.Dir(name) == w.servicesDir && strings.HasSuffix(name, w.ext) {
		return event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	}

	return false
}
