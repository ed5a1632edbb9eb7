// Package app provides the application context and dependency management
// for the services CLI: configuration, logging, metrics and the wiring of the
// reconciler to the filesystem.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/nonomal/HostlistsRegistry/internal/metrics"
	"github.com/nonomal/HostlistsRegistry/pkg/errors"
	"github.com/nonomal/HostlistsRegistry/pkg/logging"
	"github.com/nonomal/HostlistsRegistry/pkg/reconciler"
	"github.com/nonomal/HostlistsRegistry/pkg/services/index"
	"github.com/nonomal/HostlistsRegistry/pkg/services/source"
)

// App represents the services application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer

	// Logger is rebuilt from flags unless one was injected.
	logger         *zerolog.Logger
	loggerInjected bool

	// Metrics recorder (lazy-initialized, shared by every run of the process)
	mu       sync.Mutex
	recorder *metrics.PrometheusRecorder
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		fs:      afero.NewOsFs(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, err
		}
		app.config = config
	}

	if app.logger == nil {
		logger := NewLogger(app.config, app.stderr)
		app.logger = &logger
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Recorder returns the metrics recorder, creating it on first use.
func (a *App) Recorder() *metrics.PrometheusRecorder {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.recorder == nil {
		a.recorder = metrics.NewPrometheusRecorder(nil)
	}
	return a.recorder
}

// Indexer returns the definition file index for the configured extension,
// logging through the context logger.
func (a *App) Indexer(ctx context.Context) *index.Files {
	return index.New(
		index.WithFS(a.fs),
		index.WithExtension(a.config.Extension),
		index.WithLogger(logging.FromContext(ctx)),
	)
}

// Reconciler builds a reconciler from the application configuration,
// logging through the context logger.
func (a *App) Reconciler(ctx context.Context, dryRun bool) (*reconciler.Reconciler, error) {
	r, err := reconciler.New(
		reconciler.WithFS(a.fs),
		reconciler.WithExtension(a.config.Extension),
		reconciler.WithLogger(logging.FromContext(ctx)),
		reconciler.WithRecorder(a.Recorder()),
		reconciler.WithLoader(source.New(
			source.WithFS(a.fs),
			source.WithField(a.config.Field),
		)),
		reconciler.WithIndexSupplier(a.Indexer(ctx)),
		reconciler.WithDryRun(dryRun),
	)
	if err != nil {
		return nil, errors.NewConfigError("reconciler", "building reconciler", err)
	}
	return r, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewConfigError("app", "config cannot be nil", nil)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger. Flags no longer rebuild it.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		a.loggerInjected = logger != nil
		return nil
	}
}

// WithFS sets the filesystem used for the source artifact and definition files.
func WithFS(fs afero.Fs) Option {
	return func(a *App) error {
		if fs == nil {
			return errors.NewConfigError("app", "filesystem cannot be nil", nil)
		}
		a.fs = fs
		return nil
	}
}

// WithOutput sets the writers for command output and configuration warnings.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) error {
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
		return nil
	}
}
