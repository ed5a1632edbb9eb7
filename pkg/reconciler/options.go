package reconciler

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/nonomal/HostlistsRegistry/pkg/constants"
	"github.com/nonomal/HostlistsRegistry/pkg/errors"
	"github.com/nonomal/HostlistsRegistry/pkg/logging"
)

// options configures a reconciler.
type options struct {
	fs       afero.Fs
	ext      string
	logger   *zerolog.Logger
	recorder Recorder
	loader   Loader
	indexer  IndexSupplier
	dryRun   bool
}

func defaultOptions() *options {
	return &options{
		fs:       afero.NewOsFs(),
		ext:      constants.DefinitionExtension,
		logger:   logging.NewNop(),
		recorder: NoopRecorder{},
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithFS sets the filesystem definition files are written to.
// Default loaders and indexers read from the same filesystem.
func WithFS(fs afero.Fs) Option {
	return func(o *options) error {
		if fs == nil {
			return errors.NewConfigError("reconciler", "filesystem cannot be nil", nil)
		}
		o.fs = fs
		return nil
	}
}

// WithExtension sets the definition file extension, including the dot.
func WithExtension(ext string) Option {
	return func(o *options) error {
		if len(ext) < 2 || ext[0] != '.' {
			return errors.NewConfigError("reconciler", "extension must start with a dot: "+ext, nil)
		}
		o.ext = ext
		return nil
	}
}

// WithLogger sets the logger that receives the restore report.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.NewConfigError("reconciler", "logger cannot be nil", nil)
		}
		o.logger = logger
		return nil
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(o *options) error {
		if recorder == nil {
			return errors.NewConfigError("reconciler", "recorder cannot be nil", nil)
		}
		o.recorder = recorder
		return nil
	}
}

// WithLoader sets the source artifact loader used by Restore.
func WithLoader(loader Loader) Option {
	return func(o *options) error {
		if loader == nil {
			return errors.NewConfigError("reconciler", "loader cannot be nil", nil)
		}
		o.loader = loader
		return nil
	}
}

// WithIndexSupplier sets the on-disk index supplier used by Restore.
func WithIndexSupplier(indexer IndexSupplier) Option {
	return func(o *options) error {
		if indexer == nil {
			return errors.NewConfigError("reconciler", "index supplier cannot be nil", nil)
		}
		o.indexer = indexer
		return nil
	}
}

// WithDryRun reports missing services without writing them.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}
