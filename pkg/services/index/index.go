// Package index builds the on-disk service index from a directory of
// definition files.
//
// Each definition file carries its identifier twice: in its file name and in
// its "id" field. The two must agree; a mismatch is reported as an
// IdentityError rather than silently trusting either one.
package index

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/nonomal/HostlistsRegistry/pkg/constants"
	"github.com/nonomal/HostlistsRegistry/pkg/errors"
	"github.com/nonomal/HostlistsRegistry/pkg/logging"
	"github.com/nonomal/HostlistsRegistry/pkg/services"
)

// Files indexes definition files stored on a filesystem.
type Files struct {
	fs     afero.Fs
	ext    string
	logger *zerolog.Logger
}

// Option configures Files.
type Option func(*Files)

// WithFS sets the filesystem definition files are read from.
func WithFS(fs afero.Fs) Option {
	return func(f *Files) {
		f.fs = fs
	}
}

// WithExtension sets the definition file extension, including the dot.
func WithExtension(ext string) Option {
	return func(f *Files) {
		if ext != "" {
			f.ext = ext
		}
	}
}

// WithLogger sets the logger used to report stale definition files.
func WithLogger(logger *zerolog.Logger) Option {
	return func(f *Files) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Files index reading from the OS filesystem by default.
func New(opts ...Option) *Files {
	f := &Files{
		fs:     afero.NewOsFs(),
		ext:    constants.DefinitionExtension,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Extension returns the definition file extension.
func (f *Files) Extension() string {
	return f.ext
}

// List returns the names of the definition files in dir, sorted.
func (f *Files) List(dir string) ([]string, error) {
	entries, err := afero.ReadDir(f.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), f.ext) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Build parses the named definition files in dir and indexes them by id.
//
// A file that is empty or has no id is a stale, partially written definition.
// It is left out of the index so that a restore overwrites it.
func (f *Files) Build(dir string, fileNames []string) (services.Index, error) {
	index := make(services.Index, len(fileNames))

	for _, name := range fileNames {
		if !strings.HasSuffix(name, f.ext) {
			continue
		}
		path := filepath.Join(dir, name)

		desc, ok, err := f.describe(path, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			f.logger.Warn().Str("file", path).Msg("Definition file has no id, treating it as missing")
			continue
		}
		if prev, dup := index[desc.ID]; dup {
			f.logger.Warn().
				Str("service", desc.ID).
				Str("file", path).
				Str("previous", prev.File).
				Msg("Duplicate definition for service, keeping the first")
			continue
		}
		index[desc.ID] = desc
	}

	return index, nil
}

// describe reads one definition file. ok is false for stale files.
func (f *Files) describe(path, name string) (services.Descriptor, bool, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return services.Descriptor{}, false, fmt.Errorf("reading %s: %w", path, err)
	}

	var content map[string]any
	if err := yaml.Unmarshal(data, &content); err != nil {
		return services.Descriptor{}, false, errors.WrapParse("yaml", path, err)
	}

	raw, present := content[constants.IDField]
	if !present || raw == nil || raw == "" {
		return services.Descriptor{}, false, nil
	}

	fileID := FileID(name, f.ext)
	contentID, isString := raw.(string)
	if !isString || norm.NFC.String(contentID) != fileID {
		return services.Descriptor{}, false, errors.NewIdentityError(path, fileID, fmt.Sprint(raw))
	}

	// Keyed by the normalized form so that composed and decomposed spellings
	// of the same id match the declared one.
	return services.Descriptor{
		ID:      fileID,
		File:    path,
		Content: content,
	}, true, nil
}

// FileID derives the service identifier from a definition file name.
// Names are NFC-normalized since some filesystems store them decomposed.
func FileID(name, ext string) string {
	return norm.NFC.String(strings.TrimSuffix(filepath.Base(name), ext))
}
