// Package reconciler restores blocked-service definition files that were
// removed from disk although the built services artifact still declares them.
//
// Services that were built once are never removed: every declared service
// whose id has no definition file is written back from its declared record.
// Files already on disk are never touched, and nothing is ever deleted.
package reconciler

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/nonomal/HostlistsRegistry/pkg/constants"
	"github.com/nonomal/HostlistsRegistry/pkg/errors"
	"github.com/nonomal/HostlistsRegistry/pkg/services"
	"github.com/nonomal/HostlistsRegistry/pkg/services/index"
	"github.com/nonomal/HostlistsRegistry/pkg/services/source"
)

// Loader reads the declared services from the source artifact.
type Loader interface {
	Load(path string) (services.Declared, error)
}

// IndexSupplier builds the on-disk index from the definition files present in dir.
type IndexSupplier interface {
	Build(dir string, fileNames []string) (services.Index, error)
}

// Reconciler compares declared services with the on-disk index and restores
// the missing definition files.
type Reconciler struct {
	fs       afero.Fs
	ext      string
	logger   *zerolog.Logger
	recorder Recorder
	loader   Loader
	indexer  IndexSupplier
	dryRun   bool
}

// New creates a Reconciler with options.
func New(opts ...Option) (*Reconciler, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	r := &Reconciler{
		fs:       o.fs,
		ext:      o.ext,
		logger:   o.logger,
		recorder: o.recorder,
		loader:   o.loader,
		indexer:  o.indexer,
		dryRun:   o.dryRun,
	}
	if r.loader == nil {
		r.loader = source.New(source.WithFS(o.fs))
	}
	if r.indexer == nil {
		r.indexer = index.New(
			index.WithFS(o.fs),
			index.WithExtension(o.ext),
			index.WithLogger(o.logger),
		)
	}
	return r, nil
}

// Reconcile writes every declared service missing from index into outputDir.
//
// Services are written one at a time in declaration order. A failed write
// aborts the run with a WriteError; files written before it stay on disk.
// With an empty missing set nothing is written and nothing is logged.
func (r *Reconciler) Reconcile(declared services.Declared, idx services.Index, outputDir string) (*Report, error) {
	missing := services.Missing(declared, idx)

	report := &Report{
		Missing: missing.IDs(),
		DryRun:  r.dryRun,
	}
	if len(missing) == 0 {
		r.logger.Debug().
			Int("declared", len(declared)).
			Int("on_disk", len(idx)).
			Msg("All declared services are present")
		return report, nil
	}

	if r.dryRun {
		r.logger.Warn().
			Strs("services", report.Missing).
			Msgf("These services have been removed: %s, and would be restored", strings.Join(report.Missing, ", "))
		return report, nil
	}

	for _, record := range missing {
		path, err := r.write(record, outputDir)
		if err != nil {
			return nil, errors.NewWriteError(path, record.ID, report.Restored, err)
		}
		r.recorder.IncRestored(record.ID)
		report.Restored = append(report.Restored, record.ID)
	}

	r.logger.Warn().
		Strs("services", report.Restored).
		Msgf("These services have been removed: %s, and were restored", strings.Join(report.Restored, ", "))

	return report, nil
}

// Restore runs a full reconciliation: it loads the declared services from
// sourcePath, indexes fileNames inside dir and restores what is missing.
func (r *Reconciler) Restore(sourcePath string, fileNames []string, dir string) (*Report, error) {
	start := time.Now()

	report, err := r.restore(sourcePath, fileNames, dir)
	if err != nil {
		r.recorder.ObserveRun(OutcomeFailed, time.Since(start))
		return nil, err
	}

	r.recorder.ObserveRun(report.outcome(), time.Since(start))
	return report, nil
}

func (r *Reconciler) restore(sourcePath string, fileNames []string, dir string) (*Report, error) {
	declared, err := r.loader.Load(sourcePath)
	if err != nil {
		if errors.IsLoadError(err) {
			r.logger.Error().
				Err(err).
				Str("path", sourcePath).
				Msgf("Error while reading file %s", sourcePath)
		}
		return nil, err
	}
	r.recorder.SetDeclared(len(declared))

	idx, err := r.indexer.Build(dir, fileNames)
	if err != nil {
		return nil, err
	}
	r.recorder.SetOnDisk(len(idx))

	return r.Reconcile(declared, idx, dir)
}

// write serializes record into its definition file, replacing a stale one.
func (r *Reconciler) write(record services.Record, dir string) (string, error) {
	path := filepath.Join(dir, services.FileName(record.ID, r.ext))

	data, err := services.Encode(record)
	if err != nil {
		return path, err
	}

	return path, afero.WriteFile(r.fs, path, data, constants.FilePermissions)
}
