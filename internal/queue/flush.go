package queue

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/nirtamir-cli/cli/internal/document"
	"github.com/nirtamir-cli/cli/internal/filelock"
	"github.com/nirtamir-cli/cli/internal/logger"
	"github.com/nirtamir-cli/cli/internal/pkgmanager"
	"github.com/nirtamir-cli/cli/internal/runner"
)

// Flusher applies queued records to the project in Dir.
//
// Each Flush* method handles one category and may be called on its own; none
// of them removes records from the queue. Failures are reported per record as
// *RecordError values combined with multierr, and never stop the remaining
// records from being attempted.
type Flusher struct {
	Dir    string
	Runner runner.Runner
	// Detect picks the package manager. It is called at most once per
	// install step.
	Detect func(dir string) (pkgmanager.Manager, error)
	// Wrap, when set, runs each non-empty category step of FlushAll. The
	// CLI uses it to show a spinner per step.
	Wrap func(c Category, step func() error) error
}

// NewFlusher returns a Flusher that runs real processes. A non-empty
// packageManager overrides detection.
func NewFlusher(dir string, r runner.Runner, packageManager string) *Flusher {
	return &Flusher{
		Dir:    dir,
		Runner: r,
		Detect: func(dir string) (pkgmanager.Manager, error) {
			return pkgmanager.Detect(dir, packageManager)
		},
	}
}

// Report lists what a FlushAll applied and what it kept in the queue.
type Report struct {
	Applied []Record
	Failed  []Record
}

// FlushAll applies every category in FlushOrder. All steps run even when an
// earlier one fails. Afterwards the queue holds only the records that failed,
// so the caller can retry or discard them.
func (f *Flusher) FlushAll(ctx context.Context, q *Queue) (Report, error) {
	snapshot := q.Records()

	var errs error
	for _, c := range FlushOrder {
		c := c
		step := func() error { return f.Flush(ctx, q, c) }
		if f.Wrap != nil && len(q.OfCategory(c)) > 0 {
			errs = multierr.Append(errs, f.Wrap(c, step))
			continue
		}
		errs = multierr.Append(errs, step())
	}

	failed := FailedRecords(errs)
	q.retain(failed)
	return Report{Applied: subtract(snapshot, failed), Failed: failed}, errs
}

// Flush applies the records of a single category.
func (f *Flusher) Flush(ctx context.Context, q *Queue, c Category) error {
	switch c {
	case CategoryFile:
		return f.FlushFiles(ctx, q)
	case CategoryScript:
		return f.FlushScripts(ctx, q)
	case CategoryPackage:
		return f.FlushPackages(ctx, q)
	case CategoryDevPackage:
		return f.FlushDevPackages(ctx, q)
	case CategoryCommand:
		return f.FlushCommands(ctx, q)
	case CategoryTypeConfig:
		return f.FlushTypeConfig(ctx, q)
	case CategoryManifest:
		return f.FlushManifest(ctx, q)
	}
	return fmt.Errorf("unknown category %q", c)
}

// FlushFiles writes every queued FileWrite. Exclusive writes onto an existing
// file fail with ErrFileAlreadyExists.
func (f *Flusher) FlushFiles(ctx context.Context, q *Queue) error {
	var errs error
	for _, r := range q.OfCategory(CategoryFile) {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, &RecordError{Record: r, Err: err})
			continue
		}
		fw := r.(FileWrite)
		if err := f.writeFile(fw); err != nil {
			logger.Error("[ERROR] Failed to write %s: %v\n", fw.Path, err)
			errs = multierr.Append(errs, &RecordError{Record: r, Err: err})
			continue
		}
		logger.Info("[INFO] Wrote %s\n", fw.Path)
	}
	return errs
}

func (f *Flusher) writeFile(fw FileWrite) error {
	path := f.path(fw.Path)
	if !fw.Exclusive {
		return filelock.AtomicWrite(path, []byte(fw.Contents))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", fw.Path, err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileAlreadyExists, fw.Path)
		}
		return err
	}
	_, werr := file.WriteString(fw.Contents)
	return multierr.Combine(werr, file.Close())
}

// FlushPackages installs every queued runtime dependency.
func (f *Flusher) FlushPackages(ctx context.Context, q *Queue) error {
	return f.install(ctx, q.OfCategory(CategoryPackage), false)
}

// FlushDevPackages installs every queued development dependency.
func (f *Flusher) FlushDevPackages(ctx context.Context, q *Queue) error {
	return f.install(ctx, q.OfCategory(CategoryDevPackage), true)
}

// install runs one package manager invocation per record, sequentially, so
// that two installs never race on the lockfile.
func (f *Flusher) install(ctx context.Context, recs []Record, dev bool) error {
	if len(recs) == 0 {
		return nil
	}

	pm, err := f.detect()
	if err != nil {
		logger.Error("[ERROR] Cannot determine package manager: %v\n", err)
		return failAll(recs, err)
	}
	logger.Debug("[DEBUG] Using package manager %s\n", pm)

	var errs error
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, &RecordError{Record: r, Err: err})
			continue
		}
		args := []string{pkgmanager.InstallSubcommand(pm)}
		if dev {
			args = append(args, pkgmanager.DevFlag(pm))
		}
		args = append(args, r.Name())

		logger.Info("[INFO] Installing %s...\n", r.Name())
		if _, err := f.Runner.Run(ctx, f.Dir, string(pm), args...); err != nil {
			err = runner.AsCommandFailure(err)
			logger.Error("[ERROR] Failed to install %s: %v\n", r.Name(), err)
			errs = multierr.Append(errs, &RecordError{Record: r, Err: err})
		}
	}
	return errs
}

// FlushCommands runs every queued shell command in order.
func (f *Flusher) FlushCommands(ctx context.Context, q *Queue) error {
	var errs error
	for _, r := range q.OfCategory(CategoryCommand) {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, &RecordError{Record: r, Err: err})
			continue
		}
		logger.Info("[INFO] Running %s\n", r.Name())
		if _, err := runner.Shell(ctx, f.Runner, f.Dir, r.Name()); err != nil {
			err = runner.AsCommandFailure(err)
			logger.Error("[ERROR] Command failed: %v\n", err)
			errs = multierr.Append(errs, &RecordError{Record: r, Err: err})
		}
	}
	return errs
}

// FlushScripts adds the queued scripts to package.json. With no queued
// scripts the manifest is not touched.
func (f *Flusher) FlushScripts(ctx context.Context, q *Queue) error {
	recs := q.OfCategory(CategoryScript)
	if len(recs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return failAll(recs, err)
	}

	path := f.path(ManifestFile)
	merged := mergeScripts(loadTarget(path), recs)
	return f.writeDocument(path, merged, recs)
}

// FlushTypeConfig merges the queued fragments into tsconfig.json.
func (f *Flusher) FlushTypeConfig(ctx context.Context, q *Queue) error {
	return f.mergeInto(ctx, TypeConfigFile, q.OfCategory(CategoryTypeConfig))
}

// FlushManifest merges the queued fragments into package.json.
func (f *Flusher) FlushManifest(ctx context.Context, q *Queue) error {
	return f.mergeInto(ctx, ManifestFile, q.OfCategory(CategoryManifest))
}

// mergeInto folds recs into the document at name. With no fragments the file
// is left byte-for-byte as it was.
func (f *Flusher) mergeInto(ctx context.Context, name string, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return failAll(recs, err)
	}

	path := f.path(name)
	merged := mergeFragments(loadTarget(path), recs)
	return f.writeDocument(path, merged, recs)
}

func (f *Flusher) writeDocument(path string, doc *document.Object, recs []Record) error {
	if err := filelock.AtomicWrite(path, document.Encode(doc)); err != nil {
		logger.Error("[ERROR] Failed to write %s: %v\n", path, err)
		return failAll(recs, err)
	}
	logger.Info("[INFO] Updated %s\n", filepath.Base(path))
	return nil
}

func (f *Flusher) detect() (pkgmanager.Manager, error) {
	if f.Detect == nil {
		return pkgmanager.Detect(f.Dir, "")
	}
	return f.Detect(f.Dir)
}

func (f *Flusher) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.Dir, name)
}

// subtract removes one occurrence of each element of remove from all.
func subtract(all, remove []Record) []Record {
	pending := make([]Record, len(remove))
	copy(pending, remove)

	var out []Record
	for _, r := range all {
		matched := false
		for i, p := range pending {
			if r == p {
				pending = append(pending[:i], pending[i+1:]...)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, r)
		}
	}
	return out
}
