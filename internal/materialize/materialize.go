package materialize

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/logfields"
)

// Options controls which files land in the destination and where.
type Options struct {
	SourcePrefix string   // checkout root maps to destination/SourcePrefix
	Categories   []string // categories copied to the destination
	IncludeAsm   bool
	Retain       []string // metadata files copied regardless of classification
	ExtraFiles   []config.ExtraFile
	Notice       *config.NoticeConfig
}

// FromTarget derives materialization options from a target configuration.
func FromTarget(t *config.Target) Options {
	return Options{
		SourcePrefix: t.SourcePrefix,
		Categories:   t.CopyCategories(),
		IncludeAsm:   t.ShouldCopyAsm(),
		Retain:       t.Retain,
		ExtraFiles:   t.ExtraFiles,
		Notice:       t.Notice,
	}
}

// Materializer copies classified files from a workspace into a destination tree.
type Materializer struct {
	opts Options
}

// New returns a Materializer for opts.
func New(opts Options) *Materializer {
	return &Materializer{opts: opts}
}

// Materialize wipes destinationRoot and copies into it every file of the
// configured categories plus retained and extra files. It returns the number of
// files written.
func (m *Materializer) Materialize(fs *fileset.FileSet, workspaceRoot, destinationRoot string) (int, error) {
	if err := os.RemoveAll(destinationRoot); err != nil {
		return 0, errors.FileSystemFailure(err, "wipe destination").WithContext("path", destinationRoot).Build()
	}
	if err := os.MkdirAll(destinationRoot, 0o755); err != nil {
		return 0, errors.FileSystemFailure(err, "create destination").WithContext("path", destinationRoot).Build()
	}

	files := fs.Union(m.opts.Categories, m.opts.IncludeAsm)
	retained := fileset.PathSet{}
	for _, r := range m.opts.Retain {
		clean, err := fileset.CleanRelative(r)
		if err != nil {
			return 0, err
		}
		retained.Add(clean)
	}
	set := fileset.PathSet{}
	set.Add(files...)
	set.Add(retained.Sorted()...)

	written := 0
	for _, rel := range set.Sorted() {
		src, err := fileset.Resolve(workspaceRoot, rel)
		if err != nil {
			return written, err
		}
		dst, err := securejoin.SecureJoin(destinationRoot, path.Join(m.opts.SourcePrefix, rel))
		if err != nil {
			return written, errors.MaterializationFailure("destination path is not confined").
				WithCause(err).
				WithContext("path", rel).
				Build()
		}
		if err := copyFile(src, dst, rel); err != nil {
			return written, err
		}
		written++
	}

	for _, extra := range m.opts.ExtraFiles {
		from, err := fileset.CleanRelative(extra.From)
		if err != nil {
			return written, err
		}
		src, err := fileset.Resolve(workspaceRoot, from)
		if err != nil {
			return written, err
		}
		dst, err := securejoin.SecureJoin(destinationRoot, extra.To)
		if err != nil {
			return written, errors.MaterializationFailure("extra file target is not confined").
				WithCause(err).
				WithContext("path", extra.To).
				Build()
		}
		if err := copyFile(src, dst, from); err != nil {
			return written, err
		}
		written++
	}

	if m.opts.Notice != nil {
		dst, err := securejoin.SecureJoin(destinationRoot, m.opts.Notice.Path)
		if err != nil {
			return written, errors.MaterializationFailure("notice path is not confined").WithCause(err).Build()
		}
		if err := WriteFile(dst, []byte(m.opts.Notice.Text)); err != nil {
			return written, err
		}
		written++
	}

	slog.Debug("Materialized destination", logfields.Path(destinationRoot), logfields.Count(written))
	return written, nil
}

// WriteFile writes data to p, creating parent directories.
func WriteFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.FileSystemFailure(err, "create directory").WithContext("path", filepath.Dir(p)).Build()
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return errors.FileSystemFailure(err, "write file").WithContext("path", p).Build()
	}
	return nil
}

// copyFile copies src to dst byte-for-byte keeping the permission bits.
// A missing source is a MaterializationFailure; other IO problems are FileSystemFailure.
func copyFile(src, dst, rel string) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.MaterializationFailure("expected file is missing from checkout").
				WithCause(err).
				WithContext("path", rel).
				Build()
		}
		return errors.FileSystemFailure(err, "open source").WithContext("path", rel).Build()
	}
	defer func() { _ = srcFile.Close() }()

	info, err := srcFile.Stat()
	if err != nil {
		return errors.FileSystemFailure(err, "stat source").WithContext("path", rel).Build()
	}
	if !info.Mode().IsRegular() {
		return errors.MaterializationFailure("classified path is not a regular file").
			WithContext("path", rel).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.FileSystemFailure(err, "create directory").WithContext("path", filepath.Dir(dst)).Build()
	}
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.FileSystemFailure(err, "create destination file").WithContext("path", dst).Build()
	}
	defer func() {
		if closeErr := dstFile.Close(); closeErr != nil && err == nil {
			err = errors.FileSystemFailure(closeErr, "close destination file").WithContext("path", dst).Build()
		}
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return errors.FileSystemFailure(fmt.Errorf("copy %s: %w", rel, err), "copy file").Build()
	}
	// OpenFile honours umask; restore the source bits explicitly.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return errors.FileSystemFailure(err, "chmod destination file").WithContext("path", dst).Build()
	}
	return nil
}
