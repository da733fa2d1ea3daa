// Package stage builds replacement trees beside their final location and swaps
// them in with renames once every step has succeeded.
package stage

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/logfields"
)

// Stage is a sibling directory that will replace Final on Commit.
type Stage struct {
	final  string
	path   string
	backup string
	done   bool
}

// New creates an empty staging directory next to final. The parent of final is
// created if needed so the later rename stays on one filesystem.
func New(final string) (*Stage, error) {
	final = filepath.Clean(final)
	parent := filepath.Dir(final)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, errors.FileSystemFailure(err, "create stage parent").WithContext("path", parent).Build()
	}
	p, err := os.MkdirTemp(parent, "."+filepath.Base(final)+".stage-")
	if err != nil {
		return nil, errors.FileSystemFailure(err, "create stage").WithContext("path", final).Build()
	}
	if err := os.Chmod(p, 0o755); err != nil {
		_ = os.RemoveAll(p)
		return nil, errors.FileSystemFailure(err, "chmod stage").WithContext("path", p).Build()
	}
	return &Stage{final: final, path: p}, nil
}

// Path is where the replacement tree is written.
func (s *Stage) Path() string { return s.path }

// Final is the location the stage replaces.
func (s *Stage) Final() string { return s.final }

// Discard removes the staging directory. It is a no-op after a successful Commit.
func (s *Stage) Discard() {
	if s.done {
		return
	}
	if err := os.RemoveAll(s.path); err != nil {
		slog.Warn("Failed to remove stage", logfields.Path(s.path), logfields.Error(err))
	}
}

func (s *Stage) swap() error {
	if _, err := os.Lstat(s.final); err == nil {
		s.backup = s.path + ".old"
		if err := os.Rename(s.final, s.backup); err != nil {
			s.backup = ""
			return errors.FileSystemFailure(err, "move previous tree aside").WithContext("path", s.final).Build()
		}
	} else if !os.IsNotExist(err) {
		return errors.FileSystemFailure(err, "stat previous tree").WithContext("path", s.final).Build()
	}
	if err := os.Rename(s.path, s.final); err != nil {
		if s.backup != "" {
			_ = os.Rename(s.backup, s.final)
			s.backup = ""
		}
		return errors.FileSystemFailure(err, "move stage into place").WithContext("path", s.final).Build()
	}
	s.done = true
	return nil
}

func (s *Stage) restore() {
	if !s.done {
		return
	}
	if err := os.Rename(s.final, s.path); err != nil {
		slog.Error("Failed to roll back staged tree", logfields.Path(s.final), logfields.Error(err))
		return
	}
	if s.backup != "" {
		if err := os.Rename(s.backup, s.final); err != nil {
			slog.Error("Failed to restore previous tree", logfields.Path(s.final), logfields.Error(err))
			return
		}
		s.backup = ""
	}
	s.done = false
}

func (s *Stage) finish() {
	if s.backup == "" {
		return
	}
	if err := os.RemoveAll(s.backup); err != nil {
		slog.Warn("Failed to remove previous tree", logfields.Path(s.backup), logfields.Error(err))
	}
	s.backup = ""
}

// Commit swaps every stage into place. If any swap fails, stages already
// swapped are rolled back so the previous trees stay as they were.
func Commit(stages ...*Stage) error {
	for i, s := range stages {
		if err := s.swap(); err != nil {
			for j := i - 1; j >= 0; j-- {
				stages[j].restore()
			}
			return err
		}
	}
	for _, s := range stages {
		s.finish()
	}
	return nil
}
