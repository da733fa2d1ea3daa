package classify

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// defaultExcludes are never classified, whatever the configuration says.
var defaultExcludes = []string{".git"}

// GlobClassifier assigns checkout files to categories by doublestar pattern.
// Every pattern must match at least one file that is not excluded.
type GlobClassifier struct {
	Globs map[string][]string
	// Exclude drops matching files, and everything below matching directories,
	// from every category.
	Exclude []string
}

// Classify implements Classifier.
func (g *GlobClassifier) Classify(ctx context.Context, root string) (*fileset.FileSet, error) {
	for _, pattern := range g.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, invalidPattern(pattern, nil)
		}
	}

	categories := make([]string, 0, len(g.Globs))
	for c := range g.Globs {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	fsys := os.DirFS(root)
	out := fileset.New()
	for _, category := range categories {
		var matched []string
		for _, pattern := range g.Globs[category] {
			files, err := g.match(ctx, fsys, pattern)
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				return nil, errors.ClassificationFailure("glob matched no files").
					WithContext("category", category).
					WithContext("pattern", pattern).
					Build()
			}
			matched = append(matched, files...)
		}
		if err := out.Add(category, matched...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// match returns the regular, non-excluded files pattern selects.
func (g *GlobClassifier) match(ctx context.Context, fsys fs.FS, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, invalidPattern(pattern, nil)
	}
	var files []string
	err := doublestar.GlobWalk(fsys, pattern, func(p string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() || g.excluded(p) {
			return nil
		}
		files = append(files, p)
		return nil
	}, doublestar.WithFilesOnly(), doublestar.WithNoFollow())
	switch {
	case err == nil:
		return files, nil
	case stderrors.Is(err, doublestar.ErrBadPattern):
		return nil, invalidPattern(pattern, err)
	default:
		return nil, errors.FileSystemFailure(err, "walk checkout").WithContext("pattern", pattern).Build()
	}
}

// excluded reports whether p or one of its parent directories matches an
// exclude pattern.
func (g *GlobClassifier) excluded(p string) bool {
	for candidate := p; candidate != "." && candidate != "/"; candidate = path.Dir(candidate) {
		for _, patterns := range [][]string{defaultExcludes, g.Exclude} {
			for _, pattern := range patterns {
				if ok, err := doublestar.Match(pattern, candidate); err == nil && ok {
					return true
				}
			}
		}
	}
	return false
}

func invalidPattern(pattern string, cause error) error {
	b := errors.ValidationError("invalid glob pattern").WithContext("pattern", pattern)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}
