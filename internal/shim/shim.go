// Package shim writes thin wrapper files for platforms whose packaging cannot
// reference sources outside a designated subtree. Each shim textually includes
// the real vendored file through a path relative to the shim's own directory.
package shim

import (
	"bytes"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/vendorroll/internal/banner"
	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/materialize"
)

// Generator renders shims for one target.
type Generator struct {
	SourcePrefix string
	Banner       banner.Banner
}

// FromTarget builds a Generator from a target configuration.
func FromTarget(t *config.Target) *Generator {
	return &Generator{
		SourcePrefix: t.SourcePrefix,
		Banner:       banner.Banner{License: t.BuildFile.License, Command: t.BuildFile.Command},
	}
}

// Sources returns the checkout-relative paths that need a shim.
func Sources(fs *fileset.FileSet, categories []string) []string {
	return fs.Union(categories, false)
}

// Generate writes one shim per source. The include path is computed from
// shimRoot to destinationRoot; the file itself is written under writeRoot,
// which equals shimRoot unless the caller stages the tree elsewhere.
// It returns the number of shims written.
func (g *Generator) Generate(sources []string, destinationRoot, shimRoot, writeRoot string) (int, error) {
	destAbs, err := filepath.Abs(destinationRoot)
	if err != nil {
		return 0, errors.FileSystemFailure(err, "resolve destination").Build()
	}
	shimAbs, err := filepath.Abs(shimRoot)
	if err != nil {
		return 0, errors.FileSystemFailure(err, "resolve shim root").Build()
	}

	for i, src := range sources {
		clean, err := fileset.CleanRelative(src)
		if err != nil {
			return i, err
		}
		rel := path.Join(g.SourcePrefix, clean)

		content, err := g.Render(rel, destAbs, shimAbs)
		if err != nil {
			return i, err
		}
		target, err := fileset.Resolve(writeRoot, rel)
		if err != nil {
			return i, err
		}
		if err := materialize.WriteFile(target, content); err != nil {
			return i, err
		}
	}
	return len(sources), nil
}

// Render returns the shim content for the destination-relative path rel.
func (g *Generator) Render(rel, destinationRoot, shimRoot string) ([]byte, error) {
	native := filepath.FromSlash(rel)
	shimDir := filepath.Dir(filepath.Join(shimRoot, native))
	include, err := filepath.Rel(shimDir, filepath.Join(destinationRoot, native))
	if err != nil {
		return nil, errors.InternalError("cannot compute include path").
			WithCause(err).
			WithContext("path", rel).
			Build()
	}
	include = filepath.ToSlash(include)

	var buf bytes.Buffer
	if isNASM(rel) {
		buf.WriteString(g.Banner.Semicolon())
		buf.WriteString("\n%include \"" + include + "\"\n")
	} else {
		buf.WriteString(g.Banner.C())
		buf.WriteString("\n#include \"" + include + "\"\n")
	}
	return buf.Bytes(), nil
}

// isNASM reports files assembled by nasm, which neither understands C comments
// nor the cpp #include directive.
func isNASM(p string) bool {
	return strings.EqualFold(path.Ext(p), ".asm")
}
