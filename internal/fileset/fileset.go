// Package fileset holds the classified view of an upstream checkout: named
// categories of relative paths plus assembly groups keyed by (OS, arch).
package fileset

import (
	"fmt"
	"path"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// AsmGroup is the set of assembly files built for one operating system and architecture.
type AsmGroup struct {
	OS    string   `json:"os"`
	Arch  string   `json:"arch"`
	Files []string `json:"files"`
}

// Key returns the "<os>_<arch>" suffix used for build variable names.
func (g AsmGroup) Key() string { return g.OS + "_" + g.Arch }

// FileSet maps category names to sorted, deduplicated paths relative to the checkout root.
type FileSet struct {
	Categories map[string][]string
	Asm        []AsmGroup
}

// New returns an empty FileSet.
func New() *FileSet {
	return &FileSet{Categories: make(map[string][]string)}
}

// Add merges paths into category. Paths are cleaned, validated and kept sorted.
func (fs *FileSet) Add(category string, paths ...string) error {
	if category == "" {
		return errors.ClassificationFailure("empty category name").Build()
	}
	set := PathSet{}
	set.Add(fs.Categories[category]...)
	for _, p := range paths {
		clean, err := CleanRelative(p)
		if err != nil {
			return err
		}
		set.Add(clean)
	}
	fs.Categories[category] = set.Sorted()
	return nil
}

// AddAsm merges files into the group for (osName, arch).
func (fs *FileSet) AddAsm(osName, arch string, files ...string) error {
	if osName == "" || arch == "" {
		return errors.ClassificationFailure("assembly group without os/arch").
			WithContext("os", osName).
			WithContext("arch", arch).
			Build()
	}
	idx := -1
	for i, g := range fs.Asm {
		if g.OS == osName && g.Arch == arch {
			idx = i
			break
		}
	}
	if idx < 0 {
		fs.Asm = append(fs.Asm, AsmGroup{OS: osName, Arch: arch})
		idx = len(fs.Asm) - 1
	}
	set := PathSet{}
	set.Add(fs.Asm[idx].Files...)
	for _, f := range files {
		clean, err := CleanRelative(f)
		if err != nil {
			return err
		}
		set.Add(clean)
	}
	fs.Asm[idx].Files = set.Sorted()
	sort.Slice(fs.Asm, func(i, j int) bool { return fs.Asm[i].Key() < fs.Asm[j].Key() })
	return nil
}

// Has reports whether category was reported, even if empty.
func (fs *FileSet) Has(category string) bool {
	_, ok := fs.Categories[category]
	return ok
}

// Get returns the paths of category, nil when absent.
func (fs *FileSet) Get(category string) []string {
	return fs.Categories[category]
}

// CategoryNames returns the reported categories in sorted order.
func (fs *FileSet) CategoryNames() []string {
	names := make([]string, 0, len(fs.Categories))
	for k := range fs.Categories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Require fails with a classification error naming the first absent category.
func (fs *FileSet) Require(categories ...string) error {
	for _, c := range categories {
		if !fs.Has(c) {
			return errors.ClassificationFailure("missing required category").
				WithContext("category", c).
				Build()
		}
	}
	return nil
}

// Union returns the sorted, deduplicated paths of the given categories plus every
// assembly group when includeAsm is set. Unknown categories contribute nothing.
func (fs *FileSet) Union(categories []string, includeAsm bool) []string {
	set := PathSet{}
	for _, c := range categories {
		set.Add(fs.Categories[c]...)
	}
	if includeAsm {
		for _, g := range fs.Asm {
			set.Add(g.Files...)
		}
	}
	return set.Sorted()
}

// Count returns the number of distinct paths across all categories and assembly groups.
func (fs *FileSet) Count() int {
	return len(fs.Union(fs.CategoryNames(), true))
}

// CleanRelative normalises p to a slash-separated path relative to the checkout root.
// Absolute paths and paths escaping the root are rejected.
func CleanRelative(p string) (string, error) {
	slashed := strings.ReplaceAll(p, "\\", "/")
	if slashed == "" || path.IsAbs(slashed) {
		return "", traversal(p)
	}
	clean := path.Clean(slashed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", traversal(p)
	}
	return clean, nil
}

// Resolve joins a validated relative path onto root without following symlinks out of it.
func Resolve(root, rel string) (string, error) {
	clean, err := CleanRelative(rel)
	if err != nil {
		return "", err
	}
	joined, err := securejoin.SecureJoin(root, clean)
	if err != nil {
		return "", fmt.Errorf("resolve %s under %s: %w", rel, root, err)
	}
	return joined, nil
}

func traversal(p string) error {
	return errors.ClassificationFailure("path escapes checkout root").
		WithContext("path", p).
		Build()
}
