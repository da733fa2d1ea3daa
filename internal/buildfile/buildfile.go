// Package buildfile renders the generated build-system fragment that lists
// every vendored file set as a named variable.
package buildfile

import (
	"bytes"
	"path"
	"sort"

	"git.home.luguber.info/inful/vendorroll/internal/banner"
	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/materialize"
)

// Writer renders one build manifest.
type Writer struct {
	Path         string // relative to the destination root
	Format       string
	RootToken    string
	SourcePrefix string
	Banner       banner.Banner
	Variables    []config.Variable
	AsmPrefix    string // empty disables per-(os, arch) variables
}

// FromTarget builds a Writer from a target configuration.
func FromTarget(t *config.Target) *Writer {
	return &Writer{
		Path:         t.BuildFile.Path,
		Format:       t.BuildFile.Format,
		RootToken:    t.BuildFile.RootToken,
		SourcePrefix: t.SourcePrefix,
		Banner:       banner.Banner{License: t.BuildFile.License, Command: t.BuildFile.Command},
		Variables:    t.Variables,
		AsmPrefix:    t.AsmVariablePrefix,
	}
}

type block struct {
	name  string
	files []string
}

// Render returns the manifest bytes for fs. Output depends only on its inputs:
// blocks are sorted by variable name and each file list is sorted and deduplicated.
func (w *Writer) Render(fs *fileset.FileSet) ([]byte, error) {
	blocks := make([]block, 0, len(w.Variables)+len(fs.Asm))
	for _, v := range w.Variables {
		if !fs.Has(v.Category) {
			return nil, errors.ClassificationFailure("build variable refers to a missing category").
				WithContext("variable", v.Name).
				WithContext("category", v.Category).
				Build()
		}
		blocks = append(blocks, block{name: v.Name, files: fs.Get(v.Category)})
	}
	if w.AsmPrefix != "" {
		for _, g := range fs.Asm {
			blocks = append(blocks, block{name: w.AsmPrefix + "_" + g.Key(), files: g.Files})
		}
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].name < blocks[j].name })
	for i := 1; i < len(blocks); i++ {
		if blocks[i].name == blocks[i-1].name {
			return nil, errors.ValidationError("duplicate build variable").
				WithContext("variable", blocks[i].name).
				Build()
		}
	}

	var buf bytes.Buffer
	buf.WriteString(w.Banner.Hash())
	for _, b := range blocks {
		buf.WriteString("\n")
		set := fileset.PathSet{}
		set.Add(b.files...)
		entries := set.Sorted()
		for i, f := range entries {
			entries[i] = w.RootToken + path.Join(w.SourcePrefix, f)
		}
		switch w.Format {
		case config.FormatGN:
			writeGN(&buf, b.name, entries)
		case config.FormatCMake, "":
			writeCMake(&buf, b.name, entries)
		default:
			return nil, errors.ValidationError("unknown build file format").
				WithContext("format", w.Format).
				Build()
		}
	}
	return buf.Bytes(), nil
}

// Write renders fs and stores it at Path under destinationRoot.
func (w *Writer) Write(fs *fileset.FileSet, destinationRoot string) error {
	data, err := w.Render(fs)
	if err != nil {
		return err
	}
	target, err := fileset.Resolve(destinationRoot, w.Path)
	if err != nil {
		return err
	}
	return materialize.WriteFile(target, data)
}

func writeCMake(buf *bytes.Buffer, name string, entries []string) {
	buf.WriteString("set(" + name + "\n")
	for _, e := range entries {
		buf.WriteString("  " + e + "\n")
	}
	buf.WriteString(")\n")
}

func writeGN(buf *bytes.Buffer, name string, entries []string) {
	buf.WriteString(name + " = [\n")
	for _, e := range entries {
		buf.WriteString("  \"" + e + "\",\n")
	}
	buf.WriteString("]\n")
}
