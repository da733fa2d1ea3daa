package classify

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// ManifestTarget is one module of an upstream build manifest.
type ManifestTarget struct {
	Srcs         []string `json:"srcs,omitempty"`
	Hdrs         []string `json:"hdrs,omitempty"`
	InternalHdrs []string `json:"internal_hdrs,omitempty"`
	Asm          []string `json:"asm,omitempty"`
	Nasm         []string `json:"nasm,omitempty"`
	Data         []string `json:"data,omitempty"`
}

func (t ManifestTarget) field(name string) ([]string, bool) {
	switch name {
	case "srcs":
		return t.Srcs, true
	case "hdrs":
		return t.Hdrs, true
	case "internal_hdrs":
		return t.InternalHdrs, true
	case "asm":
		return t.Asm, true
	case "nasm":
		return t.Nasm, true
	case "data":
		return t.Data, true
	default:
		return nil, false
	}
}

// ManifestClassifier reads a pre-generated manifest from the checkout and merges
// module sub-lists into unified categories.
type ManifestClassifier struct {
	Path  string              // relative to the checkout root
	Merge map[string][]string // category -> ["module.field", ...]
	Asm   []string            // "module.field" sources grouped by (os, arch)
	// GenericAsm receives Asm entries that name no os/arch, such as
	// "crypto/curve25519/asm/x25519-asm-arm.S". Empty means such entries fail.
	GenericAsm string
}

// Classify implements Classifier.
func (m *ManifestClassifier) Classify(_ context.Context, root string) (*fileset.FileSet, error) {
	manifestPath, err := fileset.Resolve(root, m.Path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.ClassificationFailure("manifest not readable").
			WithCause(err).
			WithContext("path", m.Path).
			Build()
	}
	modules, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	return m.merge(modules)
}

// ParseManifest decodes a manifest of module name -> ManifestTarget.
func ParseManifest(data []byte) (map[string]ManifestTarget, error) {
	var modules map[string]ManifestTarget
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, errors.ClassificationFailure("malformed manifest").WithCause(err).Build()
	}
	if len(modules) == 0 {
		return nil, errors.ClassificationFailure("manifest lists no modules").Build()
	}
	return modules, nil
}

func (m *ManifestClassifier) merge(modules map[string]ManifestTarget) (*fileset.FileSet, error) {
	fs := fileset.New()

	categories := make([]string, 0, len(m.Merge))
	for c := range m.Merge {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		var files []string
		for _, source := range m.Merge[category] {
			list, err := lookup(modules, source)
			if err != nil {
				return nil, err
			}
			files = append(files, list...)
		}
		if err := fs.Add(category, files...); err != nil {
			return nil, err
		}
	}

	if m.GenericAsm != "" && len(m.Asm) > 0 {
		if err := fs.Add(m.GenericAsm); err != nil {
			return nil, err
		}
	}
	for _, source := range m.Asm {
		list, err := lookup(modules, source)
		if err != nil {
			return nil, err
		}
		for _, f := range list {
			osName, arch, err := AsmKey(f)
			if err != nil {
				if m.GenericAsm == "" {
					return nil, err
				}
				if err := fs.Add(m.GenericAsm, f); err != nil {
					return nil, err
				}
				continue
			}
			if err := fs.AddAsm(osName, arch, f); err != nil {
				return nil, err
			}
		}
	}
	return fs, nil
}

func lookup(modules map[string]ManifestTarget, source string) ([]string, error) {
	module, field, ok := strings.Cut(source, ".")
	if !ok {
		return nil, errors.ValidationError("manifest source must be module.field").
			WithContext("source", source).
			Build()
	}
	target, ok := modules[module]
	if !ok {
		return nil, errors.ClassificationFailure("manifest is missing expected module").
			WithContext("module", module).
			Build()
	}
	list, ok := target.field(field)
	if !ok {
		return nil, errors.ClassificationFailure("unknown manifest field").
			WithContext("module", module).
			WithContext("field", field).
			Build()
	}
	return list, nil
}

var knownOS = map[string]string{
	"linux":   "linux",
	"apple":   "apple",
	"mac":     "mac",
	"ios":     "ios",
	"win":     "win",
	"windows": "win",
}

var knownArch = map[string]string{
	"x86_64":  "x86_64",
	"x86":     "x86",
	"586":     "x86",
	"aarch64": "aarch64",
	"armv8":   "aarch64",
	"arm":     "arm",
	"armv4":   "arm",
	"armv7":   "arm",
	"ppc64le": "ppc64le",
	"riscv64": "riscv64",
}

// archSuffixes lists knownArch keys longest first so "_x86_64" wins over "_x86".
var archSuffixes = func() []string {
	keys := make([]string, 0, len(knownArch))
	for k := range knownArch {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// archToken matches a dash token that is an architecture, or ends in one after
// an underscore ("chacha20_poly1305_armv8").
func archToken(tok string) (string, bool) {
	if arch, ok := knownArch[tok]; ok {
		return arch, true
	}
	for _, k := range archSuffixes {
		if strings.HasSuffix(tok, "_"+k) {
			return knownArch[k], true
		}
	}
	return "", false
}

// AsmKey derives (os, arch) for an assembly file, either from an "<os>/<arch>/"
// directory pair or from file names such as "aesni-gcm-x86_64-win.asm" or
// "bn-586-linux.S", where the last dash token is the OS and the nearest known
// architecture token precedes it.
func AsmKey(p string) (string, string, error) {
	parts := strings.Split(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	for i := 0; i+2 < len(parts); i++ {
		osName, okOS := knownOS[parts[i]]
		arch, okArch := knownArch[parts[i+1]]
		if okOS && okArch {
			return osName, arch, nil
		}
	}

	base := parts[len(parts)-1]
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	tokens := strings.Split(base, "-")
	if osName, ok := knownOS[tokens[len(tokens)-1]]; ok {
		for i := len(tokens) - 2; i >= 0; i-- {
			if arch, ok := archToken(tokens[i]); ok {
				return osName, arch, nil
			}
		}
	}

	return "", "", errors.ClassificationFailure("cannot determine os/arch of assembly file").
		WithContext("path", p).
		Build()
}
