package config

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the versioned vendoring configuration (vendor.yaml).
// Every target carries its own revision pointer; only the bump command rewrites it.
type Config struct {
	Version      int      `yaml:"version"`
	WorkspaceDir string   `yaml:"workspace_dir,omitempty"` // base for ephemeral workspaces, os.TempDir when empty
	Targets      []Target `yaml:"targets"`

	// Path is the file the configuration was loaded from.
	Path string `yaml:"-"`
	// Root is the host project root that relative destinations resolve against.
	Root string `yaml:"-"`
}

// Fetcher backends.
const (
	FetcherGoGit = "gogit"
	FetcherExec  = "exec"
)

// Classifier strategies.
const (
	StrategyGenerator = "generator"
	StrategyManifest  = "manifest"
	StrategyGlob      = "glob"
)

// Build file formats.
const (
	FormatCMake = "cmake"
	FormatGN    = "gn"
)

// Target is one upstream project to vendor.
type Target struct {
	Name       string `yaml:"name"`
	Repository string `yaml:"repository"`
	Revision   string `yaml:"revision"`
	Branch     string `yaml:"branch,omitempty"`  // branch consulted by bump, defaults to "main"
	Fetcher    string `yaml:"fetcher,omitempty"` // gogit|exec

	Destination  string `yaml:"destination"`
	SourcePrefix string `yaml:"source_prefix,omitempty"` // checkout root lands at destination/source_prefix

	Classifier ClassifierConfig `yaml:"classifier"`

	Required          []string      `yaml:"required,omitempty"`
	Copy              []string      `yaml:"copy,omitempty"`
	CopyAsm           *bool         `yaml:"copy_asm,omitempty"`
	Variables         []Variable    `yaml:"variables,omitempty"`
	AsmVariablePrefix string        `yaml:"asm_variable_prefix,omitempty"`
	Retain            []string      `yaml:"retain,omitempty"`
	ExtraFiles        []ExtraFile   `yaml:"extra_files,omitempty"`
	Notice            *NoticeConfig `yaml:"notice,omitempty"`

	BuildFile BuildFileConfig `yaml:"build_file"`
	Shims     *ShimConfig     `yaml:"shims,omitempty"`

	RequiredTools []string `yaml:"required_tools,omitempty"`
}

// ClassifierConfig selects and parameterises the file classification strategy.
type ClassifierConfig struct {
	Strategy string `yaml:"strategy"`

	// generator: command run inside the checkout that reports file sets as JSON on stdout.
	Command []string `yaml:"command,omitempty"`

	// manifest: JSON file inside the checkout, unified category -> ["module.field", ...].
	Manifest   string              `yaml:"manifest,omitempty"`
	Merge      map[string][]string `yaml:"merge,omitempty"`
	Asm        []string            `yaml:"asm,omitempty"`
	AsmGeneric string              `yaml:"asm_generic,omitempty"` // category for asm with no os/arch

	// glob: category -> doublestar patterns relative to the checkout root.
	// Paths matching an exclude pattern, or lying under a matching directory,
	// are never classified.
	Globs   map[string][]string `yaml:"globs,omitempty"`
	Exclude []string            `yaml:"exclude,omitempty"`
}

// Variable names a build-file variable holding one category.
type Variable struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// ExtraFile copies a checkout file to an arbitrary destination-relative path.
type ExtraFile struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// NoticeConfig writes a generated README into the destination root.
type NoticeConfig struct {
	Path string `yaml:"path,omitempty"`
	Text string `yaml:"text"`
}

// BuildFileConfig describes the generated build-system fragment.
type BuildFileConfig struct {
	Path      string `yaml:"path,omitempty"`       // relative to destination
	Format    string `yaml:"format,omitempty"`     // cmake|gn
	RootToken string `yaml:"root_token,omitempty"` // e.g. ${BORINGSSL_ROOT}
	Command   string `yaml:"command,omitempty"`    // regeneration command named in the banner
	License   string `yaml:"license,omitempty"`    // license header text, one line per comment line
}

// ShimConfig requests include-shims for platforms that cannot reference files outside Root.
type ShimConfig struct {
	Root       string   `yaml:"root"`
	Categories []string `yaml:"categories"`
}

var tokenSanitizer = regexp.MustCompile(`[^A-Z0-9]+`)

// DefaultRootToken derives "${NAME_ROOT}" from a target name.
func DefaultRootToken(name string) string {
	return "${" + tokenSanitizer.ReplaceAllString(strings.ToUpper(name), "") + "_ROOT}"
}

// Target returns the named target.
func (c *Config) Target(name string) (*Target, bool) {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i], true
		}
	}
	return nil, false
}

// Resolve returns p relative to the host project root unless already absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, filepath.FromSlash(p))
}

// ShouldCopyAsm reports whether assembly groups are materialized (default true).
func (t *Target) ShouldCopyAsm() bool {
	return t.CopyAsm == nil || *t.CopyAsm
}

// CopyCategories returns every category whose files land in the destination:
// explicit copy entries plus categories referenced by build variables and shims.
func (t *Target) CopyCategories() []string {
	seen := map[string]bool{}
	var out []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range t.Copy {
		add(c)
	}
	for _, v := range t.Variables {
		add(v.Category)
	}
	if t.Shims != nil {
		for _, c := range t.Shims.Categories {
			add(c)
		}
	}
	return out
}
