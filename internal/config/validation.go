package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/normalization"
)

// Validate checks the configuration for structural problems before any run.
func Validate(cfg *Config) error {
	if len(cfg.Targets) == 0 {
		return errors.ValidationError("no targets configured").Build()
	}
	seen := map[string]bool{}
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if t.Name == "" {
			return invalid("", "name", "must not be empty")
		}
		if seen[t.Name] {
			return invalid(t.Name, "name", "duplicate target name")
		}
		seen[t.Name] = true
		if err := validateTarget(t); err != nil {
			return err
		}
	}
	return nil
}

func validateTarget(t *Target) error {
	if t.Repository == "" {
		return invalid(t.Name, "repository", "must not be empty")
	}
	if t.Revision == "" {
		return invalid(t.Name, "revision", "must not be empty")
	}
	if err := validateDestination(t.Name, "destination", t.Destination); err != nil {
		return err
	}
	if !fetchers.Valid(t.Fetcher) {
		return invalid(t.Name, "fetcher", notCanonical(fetchers, t.Fetcher))
	}
	if err := validateClassifier(t); err != nil {
		return err
	}
	if !formats.Valid(t.BuildFile.Format) {
		return invalid(t.Name, "build_file.format", notCanonical(formats, t.BuildFile.Format))
	}
	if !isRelativeInside(t.BuildFile.Path) {
		return invalid(t.Name, "build_file.path", "must be relative to the destination")
	}
	if t.SourcePrefix != "" && !isRelativeInside(t.SourcePrefix) {
		return invalid(t.Name, "source_prefix", "must be relative to the destination")
	}
	for _, v := range t.Variables {
		if v.Name == "" || v.Category == "" {
			return invalid(t.Name, "variables", "name and category are required")
		}
	}
	for _, e := range t.ExtraFiles {
		if !isRelativeInside(e.From) || !isRelativeInside(e.To) {
			return invalid(t.Name, "extra_files", "from and to must be relative paths")
		}
	}
	if t.Notice != nil && !isRelativeInside(t.Notice.Path) {
		return invalid(t.Name, "notice.path", "must be relative to the destination")
	}
	if t.Shims != nil {
		if err := validateDestination(t.Name, "shims.root", t.Shims.Root); err != nil {
			return err
		}
		if len(t.Shims.Categories) == 0 {
			return invalid(t.Name, "shims.categories", "must name at least one category")
		}
		if overlaps(t.Shims.Root, t.Destination) {
			return invalid(t.Name, "shims.root", "must not overlap the destination")
		}
	}
	return nil
}

func validateClassifier(t *Target) error {
	c := t.Classifier
	switch c.Strategy {
	case StrategyGenerator:
		if len(c.Command) == 0 {
			return invalid(t.Name, "classifier.command", "required for generator strategy")
		}
	case StrategyManifest:
		if len(c.Merge) == 0 && len(c.Asm) == 0 {
			return invalid(t.Name, "classifier.merge", "manifest strategy needs merge or asm sources")
		}
		for cat, sources := range c.Merge {
			for _, s := range sources {
				if !strings.Contains(s, ".") {
					return invalid(t.Name, "classifier.merge."+cat, "sources must be module.field")
				}
			}
		}
		if _, clash := c.Merge[c.AsmGeneric]; clash && c.AsmGeneric != "" {
			return invalid(t.Name, "classifier.asm_generic", "must not name a merge category")
		}
	case StrategyGlob:
		if len(c.Globs) == 0 {
			return invalid(t.Name, "classifier.globs", "required for glob strategy")
		}
		for cat, patterns := range c.Globs {
			for _, p := range patterns {
				if !doublestar.ValidatePattern(p) {
					return invalid(t.Name, "classifier.globs."+cat, "invalid pattern "+p)
				}
			}
		}
		for _, p := range c.Exclude {
			if !doublestar.ValidatePattern(p) {
				return invalid(t.Name, "classifier.exclude", "invalid pattern "+p)
			}
		}
	default:
		return invalid(t.Name, "classifier.strategy", notCanonical(strategies, c.Strategy))
	}
	return nil
}

// validateDestination refuses empty paths and the host root itself, since the
// destination is wiped on every run.
func validateDestination(target, field, p string) error {
	if strings.TrimSpace(p) == "" {
		return invalid(target, field, "must not be empty")
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == "." || clean == string(filepath.Separator) {
		return invalid(target, field, "must not be the project root")
	}
	if !filepath.IsAbs(clean) && (clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))) {
		return invalid(target, field, "must stay inside the project root")
	}
	return nil
}

func isRelativeInside(p string) bool {
	if p == "" || filepath.IsAbs(p) {
		return false
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	return clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

func overlaps(a, b string) bool {
	ca := filepath.Clean(filepath.FromSlash(a)) + string(filepath.Separator)
	cb := filepath.Clean(filepath.FromSlash(b)) + string(filepath.Separator)
	return strings.HasPrefix(ca, cb) || strings.HasPrefix(cb, ca)
}

func notCanonical(n *normalization.Normalizer[string], raw string) string {
	return fmt.Sprintf("unsupported value %q, valid options: %s", raw, strings.Join(n.ValidKeys(), ", "))
}

func invalid(target, field, reason string) error {
	return errors.ValidationError("invalid configuration").
		WithContext("target", target).
		WithContext("field", field).
		WithContext("reason", reason).
		Build()
}
