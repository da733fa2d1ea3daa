package classify

import (
	"context"

	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// Sink receives the file sets reported by an upstream generator.
type Sink interface {
	WriteFiles(fileSets map[string][]string, asm []fileset.AsmGroup) error
}

// Generator is the upstream collaborator: it inspects root and reports every set to sink.
type Generator interface {
	Generate(ctx context.Context, root string, sink Sink) error
}

// Classifier turns a checkout into a FileSet.
type Classifier interface {
	Classify(ctx context.Context, root string) (*fileset.FileSet, error)
}

// Collector is the Sink used by the generator strategy. It records every
// reported set without filtering; repeated reports merge.
type Collector struct {
	set *fileset.FileSet
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{set: fileset.New()}
}

// WriteFiles implements Sink.
func (c *Collector) WriteFiles(fileSets map[string][]string, asm []fileset.AsmGroup) error {
	for category, files := range fileSets {
		if err := c.set.Add(category, files...); err != nil {
			return err
		}
	}
	for _, g := range asm {
		if err := c.set.AddAsm(g.OS, g.Arch, g.Files...); err != nil {
			return err
		}
	}
	return nil
}

// FileSet returns everything collected so far.
func (c *Collector) FileSet() *fileset.FileSet { return c.set }

// GeneratorClassifier adapts a Generator to the Classifier interface.
type GeneratorClassifier struct {
	Generator Generator
}

// Classify runs the generator against root and returns the collected sets.
func (g *GeneratorClassifier) Classify(ctx context.Context, root string) (*fileset.FileSet, error) {
	collector := NewCollector()
	if err := g.Generator.Generate(ctx, root, collector); err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return nil, err
		}
		return nil, errors.ClassificationFailure("generator failed").WithCause(err).Build()
	}
	return collector.FileSet(), nil
}

// New builds the classifier selected by cfg.
func New(cfg config.ClassifierConfig) (Classifier, error) {
	switch cfg.Strategy {
	case config.StrategyGenerator:
		return &GeneratorClassifier{Generator: &CommandGenerator{Command: cfg.Command}}, nil
	case config.StrategyManifest:
		return &ManifestClassifier{Path: cfg.Manifest, Merge: cfg.Merge, Asm: cfg.Asm, GenericAsm: cfg.AsmGeneric}, nil
	case config.StrategyGlob:
		return &GlobClassifier{Globs: cfg.Globs, Exclude: cfg.Exclude}, nil
	default:
		return nil, errors.ValidationError("unknown classifier strategy").
			WithContext("strategy", cfg.Strategy).
			Build()
	}
}

// Run classifies root and enforces the required categories.
func Run(ctx context.Context, c Classifier, root string, required []string) (*fileset.FileSet, error) {
	fs, err := c.Classify(ctx, root)
	if err != nil {
		return nil, err
	}
	if err := fs.Require(required...); err != nil {
		return nil, err
	}
	return fs, nil
}
