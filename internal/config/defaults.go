package config

import (
	"fmt"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/normalization"
)

const (
	defaultBranch       = "main"
	defaultBuildFile    = "sources.cmake"
	defaultManifestPath = "gen/sources.json"
)

var (
	fetchers = normalization.NewNormalizer(map[string]string{
		FetcherGoGit: FetcherGoGit,
		"go-git":     FetcherGoGit,
		FetcherExec:  FetcherExec,
		"git":        FetcherExec,
	})
	strategies = normalization.NewNormalizer(map[string]string{
		StrategyGenerator: StrategyGenerator,
		StrategyManifest:  StrategyManifest,
		StrategyGlob:      StrategyGlob,
	})
	formats = normalization.NewNormalizer(map[string]string{
		FormatCMake: FormatCMake,
		FormatGN:    FormatGN,
	})
)

// canonical returns the canonical spelling of raw, or raw unchanged so that
// validation can report it.
func canonical(n *normalization.Normalizer[string], raw string) string {
	if v, err := n.Normalize(raw); err == nil {
		return v
	}
	return raw
}

// applyDefaults fills optional fields and canonicalises enum spellings.
// It never overrides explicit values.
func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if t.Branch == "" {
			t.Branch = defaultBranch
		}
		if t.Fetcher == "" {
			t.Fetcher = FetcherGoGit
		}
		t.Fetcher = canonical(fetchers, t.Fetcher)
		t.Classifier.Strategy = canonical(strategies, t.Classifier.Strategy)
		if t.Classifier.Strategy == StrategyManifest && t.Classifier.Manifest == "" {
			t.Classifier.Manifest = defaultManifestPath
		}
		if t.BuildFile.Path == "" {
			t.BuildFile.Path = defaultBuildFile
		}
		if t.BuildFile.Format == "" {
			t.BuildFile.Format = FormatCMake
		}
		t.BuildFile.Format = canonical(formats, t.BuildFile.Format)
		if t.BuildFile.RootToken == "" {
			t.BuildFile.RootToken = DefaultRootToken(t.Name)
		}
		if t.BuildFile.Command == "" {
			t.BuildFile.Command = fmt.Sprintf("vendorroll roll %s", t.Name)
		}
		if t.Notice != nil && t.Notice.Path == "" {
			t.Notice.Path = "README.md"
		}
	}
}
