package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

func TestParse_ExampleConfig(t *testing.T) {
	cfg, err := Parse([]byte(ExampleConfig))
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 2)

	boring, ok := cfg.Target("boringssl")
	require.True(t, ok)
	assert.Equal(t, FetcherGoGit, boring.Fetcher)
	assert.Equal(t, "${BORINGSSL_ROOT}", boring.BuildFile.RootToken, "unknown env references must survive expansion")
	assert.Equal(t, "vendorroll roll boringssl", boring.BuildFile.Command)
	assert.Equal(t, []string{"tree", "crypto"}, boring.CopyCategories())
	assert.Equal(t, StrategyGlob, boring.Classifier.Strategy)
	assert.Equal(t, []string{"**/.gitignore", "**/.github"}, boring.Classifier.Exclude)
	assert.True(t, boring.ShouldCopyAsm())

	dart, ok := cfg.Target("dart-sdk")
	require.True(t, ok)
	assert.Equal(t, "main", dart.Branch)
	assert.Equal(t, "README.md", dart.Notice.Path)
	assert.Equal(t, StrategyGlob, dart.Classifier.Strategy)
}

func TestParse_ExpandsKnownEnv(t *testing.T) {
	t.Setenv("VENDOR_TEST_REPO", "https://example.com/upstream.git")
	cfg, err := Parse([]byte(`
targets:
  - name: up
    repository: ${VENDOR_TEST_REPO}
    revision: abc
    destination: third_party/up
    classifier:
      strategy: glob
      globs: {srcs: ["*.c"]}
`))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/upstream.git", cfg.Targets[0].Repository)
	assert.Equal(t, "${UP_ROOT}", cfg.Targets[0].BuildFile.RootToken)
	assert.Equal(t, "sources.cmake", cfg.Targets[0].BuildFile.Path)
}

func TestParse_LeavesBareDollarsAlone(t *testing.T) {
	t.Setenv("VENDOR_TEST_OWNER", "Example Org")
	cfg, err := Parse([]byte(`
targets:
  - name: up
    repository: https://example.com/up.git
    revision: abc
    destination: third_party/up
    classifier:
      strategy: glob
      globs: {srcs: ["*.c"]}
    notice:
      text: "Price $5, shell var $PATHX, literal $$, owner ${VENDOR_TEST_OWNER}"
    build_file:
      license: "Copyright $YEAR ${VENDOR_TEST_UNSET_OWNER}"
`))
	require.NoError(t, err)
	assert.Equal(t, "Price $5, shell var $PATHX, literal $$, owner Example Org", cfg.Targets[0].Notice.Text)
	assert.Equal(t, "Copyright $YEAR ${VENDOR_TEST_UNSET_OWNER}", cfg.Targets[0].BuildFile.License)
}

func TestDefaultRootToken(t *testing.T) {
	assert.Equal(t, "${BORINGSSL_ROOT}", DefaultRootToken("boringssl"))
	assert.Equal(t, "${DARTSDK_ROOT}", DefaultRootToken("dart-sdk"))
}

func TestValidate_Rejects(t *testing.T) {
	base := func() Target {
		return Target{
			Name:        "t",
			Repository:  "https://example.com/r.git",
			Revision:    "abc",
			Destination: "third_party/t",
			Fetcher:     FetcherGoGit,
			Classifier:  ClassifierConfig{Strategy: StrategyGlob, Globs: map[string][]string{"srcs": {"*.c"}}},
			BuildFile:   BuildFileConfig{Path: "sources.cmake", Format: FormatCMake},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Target)
		field  string
	}{
		{"empty repository", func(t *Target) { t.Repository = "" }, "repository"},
		{"empty revision", func(t *Target) { t.Revision = "" }, "revision"},
		{"root destination", func(t *Target) { t.Destination = "." }, "destination"},
		{"escaping destination", func(t *Target) { t.Destination = "../elsewhere" }, "destination"},
		{"bad fetcher", func(t *Target) { t.Fetcher = "svn" }, "fetcher"},
		{"bad strategy", func(t *Target) { t.Classifier.Strategy = "guess" }, "classifier.strategy"},
		{"generator without command", func(t *Target) { t.Classifier = ClassifierConfig{Strategy: StrategyGenerator} }, "classifier.command"},
		{"manifest bad source", func(t *Target) {
			t.Classifier = ClassifierConfig{Strategy: StrategyManifest, Merge: map[string][]string{"crypto": {"bcm"}}}
		}, "classifier.merge.crypto"},
		{"manifest generic asm clashes", func(t *Target) {
			t.Classifier = ClassifierConfig{Strategy: StrategyManifest, Merge: map[string][]string{"crypto": {"bcm.srcs"}}, AsmGeneric: "crypto"}
		}, "classifier.asm_generic"},
		{"bad glob", func(t *Target) { t.Classifier.Globs["srcs"] = []string{"[a-"} }, "classifier.globs.srcs"},
		{"bad exclude", func(t *Target) { t.Classifier.Exclude = []string{"{a"} }, "classifier.exclude"},
		{"bad format", func(t *Target) { t.BuildFile.Format = "make" }, "build_file.format"},
		{"absolute build file", func(t *Target) { t.BuildFile.Path = "/tmp/sources.cmake" }, "build_file.path"},
		{"shims overlap", func(t *Target) { t.Shims = &ShimConfig{Root: "third_party/t/ios", Categories: []string{"srcs"}} }, "shims.root"},
		{"shims no categories", func(t *Target) { t.Shims = &ShimConfig{Root: "ios/t"} }, "shims.categories"},
		{"variable without category", func(t *Target) { t.Variables = []Variable{{Name: "v"}} }, "variables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := base()
			tt.mutate(&target)
			err := Validate(&Config{Targets: []Target{target}})
			require.Error(t, err)
			c, ok := errors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, errors.CategoryValidation, c.Category())
			field, _ := c.Context().GetString("field")
			assert.Equal(t, tt.field, field)
		})
	}

	t.Run("duplicate names", func(t *testing.T) {
		err := Validate(&Config{Targets: []Target{base(), base()}})
		require.Error(t, err)
	})
	t.Run("no targets", func(t *testing.T) {
		require.Error(t, Validate(&Config{}))
	})
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "vendor.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoad_SetsRootAndReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VENDOR_TEST_DOTENV_REV=cafe\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor.yaml"), []byte(`
targets:
  - name: up
    repository: https://example.com/up.git
    revision: ${VENDOR_TEST_DOTENV_REV}
    destination: third_party/up
    classifier:
      strategy: glob
      globs: {srcs: ["*.c"]}
`), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("VENDOR_TEST_DOTENV_REV") })

	cfg, err := Load(filepath.Join(dir, "vendor.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "cafe", cfg.Targets[0].Revision)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, filepath.Join(dir, "third_party", "up"), cfg.Resolve(cfg.Targets[0].Destination))
}

func TestSetRevision_RewritesOnlyTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ExampleConfig), 0o600))

	previous, err := SetRevision(path, "boringssl", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "33f8d33af0dcb083610e978baad5a8b6e1cfee82", previous)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# vendorroll configuration.", "comments must survive")

	cfg, err := Parse(data)
	require.NoError(t, err)
	boring, _ := cfg.Target("boringssl")
	dart, _ := cfg.Target("dart-sdk")
	assert.Equal(t, "deadbeef", boring.Revision)
	assert.Equal(t, "09481aa6ca60a12a5885db108aa5152cecb73fb1", dart.Revision)
	assert.Equal(t, "${BORINGSSL_ROOT}", boring.BuildFile.RootToken)
}

func TestSetRevision_KeepsLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ExampleConfig), 0o600))

	_, err := SetRevision(path, "dart-sdk", "cafef00d")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := strings.Replace(ExampleConfig, "09481aa6ca60a12a5885db108aa5152cecb73fb1", "cafef00d", 1)
	assert.Equal(t, want, string(data), "only the revision scalar may change")
}

func TestRewriteRevision_KeepsQuoting(t *testing.T) {
	in := "targets:\n  - name: up # pinned\n    revision: \"abc\"  # old\n\n  - name: other\n    revision: 'xyz'\n"

	out, previous, err := rewriteRevision([]byte(in), "up", "def456")
	require.NoError(t, err)
	assert.Equal(t, "abc", previous)
	assert.Equal(t, strings.Replace(in, `"abc"`, `"def456"`, 1), string(out))

	out, _, err = rewriteRevision([]byte(in), "other", "def456")
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(in, `'xyz'`, `'def456'`, 1), string(out))
}

func TestSetRevision_UnknownTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ExampleConfig), 0o600))

	_, err := SetRevision(path, "openssl", "deadbeef")
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ExampleConfig, string(data), "failed bump must not touch the file")
}

func TestRewriteRevision_AddsMissingKey(t *testing.T) {
	out, previous, err := rewriteRevision([]byte("targets:\n  - name: up\n    repository: r\n"), "up", "abc")
	require.NoError(t, err)
	assert.Empty(t, previous)
	assert.True(t, strings.Contains(string(out), "revision: abc"))
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "vendor.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Targets, 2)
}

func TestParse_CanonicalisesEnumSpelling(t *testing.T) {
	cfg, err := Parse([]byte(`
targets:
  - name: up
    repository: https://example.com/up.git
    revision: abc
    destination: third_party/up
    fetcher: Git
    classifier:
      strategy: " GLOB "
      globs: {srcs: ["*.c"]}
    build_file:
      format: GN
`))
	require.NoError(t, err)
	assert.Equal(t, FetcherExec, cfg.Targets[0].Fetcher)
	assert.Equal(t, StrategyGlob, cfg.Targets[0].Classifier.Strategy)
	assert.Equal(t, FormatGN, cfg.Targets[0].BuildFile.Format)
}
