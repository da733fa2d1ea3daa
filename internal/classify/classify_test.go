package classify

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/fileset"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

type fakeGenerator struct {
	sets map[string][]string
	asm  []fileset.AsmGroup
	err  error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, sink Sink) error {
	if f.err != nil {
		return f.err
	}
	return sink.WriteFiles(f.sets, f.asm)
}

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o600))
	}
}

func TestCollector_RecordsWithoutFiltering(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.WriteFiles(map[string][]string{
		"crypto": {"b.cc", "a.cc"},
		"unused": {"tool/x.cc"},
		"empty":  {},
	}, []fileset.AsmGroup{{OS: "linux", Arch: "x86_64", Files: []string{"linux/x86_64/asm1.S"}}}))
	require.NoError(t, c.WriteFiles(map[string][]string{"crypto": {"a.cc", "c.cc"}}, nil))

	fs := c.FileSet()
	assert.Equal(t, []string{"a.cc", "b.cc", "c.cc"}, fs.Get("crypto"))
	assert.Equal(t, []string{"tool/x.cc"}, fs.Get("unused"))
	assert.True(t, fs.Has("empty"))
	require.Len(t, fs.Asm, 1)
	assert.Equal(t, "linux_x86_64", fs.Asm[0].Key())
}

func TestGeneratorClassifier_FixtureCategories(t *testing.T) {
	gen := &fakeGenerator{
		sets: map[string][]string{
			"crypto":                  {"a.cc"},
			"crypto_headers":          {"include/a.h"},
			"crypto_internal_headers": {"internal/b.h"},
		},
		asm: []fileset.AsmGroup{{OS: "linux", Arch: "x86_64", Files: []string{"linux/x86_64/asm1.S"}}},
	}
	fs, err := Run(context.Background(), &GeneratorClassifier{Generator: gen}, t.TempDir(),
		[]string{"crypto", "crypto_headers", "crypto_internal_headers"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.cc"}, fs.Get("crypto"))
	assert.Equal(t, []string{"include/a.h"}, fs.Get("crypto_headers"))
	assert.Equal(t, []string{"internal/b.h"}, fs.Get("crypto_internal_headers"))
	assert.Equal(t, []string{"linux/x86_64/asm1.S"}, fs.Asm[0].Files)
}

func TestRun_MissingRequiredCategory(t *testing.T) {
	gen := &fakeGenerator{sets: map[string][]string{"crypto_headers": {"include/a.h"}}}
	_, err := Run(context.Background(), &GeneratorClassifier{Generator: gen}, t.TempDir(), []string{"crypto"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryClassification))
}

func TestGeneratorClassifier_WrapsPlainErrors(t *testing.T) {
	gen := &fakeGenerator{err: assert.AnError}
	_, err := (&GeneratorClassifier{Generator: gen}).Classify(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryClassification))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestReport(t *testing.T) {
	c := NewCollector()
	require.NoError(t, Report([]byte(`{"file_sets":{"crypto":["a.cc"]},"asm_outputs":[{"os":"win","arch":"x86_64","files":["a-x86_64-win.asm"]}]}`), c))
	assert.Equal(t, []string{"a.cc"}, c.FileSet().Get("crypto"))
	assert.Equal(t, "win_x86_64", c.FileSet().Asm[0].Key())

	for _, bad := range []string{``, `not json`, `{"asm_outputs":[]}`} {
		err := Report([]byte(bad), NewCollector())
		require.Error(t, err, bad)
		assert.True(t, errors.HasCategory(err, errors.CategoryClassification), bad)
	}
}

func TestCommandGenerator(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sets.json"), []byte(`{"file_sets":{"crypto":["a.cc"]}}`), 0o600))

	c := &GeneratorClassifier{Generator: &CommandGenerator{Command: []string{"sh", "-c", "cat sets.json"}}}
	fs, err := c.Classify(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.cc"}, fs.Get("crypto"))

	failing := &GeneratorClassifier{Generator: &CommandGenerator{Command: []string{"sh", "-c", "echo boom >&2; exit 3"}}}
	_, err = failing.Classify(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryClassification))
	assert.Contains(t, err.Error(), "boom")
}

const sampleManifest = `{
  "bcm": {
    "srcs": ["crypto/fipsmodule/bcm.cc"],
    "internal_hdrs": ["crypto/fipsmodule/aes/aes.cc.inc"],
    "asm": ["gen/bcm/aesni-x86_64-linux.S", "gen/bcm/armv8-mont-apple.S"],
    "nasm": ["gen/bcm/aesni-x86_64-win.asm"]
  },
  "crypto": {
    "srcs": ["crypto/a.cc"],
    "hdrs": ["include/openssl/aes.h"],
    "internal_hdrs": ["crypto/internal.h"],
    "asm": ["crypto/linux/x86_64/chacha.S"]
  }
}`

func manifestClassifier() *ManifestClassifier {
	return &ManifestClassifier{
		Path: "gen/sources.json",
		Merge: map[string][]string{
			"crypto":                  {"bcm.srcs", "crypto.srcs"},
			"crypto_headers":          {"crypto.hdrs"},
			"crypto_internal_headers": {"bcm.internal_hdrs", "crypto.internal_hdrs"},
		},
		Asm: []string{"bcm.asm", "bcm.nasm", "crypto.asm"},
	}
}

func TestManifestClassifier_Merges(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "gen/sources.json")
	require.NoError(t, os.WriteFile(filepath.Join(root, "gen", "sources.json"), []byte(sampleManifest), 0o600))

	fs, err := manifestClassifier().Classify(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"crypto/a.cc", "crypto/fipsmodule/bcm.cc"}, fs.Get("crypto"))
	assert.Equal(t, []string{"crypto/fipsmodule/aes/aes.cc.inc", "crypto/internal.h"}, fs.Get("crypto_internal_headers"))

	keys := make([]string, 0, len(fs.Asm))
	for _, g := range fs.Asm {
		keys = append(keys, g.Key())
	}
	assert.Equal(t, []string{"apple_aarch64", "linux_x86_64", "win_x86_64"}, keys)
	assert.Equal(t, []string{"crypto/linux/x86_64/chacha.S", "gen/bcm/aesni-x86_64-linux.S"}, fs.Asm[1].Files)
}

func TestManifestClassifier_MissingCryptoKey(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "gen/sources.json")
	require.NoError(t, os.WriteFile(filepath.Join(root, "gen", "sources.json"),
		[]byte(`{"bcm": {"srcs": ["crypto/fipsmodule/bcm.cc"]}}`), 0o600))

	_, err := manifestClassifier().Classify(context.Background(), root)
	require.Error(t, err)
	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryClassification, c.Category())
	module, _ := c.Context().GetString("module")
	assert.Equal(t, "crypto", module)
}

func TestManifestClassifier_MissingOrMalformedFile(t *testing.T) {
	root := t.TempDir()
	_, err := manifestClassifier().Classify(context.Background(), root)
	assert.True(t, errors.HasCategory(err, errors.CategoryClassification))

	writeTree(t, root, "gen/sources.json")
	require.NoError(t, os.WriteFile(filepath.Join(root, "gen", "sources.json"), []byte(`[1,2`), 0o600))
	_, err = manifestClassifier().Classify(context.Background(), root)
	assert.True(t, errors.HasCategory(err, errors.CategoryClassification))
}

func TestAsmKey(t *testing.T) {
	tests := []struct {
		path, os, arch string
	}{
		{"linux/x86_64/asm1.S", "linux", "x86_64"},
		{"gen/crypto/chacha-armv4-linux.S", "linux", "arm"},
		{"gen/bcm/sha256-armv8-win.S", "win", "aarch64"},
		{"gen/bcm/x86-mont-apple.S", "apple", "x86"},
		{"gen/bcm/aesni-gcm-x86_64-win.asm", "win", "x86_64"},
		{"gen/bcm/bn-586-linux.S", "linux", "x86"},
		{"gen/bcm/bsaes-armv7-linux.S", "linux", "arm"},
		{"gen/bcm/x86_64-mont5-apple.S", "apple", "x86_64"},
		{"gen/crypto/chacha20_poly1305_armv8-apple.S", "apple", "aarch64"},
		{"gen/crypto/chacha20_poly1305_x86_64-linux.S", "linux", "x86_64"},
	}
	for _, tt := range tests {
		osName, arch, err := AsmKey(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.os, osName, tt.path)
		assert.Equal(t, tt.arch, arch, tt.path)
	}

	for _, p := range []string{
		"crypto/curve25519/asm/x25519-asm-arm.S",
		"third_party/fiat/asm/fiat_curve25519_adx_mul.S",
		"crypto/poly1305/poly1305_arm_asm.S",
	} {
		_, _, err := AsmKey(p)
		assert.True(t, errors.HasCategory(err, errors.CategoryClassification), p)
	}
}

// Names taken from a current BoringSSL gen/sources.json.
const boringSSLManifest = `{
  "bcm": {
    "srcs": ["crypto/fipsmodule/bcm.cc"],
    "internal_hdrs": ["crypto/fipsmodule/aes/aes.cc.inc"],
    "asm": [
      "gen/bcm/aesni-gcm-x86_64-apple.S",
      "gen/bcm/bn-586-linux.S",
      "gen/bcm/bsaes-armv7-linux.S",
      "gen/bcm/p256-armv8-asm-linux.S",
      "third_party/fiat/asm/fiat_p256_adx_mul.S"
    ],
    "nasm": ["gen/bcm/bn-586-win.asm"]
  },
  "crypto": {
    "srcs": ["crypto/cpu_intel.cc"],
    "hdrs": ["include/openssl/aes.h"],
    "asm": [
      "crypto/curve25519/asm/x25519-asm-arm.S",
      "crypto/hrss/asm/poly_rq_mul.S",
      "gen/crypto/chacha20_poly1305_armv8-apple.S",
      "third_party/fiat/asm/fiat_curve25519_adx_mul.S"
    ]
  }
}`

func TestManifestClassifier_BoringSSLAssembly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "gen/sources.json")
	require.NoError(t, os.WriteFile(filepath.Join(root, "gen", "sources.json"), []byte(boringSSLManifest), 0o600))

	m := manifestClassifier()
	_, err := m.Classify(context.Background(), root)
	require.Error(t, err, "cross-platform assembly has no os/arch without a generic category")
	assert.True(t, errors.HasCategory(err, errors.CategoryClassification))

	m.GenericAsm = "crypto_asm_generic"
	fs, err := Run(context.Background(), m, root, []string{"crypto", "crypto_asm_generic"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"crypto/curve25519/asm/x25519-asm-arm.S",
		"crypto/hrss/asm/poly_rq_mul.S",
		"third_party/fiat/asm/fiat_curve25519_adx_mul.S",
		"third_party/fiat/asm/fiat_p256_adx_mul.S",
	}, fs.Get("crypto_asm_generic"))

	keys := make([]string, 0, len(fs.Asm))
	for _, g := range fs.Asm {
		keys = append(keys, g.Key())
	}
	assert.Equal(t, []string{"apple_aarch64", "apple_x86_64", "linux_aarch64", "linux_arm", "linux_x86", "win_x86"}, keys)
}

func TestManifestClassifier_GenericCategoryAlwaysPresent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "gen/sources.json")
	require.NoError(t, os.WriteFile(filepath.Join(root, "gen", "sources.json"), []byte(sampleManifest), 0o600))

	m := manifestClassifier()
	m.GenericAsm = "asm_generic"
	fs, err := m.Classify(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, fs.Has("asm_generic"))
	assert.Empty(t, fs.Get("asm_generic"))
}

func TestGlobClassifier(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"runtime/include/dart_api_dl.c",
		"runtime/include/dart_api.h",
		"runtime/include/internal/dart_api_dl_impl.h",
		"runtime/vm/object.cc",
		".git/HEAD",
	)

	g := &GlobClassifier{Globs: map[string][]string{
		"dart_dl_sources": {"runtime/include/dart_api_dl.c"},
		"runtime_include": {"runtime/include/**/*.h"},
	}}
	fs, err := Run(context.Background(), g, root, []string{"dart_dl_sources", "runtime_include"})
	require.NoError(t, err)
	assert.Equal(t, []string{"runtime/include/dart_api_dl.c"}, fs.Get("dart_dl_sources"))
	assert.Equal(t, []string{"runtime/include/dart_api.h", "runtime/include/internal/dart_api_dl_impl.h"}, fs.Get("runtime_include"))

	g.Globs["missing"] = []string{"third_party/**"}
	_, err = g.Classify(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryClassification))
}

func TestGlobClassifier_WholeTreeWithExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		".gitignore",
		".github/workflows/ci.yml",
		".git/config",
		"LICENSE",
		"crypto/mem.c",
		"crypto/test/.gitignore",
		"util/generate_build_files.py",
	)

	g := &GlobClassifier{
		Globs:   map[string][]string{"tree": {"**"}, "crypto": {"crypto/**/*.c"}},
		Exclude: []string{"**/.gitignore", "**/.github"},
	}
	fs, err := g.Classify(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"LICENSE", "crypto/mem.c", "util/generate_build_files.py"}, fs.Get("tree"))
	assert.Equal(t, []string{"crypto/mem.c"}, fs.Get("crypto"))

	g.Globs["hidden"] = []string{".github/**"}
	_, err = g.Classify(context.Background(), root)
	assert.True(t, errors.HasCategory(err, errors.CategoryClassification), "a pattern matching only excluded files matches nothing")
}

func TestGlobClassifier_InvalidPattern(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.c")

	_, err := (&GlobClassifier{Globs: map[string][]string{"a": {"[a-"}}}).Classify(context.Background(), root)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = (&GlobClassifier{Globs: map[string][]string{"a": {"*.c"}}, Exclude: []string{"{a"}}).Classify(context.Background(), root)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestNew(t *testing.T) {
	c, err := New(config.ClassifierConfig{Strategy: config.StrategyGlob, Globs: map[string][]string{"a": {"*"}}})
	require.NoError(t, err)
	assert.IsType(t, &GlobClassifier{}, c)

	c, err = New(config.ClassifierConfig{Strategy: config.StrategyGenerator, Command: []string{"gen"}})
	require.NoError(t, err)
	assert.IsType(t, &GeneratorClassifier{}, c)

	_, err = New(config.ClassifierConfig{Strategy: "guess"})
	require.Error(t, err)
}
