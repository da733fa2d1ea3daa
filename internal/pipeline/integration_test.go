package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/testutil"
)

// TestRun_DartSDKLayout clones a real (local) repository with go-git and
// classifies it with glob patterns, mirroring the Dart SDK target.
func TestRun_DartSDKLayout(t *testing.T) {
	remote, hashes := testutil.Upstream(t, map[string]string{
		"README.md":                                   "# Dart\n",
		"README.dart-sdk":                             "dart sdk\n",
		"LICENSE":                                     "BSD\n",
		"runtime/include/dart_api.h":                  "#pragma once\n",
		"runtime/include/dart_api_dl.c":               "int dl;\n",
		"runtime/include/internal/dart_api_dl_impl.h": "#pragma once\n",
		"runtime/vm/object.cc":                        "int vm;\n",
	})

	cfg, err := config.Parse([]byte(`
targets:
  - name: dart-sdk
    repository: ` + remote + `
    revision: ` + hashes[0].String() + `
    destination: third_party/dart-sdk
    source_prefix: src
    classifier:
      strategy: glob
      globs:
        dart_dl_sources: [runtime/include/dart_api_dl.c]
        runtime_include: ["runtime/include/**"]
    required: [dart_dl_sources, runtime_include]
    copy: [runtime_include]
    variables:
      - name: dart_dl_sources
        category: dart_dl_sources
    retain: [README.dart-sdk, README.md, LICENSE]
    extra_files:
      - from: LICENSE
        to: LICENSE
    notice:
      text: "generated folder\n"
    shims:
      root: ios/third_party/dart-sdk
      categories: [dart_dl_sources]
`))
	require.NoError(t, err)
	cfg.Root = t.TempDir()
	cfg.WorkspaceDir = filepath.Join(cfg.Root, ".work")

	res, err := NewDriver(cfg).Run(context.Background(), &cfg.Targets[0])
	require.NoError(t, err)
	assert.Equal(t, hashes[0].String(), res.Revision)

	dest := filepath.Join(cfg.Root, "third_party", "dart-sdk")
	for _, f := range []string{
		"src/runtime/include/dart_api.h",
		"src/runtime/include/dart_api_dl.c",
		"src/runtime/include/internal/dart_api_dl_impl.h",
		"src/README.md",
		"src/README.dart-sdk",
		"src/LICENSE",
		"LICENSE",
		"README.md",
		"sources.cmake",
	} {
		assert.FileExists(t, filepath.Join(dest, filepath.FromSlash(f)))
	}
	assert.NoFileExists(t, filepath.Join(dest, "src", "runtime", "vm", "object.cc"))

	cmake, err := os.ReadFile(filepath.Join(dest, "sources.cmake"))
	require.NoError(t, err)
	assert.Contains(t, string(cmake), "set(dart_dl_sources\n  ${DARTSDK_ROOT}src/runtime/include/dart_api_dl.c\n)\n")

	shimData, err := os.ReadFile(filepath.Join(cfg.Root, "ios", "third_party", "dart-sdk", "src", "runtime", "include", "dart_api_dl.c"))
	require.NoError(t, err)
	assert.Contains(t, string(shimData), "#include \"../../../../../../third_party/dart-sdk/src/runtime/include/dart_api_dl.c\"\n")

	assertWorkspaceReleased(t, cfg)
}

// TestRun_BoringSSLExampleTarget runs the boringssl target written by init
// against a local upstream laid out like the pinned BoringSSL revision.
func TestRun_BoringSSLExampleTarget(t *testing.T) {
	remote, hashes := testutil.Upstream(t, map[string]string{
		".gitignore":                   "build/\n",
		".github/workflows/ci.yml":     "on: push\n",
		"README.md":                    "# BoringSSL\n",
		"LICENSE":                      "ISC\n",
		"crypto/mem.c":                 "int mem;\n",
		"crypto/fipsmodule/bcm.c":      "int bcm;\n",
		"crypto/test/.gitignore":       "*.o\n",
		"include/openssl/base.h":       "#pragma once\n",
		"util/generate_build_files.py": "print()\n",
	})

	cfg, err := config.Parse([]byte(config.ExampleConfig))
	require.NoError(t, err)
	cfg.Root = t.TempDir()
	cfg.WorkspaceDir = filepath.Join(cfg.Root, ".work")
	target, ok := cfg.Target("boringssl")
	require.True(t, ok)
	target.Repository = remote
	target.Revision = hashes[0].String()

	res, err := NewDriver(cfg).Run(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.Final())

	dest := filepath.Join(cfg.Root, "third_party", "boringssl")
	for _, f := range []string{
		"src/README.md",
		"src/LICENSE",
		"src/crypto/mem.c",
		"src/include/openssl/base.h",
		"src/util/generate_build_files.py",
		"sources.cmake",
	} {
		assert.FileExists(t, filepath.Join(dest, filepath.FromSlash(f)))
	}
	assert.NoFileExists(t, filepath.Join(dest, "src", ".gitignore"))
	assert.NoFileExists(t, filepath.Join(dest, "src", "crypto", "test", ".gitignore"))
	assert.NoDirExists(t, filepath.Join(dest, "src", ".github"))
	assert.NoDirExists(t, filepath.Join(dest, "src", ".git"))

	cmake, err := os.ReadFile(filepath.Join(dest, "sources.cmake"))
	require.NoError(t, err)
	assert.Contains(t, string(cmake), "set(crypto_sources\n  ${BORINGSSL_ROOT}src/crypto/fipsmodule/bcm.c\n  ${BORINGSSL_ROOT}src/crypto/mem.c\n)\n")

	assert.FileExists(t, filepath.Join(cfg.Root, "ios", "third_party", "boringssl", "src", "crypto", "mem.c"))
	assertWorkspaceReleased(t, cfg)
}
