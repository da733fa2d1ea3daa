package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// Init writes an example configuration with BoringSSL and Dart SDK targets.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return errors.FileSystemFailure(err, "create config directory").Build()
	}
	if err := os.WriteFile(configPath, []byte(ExampleConfig), 0o600); err != nil {
		return errors.FileSystemFailure(err, "write config").Build()
	}
	return nil
}

// ExampleConfig is the configuration written by Init.
const ExampleConfig = `# vendorroll configuration.
# Revisions are only changed by "vendorroll bump <target>".
version: 1
targets:
  - name: boringssl
    repository: https://boringssl.googlesource.com/boringssl
    revision: 33f8d33af0dcb083610e978baad5a8b6e1cfee82
    branch: master
    destination: third_party/boringssl
    source_prefix: src
    # The whole checkout is mirrored under src/, minus repository metadata.
    classifier:
      strategy: glob
      globs:
        tree: ["**"]
        crypto: ["crypto/**/*.c"]
      exclude: ["**/.gitignore", "**/.github"]
    # Revisions that ship gen/sources.json can use the upstream manifest instead:
    #
    # classifier:
    #   strategy: manifest
    #   manifest: gen/sources.json
    #   merge:
    #     crypto: [bcm.srcs, crypto.srcs]
    #     crypto_headers: [crypto.hdrs]
    #     crypto_internal_headers: [bcm.internal_hdrs, crypto.internal_hdrs]
    #   asm: [bcm.asm, bcm.nasm, crypto.asm, crypto.nasm]
    #   asm_generic: crypto_asm_generic
    required: [tree, crypto]
    copy: [tree]
    variables:
      - name: crypto_sources
        category: crypto
    asm_variable_prefix: crypto_sources
    retain: [README.md, LICENSE]
    build_file:
      path: sources.cmake
      format: cmake
      root_token: ${BORINGSSL_ROOT}
    shims:
      root: ios/third_party/boringssl
      categories: [crypto]

  - name: dart-sdk
    repository: https://dart.googlesource.com/sdk/
    revision: 09481aa6ca60a12a5885db108aa5152cecb73fb1
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
      path: README.md
      text: |
        # Dynamic linking Dart SDK

        **GENERATED FOLDER DO NOT MODIFY**

        This folder contains the sources from the Dart SDK required for dynamic
        linking against native Dart APIs. Only source files required to build
        have been retained. Files in this folder are subject to LICENSE from the
        Dart SDK project.
    build_file:
      path: sources.cmake
      format: cmake
      root_token: ${DARTSDK_ROOT}
    shims:
      root: ios/third_party/dart-sdk
      categories: [dart_dl_sources]
`
