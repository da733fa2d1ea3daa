package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// envFiles are loaded, in order, before the configuration is expanded.
var envFiles = []string{".env", ".env.local"}

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.FileSystemFailure(err, "read config").Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.FileSystemFailure(err, "resolve config path").Build()
	}
	cfg.Path = abs
	cfg.Root = filepath.Dir(abs)
	return cfg, nil
}

// Parse decodes configuration bytes, applies defaults and validates the result.
// ${NAME} references to set variables are expanded; unknown ones are left
// verbatim so build-system tokens such as ${BORINGSSL_ROOT} survive.
func Parse(data []byte) (*Config, error) {
	expanded := expandKnownEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigError("failed to parse configuration").
			WithCause(err).
			Build()
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads .env files next to the configuration. Existing process
// environment variables are never overridden and missing files are ignored.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", p, err)
		}
	}
}

// envRef matches the braced ${NAME} form only; bare $NAME and $$ are literal text.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandKnownEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		if v, ok := os.LookupEnv(ref[2 : len(ref)-1]); ok {
			return v
		}
		return ref
	})
}
