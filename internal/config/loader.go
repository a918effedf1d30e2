package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/CommissaiR/gitlabber/internal/ignore"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every gitlabber environment variable.
	EnvPrefix = "GITLABBER_"

	defaultEnvFile = ".env"
)

// LoadOptions tells Load where to look for configuration.
type LoadOptions struct {
	// ConfigFile is an optional YAML (.yaml, .yml, .json) or TOML (.toml)
	// file.
	ConfigFile string

	// EnvFile is an optional dotenv file. When empty, ./.env is read if it
	// exists.
	EnvFile string

	// Overrides holds dotted keys (e.g. "sync.dest") set on the command
	// line. They take precedence over everything else.
	Overrides map[string]interface{}
}

// Load merges configuration from all sources, then validates it.
//
// Configuration precedence (highest to lowest):
//  1. Overrides (command-line flags)
//  2. GITLABBER_* environment variables (GITLABBER_SOURCE_URL -> source.url)
//  3. GITLAB_URL and GITLAB_TOKEN
//  4. Variables from the dotenv file (never override the real environment)
//  5. Config file
//  6. Hardcoded defaults
//
// Pattern files named by filter.include_file and filter.exclude_file are
// read and appended to the matching pattern lists before validation.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if opts.ConfigFile != "" {
		if err := loadFile(k, opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	if err := k.Load(env.ProviderWithValue("GITLAB_", ".", envValue(legacyEnvKey)), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Split on the first underscore only (section.field_name pattern):
	//   GITLABBER_SOURCE_IN_FILE -> source.in_file
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue(envKey)), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(overrides(opts.Overrides), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Filter.loadPatternFiles(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envValue wraps a key transformer. Blank variables are ignored and list
// keys are split on commas.
func envValue(key func(string) string) func(string, string) (string, interface{}) {
	return func(k, v string) (string, interface{}) {
		if v == "" {
			return "", nil
		}
		k = key(k)
		if listKeys[k] {
			return k, splitList(v)
		}
		return k, v
	}
}

var listKeys = map[string]bool{
	"filter.include": true,
	"filter.exclude": true,
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func legacyEnvKey(s string) string {
	switch s {
	case "GITLAB_URL":
		return "source.url"
	case "GITLAB_TOKEN":
		return "source.token"
	default:
		return ""
	}
}

// loadFile reads a YAML or TOML config file into k.
func loadFile(k *koanf.Koanf, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	// Validate using the already-opened descriptor to avoid a TOCTOU race
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = TOMLParser()
	case ".yaml", ".yml", ".json", "":
		parser = yaml.Parser()
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}

	if err := k.Load(rawbytes.Provider(content), parser); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return nil
}

// validateConfigFileProperties checks the file type and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", info.Name())
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// loadEnvFile exports variables from a dotenv file without overriding the
// existing environment. An explicitly named file must exist.
func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return nil
		}
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadPatternFiles appends patterns read from the configured pattern files.
func (f *FilterConfig) loadPatternFiles() error {
	if f.IncludeFile != "" {
		patterns, err := ignore.ParseFile(f.IncludeFile)
		if err != nil {
			return fmt.Errorf("failed to read include file: %w", err)
		}
		f.Include = appendUnique(f.Include, patterns)
	}
	if f.ExcludeFile != "" {
		patterns, err := ignore.ParseFile(f.ExcludeFile)
		if err != nil {
			return fmt.Errorf("failed to read exclude file: %w", err)
		}
		f.Exclude = appendUnique(f.Exclude, patterns)
	}
	return nil
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, p := range dst {
		seen[p] = true
	}
	for _, p := range src {
		if !seen[p] {
			seen[p] = true
			dst = append(dst, p)
		}
	}
	return dst
}

// overrides is a koanf.Provider over dotted keys.
type overrides map[string]interface{}

func (o overrides) ReadBytes() ([]byte, error) {
	return nil, errors.New("overrides provider does not support ReadBytes")
}

func (o overrides) Read() (map[string]interface{}, error) {
	flat := make(map[string]interface{}, len(o))
	for k, v := range o {
		flat[k] = v
	}
	return maps.Unflatten(flat, "."), nil
}
