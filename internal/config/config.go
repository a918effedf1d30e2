// Package config provides configuration loading for gitlabber.
//
// Configuration is merged from defaults, an optional YAML or TOML file, an
// optional .env file, environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/CommissaiR/gitlabber/internal/pathmatch"
)

// Source providers.
const (
	ProviderGitLab = "gitlab"
	ProviderGitHub = "github"
)

// Clone methods.
const (
	MethodSSH  = "ssh"
	MethodHTTP = "http"
)

// Print formats.
const (
	FormatTree = "tree"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Config holds the complete gitlabber configuration.
type Config struct {
	Source  SourceConfig  `koanf:"source"`
	Filter  FilterConfig  `koanf:"filter"`
	Sync    SyncConfig    `koanf:"sync"`
	Output  OutputConfig  `koanf:"output"`
	Logging LoggingConfig `koanf:"logging"`
}

// SourceConfig selects where the namespace tree comes from.
type SourceConfig struct {
	Provider string `koanf:"provider" validate:"oneof=gitlab github"`
	URL      string `koanf:"url" validate:"omitempty,url"`
	Token    Secret `koanf:"token"`

	// Namespace keeps only projects whose first path segment equals it.
	Namespace string `koanf:"namespace" validate:"excludes=/"`

	// InFile loads a previously exported tree instead of querying the
	// server.
	InFile string `koanf:"in_file"`
}

// FilterConfig holds the include/exclude glob patterns.
type FilterConfig struct {
	Include     []string `koanf:"include"`
	Exclude     []string `koanf:"exclude"`
	IncludeFile string   `koanf:"include_file"`
	ExcludeFile string   `koanf:"exclude_file"`
}

// SyncConfig controls local mirroring.
type SyncConfig struct {
	Dest        string `koanf:"dest"`
	Method      string `koanf:"method" validate:"oneof=ssh http"`
	Concurrency int    `koanf:"concurrency" validate:"min=1,max=64"`
}

// OutputConfig controls printing of the tree.
type OutputConfig struct {
	Print  bool   `koanf:"print"`
	Format string `koanf:"format" validate:"oneof=tree yaml json"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Source.Provider == "" {
		cfg.Source.Provider = ProviderGitLab
	}
	if cfg.Sync.Method == "" {
		cfg.Sync.Method = MethodSSH
	}
	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = 4
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = FormatTree
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

var validate = validator.New()

// Validate validates the configuration.
//
// Returns an error if:
//   - an enumerated field holds an unknown value
//   - no server URL is set for a GitLab source without an input file
//   - neither printing nor a destination directory is requested
//   - an include or exclude pattern does not compile
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Source.InFile == "" && c.Source.Provider == ProviderGitLab && c.Source.URL == "" {
		return errors.New("source url is required unless an input file is given")
	}

	if !c.Output.Print && c.Sync.Dest == "" {
		return errors.New("destination directory is required unless printing the tree")
	}

	if err := pathmatch.Validate(c.Filter.Include); err != nil {
		return fmt.Errorf("invalid include pattern: %w", err)
	}
	if err := pathmatch.Validate(c.Filter.Exclude); err != nil {
		return fmt.Errorf("invalid exclude pattern: %w", err)
	}

	return nil
}
