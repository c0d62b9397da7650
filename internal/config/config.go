package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/chartscout/chartscout/internal/patterns"
)

// FileConfig is the on-disk YAML configuration shape for chartscout. Pointer
// fields distinguish "unset" from zero values so files can be layered.
type FileConfig struct {
	Org             *string  `yaml:"org"`
	APIURL          *string  `yaml:"api_url"`
	Include         *string  `yaml:"include"`
	Exclude         *string  `yaml:"exclude"`
	IncludeRepos    *string  `yaml:"include_repos"`
	ExcludeRepos    *string  `yaml:"exclude_repos"`
	Extensions      []string `yaml:"extensions"`
	Ref             *string  `yaml:"ref"`
	MaxBytes        *int64   `yaml:"max_bytes"`
	Threads         *int     `yaml:"threads"`
	FileWorkers     *int     `yaml:"file_workers"`
	PerPage         *int     `yaml:"per_page"`
	SkipArchived    *bool    `yaml:"skip_archived"`
	SkipForks       *bool    `yaml:"skip_forks"`
	DefaultExcludes *bool    `yaml:"default_excludes"`
	RawFallback     *bool    `yaml:"raw_fallback"`
	NoColor         *bool    `yaml:"no_color"`

	// Pattern selection
	Preset  *string         `yaml:"preset"`
	Enable  *string         `yaml:"enable"`
	Disable *string         `yaml:"disable"`
	Subject *string         `yaml:"subject"`
	Pattern []PatternConfig `yaml:"patterns"`

	// HTTP behavior
	RequestTimeout *string  `yaml:"request_timeout"`
	RateLimit      *float64 `yaml:"rate_limit"`
	RateBurst      *int     `yaml:"rate_burst"`
	MaxRetries     *int     `yaml:"max_retries"`
}

// PatternConfig is a user-defined pattern appended after the preset.
type PatternConfig struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// ErrNotFound is returned when no config file exists at the searched
// locations.
var ErrNotFound = errors.New("no config file")

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LocalNames are the file names searched in the working directory, in order.
var LocalNames = []string{".chartscout.yml", ".chartscout.yaml", "chartscout.yml", "chartscout.yaml"}

// LoadLocal searches for a config file in dir.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, fmt.Errorf("local: %w", ErrNotFound)
}

// GlobalPath returns the location of the global config file.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", errors.New("no config dir")
	}
	return filepath.Join(base, "chartscout", "config.yml"), nil
}

// LoadGlobal loads the global config file from the XDG base directory or
// ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p, err := GlobalPath()
	if err != nil {
		return cfg, fmt.Errorf("global: %v: %w", err, ErrNotFound)
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, fmt.Errorf("global: %w", ErrNotFound)
}

// Definitions compiles the user-defined patterns in file order.
func (fc FileConfig) Definitions() ([]patterns.Definition, error) {
	out := make([]patterns.Definition, 0, len(fc.Pattern))
	for i, p := range fc.Pattern {
		if p.Name == "" {
			return nil, fmt.Errorf("patterns[%d]: name is required", i)
		}
		d, err := patterns.Compile(p.Name, p.Regex)
		if err != nil {
			return nil, fmt.Errorf("patterns[%d]: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Starter is the commented template written by "config init".
const Starter = `# chartscout configuration
# The GitHub token is read from CHARTSCOUT_TOKEN or GITHUB_TOKEN, never from this file.

# org: my-org
# api_url: https://api.github.com/

# Files and repositories
extensions: [".yaml", ".yml"]
# include: "charts/**,deploy/**"
# exclude: "**/testdata/**"
# include_repos: "platform-*"
# exclude_repos: "sandbox-*"
skip_archived: false
skip_forks: false
# default_excludes: true   # skip vendor/, third_party/, dist/, lockfiles and *.gen.* files
max_bytes: 1048576

# Matching
preset: default
raw_fallback: true
# enable: "bitnami,oci"
# disable: "charts"
# patterns:
#   - name: quay
#     regex: 'quay\.io/bitnami/([\w\-.]+)'

# Performance
threads: 4
file_workers: 4
per_page: 100
request_timeout: 30s
rate_limit: 10
rate_burst: 5
max_retries: 3
`

// WriteStarter writes Starter to path unless it already exists and force is
// false.
func WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(Starter), 0o644)
}
