package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvPython      = "LINTPIPE_PYTHON"
	EnvPackage     = "LINTPIPE_PACKAGE"
	EnvDatabaseURL = "LINTPIPE_DATABASE_URL"
)

// Load reads and parses a configuration from the given YAML file path, then
// applies environment overrides and defaults for the project at root.
func Load(path string, root string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg, root)
	return &cfg, nil
}

// LoadForRoot loads <root>/.lintpipe.yaml when it exists, otherwise returns
// defaults. An explicit path must exist.
func LoadForRoot(root string, explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit, root)
	}

	path := filepath.Join(root, DefaultFileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path, root)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	cfg := &Config{}
	applyEnv(cfg)
	applyDefaults(cfg, root)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvPython); v != "" {
		cfg.Python = v
	}
	if v := os.Getenv(EnvPackage); v != "" {
		cfg.Package = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.History.DatabaseURL = v
	}
}

// applyDefaults fills the interpreter and derives the package name from the
// project directory when neither file nor environment set one.
func applyDefaults(cfg *Config, root string) {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Package == "" {
		cfg.Package = PackageFromRoot(root)
	}
}

// PackageFromRoot turns a project directory name into an importable package
// name: "penpot-mcp" becomes "penpot_mcp".
func PackageFromRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	name := strings.ToLower(filepath.Base(abs))
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
}
