package config

// DefaultFileName is looked up in the project root when no config path is given.
const DefaultFileName = ".lintpipe.yaml"

// Config is the lintpipe configuration parsed from YAML.
type Config struct {
	// Python is the interpreter used to probe for tools.
	Python string `yaml:"python"`
	// Package is the source package directory, relative to the project root.
	Package string `yaml:"package"`
	// Report, when set, is where the JSON run report is written.
	Report   string        `yaml:"report,omitempty"`
	LogLevel string        `yaml:"log_level,omitempty"`
	History  HistoryConfig `yaml:"history"`
}

// HistoryConfig controls optional persistence of run outcomes.
type HistoryConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty"`
}

// Enabled reports whether run history should be recorded.
func (h HistoryConfig) Enabled() bool {
	return h.DatabaseURL != ""
}
