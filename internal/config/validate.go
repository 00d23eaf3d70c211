package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a Config for semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(cfg.Python) == "" {
		errs = append(errs, ValidationError{Field: "python", Message: "is required"})
	}

	switch {
	case cfg.Package == "":
		errs = append(errs, ValidationError{Field: "package", Message: "is required"})
	case strings.ContainsAny(cfg.Package, `/\`):
		errs = append(errs, ValidationError{Field: "package", Message: fmt.Sprintf("%q must be a directory name, not a path", cfg.Package)})
	case cfg.Package == "." || cfg.Package == "..":
		errs = append(errs, ValidationError{Field: "package", Message: fmt.Sprintf("%q is not a package directory", cfg.Package)})
	}

	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
			errs = append(errs, ValidationError{Field: "log_level", Message: fmt.Sprintf("unrecognized level %q", cfg.LogLevel)})
		}
	}

	if url := cfg.History.DatabaseURL; url != "" &&
		!strings.HasPrefix(url, "postgres://") && !strings.HasPrefix(url, "postgresql://") {
		errs = append(errs, ValidationError{Field: "history.database_url", Message: "must be a postgres:// URL"})
	}

	return errs
}
