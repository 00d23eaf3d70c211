// Package logging configures the zerolog logger shared by lintpipe's components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelFor maps a -v count onto a zerolog level. base is the configured
// level name used when verbosity is zero.
func LevelFor(verbosity int, base string) zerolog.Level {
	switch {
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	case verbosity >= 3:
		return zerolog.TraceLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(base)))
	if err != nil || base == "" {
		return zerolog.WarnLevel
	}
	return lvl
}

// Setup installs a console logger on w (stderr when nil) at the given level
// and returns it.
func Setup(w io.Writer, level zerolog.Level) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	logger := zerolog.New(console).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger
	return logger
}

// Component returns a logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
