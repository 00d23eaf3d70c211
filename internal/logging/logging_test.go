package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		base      string
		want      zerolog.Level
	}{
		{"default warn", 0, "", zerolog.WarnLevel},
		{"configured error", 0, "error", zerolog.ErrorLevel},
		{"configured mixed case", 0, " Debug ", zerolog.DebugLevel},
		{"bad config falls back", 0, "loud", zerolog.WarnLevel},
		{"-v", 1, "error", zerolog.InfoLevel},
		{"-vv", 2, "", zerolog.DebugLevel},
		{"-vvvv", 4, "", zerolog.TraceLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFor(tt.verbosity, tt.base))
		})
	}
}

func TestSetup_WritesComponentField(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	var buf bytes.Buffer

	logger := Component(Setup(&buf, zerolog.InfoLevel), "rewrite")
	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "rewrite")
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
