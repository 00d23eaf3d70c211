package checks

import (
	"fmt"
	"sort"
	"strings"
)

// ParseResult holds the normalized output from a parser.
type ParseResult struct {
	Passed   bool           `json:"passed"`
	Summary  string         `json:"summary"`
	Findings map[string]int `json:"findings,omitempty"`
}

// Parser converts raw command output into a structured ParseResult.
type Parser interface {
	Parse(output string, exitCode int) ParseResult
}

var parsers = map[string]Parser{
	"flake8":  &Flake8Parser{},
	"isort":   &IsortParser{},
	"generic": &GenericParser{},
}

// ParserFor returns the named parser, falling back to the generic one.
func ParserFor(name string) Parser {
	if p, ok := parsers[name]; ok {
		return p
	}
	return parsers["generic"]
}

// formatCounts renders counts as "A: 2, B: 1", ordered by key.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}
