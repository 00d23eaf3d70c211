package checks

import (
	"fmt"
	"strings"
)

// IsortParser counts files that isort --check reports as unsorted.
type IsortParser struct{}

func (p *IsortParser) Parse(output string, exitCode int) ParseResult {
	unsorted := 0
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") && strings.Contains(line, "incorrectly sorted") {
			unsorted++
		}
	}

	switch {
	case unsorted > 0:
		return ParseResult{
			Passed:   false,
			Summary:  fmt.Sprintf("%d files with unsorted imports", unsorted),
			Findings: map[string]int{"unsorted": unsorted},
		}
	case exitCode != 0:
		return ParseResult{Passed: false, Summary: fmt.Sprintf("exit code %d", exitCode)}
	default:
		return ParseResult{Passed: true, Summary: "imports sorted"}
	}
}
