package checks

import (
	"fmt"
	"regexp"
	"strings"
)

// Flake8Parser counts findings in flake8's default output format.
type Flake8Parser struct{}

// path:line:col: CODE message
var flake8Line = regexp.MustCompile(`^.+?:\d+:\d+: ([A-Z]+[0-9]+) `)

func (p *Flake8Parser) Parse(output string, exitCode int) ParseResult {
	counts := make(map[string]int)
	total := 0
	for _, line := range strings.Split(output, "\n") {
		m := flake8Line.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		counts[m[1]]++
		total++
	}

	if total == 0 {
		if exitCode == 0 {
			return ParseResult{Passed: true, Summary: "no findings"}
		}
		return ParseResult{Passed: false, Summary: fmt.Sprintf("exit code %d (no parseable findings)", exitCode)}
	}
	return ParseResult{
		Passed:   false,
		Summary:  fmt.Sprintf("%d findings (%s)", total, formatCounts(counts)),
		Findings: counts,
	}
}
