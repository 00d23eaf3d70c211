package checks

import "fmt"

// GenericParser is the fallback parser that only looks at the exit code.
type GenericParser struct{}

func (p *GenericParser) Parse(output string, exitCode int) ParseResult {
	if exitCode == 0 {
		return ParseResult{Passed: true, Summary: "passed (exit code 0)"}
	}
	return ParseResult{
		Passed:  false,
		Summary: fmt.Sprintf("exit code %d, output=%d bytes", exitCode, len(output)),
	}
}
