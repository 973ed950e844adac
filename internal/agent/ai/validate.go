package ai

import (
	"regexp"
	"strings"
)

// Generated narrative is informational, never prescriptive. These patterns
// catch advice language that must not reach the user.
var prohibitedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\byou\s+should\b`),
	regexp.MustCompile(`\byou\s+must\b`),
	regexp.MustCompile(`\byou\s+need\s+to\b`),
	regexp.MustCompile(`\bbuy\b`),
	regexp.MustCompile(`\bsell\b`),
	regexp.MustCompile(`\binvest\s+in\b`),
	regexp.MustCompile(`\bpurchase\b`),
	regexp.MustCompile(`\brecommend\s+(that\s+)?you\b`),
	regexp.MustCompile(`\bi\s+recommend\b`),
	regexp.MustCompile(`\byou\s+ought\s+to\b`),
}

const maxNarrativeLen = 10000

// ValidateNarrative checks generated text for prohibited advice language and
// structural problems. It returns the list of issues; empty means valid.
func ValidateNarrative(content string) []string {
	var issues []string
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return []string{"output is empty"}
	}
	if len(trimmed) > maxNarrativeLen {
		issues = append(issues, "output excessively long")
	}
	lower := strings.ToLower(trimmed)
	for _, p := range prohibitedPatterns {
		if p.MatchString(lower) {
			issues = append(issues, "prohibited language detected: "+p.String())
		}
	}
	return issues
}
