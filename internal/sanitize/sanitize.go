// Package sanitize scrubs user-entered text before it is persisted.
//
// The sanitizer removes QA fixture markers and common injection/traversal
// tokens. It is a defense-in-depth scrub against test fixtures leaking into
// stored notes, not a security boundary on its own. Sanitization is
// idempotent: a second pass returns its input unchanged.
package sanitize

import (
	"regexp"
	"strings"
)

// trapMarkers cause the whole containing line to be dropped.
var trapMarkers = []string{
	"qa/trap",
	"trap token",
	"test token",
}

// removedToken replaces every match of the dangerous pattern set.
const removedToken = "[REMOVED]"

// dangerousPatterns match traversal, script-injection, and raw-path tokens.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.\.%2f`),
	regexp.MustCompile(`(?i)%2e%2e`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)file:///`),
	regexp.MustCompile(`(?i)data:`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)onclick=`),
	regexp.MustCompile(`(?i)onerror=`),
	regexp.MustCompile(`(?i)C:\\Users`),
	regexp.MustCompile(`(?i)C:/Users`),
	regexp.MustCompile(`(?i)\\x[0-9a-f]{2}`),
}

// blankRuns collapses three or more consecutive newlines into a single blank
// line.
var blankRuns = regexp.MustCompile(`\n{3,}`)

// Sanitize scrubs content for persistence:
//
//  1. Lines containing a trap marker (case-insensitive) are dropped whole.
//  2. Matches of the dangerous pattern set are replaced with [REMOVED].
//  3. Trailing whitespace is stripped per line; runs of blank lines collapse
//     to one; the result is trimmed.
func Sanitize(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		lower := strings.ToLower(line)
		trapped := false
		for _, marker := range trapMarkers {
			if strings.Contains(lower, marker) {
				trapped = true
				break
			}
		}
		if !trapped {
			kept = append(kept, line)
		}
	}
	out := strings.Join(kept, "\n")

	for _, re := range dangerousPatterns {
		out = re.ReplaceAllString(out, removedToken)
	}

	trimmed := strings.Split(out, "\n")
	for i, line := range trimmed {
		trimmed[i] = strings.TrimRight(line, " \t")
	}
	out = strings.Join(trimmed, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")

	return strings.TrimSpace(out)
}

// WordCount counts whitespace-separated tokens in sanitized content.
func WordCount(content string) int {
	return len(strings.Fields(content))
}
