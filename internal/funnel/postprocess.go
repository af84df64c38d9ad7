package funnel

import (
	"regexp"
	"strings"
)

// Patterns for reply normalization.
var (
	lineBreakRun = regexp.MustCompile(`\s*\r?\n+\s*`)
	spaceRun     = regexp.MustCompile(`[ \t]{2,}`)
)

// Postprocess cleans a generated reply before it is stored or displayed:
// line-break runs collapse to single spaces, spurious single capital letters
// are stripped, space runs collapse, and the result is trimmed. The function
// is idempotent; see postprocess tests.
func Postprocess(raw string) string {
	s := lineBreakRun.ReplaceAllString(raw, " ")
	s = stripSpuriousCapitals(s)
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripSpuriousCapitals removes isolated uppercase letters the model
// sometimes injects as formatting artifacts. A token consisting of a single
// capital letter is dropped unless it is "A" or "I", the two single-letter
// English words a real reply can contain.
func stripSpuriousCapitals(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if len(f) == 1 && f[0] >= 'A' && f[0] <= 'Z' && f != "A" && f != "I" {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
