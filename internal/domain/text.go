package domain

import (
	"regexp"
	"strings"
)

var (
	urlPattern         = regexp.MustCompile(`http\S*`)
	mentionPattern     = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}]`)
	whitespacePattern  = regexp.MustCompile(`[\s\p{Z}]+`)
)

// NormalizeText strips URLs, @mentions and punctuation from text and
// collapses whitespace. URL and mention removal run before punctuation
// removal so a URL never leaves fragments behind.
//
// The pass repeats until the output is stable: stripping punctuation can join
// characters into a new "http" token, and a second pass removes it. This
// makes NormalizeText idempotent.
func NormalizeText(text string) string {
	for {
		next := normalizeOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func normalizeOnce(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = punctuationPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
