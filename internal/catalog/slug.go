package catalog

import (
	"strings"
	"unicode"
)

// Slug derives the normalized lookup key from a display name: trimmed,
// spaces become underscores, everything outside [letter digit _] is dropped,
// the rest is lower-cased. Slug("") == "".
func Slug(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
