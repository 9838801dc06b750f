package summary

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSummaryLength is the longest summary element, in runes, accepted for
// the front matter.
const MaxSummaryLength = 200

// ErrMalformedSummary is returned when normalized output fails validation.
var ErrMalformedSummary = errors.New("summary does not meet requirements")

var listMarker = regexp.MustCompile(`(?m)^[ \t]*[-*+] `)

// Normalize turns raw model output into the list-of-one-string form stored in
// front matter: list markers at line starts are removed, newlines become
// spaces, and the result is trimmed and cut to MaxSummaryLength runes.
// Empty input yields an empty list.
func Normalize(raw string) []string {
	if raw == "" {
		return []string{}
	}
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = listMarker.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)
	return []string{truncate(text, MaxSummaryLength)}
}

// Validate rejects an empty list, an empty element, or any element longer
// than MaxSummaryLength runes.
func Validate(items []string) error {
	if len(items) < 1 {
		return fmt.Errorf("%w: no summary", ErrMalformedSummary)
	}
	for i, item := range items {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf("%w: element %d is empty", ErrMalformedSummary, i)
		}
		if n := utf8.RuneCountInString(item); n > MaxSummaryLength {
			return fmt.Errorf("%w: element %d has %d characters, limit is %d", ErrMalformedSummary, i, n, MaxSummaryLength)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
