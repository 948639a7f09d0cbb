// Package util provides small string helpers for generated identifiers.
package util

import (
	"regexp"
	"strings"
)

var nonWordRegex = regexp.MustCompile(`\W`)

// SanitizeIdentifier validates and sanitizes database identifiers by removing non-word characters.
func SanitizeIdentifier(ident string) string {
	return nonWordRegex.ReplaceAllString(ident, "")
}

// TruncateIdentifier shortens an identifier to maxLen bytes, trimming any
// trailing underscore left by the cut. Identifiers at or under the limit
// pass through unchanged.
func TruncateIdentifier(ident string, maxLen int) string {
	if maxLen <= 0 || len(ident) <= maxLen {
		return ident
	}
	return strings.TrimRight(ident[:maxLen], "_")
}
