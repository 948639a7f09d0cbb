package logger

import (
	"regexp"
	"strings"
)

// Sanitizer masks sensitive literal values in SQL text before it is logged.
// Analyzed statements arrive verbatim from callers and may embed secrets as
// literals next to columns like password or api_key.
type Sanitizer struct {
	sensitiveFields []string
	maskValue       string
	// Compiled patterns for faster matching
	patterns []*regexp.Regexp
}

// NewSanitizer creates a new sanitizer with the specified sensitive field names.
// If no fields are provided, a default set of common sensitive field names is used.
func NewSanitizer(sensitiveFields []string) *Sanitizer {
	if len(sensitiveFields) == 0 {
		// Default sensitive field names (common patterns)
		sensitiveFields = []string{
			"password", "passwd", "pwd",
			"token", "api_key", "apikey", "api_token",
			"secret", "auth", "authorization",
			"credit_card", "card_number", "cvv", "cvc",
			"ssn", "social_security",
			"private_key", "priv_key",
		}
	}

	// Compile patterns for efficient matching: sensitive column compared
	// against a string or numeric literal.
	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		pattern := regexp.MustCompile(
			`(?i)\b` + regexp.QuoteMeta(field) + `\b\s*(?:=|<>|!=|>=|<=|>|<|\bLIKE\b)\s*('(?:[^']|'')*'|\d[\d.]*)`)
		patterns = append(patterns, pattern)
	}

	return &Sanitizer{
		sensitiveFields: sensitiveFields,
		maskValue:       "***REDACTED***",
		patterns:        patterns,
	}
}

// MaskSQL replaces literal values compared against sensitive columns with
// the mask value. The statement structure is preserved so the log line
// remains readable; the original string is not modified.
func (s *Sanitizer) MaskSQL(sql string) string {
	for _, pattern := range s.patterns {
		sql = pattern.ReplaceAllStringFunc(sql, func(m string) string {
			sub := pattern.FindStringSubmatch(m)
			if sub == nil {
				return m
			}
			return strings.TrimSuffix(m, sub[1]) + "'" + s.maskValue + "'"
		})
	}
	return sql
}

// Truncate shortens very long statement text for logging.
// Statements at or under the limit pass through unchanged.
func Truncate(sql string, maxLen int) string {
	if maxLen <= 0 || len(sql) <= maxLen {
		return sql
	}
	return strings.TrimSpace(sql[:maxLen]) + "..."
}
