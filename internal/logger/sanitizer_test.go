package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSQLDefaults(t *testing.T) {
	s := NewSanitizer(nil)

	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "string literal against password",
			sql:  "SELECT * FROM users WHERE password = 'hunter2'",
			want: "SELECT * FROM users WHERE password = '***REDACTED***'",
		},
		{
			name: "numeric literal against pin-like column",
			sql:  "SELECT * FROM cards WHERE cvv = 123",
			want: "SELECT * FROM cards WHERE cvv = '***REDACTED***'",
		},
		{
			name: "case insensitive column match",
			sql:  "SELECT * FROM users WHERE PASSWORD = 'x'",
			want: "SELECT * FROM users WHERE PASSWORD = '***REDACTED***'",
		},
		{
			name: "like comparison",
			sql:  "SELECT * FROM keys WHERE api_key LIKE 'sk_%'",
			want: "SELECT * FROM keys WHERE api_key LIKE '***REDACTED***'",
		},
		{
			name: "inequality operator",
			sql:  "SELECT * FROM users WHERE token <> 'abc'",
			want: "SELECT * FROM users WHERE token <> '***REDACTED***'",
		},
		{
			name: "escaped quote inside literal",
			sql:  "SELECT * FROM users WHERE password = 'it''s'",
			want: "SELECT * FROM users WHERE password = '***REDACTED***'",
		},
		{
			name: "non-sensitive columns untouched",
			sql:  "SELECT * FROM emp WHERE dept_id = 10 AND last_name = 'Smith'",
			want: "SELECT * FROM emp WHERE dept_id = 10 AND last_name = 'Smith'",
		},
		{
			name: "bind placeholder has nothing to mask",
			sql:  "SELECT * FROM users WHERE password = :1",
			want: "SELECT * FROM users WHERE password = :1",
		},
		{
			name: "partial column name does not match",
			sql:  "SELECT * FROM audit WHERE password_changed_at > '2024-01-01'",
			want: "SELECT * FROM audit WHERE password_changed_at > '2024-01-01'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.MaskSQL(tt.sql))
		})
	}
}

func TestMaskSQLCustomFields(t *testing.T) {
	s := NewSanitizer([]string{"salary"})

	masked := s.MaskSQL("SELECT * FROM emp WHERE salary > 100000 AND password = 'x'")
	assert.Equal(t, "SELECT * FROM emp WHERE salary > '***REDACTED***' AND password = 'x'", masked,
		"custom field list replaces the defaults")
}

func TestMaskSQLMultipleOccurrences(t *testing.T) {
	s := NewSanitizer(nil)

	masked := s.MaskSQL("SELECT * FROM u WHERE password = 'a' AND token = 'b'")
	assert.NotContains(t, masked, "'a'")
	assert.NotContains(t, masked, "'b'")
	assert.Equal(t, 2, strings.Count(masked, "***REDACTED***"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "SELECT...", Truncate("SELECT * FROM emp", 6))
	assert.Equal(t, "untouched", Truncate("untouched", 0))

	// Whitespace at the cut point is trimmed before the ellipsis.
	assert.Equal(t, "SELECT...", Truncate("SELECT  id FROM emp", 8))
}
