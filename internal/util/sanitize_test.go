package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"emp", "emp"},
		{"order-items", "orderitems"},
		{"customer id", "customerid"},
		{`emp"; DROP TABLE emp;--`, "empDROPTABLEemp"},
		{"", ""},
		{"col_1", "col_1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeIdentifier(tt.input), "input %q", tt.input)
	}
}

func TestTruncateIdentifier(t *testing.T) {
	assert.Equal(t, "short", TruncateIdentifier("short", 63))
	assert.Equal(t, "exact", TruncateIdentifier("exact", 5))

	long := "idx_" + strings.Repeat("a", 100)
	got := TruncateIdentifier(long, 63)
	assert.Len(t, got, 63)
	assert.True(t, strings.HasPrefix(long, got))

	// A cut landing on a separator must not leave a dangling underscore.
	assert.Equal(t, "idx_emp", TruncateIdentifier("idx_emp_dept_id", 8))

	assert.Equal(t, "anything", TruncateIdentifier("anything", 0))
}
