package catalog

import (
	"database/sql/driver"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"insufficient privilege", &pq.Error{Code: "42501"}, ErrAccessDenied},
		{"undefined table", &pq.Error{Code: "42P01"}, ErrTableNotFound},
		{"invalid catalog", &pq.Error{Code: "3D000"}, ErrConnectionUnavailable},
		{"connection failure", &pq.Error{Code: "08006"}, ErrConnectionUnavailable},
		{"admin shutdown", &pq.Error{Code: "57P01"}, ErrConnectionUnavailable},
		{"bad conn", driver.ErrBadConn, ErrConnectionUnavailable},
		{"unrecognized", errorString("something odd"), ErrConnectionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapPostgresError(tt.err, "fetch indexes", "emp")
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}
