package catalog

import (
	"database/sql/driver"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestMapMySQLError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"db access denied", &mysql.MySQLError{Number: 1044}, ErrAccessDenied},
		{"bad credentials", &mysql.MySQLError{Number: 1045}, ErrAccessDenied},
		{"table access denied", &mysql.MySQLError{Number: 1142}, ErrAccessDenied},
		{"unknown table", &mysql.MySQLError{Number: 1146}, ErrTableNotFound},
		{"invalid conn", mysql.ErrInvalidConn, ErrConnectionUnavailable},
		{"bad conn", driver.ErrBadConn, ErrConnectionUnavailable},
		{"unrecognized", errorString("boom"), ErrConnectionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapMySQLError(tt.err, "fetch column statistics", "emp")
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}
