package engine

import "github.com/coregx/sqladvisor/internal/sqlparse"

// Error is returned when metadata retrieval fails after parsing succeeded.
// The parsed query is attached so callers can still display what was
// understood from the statement.
type Error struct {
	Query *sqlparse.ParsedQuery
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "metadata retrieval failed: " + e.Err.Error()
}

// Unwrap exposes the underlying catalog error for errors.Is/As matching.
func (e *Error) Unwrap() error {
	return e.Err
}
