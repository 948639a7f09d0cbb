package sqlparse

import (
	"errors"
	"fmt"
)

// Sentinel parse failures. Callers branch with errors.Is; the concrete error
// is always a *ParseError carrying position and detail.
var (
	// ErrUnsupportedStatement is returned for anything that is not a single
	// SELECT statement (DML, DDL, MERGE, CTEs).
	ErrUnsupportedStatement = errors.New("unsupported statement type")
	// ErrNestingTooDeep is returned when subqueries nest more than one level.
	ErrNestingTooDeep = errors.New("subquery nesting too deep")
	// ErrUnresolvedColumn is returned when a column reference cannot be
	// matched to a table in the FROM clause.
	ErrUnresolvedColumn = errors.New("unresolved column reference")
	// ErrMalformedSyntax is returned for any other syntax problem.
	ErrMalformedSyntax = errors.New("malformed syntax")
)

// ParseError describes a parse failure with its byte offset in the input.
type ParseError struct {
	Kind error
	Msg  string
	Pos  int
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Pos, e.Msg)
}

// Unwrap exposes the sentinel kind for errors.Is.
func (e *ParseError) Unwrap() error {
	return e.Kind
}

func parseErrf(kind error, pos int, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos}
}
