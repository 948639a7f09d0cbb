// Package catalog fetches index definitions and column statistics from a
// database's system catalog. It is the engine's only I/O boundary: the
// Provider interface keeps the parser and advisor fully unit-testable
// without a live database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel metadata failures, branched on with errors.Is. The concrete error
// is always a *MetadataError carrying the affected table.
var (
	// ErrTableNotFound is returned when a referenced table does not exist in
	// the target schema.
	ErrTableNotFound = errors.New("table not found")
	// ErrAccessDenied is returned when the connection lacks catalog read
	// privilege on a referenced table.
	ErrAccessDenied = errors.New("catalog access denied")
	// ErrConnectionUnavailable is returned when the database cannot be
	// reached. Retrying is the host's concern, not the engine's.
	ErrConnectionUnavailable = errors.New("connection unavailable")
)

// MetadataError wraps a sentinel kind with the table and operation that
// triggered it.
type MetadataError struct {
	Kind  error
	Op    string
	Table string
	Cause error
}

// Error implements the error interface.
func (e *MetadataError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Table != "" {
		msg += fmt.Sprintf(" (table %s)", e.Table)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the sentinel kind for errors.Is.
func (e *MetadataError) Unwrap() error {
	return e.Kind
}

func metadataErr(kind error, op, table string, cause error) *MetadataError {
	return &MetadataError{Kind: kind, Op: op, Table: table, Cause: cause}
}

// TableRef names one table to fetch metadata for. Owner may be empty, in
// which case the connection's default schema applies.
type TableRef struct {
	Owner string
	Name  string
}

// String returns "owner.name" or just "name".
func (t TableRef) String() string {
	if t.Owner != "" {
		return t.Owner + "." + t.Name
	}
	return t.Name
}

// IndexType classifies an index's physical structure.
type IndexType int

const (
	// BTree is an ordinary balanced-tree index.
	BTree IndexType = iota
	// Bitmap is a bitmap index.
	Bitmap
	// FunctionBased is an index over an expression rather than plain columns.
	FunctionBased
	// OtherIndexType covers hash, GIN, and anything else the advisor does
	// not reason about specifically.
	OtherIndexType
)

// String names the index type.
func (t IndexType) String() string {
	switch t {
	case BTree:
		return "BTREE"
	case Bitmap:
		return "BITMAP"
	case FunctionBased:
		return "FUNCTION_BASED"
	default:
		return "OTHER"
	}
}

// IndexColumn is one column of an index, in index position order.
type IndexColumn struct {
	Name       string
	Descending bool
}

// IndexMetadata is an immutable snapshot of one index definition at fetch
// time.
type IndexMetadata struct {
	Name             string
	Owner            string
	Table            string
	Columns          []IndexColumn
	Unique           bool
	Type             IndexType
	LeafBlocks       int64
	ClusteringFactor int64
}

// ColumnNames returns the index's column names in position order, lowercased
// for comparison against parsed column references.
func (m IndexMetadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = strings.ToLower(c.Name)
	}
	return names
}

// StatUnknown marks a statistics field the catalog could not provide.
// Unknown values downgrade recommendation confidence instead of failing.
const StatUnknown = -1

// ColumnStatistics holds per-column statistics used to estimate selectivity.
type ColumnStatistics struct {
	Table  string
	Column string
	// DistinctCount is the number of distinct values, or StatUnknown.
	DistinctCount int64
	// NullFraction is the fraction of NULL rows in [0,1], or StatUnknown.
	NullFraction float64
	// AvgLength is the average stored length in bytes, or StatUnknown.
	AvgLength int64
}

// Provider fetches catalog metadata for an explicit set of tables. Each call
// is scoped to exactly the tables given; implementations must not widen or
// narrow the set.
type Provider interface {
	// FetchIndexes returns the index definitions of the given tables.
	FetchIndexes(ctx context.Context, tables []TableRef) ([]IndexMetadata, error)

	// FetchColumnStatistics returns column statistics for the given tables.
	// Tables without gathered statistics simply contribute no rows.
	FetchColumnStatistics(ctx context.Context, tables []TableRef) ([]ColumnStatistics, error)
}
