// Package advisor computes index recommendations from a parsed query and a
// catalog snapshot. Analysis is a pure function of its inputs: no hidden
// state, no mutation after construction, byte-identical output for identical
// input.
package advisor

// Kind categorizes a recommendation.
type Kind int

const (
	// KindCreateIndex recommends creating a new composite index.
	KindCreateIndex Kind = iota
	// KindExtendIndex recommends widening an existing index whose columns
	// are a leading prefix of the ideal order; operationally cheaper than a
	// fresh index.
	KindExtendIndex
	// KindDropRedundant flags an index whose column list is a strict prefix
	// of another index on the same table.
	KindDropRedundant
)

// String returns the wire spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindExtendIndex:
		return "EXTEND_INDEX"
	case KindDropRedundant:
		return "DROP_REDUNDANT"
	default:
		return "CREATE_INDEX"
	}
}

// ReasonCode is a machine-readable rationale category.
type ReasonCode string

const (
	// ReasonNoIndex marks a table with no existing index over the ideal
	// columns at all.
	ReasonNoIndex ReasonCode = "NO_INDEX"
	// ReasonLowCoverage marks an ideal order no existing index covers
	// sufficiently.
	ReasonLowCoverage ReasonCode = "LOW_COVERAGE"
	// ReasonExtendPrefix marks an existing index that already covers the
	// leading columns and only misses a trailing suffix.
	ReasonExtendPrefix ReasonCode = "EXTEND_PREFIX"
	// ReasonRedundantPrefix marks an index fully shadowed by a wider one.
	ReasonRedundantPrefix ReasonCode = "REDUNDANT_PREFIX"
)

// Recommendation is one ranked piece of index advice. It is created fresh
// per analysis call and never persisted by this subsystem.
type Recommendation struct {
	Kind  Kind
	Table string
	// Index names the existing index an EXTEND_INDEX or DROP_REDUNDANT
	// refers to; empty for CREATE_INDEX.
	Index   string
	Columns []string
	// BenefitScore ranks recommendations on a 0-100 scale. The scale is
	// monotone: more selective leading columns and more avoided sort or
	// lookup work never score lower than a strictly worse alternative.
	BenefitScore float64
	Reason       ReasonCode
	Rationale    string
	// DDL is descriptive output only; it is never executed here.
	DDL string
}
