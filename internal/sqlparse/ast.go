// Package sqlparse turns a single SELECT statement into a structured
// representation of its table and column usage. It is a hand-written
// tokenizer plus recursive-descent parser; the output is consumed by the
// index advisor, so the parser cares about predicates, joins, and column
// ordering rather than full expression semantics.
package sqlparse

import "strings"

// JoinType identifies the join form between two tables.
type JoinType int

const (
	// JoinInner is an inner join (explicit JOIN or an implicit comma join
	// linked by a WHERE equality).
	JoinInner JoinType = iota
	// JoinLeft is a LEFT [OUTER] JOIN.
	JoinLeft
	// JoinRight is a RIGHT [OUTER] JOIN.
	JoinRight
	// JoinFull is a FULL [OUTER] JOIN.
	JoinFull
)

// String returns the SQL spelling of the join type.
func (j JoinType) String() string {
	switch j {
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	default:
		return "INNER"
	}
}

// Operator is a comparison operator appearing in a predicate.
type Operator int

const (
	// OpEq is "=".
	OpEq Operator = iota
	// OpNotEq is "<>" or "!=".
	OpNotEq
	// OpLt is "<".
	OpLt
	// OpLte is "<=".
	OpLte
	// OpGt is ">".
	OpGt
	// OpGte is ">=".
	OpGte
	// OpBetween is "BETWEEN low AND high".
	OpBetween
	// OpIn is "IN (...)", either a value list or a one-level subquery.
	OpIn
	// OpLike is "LIKE pattern".
	OpLike
	// OpIsNull is "IS NULL".
	OpIsNull
	// OpIsNotNull is "IS NOT NULL".
	OpIsNotNull
)

// String returns the SQL spelling of the operator.
func (o Operator) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNotEq:
		return "<>"
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpBetween:
		return "BETWEEN"
	case OpIn:
		return "IN"
	case OpLike:
		return "LIKE"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	}
	return "?"
}

// PredicateClass partitions predicates by how an index can serve them.
type PredicateClass int

const (
	// ClassEquality predicates ("=", "IN", join equality) can be satisfied
	// by an index lookup on a single value or a small value set.
	ClassEquality PredicateClass = iota
	// ClassRange predicates ("<", "<=", ">", ">=", "BETWEEN", prefix LIKE)
	// require an index range scan.
	ClassRange
	// ClassExcluded predicates cannot drive an index lookup at all:
	// inequality, IS [NOT] NULL, non-prefix LIKE, negated operators, and
	// column-to-column comparisons within one table.
	ClassExcluded
)

// String names the class for rationale text and logs.
func (c PredicateClass) String() string {
	switch c {
	case ClassEquality:
		return "equality"
	case ClassRange:
		return "range"
	default:
		return "excluded"
	}
}

// OperandKind identifies what kind of value a predicate compares against.
type OperandKind int

const (
	// OperandLiteral is an inline literal (string, number, NULL, value list).
	OperandLiteral OperandKind = iota
	// OperandBind is a bind variable (:1, :name, ?).
	OperandBind
	// OperandColumn is a column reference, as in a join condition.
	OperandColumn
	// OperandSubquery is a one-level nested SELECT.
	OperandSubquery
)

// Operand is the right-hand side of a predicate. Only literal operands may
// later refine selectivity estimates; bind variables stay "unknown".
type Operand struct {
	Kind     OperandKind
	Text     string
	Subquery *ParsedQuery
}

// TableRef is a table appearing in the FROM clause. A derived table
// ("FROM (SELECT ...) x") carries its nested query in Subquery and has an
// empty Name.
type TableRef struct {
	Owner    string
	Name     string
	Alias    string
	Subquery *ParsedQuery
}

// Key returns the canonical identity of the table within one query:
// lowercase "owner.name", "name" when unqualified, or the alias for a
// derived table. Predicates and column lists reference tables by this key.
func (t TableRef) Key() string {
	if t.Subquery != nil {
		return strings.ToLower(t.Alias)
	}
	if t.Owner != "" {
		return strings.ToLower(t.Owner + "." + t.Name)
	}
	return strings.ToLower(t.Name)
}

// ColumnRef is a resolved column reference. Table holds the owning table's
// canonical key. Descending is meaningful only for ORDER BY entries.
type ColumnRef struct {
	Table      string
	Column     string
	Descending bool
}

// Predicate is one restriction extracted from WHERE or an ON clause.
type Predicate struct {
	Table   string
	Column  string
	Op      Operator
	Operand Operand
	// High is the upper bound of a BETWEEN, nil otherwise.
	High *Operand
	// Negated marks NOT IN / NOT LIKE / NOT BETWEEN.
	Negated bool
	// OrGroup marks predicates nested under an OR; these never feed the
	// ideal-index computation.
	OrGroup bool
	// FromJoin marks the equality predicates mirrored onto both sides of a
	// join condition.
	FromJoin bool
	Class    PredicateClass
}

// Join is a normalized join between two tables. Implicit comma joins linked
// by WHERE equality and explicit JOIN ... ON produce identical entries.
type Join struct {
	LeftTable   string
	LeftColumn  string
	RightTable  string
	RightColumn string
	Type        JoinType
}

// ParsedQuery is the immutable result of parsing one SELECT statement.
type ParsedQuery struct {
	Tables     []TableRef
	Predicates []Predicate
	Joins      []Join
	GroupBy    []ColumnRef
	OrderBy    []ColumnRef
	// Select lists columns referenced in the projection; used only for
	// covering-index scoring.
	Select []ColumnRef
	// SelectWildcard is true when the projection contains "*" (or "t.*"),
	// which makes a covering index impossible.
	SelectWildcard bool
}

// TableKeys returns the canonical keys of all FROM-clause tables in source
// order, excluding derived tables.
func (q *ParsedQuery) TableKeys() []string {
	keys := make([]string, 0, len(q.Tables))
	for _, t := range q.Tables {
		if t.Subquery != nil {
			continue
		}
		keys = append(keys, t.Key())
	}
	return keys
}

// Table looks up a FROM-clause table by canonical key.
func (q *ParsedQuery) Table(key string) (TableRef, bool) {
	for _, t := range q.Tables {
		if t.Key() == key {
			return t, true
		}
	}
	return TableRef{}, false
}

// classify assigns the index-usability class for a predicate.
func classify(op Operator, operand Operand, negated bool) PredicateClass {
	if negated {
		return ClassExcluded
	}
	switch op {
	case OpEq, OpIn:
		return ClassEquality
	case OpLt, OpLte, OpGt, OpGte, OpBetween:
		return ClassRange
	case OpLike:
		if operand.Kind == OperandLiteral && likeHasUsablePrefix(operand.Text) {
			return ClassRange
		}
		// A bind pattern or a leading wildcard cannot be range-scanned.
		return ClassExcluded
	default:
		return ClassExcluded
	}
}

// likeHasUsablePrefix reports whether a LIKE pattern starts with at least one
// literal character, so an index range scan over that prefix is possible.
// "abc%" qualifies; "%abc" and "_bc" do not.
func likeHasUsablePrefix(pattern string) bool {
	if pattern == "" {
		return false
	}
	return pattern[0] != '%' && pattern[0] != '_'
}
