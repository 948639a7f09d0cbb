package advisor

import (
	"strings"

	"github.com/coregx/sqladvisor/internal/catalog"
	"github.com/coregx/sqladvisor/internal/sqlparse"
)

const (
	// unknownFraction is the assumed matched-row fraction when no estimate
	// is possible (missing statistics, bind variables).
	unknownFraction = 0.5
	// literalRangeFraction is the assumed matched-row fraction of a range
	// predicate with literal bounds.
	literalRangeFraction = 0.30
)

// tableStats holds one table's column statistics keyed by lowercase column.
type tableStats map[string]catalog.ColumnStatistics

// buildStatIndex groups statistics by lowercase table name.
func buildStatIndex(stats []catalog.ColumnStatistics) map[string]tableStats {
	out := make(map[string]tableStats)
	for _, s := range stats {
		table := strings.ToLower(s.Table)
		if out[table] == nil {
			out[table] = make(tableStats)
		}
		out[table][strings.ToLower(s.Column)] = s
	}
	return out
}

// estimateFraction returns the estimated fraction of rows a predicate
// matches, and whether that estimate is statistics-backed. Lower is more
// selective. Bind variables never refine the estimate; only literals (and
// join columns, whose distinct counts are value-independent) do.
func estimateFraction(pred sqlparse.Predicate, stats tableStats) (fraction float64, known bool) {
	switch pred.Class {
	case sqlparse.ClassEquality:
		if pred.Operand.Kind == sqlparse.OperandBind ||
			pred.Operand.Kind == sqlparse.OperandSubquery {
			return unknownFraction, false
		}
		st, ok := stats[pred.Column]
		if !ok || st.DistinctCount <= 0 {
			return unknownFraction, false
		}
		values := 1.0
		if pred.Op == sqlparse.OpIn && pred.Operand.Kind == sqlparse.OperandLiteral {
			values = float64(strings.Count(pred.Operand.Text, ",") + 1)
		}
		f := values / float64(st.DistinctCount)
		if st.NullFraction >= 0 {
			f *= 1 - st.NullFraction
		}
		return clampFraction(f), true

	case sqlparse.ClassRange:
		if pred.Operand.Kind == sqlparse.OperandBind {
			return unknownFraction, false
		}
		return literalRangeFraction, true

	default:
		return unknownFraction, false
	}
}

func clampFraction(f float64) float64 {
	if f <= 0 {
		return 1e-9
	}
	if f > 1 {
		return 1
	}
	return f
}
