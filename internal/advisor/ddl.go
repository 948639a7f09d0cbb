package advisor

import (
	"fmt"
	"strings"

	"github.com/coregx/sqladvisor/internal/util"
)

// maxIndexNameLen keeps generated names under the tightest common
// identifier limit (PostgreSQL's 63 bytes).
const maxIndexNameLen = 63

// createIndexDDL renders a CREATE INDEX statement for the given column
// order, with identifiers quoted per the analyzer's dialect.
func (a *Analyzer) createIndexDDL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = a.dialect.QuoteIdentifier(c)
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		a.dialect.QuoteIdentifier(indexName(table, columns)),
		a.dialect.QuoteIdentifier(table),
		strings.Join(quoted, ", "))
}

func (a *Analyzer) dropIndexDDL(name string) string {
	return fmt.Sprintf("DROP INDEX %s", a.dialect.QuoteIdentifier(name))
}

// indexName builds a deterministic idx_<table>_<col1>_<col2> name,
// sanitized and truncated to the portable length limit.
func indexName(table string, columns []string) string {
	parts := make([]string, 0, len(columns)+2)
	parts = append(parts, "idx", util.SanitizeIdentifier(table))
	for _, c := range columns {
		parts = append(parts, util.SanitizeIdentifier(c))
	}
	return util.TruncateIdentifier(strings.Join(parts, "_"), maxIndexNameLen)
}
