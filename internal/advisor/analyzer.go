package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coregx/sqladvisor/internal/catalog"
	"github.com/coregx/sqladvisor/internal/config"
	"github.com/coregx/sqladvisor/internal/dialects"
	"github.com/coregx/sqladvisor/internal/sqlparse"
)

// Analyzer computes index recommendations. It carries only configuration;
// Analyze itself is stateless and safe for concurrent use.
type Analyzer struct {
	params  config.Params
	dialect dialects.Dialect
}

// New creates an Analyzer with the given scoring parameters. A nil dialect
// falls back to bare identifiers in generated DDL.
func New(params config.Params, dialect dialects.Dialect) *Analyzer {
	if dialect == nil {
		dialect = dialects.DefaultDialect{}
	}
	return &Analyzer{params: params, dialect: dialect}
}

// Analyze computes ranked recommendations for every analyzable table of the
// query. Tables reachable only through OR-group predicates or nested
// subqueries are skipped.
func (a *Analyzer) Analyze(q *sqlparse.ParsedQuery, indexes []catalog.IndexMetadata, stats []catalog.ColumnStatistics) []Recommendation {
	statIndex := buildStatIndex(stats)
	indexesByTable := groupIndexes(indexes)

	var recs []Recommendation
	for _, key := range q.TableKeys() {
		if !tableAnalyzable(q, key) {
			continue
		}
		table := tableName(key)
		tableIndexes := indexesByTable[table]

		recs = append(recs, a.redundant(table, tableIndexes)...)

		ideal, eqCount := a.idealOrder(q, key, statIndex[table])
		if len(ideal) == 0 {
			continue
		}
		if rec, ok := a.coverageRecommendation(q, key, ideal, eqCount, tableIndexes); ok {
			recs = append(recs, rec)
		}
	}

	sortRecommendations(recs)
	return recs
}

// tableAnalyzable reports whether a table contributes any index-usable
// predicate, join, or sort column. A table restricted only by OR-grouped
// predicates is skipped entirely.
func tableAnalyzable(q *sqlparse.ParsedQuery, key string) bool {
	if t, ok := q.Table(key); ok && t.Subquery != nil {
		return false
	}
	for _, p := range q.Predicates {
		if p.Table == key && !p.OrGroup && p.Class != sqlparse.ClassExcluded {
			return true
		}
	}
	for _, j := range q.Joins {
		if j.LeftTable == key || j.RightTable == key {
			return true
		}
	}
	for _, c := range q.GroupBy {
		if c.Table == key {
			return true
		}
	}
	for _, c := range q.OrderBy {
		if c.Table == key {
			return true
		}
	}
	return false
}

// candidateColumn is one column considered for the ideal order, with its
// selectivity estimate. Source order is preserved through stable sorting so
// equally selective columns tie-break deterministically.
type candidateColumn struct {
	name     string
	fraction float64
	known    bool
}

// idealOrder computes the ideal composite-index column order for one table:
// equality-class columns most-selective-first, then the single most
// selective range-class column, then GROUP BY/ORDER BY columns not already
// present, in source order. The second result is the length of the
// equality-class prefix.
func (a *Analyzer) idealOrder(q *sqlparse.ParsedQuery, key string, stats tableStats) ([]candidateColumn, int) {
	equality := collectClass(q, key, stats, sqlparse.ClassEquality)
	sort.SliceStable(equality, func(i, j int) bool {
		return equality[i].fraction < equality[j].fraction
	})

	ideal := equality
	seen := make(map[string]bool, len(ideal)+4)
	for _, c := range ideal {
		seen[c.name] = true
	}

	// Any index column after the first range column cannot prune further,
	// so at most one range column is worth including.
	ranges := collectClass(q, key, stats, sqlparse.ClassRange)
	var bestRange *candidateColumn
	for i := range ranges {
		if seen[ranges[i].name] {
			continue
		}
		if bestRange == nil || ranges[i].fraction < bestRange.fraction {
			bestRange = &ranges[i]
		}
	}
	if bestRange != nil {
		ideal = append(ideal, *bestRange)
		seen[bestRange.name] = true
	}

	for _, list := range [][]sqlparse.ColumnRef{q.GroupBy, q.OrderBy} {
		for _, c := range list {
			if c.Table != key || seen[c.Column] {
				continue
			}
			ideal = append(ideal, candidateColumn{name: c.Column, fraction: unknownFraction})
			seen[c.Column] = true
		}
	}
	return ideal, len(equality)
}

// collectClass gathers the table's usable predicate columns of one class,
// deduplicated with the best (lowest) fraction per column.
func collectClass(q *sqlparse.ParsedQuery, key string, stats tableStats, class sqlparse.PredicateClass) []candidateColumn {
	var out []candidateColumn
	byName := make(map[string]int)
	for _, p := range q.Predicates {
		if p.Table != key || p.OrGroup || p.Class != class {
			continue
		}
		fraction, known := estimateFraction(p, stats)
		if at, dup := byName[p.Column]; dup {
			if fraction < out[at].fraction {
				out[at].fraction = fraction
				out[at].known = known
			}
			continue
		}
		byName[p.Column] = len(out)
		out = append(out, candidateColumn{name: p.Column, fraction: fraction, known: known})
	}
	return out
}

// coverageRecommendation decides between CREATE_INDEX, EXTEND_INDEX, and no
// action for one table's ideal order.
func (a *Analyzer) coverageRecommendation(q *sqlparse.ParsedQuery, key string, ideal []candidateColumn, eqCount int, tableIndexes []catalog.IndexMetadata) (Recommendation, bool) {
	table := tableName(key)
	idealNames := make([]string, len(ideal))
	for i, c := range ideal {
		idealNames[i] = c.name
	}

	bestCoverage := 0.0
	bestName := ""
	for _, idx := range tableIndexes {
		cov := coverage(idx.ColumnNames(), idealNames)
		if cov > bestCoverage {
			bestCoverage = cov
			bestName = idx.Name
		}
	}
	if bestCoverage >= a.params.CoverageThreshold {
		return Recommendation{}, false
	}

	score := a.benefitScore(q, key, ideal)

	// Prefer widening an index whose whole column list is already a leading
	// prefix of the ideal order; cheaper than carrying a second index.
	if extend, ok := extendCandidate(tableIndexes, idealNames, eqCount, a.params.ExtendThreshold); ok {
		missing := idealNames[len(extend.Columns):]
		return Recommendation{
			Kind:         KindExtendIndex,
			Table:        table,
			Index:        extend.Name,
			Columns:      idealNames,
			BenefitScore: score,
			Reason:       ReasonExtendPrefix,
			Rationale: fmt.Sprintf(
				"index %s already covers the leading columns; extending it with (%s) completes the ideal order",
				extend.Name, strings.Join(missing, ", ")),
			DDL: a.createIndexDDL(table, idealNames),
		}, true
	}

	reason := ReasonNoIndex
	rationale := fmt.Sprintf("no index exists on %s for the ideal column order (%s)",
		table, strings.Join(idealNames, ", "))
	if len(tableIndexes) > 0 {
		reason = ReasonLowCoverage
		rationale = fmt.Sprintf(
			"best existing index %s covers %.0f%% of the ideal column order (%s)",
			bestName, bestCoverage*100, strings.Join(idealNames, ", "))
	}
	return Recommendation{
		Kind:         KindCreateIndex,
		Table:        table,
		Columns:      idealNames,
		BenefitScore: score,
		Reason:       reason,
		Rationale:    rationale,
		DDL:          a.createIndexDDL(table, idealNames),
	}, true
}

// coverage is the length of the common leading-column prefix between an
// index and the ideal order, as a fraction of the ideal order's length.
func coverage(indexColumns, ideal []string) float64 {
	if len(ideal) == 0 {
		return 0
	}
	prefix := 0
	for prefix < len(indexColumns) && prefix < len(ideal) {
		if indexColumns[prefix] != ideal[prefix] {
			break
		}
		prefix++
	}
	return float64(prefix) / float64(len(ideal))
}

// extendCandidate finds the widest existing index whose entire column list
// is a strict leading prefix of the ideal order and is "almost there":
// either it already covers the whole equality-class prefix and misses only
// trailing range/sort columns, or its coverage reaches the extend threshold.
func extendCandidate(tableIndexes []catalog.IndexMetadata, ideal []string, eqCount int, threshold float64) (catalog.IndexMetadata, bool) {
	var best catalog.IndexMetadata
	found := false
	for _, idx := range tableIndexes {
		cols := idx.ColumnNames()
		if len(cols) == 0 || len(cols) >= len(ideal) {
			continue
		}
		if !isPrefix(cols, ideal) {
			continue
		}
		coversEquality := len(cols) >= eqCount && eqCount > 0
		if !coversEquality && float64(len(cols))/float64(len(ideal)) < threshold {
			continue
		}
		if !found || len(cols) > len(best.Columns) {
			best = idx
			found = true
		}
	}
	return best, found
}

// redundant flags indexes whose column list is a strict prefix of another
// index on the same table. A unique index shadowed by a non-unique one is
// exempt: dropping it would lose the constraint.
func (a *Analyzer) redundant(table string, tableIndexes []catalog.IndexMetadata) []Recommendation {
	var recs []Recommendation
	flagged := make(map[string]bool)
	for _, shorter := range tableIndexes {
		if flagged[shorter.Name] {
			continue
		}
		for _, longer := range tableIndexes {
			if shorter.Name == longer.Name {
				continue
			}
			sc, lc := shorter.ColumnNames(), longer.ColumnNames()
			if len(sc) == 0 || len(sc) >= len(lc) || !isPrefix(sc, lc) {
				continue
			}
			if shorter.Unique && !longer.Unique {
				continue
			}
			flagged[shorter.Name] = true
			recs = append(recs, Recommendation{
				Kind:         KindDropRedundant,
				Table:        table,
				Index:        shorter.Name,
				Columns:      sc,
				BenefitScore: a.params.RedundantScore,
				Reason:       ReasonRedundantPrefix,
				Rationale: fmt.Sprintf(
					"index %s is a strict prefix of %s and provides no additional lookup capability",
					shorter.Name, longer.Name),
				DDL: a.dropIndexDDL(shorter.Name),
			})
			break
		}
	}
	return recs
}

func isPrefix(short, long []string) bool {
	if len(short) > len(long) {
		return false
	}
	for i := range short {
		if short[i] != long[i] {
			return false
		}
	}
	return true
}

// benefitScore combines leading-column selectivity with bonuses for avoided
// sort and table-lookup work. Missing statistics fall back to a neutral
// mid-range component rather than zero.
func (a *Analyzer) benefitScore(q *sqlparse.ParsedQuery, key string, ideal []candidateColumn) float64 {
	combined := 1.0
	anyKnown := false
	for _, c := range ideal {
		if !c.known {
			continue
		}
		combined *= c.fraction
		anyKnown = true
	}

	score := a.params.NeutralSelectivity
	if anyKnown {
		score = a.params.SelectivityWeight * (1 - combined)
		if score < 0 {
			score = 0
		}
	}

	if sortSatisfied(q, key, ideal) {
		score += a.params.SortAvoidanceBonus
	}
	if coversProjection(q, key, ideal) {
		score += a.params.CoveringBonus
	}

	if score > 100 {
		score = 100
	}
	return score
}

// sortSatisfied reports whether the ideal order contains every GROUP BY and
// ORDER BY column of the table, so an index scan could avoid a sort step.
func sortSatisfied(q *sqlparse.ParsedQuery, key string, ideal []candidateColumn) bool {
	wanted := 0
	for _, list := range [][]sqlparse.ColumnRef{q.GroupBy, q.OrderBy} {
		for _, c := range list {
			if c.Table == key {
				wanted++
			}
		}
	}
	if wanted == 0 {
		return false
	}
	return containsAll(ideal, q.GroupBy, key) && containsAll(ideal, q.OrderBy, key)
}

// coversProjection reports whether the ideal order includes every projected
// column of the table, making an index-only scan possible.
func coversProjection(q *sqlparse.ParsedQuery, key string, ideal []candidateColumn) bool {
	if q.SelectWildcard {
		return false
	}
	selected := 0
	for _, c := range q.Select {
		if c.Table == key {
			selected++
		}
	}
	if selected == 0 {
		return false
	}
	return containsAll(ideal, q.Select, key)
}

func containsAll(ideal []candidateColumn, refs []sqlparse.ColumnRef, key string) bool {
	for _, c := range refs {
		if c.Table != key {
			continue
		}
		found := false
		for _, ic := range ideal {
			if ic.name == c.Column {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sortRecommendations orders by descending benefit, then table name, then
// column list, then kind, for deterministic output.
func sortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].BenefitScore != recs[j].BenefitScore {
			return recs[i].BenefitScore > recs[j].BenefitScore
		}
		if recs[i].Table != recs[j].Table {
			return recs[i].Table < recs[j].Table
		}
		ci := strings.Join(recs[i].Columns, ",")
		cj := strings.Join(recs[j].Columns, ",")
		if ci != cj {
			return ci < cj
		}
		return recs[i].Kind < recs[j].Kind
	})
}

// groupIndexes keys metadata by bare lowercase table name; IndexMetadata
// carries no owner, so a query referencing same-named tables from two
// schemas sees both tables' indexes under one key.
func groupIndexes(indexes []catalog.IndexMetadata) map[string][]catalog.IndexMetadata {
	out := make(map[string][]catalog.IndexMetadata)
	for _, idx := range indexes {
		table := strings.ToLower(idx.Table)
		out[table] = append(out[table], idx)
	}
	return out
}

// tableName strips the owner qualifier from a canonical table key.
func tableName(key string) string {
	if i := strings.LastIndex(key, "."); i != -1 {
		return key[i+1:]
	}
	return key
}
