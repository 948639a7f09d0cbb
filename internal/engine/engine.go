// Package engine orchestrates one analysis request: parse the statement,
// fetch catalog metadata for exactly the tables found, run the coverage
// analyzer, and assemble the final artifact with timing metadata.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coregx/sqladvisor/internal/advisor"
	"github.com/coregx/sqladvisor/internal/cache"
	"github.com/coregx/sqladvisor/internal/catalog"
	"github.com/coregx/sqladvisor/internal/config"
	"github.com/coregx/sqladvisor/internal/dialects"
	"github.com/coregx/sqladvisor/internal/logger"
	"github.com/coregx/sqladvisor/internal/sqlparse"
	"github.com/coregx/sqladvisor/internal/tracer"
)

// maxLoggedSQLLen caps statement text in log lines.
const maxLoggedSQLLen = 500

// Engine runs the full analysis pipeline. Engines are stateless between
// requests and safe for concurrent use.
type Engine struct {
	provider  catalog.Provider
	driver    string
	params    config.Params
	analyzer  *advisor.Analyzer
	log       logger.Logger
	tr        tracer.Tracer
	sanitizer *logger.Sanitizer
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTracer sets the tracer. The default is a no-op.
func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tr = t
		}
	}
}

// WithMetadataCache wraps the catalog provider in a read-through cache
// keyed by the given connection identifier, using the engine's configured
// TTL and capacity.
func WithMetadataCache(connectionID string) Option {
	return func(e *Engine) {
		e.provider = cache.New(e.provider, connectionID, e.params.CacheTTL, e.params.CacheCapacity)
	}
}

// New creates an Engine over the given catalog provider. driverName selects
// the DDL dialect; unknown names degrade to unquoted identifiers.
func New(provider catalog.Provider, driverName string, params config.Params, opts ...Option) *Engine {
	e := &Engine{
		provider:  provider,
		driver:    driverName,
		params:    params,
		analyzer:  advisor.New(params, dialects.LookupDialect(driverName)),
		log:       &logger.NoopLogger{},
		tr:        &tracer.NoopTracer{},
		sanitizer: logger.NewSanitizer(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options control optional parts of a single analysis request.
type Options struct {
	// IncludeStatistics enables the column-statistics fetch. When false the
	// selectivity scoring degrades to its neutral default; the request
	// never fails for lack of statistics.
	IncludeStatistics bool
	// IncludeHints adds informational notes about predicates the analyzer
	// excluded (OR groups, non-prefix LIKE, negations).
	IncludeHints bool
	// TargetSchema disambiguates unqualified table names; it takes
	// precedence over the request owner.
	TargetSchema string
}

// Request is one analysis request.
type Request struct {
	// ConnectionID identifies the target database for logging and caching.
	ConnectionID string
	SQL          string
	// Owner is the default schema for unqualified table names.
	Owner   string
	Options Options
}

// Artifact is the assembled result of a successful analysis.
type Artifact struct {
	AnalysisID      string
	Query           *sqlparse.ParsedQuery
	Indexes         []catalog.IndexMetadata
	Statistics      []catalog.ColumnStatistics
	Recommendations []advisor.Recommendation
	Warnings        []string
	AnalyzedAt      time.Time
	ElapsedMs       int64
}

// Analyze runs the pipeline for one request. Parse failures and index
// metadata failures abort the request; statistics failures and internal
// invariant violations degrade to warnings instead.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Artifact, error) {
	start := time.Now()
	analysisID := uuid.NewString()

	ctx, span := e.tr.StartSpan(ctx, "sqladvisor.analyze")
	defer span.End()

	meta := tracer.AnalysisMetadata{
		AnalysisID: analysisID,
		SQL:        req.SQL,
		Database:   e.driver,
	}
	defer func() {
		meta.Duration = time.Since(start)
		tracer.AddAnalysisAttributes(span, &meta)
	}()

	loggedSQL := logger.Truncate(e.sanitizer.MaskSQL(req.SQL), maxLoggedSQLLen)
	e.log.Debug("analysis started",
		"analysis_id", analysisID, "connection_id", req.ConnectionID, "sql", loggedSQL)

	q, err := sqlparse.Parse(req.SQL)
	if err != nil {
		meta.Error = err
		e.log.Warn("statement rejected", "analysis_id", analysisID, "error", err)
		return nil, err
	}

	tables := e.tableRefs(q, req)
	meta.Tables = len(tables)

	artifact := &Artifact{
		AnalysisID: analysisID,
		Query:      q,
		AnalyzedAt: start.UTC(),
	}

	if len(tables) > 0 {
		artifact.Indexes, err = e.provider.FetchIndexes(ctx, tables)
		if err != nil {
			meta.Error = err
			e.log.Error("index metadata fetch failed", "analysis_id", analysisID, "error", err)
			return nil, &Error{Query: q, Err: err}
		}

		if req.Options.IncludeStatistics {
			artifact.Statistics, err = e.provider.FetchColumnStatistics(ctx, tables)
			if err != nil {
				// Missing statistics only weaken scoring, so a stats
				// failure is downgraded rather than failing the request.
				artifact.Statistics = nil
				artifact.Warnings = append(artifact.Warnings,
					fmt.Sprintf("column statistics unavailable, using neutral selectivity: %v", err))
				e.log.Warn("statistics fetch failed", "analysis_id", analysisID, "error", err)
			}
		}
	}

	if invariant := checkInvariants(q); invariant != "" {
		artifact.Warnings = append(artifact.Warnings, invariant)
		e.log.Error("analysis invariant violated", "analysis_id", analysisID, "detail", invariant)
	} else {
		artifact.Recommendations = e.analyzer.Analyze(q, artifact.Indexes, artifact.Statistics)
	}

	if req.Options.IncludeHints {
		artifact.Warnings = append(artifact.Warnings, exclusionHints(q)...)
	}

	artifact.ElapsedMs = time.Since(start).Milliseconds()
	meta.Recommendations = len(artifact.Recommendations)
	e.log.Info("analysis complete",
		"analysis_id", analysisID,
		"tables", len(tables),
		"recommendations", len(artifact.Recommendations),
		"elapsed_ms", artifact.ElapsedMs)
	return artifact, nil
}

// tableRefs maps the parsed tables onto catalog references, applying the
// request's schema defaults to unqualified names. Derived tables have no
// catalog presence and are skipped.
func (e *Engine) tableRefs(q *sqlparse.ParsedQuery, req Request) []catalog.TableRef {
	defaultOwner := req.Options.TargetSchema
	if defaultOwner == "" {
		defaultOwner = req.Owner
	}

	refs := make([]catalog.TableRef, 0, len(q.Tables))
	for _, t := range q.Tables {
		if t.Subquery != nil {
			continue
		}
		owner := t.Owner
		if owner == "" {
			owner = defaultOwner
		}
		refs = append(refs, catalog.TableRef{Owner: owner, Name: t.Name})
	}
	return refs
}

// checkInvariants verifies that every predicate references a table present
// in the parsed table list. Parsing already guarantees this; the check
// exists so a parser defect degrades one analysis instead of crashing it.
// Derived-table aliases are legitimate predicate targets, so the known set
// covers every FROM entry, not just the catalog-backed ones.
func checkInvariants(q *sqlparse.ParsedQuery) string {
	known := make(map[string]bool, len(q.Tables))
	for _, t := range q.Tables {
		known[t.Key()] = true
	}
	for _, p := range q.Predicates {
		if !known[p.Table] {
			return fmt.Sprintf(
				"internal invariant violated: predicate on %s.%s references an unknown table; recommendations suppressed",
				p.Table, p.Column)
		}
	}
	return ""
}

// exclusionHints describes predicate columns the analyzer could not use, so
// callers understand why a column is absent from the recommendations.
func exclusionHints(q *sqlparse.ParsedQuery) []string {
	orCols := make(map[string][]string)
	excluded := make(map[string][]string)
	for _, p := range q.Predicates {
		switch {
		case p.OrGroup:
			orCols[p.Table] = appendUnique(orCols[p.Table], p.Column)
		case p.Class == sqlparse.ClassExcluded:
			excluded[p.Table] = appendUnique(excluded[p.Table], p.Column)
		}
	}

	var hints []string
	for _, table := range sortedKeys(orCols) {
		hints = append(hints, fmt.Sprintf(
			"predicates on %s(%s) belong to an OR group and were excluded from index analysis",
			table, strings.Join(orCols[table], ", ")))
	}
	for _, table := range sortedKeys(excluded) {
		hints = append(hints, fmt.Sprintf(
			"predicates on %s(%s) are not index-usable (negation, non-prefix LIKE, or NULL test)",
			table, strings.Join(excluded[table], ", ")))
	}
	return hints
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
