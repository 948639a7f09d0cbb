// Package sqladvisor analyzes SQL SELECT statements against live catalog
// metadata and produces ranked index recommendations (create, extend, drop
// redundant) with generated DDL. It supports PostgreSQL, MySQL, and SQLite
// catalogs, structured logging, and OpenTelemetry tracing out of the box.
package sqladvisor

import (
	"database/sql"

	"github.com/coregx/sqladvisor/internal/advisor"
	"github.com/coregx/sqladvisor/internal/catalog"
	"github.com/coregx/sqladvisor/internal/config"
	"github.com/coregx/sqladvisor/internal/engine"
	"github.com/coregx/sqladvisor/internal/logger"
	"github.com/coregx/sqladvisor/internal/sqlparse"
	"github.com/coregx/sqladvisor/internal/tracer"
)

type (
	// Engine runs the full analysis pipeline over a catalog provider.
	Engine = engine.Engine
	// Option is a functional option for configuring an Engine.
	Option = engine.Option
	// Request is one analysis request.
	Request = engine.Request
	// RequestOptions control optional parts of a single request.
	RequestOptions = engine.Options
	// Artifact is the assembled result of a successful analysis.
	Artifact = engine.Artifact
	// MetadataFailure is returned when catalog retrieval fails after
	// parsing succeeded; it carries the parsed query.
	MetadataFailure = engine.Error

	// Params are the engine's tunable scoring parameters.
	Params = config.Params

	// Recommendation is one ranked piece of index advice.
	Recommendation = advisor.Recommendation
	// RecommendationKind categorizes a recommendation.
	RecommendationKind = advisor.Kind

	// CatalogProvider retrieves index metadata and column statistics.
	CatalogProvider = catalog.Provider
	// TableRef identifies one table in the catalog.
	TableRef = catalog.TableRef
	// IndexMetadata describes one existing index.
	IndexMetadata = catalog.IndexMetadata
	// ColumnStatistics describes one column's optimizer statistics.
	ColumnStatistics = catalog.ColumnStatistics

	// ParsedQuery is the structured form of an analyzed statement.
	ParsedQuery = sqlparse.ParsedQuery

	// Logger is the structured logging interface accepted by WithLogger.
	Logger = logger.Logger
	// Tracer is the tracing interface accepted by WithTracer.
	Tracer = tracer.Tracer
)

// Recommendation kinds.
const (
	CreateIndex   = advisor.KindCreateIndex
	ExtendIndex   = advisor.KindExtendIndex
	DropRedundant = advisor.KindDropRedundant
)

// Re-export constructors and options.
var (
	NewEngine         = engine.New
	WithLogger        = engine.WithLogger
	WithTracer        = engine.WithTracer
	WithMetadataCache = engine.WithMetadataCache

	NewSlogLogger = logger.NewSlogAdapter
	NewOtelTracer = tracer.NewOtelTracer

	DefaultParams = config.Default
	LoadParams    = config.Load

	// Parse exposes the statement parser on its own, without metadata.
	Parse = sqlparse.Parse
)

// Catalog error sentinels for errors.Is branching.
var (
	ErrTableNotFound         = catalog.ErrTableNotFound
	ErrAccessDenied          = catalog.ErrAccessDenied
	ErrConnectionUnavailable = catalog.ErrConnectionUnavailable
)

// Parse error sentinels.
var (
	ErrUnsupportedStatement = sqlparse.ErrUnsupportedStatement
	ErrNestingTooDeep       = sqlparse.ErrNestingTooDeep
	ErrUnresolvedColumn     = sqlparse.ErrUnresolvedColumn
	ErrMalformedSyntax      = sqlparse.ErrMalformedSyntax
)

// NewEngineForDB builds an Engine whose catalog provider matches the given
// driver name (postgres, mysql, sqlite and their aliases).
func NewEngineForDB(db *sql.DB, driverName string, params Params, opts ...Option) (*Engine, error) {
	provider, err := catalog.ForDB(db, driverName)
	if err != nil {
		return nil, err
	}
	return engine.New(provider, driverName, params, opts...), nil
}
