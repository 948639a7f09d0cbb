// Package advisorhttp provides a reference HTTP handler for the analysis
// engine. Authentication and connection pooling are the host's concern; the
// handler only needs a ConnectionResolver to map connection identifiers to
// configured engines.
package advisorhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coregx/sqladvisor/internal/catalog"
	"github.com/coregx/sqladvisor/internal/engine"
	"github.com/coregx/sqladvisor/internal/logger"
	"github.com/coregx/sqladvisor/internal/sqlparse"
)

// ErrUnknownConnection is returned by resolvers for connection identifiers
// they do not manage.
var ErrUnknownConnection = errors.New("unknown connection")

// ConnectionResolver maps a connection identifier onto a configured engine.
// Implementations own credential handling and pooling.
type ConnectionResolver interface {
	Resolve(ctx context.Context, connectionID string) (*engine.Engine, error)
}

// ResolverFunc adapts a function to the ConnectionResolver interface.
type ResolverFunc func(ctx context.Context, connectionID string) (*engine.Engine, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, connectionID string) (*engine.Engine, error) {
	return f(ctx, connectionID)
}

// Handler serves analysis requests over HTTP.
type Handler struct {
	resolver ConnectionResolver
	log      logger.Logger
}

// NewHandler creates a Handler. A nil logger discards everything.
func NewHandler(resolver ConnectionResolver, log logger.Logger) *Handler {
	if log == nil {
		log = &logger.NoopLogger{}
	}
	return &Handler{resolver: resolver, log: log}
}

// Routes mounts the handler's endpoints on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/analyze", h.Analyze)
	return r
}

// Analyze handles POST /analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, start, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SQL == "" {
		h.writeError(w, start, http.StatusBadRequest, "sql is required")
		return
	}

	eng, err := h.resolver.Resolve(r.Context(), req.ConnectionID)
	if err != nil {
		h.log.Warn("connection resolution failed", "connection_id", req.ConnectionID, "error", err)
		h.writeError(w, start, statusFor(err), err.Error())
		return
	}

	artifact, err := eng.Analyze(r.Context(), engine.Request{
		ConnectionID: req.ConnectionID,
		SQL:          req.SQL,
		Owner:        req.Owner,
		Options: engine.Options{
			IncludeStatistics: req.Options.IncludeStatistics,
			IncludeHints:      req.Options.IncludeHints,
			TargetSchema:      req.Options.TargetSchema,
		},
	})
	if err != nil {
		h.writeError(w, start, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    newArtifactPayload(artifact),
		Metadata: responseMetadata{
			ExecutionTimeMs: time.Since(start).Milliseconds(),
			AnalyzedAt:      artifact.AnalyzedAt.Format(time.RFC3339),
			AnalysisID:      artifact.AnalysisID,
		},
	})
}

// statusFor maps engine errors onto HTTP status codes: unsupported or
// malformed statements are the caller's fault, missing tables or
// connections are not found, catalog permission failures are forbidden,
// everything else is internal.
func statusFor(err error) int {
	var parseErr *sqlparse.ParseError
	switch {
	case errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownConnection),
		errors.Is(err, catalog.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrAccessDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, start time.Time, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Error:   msg,
		Metadata: responseMetadata{
			ExecutionTimeMs: time.Since(start).Milliseconds(),
			AnalyzedAt:      start.UTC().Format(time.RFC3339),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
