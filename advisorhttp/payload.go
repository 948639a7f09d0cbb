package advisorhttp

import (
	"github.com/coregx/sqladvisor/internal/engine"
)

type analyzeRequest struct {
	ConnectionID string         `json:"connectionId"`
	SQL          string         `json:"sql"`
	Owner        string         `json:"owner,omitempty"`
	Options      requestOptions `json:"options"`
}

type requestOptions struct {
	IncludeStatistics bool   `json:"includeStatistics"`
	IncludeHints      bool   `json:"includeHints"`
	TargetSchema      string `json:"targetSchema,omitempty"`
}

type responseMetadata struct {
	ExecutionTimeMs int64  `json:"executionTimeMs"`
	AnalyzedAt      string `json:"analyzedAt"`
	AnalysisID      string `json:"analysisId,omitempty"`
}

type successResponse struct {
	Success  bool             `json:"success"`
	Data     artifactPayload  `json:"data"`
	Metadata responseMetadata `json:"metadata"`
}

type errorResponse struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error"`
	Metadata responseMetadata `json:"metadata"`
}

type artifactPayload struct {
	AnalysisID      string                  `json:"analysisId"`
	Tables          []string                `json:"tables"`
	Indexes         []indexPayload          `json:"indexes"`
	Recommendations []recommendationPayload `json:"recommendations"`
	Warnings        []string                `json:"warnings,omitempty"`
}

type indexPayload struct {
	Name    string   `json:"name"`
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

type recommendationPayload struct {
	Kind         string   `json:"kind"`
	Table        string   `json:"table"`
	Index        string   `json:"index,omitempty"`
	Columns      []string `json:"columns"`
	BenefitScore float64  `json:"benefitScore"`
	Reason       string   `json:"reason"`
	Rationale    string   `json:"rationale"`
	DDL          string   `json:"ddl"`
}

func newArtifactPayload(a *engine.Artifact) artifactPayload {
	p := artifactPayload{
		AnalysisID:      a.AnalysisID,
		Tables:          a.Query.TableKeys(),
		Indexes:         make([]indexPayload, 0, len(a.Indexes)),
		Recommendations: make([]recommendationPayload, 0, len(a.Recommendations)),
		Warnings:        a.Warnings,
	}
	for _, idx := range a.Indexes {
		p.Indexes = append(p.Indexes, indexPayload{
			Name:    idx.Name,
			Table:   idx.Table,
			Columns: idx.ColumnNames(),
			Unique:  idx.Unique,
		})
	}
	for _, rec := range a.Recommendations {
		p.Recommendations = append(p.Recommendations, recommendationPayload{
			Kind:         rec.Kind.String(),
			Table:        rec.Table,
			Index:        rec.Index,
			Columns:      rec.Columns,
			BenefitScore: rec.BenefitScore,
			Reason:       string(rec.Reason),
			Rationale:    rec.Rationale,
			DDL:          rec.DDL,
		})
	}
	return p
}
