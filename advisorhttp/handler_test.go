package advisorhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqladvisor/internal/catalog"
	"github.com/coregx/sqladvisor/internal/config"
	"github.com/coregx/sqladvisor/internal/engine"
)

type fakeProvider struct {
	indexes  []catalog.IndexMetadata
	indexErr error
}

func (f *fakeProvider) FetchIndexes(context.Context, []catalog.TableRef) ([]catalog.IndexMetadata, error) {
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	return f.indexes, nil
}

func (f *fakeProvider) FetchColumnStatistics(context.Context, []catalog.TableRef) ([]catalog.ColumnStatistics, error) {
	return nil, nil
}

func newTestHandler(provider catalog.Provider) *Handler {
	resolver := ResolverFunc(func(_ context.Context, connectionID string) (*engine.Engine, error) {
		if connectionID != "known" {
			return nil, ErrUnknownConnection
		}
		return engine.New(provider, "postgres", config.Default()), nil
	})
	return NewHandler(resolver, nil)
}

func postAnalyze(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpointSuccess(t *testing.T) {
	h := newTestHandler(&fakeProvider{})
	rec := postAnalyze(t, h, `{
		"connectionId": "known",
		"sql": "SELECT * FROM emp WHERE dept_id = 1 ORDER BY last_name"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			AnalysisID      string   `json:"analysisId"`
			Tables          []string `json:"tables"`
			Recommendations []struct {
				Kind string `json:"kind"`
				DDL  string `json:"ddl"`
			} `json:"recommendations"`
		} `json:"data"`
		Metadata struct {
			AnalysisID string `json:"analysisId"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.AnalysisID)
	assert.Equal(t, resp.Data.AnalysisID, resp.Metadata.AnalysisID)
	assert.Equal(t, []string{"emp"}, resp.Data.Tables)
	require.Len(t, resp.Data.Recommendations, 1)
	assert.Equal(t, "CREATE_INDEX", resp.Data.Recommendations[0].Kind)
	assert.Contains(t, resp.Data.Recommendations[0].DDL, "CREATE INDEX")
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	tests := []struct {
		name       string
		provider   *fakeProvider
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed json",
			provider:   &fakeProvider{},
			body:       `{"sql": `,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "missing sql",
			provider:   &fakeProvider{},
			body:       `{"connectionId": "known"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "sql is required",
		},
		{
			name:       "unsupported statement",
			provider:   &fakeProvider{},
			body:       `{"connectionId": "known", "sql": "UPDATE emp SET salary = 1"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "unsupported statement",
		},
		{
			name:       "unknown connection",
			provider:   &fakeProvider{},
			body:       `{"connectionId": "nope", "sql": "SELECT * FROM emp WHERE id = 1"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "unknown connection",
		},
		{
			name: "table not found",
			provider: &fakeProvider{
				indexErr: &catalog.MetadataError{Kind: catalog.ErrTableNotFound, Op: "check table", Table: "emp"},
			},
			body:       `{"connectionId": "known", "sql": "SELECT * FROM emp WHERE id = 1"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "table not found",
		},
		{
			name: "access denied",
			provider: &fakeProvider{
				indexErr: &catalog.MetadataError{Kind: catalog.ErrAccessDenied, Op: "fetch indexes", Table: "emp"},
			},
			body:       `{"connectionId": "known", "sql": "SELECT * FROM emp WHERE id = 1"}`,
			wantStatus: http.StatusForbidden,
			wantError:  "access denied",
		},
		{
			name: "connection unavailable",
			provider: &fakeProvider{
				indexErr: &catalog.MetadataError{Kind: catalog.ErrConnectionUnavailable, Op: "fetch indexes"},
			},
			body:       `{"connectionId": "known", "sql": "SELECT * FROM emp WHERE id = 1"}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "connection unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postAnalyze(t, newTestHandler(tt.provider), tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			var resp struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.wantError)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(ErrUnknownConnection))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
