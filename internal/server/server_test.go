package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body["version"])
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKAnonymityEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := AnonymizeRequest{
		Dataset: DatasetPayload{
			Columns: []string{"city", "disease"},
			Rows: [][]string{
				{"A", "Cancer"},
				{"A", "Flu"},
				{"B", "Flu"},
				{"B", "Cancer"},
			},
		},
		QuasiIdentifiers: []string{"city"},
		K:                2,
		Hierarchies: map[string][][]string{
			"city": {{"A", "*"}, {"B", "*"}},
		},
	}

	rec := postJSON(t, srv, "/api/v1/anonymize/k-anonymity", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnonymizeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Feasible)
	assert.Len(t, resp.Dataset.Rows, 4)
	assert.Equal(t, 0, resp.SuppressedRows)
}

func TestKAnonymityEndpointInfeasible(t *testing.T) {
	srv := newTestServer(t)

	// Single-level hierarchies and no suppression budget leave the lone C
	// row with no way out.
	req := AnonymizeRequest{
		Dataset: DatasetPayload{
			Columns: []string{"city", "disease"},
			Rows: [][]string{
				{"A", "Cancer"},
				{"A", "Flu"},
				{"B", "Flu"},
				{"B", "Cancer"},
				{"C", "Flu"},
			},
		},
		QuasiIdentifiers: []string{"city"},
		K:                2,
		Hierarchies: map[string][][]string{
			"city": {{"A"}, {"B"}, {"C"}},
		},
	}

	rec := postJSON(t, srv, "/api/v1/anonymize/k-anonymity", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnonymizeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Feasible)
	assert.Empty(t, resp.Dataset.Rows)
}

func TestKAnonymityEndpointBadParams(t *testing.T) {
	srv := newTestServer(t)

	req := AnonymizeRequest{
		Dataset: DatasetPayload{
			Columns: []string{"city"},
			Rows:    [][]string{{"A"}, {"A"}},
		},
		QuasiIdentifiers: []string{"city"},
		K:                0,
		Hierarchies:      map[string][][]string{"city": {{"A"}}},
	}

	rec := postJSON(t, srv, "/api/v1/anonymize/k-anonymity", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_K")
}

func TestAnonymizeEndpointInvalidBody(t *testing.T) {
	srv := newTestServer(t)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/anonymize/k-anonymity",
		bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(rec, httpReq)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTClosenessEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := AnonymizeRequest{
		Dataset: DatasetPayload{
			Columns: []string{"city", "disease"},
			Rows: [][]string{
				{"A", "Cancer"},
				{"A", "Flu"},
				{"B", "Flu"},
				{"B", "Cancer"},
			},
		},
		QuasiIdentifiers:   []string{"city"},
		SensitiveAttribute: "disease",
		K:                  2,
		T:                  1.0,
		Hierarchies: map[string][][]string{
			"city": {{"A", "*"}, {"B", "*"}},
		},
	}

	rec := postJSON(t, srv, "/api/v1/anonymize/t-closeness", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnonymizeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Feasible)
}

func TestBetaLikenessEndpointUnknownVariant(t *testing.T) {
	srv := newTestServer(t)

	req := AnonymizeRequest{
		Dataset: DatasetPayload{
			Columns: []string{"city", "disease"},
			Rows:    [][]string{{"A", "Cancer"}, {"A", "Flu"}},
		},
		QuasiIdentifiers:   []string{"city"},
		SensitiveAttribute: "disease",
		K:                  2,
		Beta:               1.0,
		Variant:            "deluxe",
		Hierarchies:        map[string][][]string{"city": {{"A"}}},
	}

	rec := postJSON(t, srv, "/api/v1/anonymize/beta-likeness", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := EvaluateRequest{
		Dataset: DatasetPayload{
			Columns: []string{"city", "disease"},
			Rows: [][]string{
				{"A", "Cancer"},
				{"A", "Flu"},
				{"B", "Cancer"},
				{"B", "Flu"},
			},
		},
		QuasiIdentifiers:   []string{"city"},
		SensitiveAttribute: "disease",
	}

	rec := postJSON(t, srv, "/api/v1/evaluate", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EvaluateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.KAnonymity)
	require.NotNil(t, resp.TCloseness)
	assert.InDelta(t, 0, *resp.TCloseness, 1e-9)
	require.NotNil(t, resp.BasicBetaLikeness)
	require.NotNil(t, resp.EnhancedBetaLikeness)
}

func TestEvaluateEndpointWithoutSensitiveAttribute(t *testing.T) {
	srv := newTestServer(t)

	req := EvaluateRequest{
		Dataset: DatasetPayload{
			Columns: []string{"city"},
			Rows:    [][]string{{"A"}, {"A"}, {"B"}, {"B"}, {"B"}},
		},
		QuasiIdentifiers: []string{"city"},
	}

	rec := postJSON(t, srv, "/api/v1/evaluate", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EvaluateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.KAnonymity)
	assert.Nil(t, resp.TCloseness)
}

// Helper functions for tests

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	srv, err := NewServer(nil, logger)
	require.NoError(t, err)
	return srv
}

func postJSON(t *testing.T, srv *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(rec, req)
	return rec
}
