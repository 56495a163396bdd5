package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorExposesRecordedMetrics(t *testing.T) {
	c := NewCollector(nil)

	c.RecordRun("k-anonymity", "success", 25*time.Millisecond)
	c.RecordGeneralization("k-anonymity", "age")
	c.RecordSuppression("k-anonymity", 3)
	c.RecordHTTPRequest("POST", "/api/v1/anonymize/k-anonymity", "200", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `tabanon_anonymization_runs_total{method="k-anonymity",outcome="success"} 1`)
	assert.Contains(t, body, `tabanon_generalization_steps_total{attribute="age",method="k-anonymity"} 1`)
	assert.Contains(t, body, `tabanon_suppressed_rows_total{method="k-anonymity"} 3`)
	assert.Contains(t, body, `tabanon_http_requests_total`)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector(nil)
	b := NewCollector(nil)

	a.RecordRun("k-anonymity", "success", time.Millisecond)

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), `outcome="success"} 1`)
}
