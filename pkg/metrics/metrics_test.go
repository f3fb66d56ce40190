package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentCountsRequests(t *testing.T) {
	c := NewCollector("apiforge")

	handler := c.Instrument()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/items", nil))
		assert.Equal(t, http.StatusCreated, rr.Code)
	}

	count := testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "/items", "201"))
	assert.Equal(t, float64(3), count)
}

func TestInstrumentDefaultsStatusOK(t *testing.T) {
	c := NewCollector("apiforge")

	handler := c.Instrument()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/ok", nil))

	count := testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "/ok", "200"))
	assert.Equal(t, float64(1), count)
}

func TestRejectionCounters(t *testing.T) {
	c := NewCollector("apiforge")

	c.RecordAuthRejection()
	c.RecordAuthRejection()
	c.RecordRateLimited("minute")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.authRejections))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.rateLimited.WithLabelValues("minute")))
}

func TestScrapeHandler(t *testing.T) {
	c := NewCollector("apiforge")

	handler := c.Instrument()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", nil))

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "apiforge_http_requests_total")
}
