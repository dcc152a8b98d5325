package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/goals/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	for _, path := range []string{"/api/goals/1", "/api/goals/2", "/nowhere"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/goals/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestActivityCounters(t *testing.T) {
	m := New()
	m.ObserveActivity(ActivityRecorded)
	m.ObserveActivity(ActivityRecorded)
	m.ObserveActivity(ActivityDuplicate)
	m.ObservePruned(5)
	m.ObservePruned(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.activityEvents.WithLabelValues(ActivityRecorded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activityEvents.WithLabelValues(ActivityDuplicate)))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.activityPruned))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveActivity(ActivityFailed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `moneymind_activity_events_total{outcome="failed"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
