package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreOperationCountsByResult(t *testing.T) {
	m := New()

	m.StoreOperation("add_medication", "demo", nil, time.Millisecond)
	m.StoreOperation("add_medication", "demo", nil, time.Millisecond)
	m.StoreOperation("login", "demo", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeOps.WithLabelValues("add_medication", "demo", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("login", "demo", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.StoreOperation("x", "demo", nil, 0)
	m.SetAdherence(50)
	m.ClientConnected()
	m.ClientDisconnected()
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Delete("/api/medications/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/medications/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("DELETE", "/api/medications/{id}", "204")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "medminder_http_requests_total"))
}
