package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/exports/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<kml/>"))
	})

	for _, id := range []string{"a", "b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exports/"+id, http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/exports/{id}", "200"))
	if val < 2 {
		t.Errorf("expected http_requests_total >= 2 for the route pattern, got %f", val)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
	if testutil.CollectAndCount(httpResponseSize) == 0 {
		t.Error("expected http_response_size_bytes observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/filters", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})
	r.Get("/invalid", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/empty", func(http.ResponseWriter, *http.Request) {})

	tests := []struct {
		path   string
		status string
	}{
		{"/filters", "200"},
		{"/invalid", "400"},
		{"/empty", "200"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.status))
			if val < 1 {
				t.Errorf("expected requests_total for %s/%s >= 1, got %f", tc.path, tc.status, val)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/api/placemarks", "/api/placemarks"},
		{"/api/exports/{id}", "/api/exports/{id}"},
	}
	for _, tc := range tests {
		if got := normalizePath(tc.input); got != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestRegisterDomainMetrics_Idempotent(t *testing.T) {
	RegisterDomainMetrics()
	RegisterDomainMetrics()

	ExportsTotal.WithLabelValues("kml", Status(nil)).Inc()
	if v := testutil.ToFloat64(ExportsTotal.WithLabelValues("kml", "ok")); v < 1 {
		t.Errorf("exports_total{kml,ok} = %f", v)
	}

	PlacemarksLoaded.Set(3)
	expected := `
# HELP kmlfilter_placemarks_loaded Number of placemarks in the current source document
# TYPE kmlfilter_placemarks_loaded gauge
kmlfilter_placemarks_loaded 3
`
	if err := testutil.CollectAndCompare(PlacemarksLoaded, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}
