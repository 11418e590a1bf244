package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func serve(r http.Handler, method, path string) int {
	req := httptest.NewRequest(method, path, http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr.Code
}

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/ask", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"ok"}`))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/ask", "200"))
	if code := serve(r, "POST", "/api/ask"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/ask", "200"))
	if after != before+1 {
		t.Errorf("http_requests_total grew by %v, want 1", after-before)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("in-flight gauge = %v after request, want 0", v)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Post("/api/ask", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	tests := []struct {
		method, path, status string
	}{
		{"GET", "/api/health", "503"},
		{"POST", "/api/ask", "429"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			serve(r, tc.method, tc.path)
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status)); v < 1 {
				t.Errorf("expected a %s sample for %s, got %v", tc.status, tc.path, v)
			}
		})
	}
}

func TestMiddleware_WildcardRoutesCollapse(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/static/*", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("css"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/static/*", "200"))
	serve(r, "GET", "/static/app.css")
	serve(r, "GET", "/static/app.js")

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/static/*", "200"))
	if after-before != 2 {
		t.Errorf("expected both files under one series, got delta %v", after-before)
	}
}

func TestRouteLabel(t *testing.T) {
	if got := routeLabel(nil); got != "unmatched" {
		t.Errorf("routeLabel(nil) = %q", got)
	}
	if got := routeLabel(chi.NewRouteContext()); got != "unmatched" {
		t.Errorf("routeLabel(empty) = %q", got)
	}
}
