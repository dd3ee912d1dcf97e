package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	m := NewMiddleware(nil, func(*http.Request) string { return "127.0.0.1" })
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sales", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("unexpected request id %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("header %q does not match context id %q", rec.Header().Get(RequestIDHeader), seen)
	}
	got := m.GetMetrics()
	if got.TotalRequests != 1 || got.ServerErrors != 1 {
		t.Errorf("unexpected metrics %+v", got)
	}
}

func TestMiddlewareKeepsClientRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc" {
		t.Fatalf("got %q, want abc", seen)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}
