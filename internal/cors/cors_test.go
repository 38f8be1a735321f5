package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveOrigin(t *testing.T) {
	tests := []struct {
		name          string
		allowed       []string
		requestOrigin string
		want          string
	}{
		{"empty allowlist", nil, "https://anything.com", "*"},
		{"member echoed", []string{"https://good.com", "https://also.com"}, "https://also.com", "https://also.com"},
		{"non-member falls back to first", []string{"https://good.com"}, "https://evil.com", "https://good.com"},
		{"no origin header falls back", []string{"https://good.com"}, "", "https://good.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveOrigin(tt.allowed, tt.requestOrigin); got != tt.want {
				t.Fatalf("ResolveOrigin=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestApply_ReplacesExistingHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", "https://upstream-said-so.com")
	h.Set("Access-Control-Allow-Credentials", "true")

	Apply(h, "https://good.com")

	if got := h.Get("Access-Control-Allow-Origin"); got != "https://good.com" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
	if h.Get("Access-Control-Allow-Credentials") != "" {
		t.Fatal("expected upstream credentials header to be stripped")
	}
	if got := h.Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Fatalf("unexpected allow-headers: %q", got)
	}
}

func TestApply_VaryOrigin(t *testing.T) {
	h := http.Header{}
	Apply(h, "https://good.com")
	Apply(h, "https://good.com")
	if got := h.Values("Vary"); len(got) != 1 || got[0] != "Origin" {
		t.Fatalf("unexpected Vary values: %v", got)
	}

	h = http.Header{}
	Apply(h, "*")
	if h.Get("Vary") != "" {
		t.Fatal("wildcard origin must not set Vary")
	}
}

func TestMiddleware_PreflightShortCircuit(t *testing.T) {
	nextCalled := false
	handler := Middleware([]string{"https://good.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/completions", nil)
	req.Header.Set("Origin", "https://good.com")
	handler.ServeHTTP(rr, req)

	if nextCalled {
		t.Fatal("preflight must not reach the next handler")
	}
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://good.com" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
}

func TestMiddleware_PassesThroughWithHeaders(t *testing.T) {
	handler := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected handler status, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
}
