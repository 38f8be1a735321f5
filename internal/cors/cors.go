// Package cors grants a browser client permission to read proxy responses,
// including error responses and relayed upstream responses.
package cors

import (
	"net/http"
	"strings"
)

const (
	allowHeaders = "Content-Type, Authorization"
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// responseHeaders are stripped before ours are applied, so an upstream (or an
// earlier middleware) can never leak its own grant through the proxy.
var responseHeaders = []string{
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Allow-Credentials",
	"Access-Control-Max-Age",
	"Access-Control-Expose-Headers",
}

// ResolveOrigin picks the Access-Control-Allow-Origin value for a request.
// An empty allowlist permits any origin. A configured allowlist echoes the
// request origin when it is a member and otherwise falls back to its first
// entry, so a browser on an unlisted origin can still read the error body
// but is never granted its own origin.
func ResolveOrigin(allowed []string, requestOrigin string) string {
	if len(allowed) == 0 {
		return "*"
	}
	for _, o := range allowed {
		if o == requestOrigin {
			return requestOrigin
		}
	}
	return allowed[0]
}

// Apply replaces any Access-Control-* headers in h with our own for the
// resolved origin. Non-wildcard origins make the response origin-dependent,
// so Vary: Origin is added for caches.
func Apply(h http.Header, origin string) {
	for _, k := range responseHeaders {
		h.Del(k)
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Allow-Methods", allowMethods)
	if origin != "*" && !varyHasOrigin(h) {
		h.Add("Vary", "Origin")
	}
}

// Middleware applies CORS headers to every response and short-circuits
// preflight requests with an empty 204 before any policy or upstream work.
func Middleware(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Apply(w.Header(), ResolveOrigin(allowed, r.Header.Get("Origin")))
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func varyHasOrigin(h http.Header) bool {
	for _, v := range h.Values("Vary") {
		for _, field := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(field), "Origin") {
				return true
			}
		}
	}
	return false
}
