package proxy

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// buildUpstreamRequest mirrors the inbound path+query onto the upstream
// origin and rewrites the headers: the caller's Authorization is always
// replaced with the injected credential, and Host/Origin/Referer are dropped
// so the transport sets Host itself and the upstream never answers CORS.
func (h *Handler) buildUpstreamRequest(r *http.Request, body io.Reader, contentLength int64) (*http.Request, error) {
	target, err := joinURL(h.cfg.UpstreamURL, r.URL.Path, r.URL.RawQuery)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return nil, err
	}

	copyHeaders(req.Header, r.Header)
	req.Header.Del("Host")
	req.Header.Del("Origin")
	req.Header.Del("Referer")
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	if body != nil {
		// -1 keeps an in-flight upload chunked instead of forcing a length.
		req.ContentLength = contentLength
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req.Header.Del("Content-Length")
	}

	return req, nil
}

func joinURL(baseURL, path, rawQuery string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid upstream url: %w", err)
	}

	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = rawQuery
	return u.String(), nil
}

func copyHeaders(dst, src http.Header) {
	for k, values := range src {
		dst.Del(k)
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

func transportErrorStatus(err error) int {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
