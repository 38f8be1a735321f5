package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strings"
)

// apiError is a policy rejection to be written to the client as-is.
type apiError struct {
	status int
	body   map[string]any
}

func errInvalidJSON() *apiError {
	return &apiError{http.StatusBadRequest, map[string]any{"error": "Invalid JSON"}}
}

func errModelNotAllowed(allowed []string) *apiError {
	return &apiError{http.StatusForbidden, map[string]any{
		"error":   "Model not allowed",
		"allowed": allowed,
	}}
}

// inspectBody yields the outbound request body and, for JSON payloads,
// enforces the model allowlist before the upstream is ever contacted. Only
// JSON bodies are read into memory for inspection; non-JSON bodies (multipart
// audio uploads and the like) are handed back unread so they stream straight
// through to the upstream. nil for bodyless methods.
func inspectBody(r *http.Request, allowedModels []string) (io.Reader, int64, *apiError) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil, 0, nil
	}

	if !strings.Contains(r.Header.Get("Content-Type"), "json") {
		return r.Body, r.ContentLength, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, 0, &apiError{http.StatusBadRequest, map[string]any{"error": "Invalid request body"}}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, errInvalidJSON()
	}

	model := ""
	if v, ok := payload["model"].(string); ok {
		model = strings.TrimSpace(v)
	}
	if len(allowedModels) > 0 && !slices.Contains(allowedModels, model) {
		return nil, 0, errModelNotAllowed(allowedModels)
	}

	return bytes.NewReader(body), int64(len(body)), nil
}
