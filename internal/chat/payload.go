package chat

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/groqgate/groqgate/internal/config"
)

// upstreamRequest is the upstream's native chat/completions schema the
// simplified /chat payload is reshaped into.
type upstreamRequest struct {
	Model               string    `json:"model"`
	Messages            []message `json:"messages"`
	Temperature         float64   `json:"temperature"`
	MaxCompletionTokens int       `json:"max_completion_tokens"`
	TopP                float64   `json:"top_p"`
	Stream              bool      `json:"stream"`
	Stop                any       `json:"stop,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiError struct {
	status int
	body   map[string]any
}

// buildPayload validates the simplified request, applies defaults, enforces
// the model allowlist on the resolved model, and reshapes the result. Type
// mismatches are rejected rather than coerced.
func buildPayload(payload map[string]any, cfg *config.Config) (*upstreamRequest, *apiError) {
	user, ok := payload["user"].(string)
	if !ok {
		return nil, &apiError{http.StatusBadRequest, map[string]any{
			"error": "Missing 'user' (string) in body",
		}}
	}

	system, ok := stringField(payload, "system", cfg.SystemPrompt)
	if !ok {
		return nil, errInvalidField("system", "string")
	}
	model, ok := stringField(payload, "model", "")
	if !ok {
		return nil, errInvalidField("model", "string")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = cfg.DefaultModel
	}
	temperature, ok := numberField(payload, "temperature", 1)
	if !ok {
		return nil, errInvalidField("temperature", "number")
	}
	maxTokens, ok := numberField(payload, "max_tokens", 1024)
	if !ok {
		return nil, errInvalidField("max_tokens", "number")
	}
	topP, ok := numberField(payload, "top_p", 1)
	if !ok {
		return nil, errInvalidField("top_p", "number")
	}

	if len(cfg.AllowedModels) > 0 && !slices.Contains(cfg.AllowedModels, model) {
		return nil, &apiError{http.StatusForbidden, map[string]any{
			"error":   "Model not allowed",
			"allowed": cfg.AllowedModels,
		}}
	}

	req := &upstreamRequest{
		Model: model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:         temperature,
		MaxCompletionTokens: int(maxTokens),
		TopP:                topP,
		Stream:              true,
	}
	if stop, ok := payload["stop"]; ok && stop != nil {
		req.Stop = stop
	}

	return req, nil
}

func errInvalidField(name, kind string) *apiError {
	return &apiError{http.StatusBadRequest, map[string]any{
		"error": fmt.Sprintf("Invalid '%s' (%s) in body", name, kind),
	}}
}

// stringField returns the default when key is absent or null, and fails on
// a non-string value.
func stringField(payload map[string]any, key, def string) (string, bool) {
	v, ok := payload[key]
	if !ok || v == nil {
		return def, true
	}
	s, ok := v.(string)
	return s, ok
}

func numberField(payload map[string]any, key string, def float64) (float64, bool) {
	v, ok := payload[key]
	if !ok || v == nil {
		return def, true
	}
	f, ok := v.(float64)
	return f, ok
}
