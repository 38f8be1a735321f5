// Package chat implements the fixed-endpoint deployment variant: a single
// POST /chat that validates a simplified payload, reshapes it into the
// upstream chat/completions schema with streaming forced on, and relays the
// event stream back unbuffered. Upstream failures are re-enveloped as JSON
// with truncated details instead of being relayed verbatim.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/groqgate/groqgate/internal/config"
	"github.com/groqgate/groqgate/internal/httpx"
)

const (
	completionsPath = "/v1/chat/completions"

	// maxErrorDetailLen caps how much of an upstream error body is echoed
	// back to the client.
	maxErrorDetailLen = 2000
)

type Handler struct {
	cfg    *config.Config
	client *http.Client
	logger *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{cfg: cfg, client: &http.Client{}, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	upstream, apiErr := buildPayload(payload, h.cfg)
	if apiErr != nil {
		httpx.WriteJSON(w, apiErr.status, apiErr.body)
		return
	}

	resp, err := h.callUpstream(r.Context(), upstream)
	if err != nil {
		h.logger.Error("upstream request failed", zap.Error(err))
		httpx.WriteError(w, http.StatusBadGateway, "Upstream request failed")
		return
	}
	defer resp.Body.Close()

	h.relay(w, resp)
}

// callUpstream issues the single outbound call with a minimal fresh header
// set; nothing from the caller's headers is forwarded in this variant.
func (h *Handler) callUpstream(ctx context.Context, payload *upstreamRequest) (*http.Response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	target := strings.TrimRight(h.cfg.UpstreamURL, "/") + completionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	return h.client.Do(req)
}

// relay either re-envelopes an upstream failure (the only path that buffers
// a body) or streams the event stream through unbuffered.
func (h *Handler) relay(w http.ResponseWriter, resp *http.Response) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.Body == nil {
		httpx.WriteJSON(w, resp.StatusCode, map[string]any{
			"error":   "Upstream Groq error",
			"status":  resp.StatusCode,
			"details": readDetails(resp),
		})
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(httpx.NewFlushWriter(w), resp.Body); err != nil {
		h.logger.Debug("relay interrupted", zap.Error(err))
	}
}

func readDetails(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	s := string(b)
	// Truncate on character count, never mid-rune.
	if utf8.RuneCountInString(s) > maxErrorDetailLen {
		s = string([]rune(s)[:maxErrorDetailLen])
	}
	return s
}
