// Package proxy is the path-mirroring request mediator. Each request flows
// through four stages in strict order: policy gate, payload inspection,
// upstream dispatch, response relay. A failing stage short-circuits the rest,
// and no state is shared between requests.
package proxy

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/groqgate/groqgate/internal/config"
	"github.com/groqgate/groqgate/internal/httpx"
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
	if !pathAllowed(r.URL.Path, h.cfg.AllowedPaths) {
		httpx.WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	body, contentLength, apiErr := inspectBody(r, h.cfg.AllowedModels)
	if apiErr != nil {
		httpx.WriteJSON(w, apiErr.status, apiErr.body)
		return
	}

	req, err := h.buildUpstreamRequest(r, body, contentLength)
	if err != nil {
		h.logger.Error("failed to build upstream request", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "Upstream request failed")
		return
	}

	// Returns once upstream response headers arrive; the body is still
	// in flight for streamed responses.
	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("upstream request failed",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		httpx.WriteError(w, transportErrorStatus(err), "Upstream request failed")
		return
	}
	defer resp.Body.Close()

	h.relay(w, r, resp)
}

// pathAllowed reports whether path equals or extends one of the allowed
// prefixes.
func pathAllowed(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
