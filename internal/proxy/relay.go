package proxy

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/groqgate/groqgate/internal/cors"
	"github.com/groqgate/groqgate/internal/httpx"
)

// relay copies the upstream status, headers and body to the client verbatim,
// regardless of the upstream status. Upstream CORS headers are swapped for
// ours; the body is piped through a flush-on-write copier, so event-stream
// responses are never buffered and memory use is independent of body size.
func (h *Handler) relay(w http.ResponseWriter, r *http.Request, resp *http.Response) {
	header := w.Header()
	for k, values := range resp.Header {
		if strings.HasPrefix(k, "Access-Control-") {
			continue
		}
		header.Del(k)
		for _, v := range values {
			header.Add(k, v)
		}
	}
	cors.Apply(header, cors.ResolveOrigin(h.cfg.AllowedOrigins, r.Header.Get("Origin")))

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(httpx.NewFlushWriter(w), resp.Body); err != nil {
		// Client disconnects mid-stream land here; the upstream body is
		// closed by the caller and the transport tears the rest down.
		h.logger.Debug("relay interrupted", zap.Error(err))
	}
}
