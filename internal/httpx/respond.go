// Package httpx holds small HTTP response helpers shared by the handlers.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"
)

// WriteJSON writes a plain Go value (map, struct) as JSON.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, map[string]string{"error": msg})
}

// flushWriter flushes after every write so upstream chunks reach the client
// as they arrive instead of sitting in the server's buffer. This is what
// keeps event-stream bodies streaming end to end.
type flushWriter struct {
	w io.Writer
	f http.Flusher
}

// NewFlushWriter wraps w; if w does not implement http.Flusher the writes
// pass through unflushed.
func NewFlushWriter(w http.ResponseWriter) io.Writer {
	f, _ := w.(http.Flusher)
	return &flushWriter{w: w, f: f}
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err == nil && fw.f != nil {
		fw.f.Flush()
	}
	return n, err
}
