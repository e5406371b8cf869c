// Package respond writes API bodies: plain JSON, cached views with
// conditional GET, and the error envelope.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gloriosas/wellness/internal/cache"
)

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Error Problem `json:"error"`
}

// Problem is the body of ErrorResponse. Code is stable for clients;
// Message is for people.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// JSON encodes v with status. These bodies are never cached by clients.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes p as an ErrorResponse.
func Error(w http.ResponseWriter, status int, p Problem) {
	JSON(w, status, ErrorResponse{Error: p})
}

// View writes a cached view, or 304 when the request already holds it.
func View(w http.ResponseWriter, r *http.Request, v cache.View) {
	h := w.Header()
	h.Set("ETag", v.ETag)
	h.Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(v.TTL.Seconds())))
	h.Set("Vary", "Accept-Encoding")
	if v.Hit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	if holds(r.Header.Get("If-None-Match"), v.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(v.Body)
}

// holds reports whether an If-None-Match list names etag or is "*".
func holds(ifNoneMatch, etag string) bool {
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && (candidate == "*" || candidate == etag) {
			return true
		}
	}
	return false
}
