// Package proxy implements the same-origin boundary in front of the
// upstream completion service. Keeping it out of the relay client keeps
// the trust-boundary crossing a single auditable point.
package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
)

// maxRequestBodySize is the maximum allowed proxy request body (1MB).
const maxRequestBodySize = 1 << 20

// Handler forwards prompts to the upstream completion service.
type Handler struct {
	upstreamURL string
	httpc       *http.Client
}

// NewHandler creates a proxy handler for the given upstream endpoint.
func NewHandler(upstreamURL string, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{
		upstreamURL: upstreamURL,
		httpc:       &http.Client{Timeout: timeout},
	}
}

// RegisterRoutes registers the proxy endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/proxy", h.Forward)
}

type proxyRequest struct {
	Text string `json:"text"`
}

// Forward relays the prompt to the upstream completion service as an
// unauthenticated GET with the percent-encoded text as a query parameter.
// On 2xx the upstream JSON body is returned verbatim; every failure mode
// becomes a generic error object with a 500 status.
func (h *Handler) Forward(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req proxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid proxy request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	body, err := h.fetchUpstream(r, req.Text)
	if err != nil {
		slog.Error("Proxy upstream call failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch response from API")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Debug("Failed to write proxy response", "error", err)
	}
}

func (h *Handler) fetchUpstream(r *http.Request, text string) ([]byte, error) {
	target := h.upstreamURL + "?text=" + url.QueryEscape(text)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("Failed to close upstream response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	return body, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Debug("Failed to encode proxy error response", "error", err)
	}
}
