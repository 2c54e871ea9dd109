// Package relay dispatches assembled prompts through the same-origin proxy
// and normalizes whatever comes back into a displayable string.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// User-facing fallback texts. Send never returns an error; every failure
// mode collapses into one of these.
const (
	// MsgRequestError covers non-2xx proxy replies and unparseable bodies.
	MsgRequestError = "Sorry, there was an error processing your request. Please try again."
	// MsgNoResponse covers well-formed replies missing the response field.
	MsgNoResponse = "No response received from the API. Please try again."
	// MsgUnexpected covers transport failures and anything else.
	MsgUnexpected = "An unexpected error occurred. Please try again later."
)

// Client sends prompts to the proxy endpoint. It never calls the upstream
// completion service directly; the proxy is the only trust-boundary
// crossing.
type Client struct {
	proxyURL string
	httpc    *http.Client
	minDelay time.Duration
	maxDelay time.Duration
	logger   *slog.Logger
}

// Config holds relay client configuration.
type Config struct {
	// ProxyURL is the same-origin proxy endpoint.
	ProxyURL string
	// MinDelay/MaxDelay bound the randomized pacing delay applied before
	// each dispatch. Purely cosmetic, not a retry or backoff mechanism.
	MinDelay time.Duration
	MaxDelay time.Duration
	// Timeout applies to the proxy round trip.
	Timeout time.Duration
}

type proxyResponse struct {
	Response string `json:"response"`
}

// NewClient creates a relay client for the given proxy endpoint.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		proxyURL: cfg.ProxyURL,
		httpc:    &http.Client{Timeout: timeout},
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		logger:   logger,
	}
}

// Send relays the prompt and returns the assistant reply, or a fallback
// text. It always returns a displayable non-empty string, never an error.
func (c *Client) Send(ctx context.Context, text string) string {
	c.pace(ctx)

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		c.logger.Error("Failed to encode relay request", "error", err)
		return MsgUnexpected
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to build relay request", "error", err)
		return MsgUnexpected
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("Relay request failed", "error", err)
		return MsgUnexpected
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("Failed to close relay response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("Failed to read relay response", "error", err)
		return MsgUnexpected
	}

	var data proxyResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || json.Unmarshal(raw, &data) != nil {
		c.logger.Warn("Relay error response", "status", resp.StatusCode)
		return MsgRequestError
	}
	if data.Response == "" {
		c.logger.Warn("Relay response missing reply field")
		return MsgNoResponse
	}

	return data.Response
}

// pace sleeps for a uniformly randomized interval between the configured
// delay bounds. Masks network jitter so perceived latency stays consistent.
func (c *Client) pace(ctx context.Context) {
	delay := c.minDelay
	if c.maxDelay > c.minDelay {
		delay += time.Duration(rand.Int63n(int64(c.maxDelay - c.minDelay)))
	}
	if delay <= 0 {
		return
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
