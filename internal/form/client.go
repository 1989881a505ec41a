package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrorKind classifies a failed submission for the UI layer. The raw
// cause is logged, never shown to the user.
type ErrorKind string

const (
	ErrNetwork     ErrorKind = "network_error"
	ErrRateLimited ErrorKind = "rate_limited"
	ErrRejected    ErrorKind = "server_rejected"
)

// SubmitError wraps a failed submission with its classification.
type SubmitError struct {
	Kind ErrorKind
	Err  error
}

func (e *SubmitError) Error() string { return string(e.Kind) }
func (e *SubmitError) Unwrap() error { return e.Err }

// Message returns the user-facing text for the failure.
func (e *SubmitError) Message() string {
	switch e.Kind {
	case ErrRateLimited:
		return "You're sending messages too quickly. Please wait a moment and try again."
	case ErrRejected:
		return "Your message was rejected. Please reload the page and try again."
	default:
		return "Could not reach the server. Please check your connection and try again."
	}
}

// ClientConfig configures the submission client. Endpoint is injected
// rather than read from the environment so tests can point the client
// at an httptest server.
type ClientConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// Client posts one validated submission per call. No retries: if the
// user wants to try again, they resubmit the form.
type Client struct {
	cfg ClientConfig
	hc  *http.Client
	log *slog.Logger
}

func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
		log: log,
	}
}

// Submit sends the payload as JSON. The CSRF token also travels in the
// X-CSRF-Token header; the server accepts either. A nil return means
// the server acknowledged the message.
func (c *Client) Submit(ctx context.Context, d Data) error {
	body, err := json.Marshal(d)
	if err != nil {
		return &SubmitError{Kind: ErrNetwork, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &SubmitError{Kind: ErrNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if d.CSRFToken != "" {
		req.Header.Set("X-CSRF-Token", d.CSRFToken)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Error("contact submit transport failure", "endpoint", c.cfg.Endpoint, "err", err)
		return &SubmitError{Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		c.log.Warn("contact submit rate limited", "status", resp.StatusCode)
		return &SubmitError{Kind: ErrRateLimited, Err: fmt.Errorf("status %d", resp.StatusCode)}
	default:
		c.log.Error("contact submit rejected", "status", resp.StatusCode)
		return &SubmitError{Kind: ErrRejected, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
}
