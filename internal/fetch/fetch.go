package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout is applied when a caller passes a non-positive timeout.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when a request does not complete within its bound.
var ErrTimeout = errors.New("request timed out")

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when the server answers with a non-OK status.
type StatusError struct {
	StatusCode int    // StatusCode is the HTTP status of the response.
	Body       string // Body is the raw response body, kept for logging.
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client performs timeout-bounded GET requests. Every request gets its own
// deadline via the context; the timer behind the deadline is always released
// on both the success and the failure path.
type Client struct {
	client HTTPClient   // client is the underlying HTTP client.
	log    *slog.Logger // log is the logger for request diagnostics.
}

// New creates a fetch client backed by a plain http.Client. Per-request
// deadlines come from the context, so the underlying client carries none.
func New(log *slog.Logger) *Client {
	return &Client{client: &http.Client{}, log: log}
}

// NewWithClient creates a fetch client with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewWithClient(client HTTPClient, log *slog.Logger) *Client {
	return &Client{client: client, log: log}
}

// GetJSON performs a GET against rawURL bounded by timeout and decodes the
// JSON response body into out. A request that exceeds its bound is aborted
// and reported as ErrTimeout, never left pending. A non-OK status is reported
// as *StatusError so callers can branch on the code.
func (c *Client) GetJSON(ctx context.Context, rawURL string, timeout time.Duration, out any) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.DebugContext(ctx, "Fetching", "url", rawURL, "timeout", timeout)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, rawURL)
		}
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.DebugContext(ctx, "Request failed", "url", rawURL, "status", resp.StatusCode)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
