package inference_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jdelaire/inferbot/core"
)

const (
	defaultTimeout   = 60 * time.Second
	maxResponseBytes = 1 << 20
	maxErrorBodyLen  = 1024
)

var errInvalidPayload = errors.New("invalid JSON payload")

type request struct {
	Query string `json:"query"`
}

// Client posts queries to the inference backend. Each call is attempted
// exactly once.
type Client struct {
	endpoint    string
	accessToken string
	timeout     time.Duration
	client      *http.Client
}

// New creates an inference client. A non-positive timeout selects the default.
func New(endpoint, accessToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:    endpoint,
		accessToken: accessToken,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client (for testing).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Infer sends query to the backend. It never returns a Go error: every fault
// is reported as a Failure outcome.
func (c *Client) Infer(ctx context.Context, query string) core.InferenceOutcome {
	text, err := c.do(ctx, query)
	if err != nil {
		return core.Failure(err)
	}
	return core.Success(text)
}

func (c *Client) do(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(request{Query: query})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("access_token", c.accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &core.StatusError{
			Code: resp.StatusCode,
			Body: truncate(strings.TrimSpace(string(raw)), maxErrorBodyLen),
		}
	}

	text, err := payloadText(raw)
	if err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return text, nil
}

// payloadText renders the opaque backend payload as reply text. JSON strings
// are unquoted; every other value is returned as compact JSON.
func payloadText(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return "", errInvalidPayload
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ core.Inferer = (*Client)(nil)
