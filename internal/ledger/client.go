// Package ledger provides an HTTP client for the ledger node API.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	klog "github.com/Klingon-tech/ipdb-go/internal/log"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 16 << 20

// ErrTransport is returned for network failures, unexpected HTTP statuses
// on reads, and undecodable responses.
var ErrTransport = errors.New("ledger transport error")

// Endpoint identifies a ledger node and the credentials sent with each
// request. It is passed to every call.
type Endpoint struct {
	BaseURL string
	AppID   string
	AppKey  string
}

// HTTPError is returned when the server answers with an unexpected status.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap returns ErrTransport.
func (e *HTTPError) Unwrap() error { return ErrTransport }

// Client is an HTTP client for the ledger API.
type Client struct {
	http *http.Client
}

// New creates a client with a 10 second request timeout.
func New() *Client {
	return NewWithTimeout(10 * time.Second)
}

// NewWithTimeout creates a client with a custom HTTP timeout.
func NewWithTimeout(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewWithHTTPClient creates a client on top of an existing *http.Client.
func NewWithHTTPClient(hc *http.Client) *Client {
	if hc == nil {
		return New()
	}
	return &Client{http: hc}
}

// response is a fully read HTTP response.
type response struct {
	code int
	body []byte
}

// do sends a request and reads the whole response body. Only network and
// read failures are returned as errors.
func (c *Client) do(ctx context.Context, ep Endpoint, method, path string, query url.Values, payload []byte) (*response, error) {
	u := strings.TrimRight(ep.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ep.AppID != "" {
		req.Header.Set("app_id", ep.AppID)
	}
	if ep.AppKey != "" {
		req.Header.Set("app_key", ep.AppKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	klog.Ledger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("ledger request")

	return &response{code: resp.StatusCode, body: data}, nil
}

// get performs a GET that must answer 200 and decodes the body into out.
func (c *Client) get(ctx context.Context, ep Endpoint, op, path string, query url.Values, out interface{}) error {
	resp, err := c.do(ctx, ep, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if resp.code != http.StatusOK {
		return &HTTPError{Op: op, StatusCode: resp.code, Body: string(resp.body)}
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", ErrTransport, op, err)
	}
	return nil
}
