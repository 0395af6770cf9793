// Package upstream performs the HTTP calls to provider APIs. It is
// provider-agnostic: adapters prepare the full request (URL, headers,
// marshaled body) and interpret the response body.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// httpTimeout bounds a single upstream call. SSE streams can be long-lived,
// so the limit is generous.
const httpTimeout = 5 * time.Minute

// maxErrorBodySize caps how much of an error body is retained for
// diagnostics.
const maxErrorBodySize = 64 * 1024

// Request is a fully-prepared provider HTTP request.
type Request struct {
	URL     string
	Headers http.Header
	Body    []byte
	Stream  bool
}

// Response wraps a successful (2xx) upstream response. The caller owns
// Body and must close it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Client posts requests to provider endpoints. The zero value is not
// usable; create one with NewClient.
type Client struct {
	http    *http.Client
	verbose bool
}

// NewClient creates an upstream client.
func NewClient(verbose bool) *Client {
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		verbose: verbose,
	}
}

// Do sends the request. Non-2xx responses are drained and returned as a
// *HTTPError carrying the status, body and any provider request id; the
// original error body is preserved for diagnostics. No retries happen at
// this layer.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}

	if c.verbose {
		slog.Info("upstream.request", "url", req.URL, "stream", req.Stream, "body_bytes", len(req.Body))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		resp.Body.Close()
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			RequestID:  extractRequestID(resp.Header),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// Get fetches a provider metadata endpoint (model catalogs and the like)
// and returns the full body. Errors follow the same *HTTPError contract
// as Do.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}

	if c.verbose {
		slog.Info("upstream.get", "url", url)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
			RequestID:  extractRequestID(resp.Header),
		}
	}

	return io.ReadAll(resp.Body)
}
