package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rafael/cbenef/internal/config"
)

// HTTPClient is the thin transport shared by the availability and download
// clients. Per-request timeouts come from the caller so that per-state
// overrides apply without one client per state.
type HTTPClient struct {
	cfg    *config.Config
	client *http.Client
}

// Response is a fetched document: status, headers and fully read body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func NewHTTPClient(cfg *config.Config) *HTTPClient {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPClient{
		cfg: cfg,
		// No global timeout: each request carries its own deadline.
		client: &http.Client{Transport: transport},
	}
}

// Get fetches the URL and reads the whole body.
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.do(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// Probe issues a GET and discards the body. Used for availability checks and
// Last-Modified lookups where only status and headers matter.
func (c *HTTPClient) Probe(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.do(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.cfg.Connection.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

func statusOK(code int) bool {
	return code >= 200 && code <= 299
}
