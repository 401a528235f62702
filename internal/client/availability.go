package client

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/rafael/cbenef/internal/config"
)

// AvailabilityClient answers "is this state's source reachable right now"
// without ever surfacing an error: any failure reads as unavailable.
type AvailabilityClient struct {
	cfg  *config.Config
	http *HTTPClient
}

func NewAvailabilityClient(cfg *config.Config, httpClient *HTTPClient) *AvailabilityClient {
	return &AvailabilityClient{cfg: cfg, http: httpClient}
}

// Check probes the state's source URL with a body-discarding GET.
func (c *AvailabilityClient) Check(ctx context.Context, stateCode string) bool {
	sourceURL := c.cfg.SourceURL(stateCode)
	if sourceURL == "" {
		return false
	}

	resp, err := c.http.Probe(ctx, sourceURL, c.cfg.CustomHeaders(stateCode), 10*time.Second)
	if err != nil {
		log.Printf("[%s] availability probe failed: %v", stateCode, err)
		return false
	}
	return statusOK(resp.StatusCode)
}

// LastModified parses the source's Last-Modified header, nil on any failure.
func (c *AvailabilityClient) LastModified(ctx context.Context, stateCode string) *time.Time {
	sourceURL := c.cfg.SourceURL(stateCode)
	if sourceURL == "" {
		return nil
	}

	resp, err := c.http.Probe(ctx, sourceURL, c.cfg.CustomHeaders(stateCode), 10*time.Second)
	if err != nil {
		return nil
	}

	value := resp.Headers.Get("Last-Modified")
	if value == "" {
		return nil
	}
	t, err := http.ParseTime(value)
	if err != nil {
		return nil
	}
	return &t
}

// IsHealthy is a stricter probe: the source must answer 2xx within 10s using
// a short 5s request timeout.
func (c *AvailabilityClient) IsHealthy(ctx context.Context, stateCode string) bool {
	sourceURL := c.cfg.SourceURL(stateCode)
	if sourceURL == "" {
		return false
	}

	start := time.Now()
	resp, err := c.http.Probe(ctx, sourceURL, c.cfg.CustomHeaders(stateCode), 5*time.Second)
	if err != nil {
		return false
	}
	return statusOK(resp.StatusCode) && time.Since(start) < 10*time.Second
}
