package client

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rafael/cbenef/internal/config"
)

// SourceUnavailableError is returned when every URL/retry combination for a
// state has been exhausted.
type SourceUnavailableError struct {
	StateCode string
	SourceURL string
	Attempts  int
	Err       error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source for state %s unavailable (%s) after %d attempts: %v",
		e.StateCode, e.SourceURL, e.Attempts, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// DownloadClient fetches a state's source document, walking the primary URL
// plus configured fallbacks with bounded linear-backoff retries per URL.
type DownloadClient struct {
	cfg  *config.Config
	http *HTTPClient
}

func NewDownloadClient(cfg *config.Config, httpClient *HTTPClient) *DownloadClient {
	return &DownloadClient{cfg: cfg, http: httpClient}
}

// Download returns the raw document bytes for the state. The total attempt
// budget is maxRetries per URL across primary + fallback URLs.
func (c *DownloadClient) Download(ctx context.Context, stateCode string) ([]byte, error) {
	sourceURL := c.cfg.SourceURL(stateCode)
	if sourceURL == "" {
		return nil, &SourceUnavailableError{
			StateCode: stateCode,
			SourceURL: "N/A",
			Err:       fmt.Errorf("no source URL configured"),
		}
	}

	urls := append([]string{sourceURL}, c.cfg.FallbackURLs(stateCode)...)
	maxRetries := c.cfg.MaxRetries(stateCode)
	headers := c.cfg.CustomHeaders(stateCode)
	readTimeout := c.cfg.ReadTimeout(stateCode)

	var lastErr error
	attempts := 0

	for _, url := range urls {
		for attempt := 1; attempt <= maxRetries; attempt++ {
			attempts++

			resp, err := c.http.Get(ctx, url, headers, readTimeout)
			if err == nil && statusOK(resp.StatusCode) {
				log.Printf("[%s] downloaded %d bytes from %s (attempt %d)",
					stateCode, len(resp.Body), url, attempt)
				return resp.Body, nil
			}
			if err == nil {
				err = fmt.Errorf("HTTP %d", resp.StatusCode)
			}
			lastErr = err
			log.Printf("[%s] download attempt %d/%d on %s failed: %v",
				stateCode, attempt, maxRetries, url, err)

			// Linear backoff; no sleep after the final attempt of a URL.
			if attempt < maxRetries {
				delay := c.cfg.RetryDelay() * time.Duration(attempt)
				select {
				case <-ctx.Done():
					return nil, &SourceUnavailableError{
						StateCode: stateCode,
						SourceURL: sourceURL,
						Attempts:  attempts,
						Err:       ctx.Err(),
					}
				case <-time.After(delay):
				}
			}
		}
	}

	return nil, &SourceUnavailableError{
		StateCode: stateCode,
		SourceURL: sourceURL,
		Attempts:  attempts,
		Err:       lastErr,
	}
}
