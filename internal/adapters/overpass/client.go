// Package overpass implements ports.GeoDataFetcher against the Overpass API,
// with cache-aside reads and paced, retried queries.
package overpass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/mapframe/internal/pkg/metrics"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("overpass status %d: %s", e.Code, e.Body)
}

// Client posts Overpass QL programs to a single endpoint.
type Client struct {
	endpoint string
	session  *http.Client
	timeout  time.Duration
	retries  int
}

// NewClient returns a client with a bounded transport timeout. The same
// timeout is written into each query's [timeout:] directive so the server
// gives up when the client does.
func NewClient(endpoint string, timeout time.Duration, retries int) *Client {
	return &Client{
		endpoint: endpoint,
		session:  &http.Client{Timeout: timeout},
		timeout:  timeout,
		retries:  retries,
	}
}

// Query executes an Overpass QL program and returns the raw JSON body.
// layer labels the request in metrics.
func (c *Client) Query(ctx context.Context, ql, layer string) ([]byte, error) {
	start := time.Now()

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		form := url.Values{"data": {ql}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})

	metrics.OverpassRequestDuration.WithLabelValues(layer).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OverpassRequests.WithLabelValues(layer, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.OverpassRequests.WithLabelValues(layer, "error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	metrics.OverpassRequests.WithLabelValues(layer, "ok").Inc()
	return body, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) with exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	attempts := c.retries + 1
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == attempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}
