package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"
)

const (
	maxAttempts  = 3
	baseDelay    = 200 * time.Millisecond
	maxDelay     = 2 * time.Second
	jitterFactor = 0.2
)

// apiClient is the HTTP client shared by all provider adapters. It
// retries transient failures (network errors and 5xx) with exponential
// backoff; 4xx responses are returned to the caller without retry.
type apiClient struct {
	http *http.Client
}

func newAPIClient(timeout time.Duration) *apiClient {
	return &apiClient{
		http: &http.Client{Timeout: timeout},
	}
}

// httpStatusError reports a non-2xx response.
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// postJSON sends body as JSON and decodes the response into out. The
// Idempotency-Key header makes provider-side retries safe.
func (c *apiClient) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}

		lastErr = c.doOnce(ctx, url, headers, payload, out)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func (c *apiClient) doOnce(ctx context.Context, url string, headers map[string]string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func backoffDelay(attempt int) time.Duration {
	backoff := baseDelay * time.Duration(1<<uint(attempt-1))
	if backoff > maxDelay {
		backoff = maxDelay
	}
	jitter := time.Duration(rand.Float64() * jitterFactor * float64(backoff))
	return backoff + jitter
}

func isRetryable(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
