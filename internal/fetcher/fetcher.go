package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gamedex/internal/ratelimit"
)

// APIError is returned for non-2xx upstream responses.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

// Fetcher performs rate-gated GETs with bounded retry. Transient failures
// (network errors, timeouts, 5xx, 429) are retried with exponential backoff
// up to MaxAttempts; other 4xx responses are terminal.
type Fetcher struct {
	HTTP        *http.Client
	Gate        *ratelimit.Gate
	MaxAttempts int
	BackoffBase time.Duration
	Logger      *zap.Logger
}

func New(httpClient *http.Client, gate *ratelimit.Gate, maxAttempts int, logger *zap.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Fetcher{
		HTTP:        httpClient,
		Gate:        gate,
		MaxAttempts: maxAttempts,
		BackoffBase: time.Second,
		Logger:      logger,
	}
}

// FetchJSON acquires the endpoint's rate-limit admission, performs the GET
// and returns the raw JSON body. Each retry re-acquires admission so the
// endpoint limit holds across attempts too.
func (f *Fetcher) FetchJSON(ctx context.Context, endpoint, url string) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= f.MaxAttempts; attempt++ {
		if err := f.Gate.Acquire(ctx, endpoint); err != nil {
			return nil, err
		}

		body, err := f.doGet(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == f.MaxAttempts {
			break
		}

		base := f.BackoffBase
		if base <= 0 {
			base = time.Second
		}
		backoff := time.Duration(1<<uint(attempt-1)) * base
		if f.Logger != nil {
			f.Logger.Debug("fetch retry",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

func (f *Fetcher) doGet(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: truncate(string(body), 512)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON response from %s", url)
	}
	return json.RawMessage(body), nil
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Wrapped transport errors without a net.Error in the chain still count
	// as transient unless the context is gone.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
