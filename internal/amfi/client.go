package amfi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// DateLayout is the dd-MMM-yyyy format the portal uses for request dates
// and for NAV date fields inside the report body.
const DateLayout = "02-Jan-2006"

// Client provides access to the upstream NAV feed. It is an interface so
// tests can substitute a scripted implementation.
type Client interface {
	FetchNAVReport(ctx context.Context, date time.Time) (string, error)
}

// FeedClient fetches the daily NAV history report from the AMFI portal.
// Every call re-fetches; the portal response is never cached.
//
// Transient failures (connection errors, timeouts, non-2xx responses) are
// retried up to MaxAttempts with a fixed RetryDelay between attempts.
// The delay is deliberately constant, not exponential: operators rely on
// the observable timing of the retry window.
type FeedClient struct {
	// MaxAttempts is the total number of fetch attempts per date.
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration

	urlTemplate string
	httpClient  *http.Client
}

// NewFeedClient creates a feed client for the given URL template. The
// template must contain a single %s placeholder for the dd-MMM-yyyy date.
func NewFeedClient(urlTemplate string) *FeedClient {
	return &FeedClient{
		MaxAttempts: 3,
		RetryDelay:  5 * time.Second,
		urlTemplate: urlTemplate,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewFeedClientWithTimeout creates a feed client with a custom per-attempt
// timeout.
func NewFeedClientWithTimeout(urlTemplate string, timeout time.Duration) *FeedClient {
	c := NewFeedClient(urlTemplate)
	c.httpClient = &http.Client{Timeout: timeout}
	return c
}

// FetchNAVReport downloads the raw multi-section NAV report for the given
// business date. After exhausting all attempts the last fetch error is
// returned; callers treat that as "no data for this date", not as fatal.
func (c *FeedClient) FetchNAVReport(ctx context.Context, date time.Time) (string, error) {
	url := fmt.Sprintf(c.urlTemplate, date.Format(DateLayout))

	var body string
	backoff := retry.WithMaxRetries(uint64(c.MaxAttempts-1), retry.NewConstant(c.RetryDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		text, err := c.fetchOnce(ctx, url)
		if err != nil {
			return retry.RetryableError(err)
		}
		body = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch nav report for %s after %d attempts: %w",
			date.Format(DateLayout), c.MaxAttempts, err)
	}

	return body, nil
}

func (c *FeedClient) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d from nav feed", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
