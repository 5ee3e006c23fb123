package movies

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"movie-notifier/utils"
)

const (
	maxRedirects = 10
	userAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrTooManyRedirects is returned when a fetch is bounced through more
// than maxRedirects hops.
var ErrTooManyRedirects = errors.New("stopped after too many redirects")

// StatusError reports a non-success HTTP status. Any status outside the
// 2xx range is a failure, never content.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// Fetcher retrieves raw pages over HTTP. It performs exactly one
// attempt per call; retries, if any, belong to the caller.
type Fetcher struct {
	client  *http.Client
	limiter *utils.RateLimiter
	logger  *utils.Logger
}

// NewFetcher creates a Fetcher with the given per-request timeout and a
// minimum spacing between requests.
func NewFetcher(timeout time.Duration, rateLimitMs int, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		limiter: utils.NewRateLimiter(time.Duration(rateLimitMs) * time.Millisecond),
		logger:  logger,
	}
}

// Fetch performs one blocking GET of url and returns the page body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	f.logger.Debug("[fetch] GET %s", url)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", url, err)
	}
	return body, nil
}
