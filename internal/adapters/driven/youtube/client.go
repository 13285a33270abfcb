// Package youtube talks to the video platform: the Data API v3 for metadata and
// the public watch page plus timed-text endpoint for captions.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

const (
	DefaultDataAPIURL   = "https://www.googleapis.com/youtube/v3"
	DefaultWatchPageURL = "https://www.youtube.com/watch"

	defaultTimeout       = 15 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = 500 * time.Millisecond
	maxBodyBytes         = 8 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config configures the platform adapters.
type Config struct {
	APIKey       string
	DataAPIURL   string
	WatchPageURL string

	// Languages orders caption track preference, e.g. ["en", "en-GB"].
	Languages []string

	// Timeout bounds a single HTTP attempt.
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.DataAPIURL == "" {
		c.DataAPIURL = DefaultDataAPIURL
	}
	if c.WatchPageURL == "" {
		c.WatchPageURL = DefaultWatchPageURL
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"en"}
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = defaultRetryInterval
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// statusError is a non-2xx response.
type statusError struct {
	Code int
	URL  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// callerDoneError marks a failure caused by the caller's context ending, which
// says nothing about the platform's health.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }
func (e *callerDoneError) Unwrap() error { return e.err }

// fetcher performs GET requests with per-attempt timeouts, exponential backoff on
// transient failures and a circuit breaker around the whole retried call.
type fetcher struct {
	http          *http.Client
	breaker       *gobreaker.CircuitBreaker
	timeout       time.Duration
	maxTries      uint
	retryInterval time.Duration
	logger        *slog.Logger
}

func newFetcher(name string, cfg Config) *fetcher {
	return &fetcher{
		http: cfg.HTTPClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// a 4xx answer means the platform is reachable
			IsSuccessful: func(err error) bool {
				var ce *callerDoneError
				if errors.As(err, &ce) {
					return true
				}
				var se *statusError
				if errors.As(err, &se) {
					return !isRetryableStatus(se.Code)
				}
				return err == nil
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				cfg.Logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		timeout:       cfg.Timeout,
		maxTries:      uint(cfg.MaxRetries),
		retryInterval: cfg.RetryInterval,
		logger:        cfg.Logger,
	}
}

// get returns the response body of a 2xx answer. Every failure matches domain.ErrUpstream.
func (f *fetcher) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	body, err := f.breaker.Execute(func() (interface{}, error) {
		body, err := f.getWithRetry(ctx, rawURL, accept)
		if err != nil && ctx.Err() != nil {
			return nil, &callerDoneError{err: err}
		}
		return body, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	return body.([]byte), nil
}

func (f *fetcher) getWithRetry(ctx context.Context, rawURL, accept string) ([]byte, error) {
	operation := func() ([]byte, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", accept)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			// url.Error repeats the full URL, query string and API key included
			var uerr *url.Error
			if errors.As(err, &uerr) {
				err = fmt.Errorf("GET %s: %w", endpoint(req.URL), uerr.Err)
			}
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			serr := &statusError{Code: resp.StatusCode, URL: endpoint(req.URL)}
			if isRetryableStatus(resp.StatusCode) {
				return nil, serr
			}
			return nil, backoff.Permanent(serr)
		}

		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.retryInterval
	bo.MaxInterval = 20 * f.retryInterval

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(f.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			f.logger.Debug("retrying upstream request", "error", err, "backoff", next)
		}),
	)
}

// endpoint renders u without its query string.
func endpoint(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}
