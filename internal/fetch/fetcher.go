// Package fetch turns unreliable HTTP GETs into either a page body or a single
// terminal failure, with bounded retries, exponential backoff and a fixed
// post-success delay.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sjsage522/propertyscraper/helpers"
	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	"sjsage522/propertyscraper/services/cache"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

// ErrFetchFailed is wrapped by every terminal fetch failure
var ErrFetchFailed = errors.New("fetch failed")

// Options configures a Fetcher
type Options struct {
	MaxRetries  int
	Timeout     time.Duration
	Delay       time.Duration
	BackoffUnit time.Duration
	UserAgent   string

	// Cache is an optional page cache consulted before the network
	Cache    cache.CacheService
	CacheTTL time.Duration
}

// Fetcher issues GET requests with retry and rate limiting
type Fetcher struct {
	client *http.Client
	opts   Options
	log    *logger.Logger

	// sleep waits for d or until ctx is done
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Fetcher. A nil client uses http.DefaultClient; per-attempt
// timeouts come from opts.Timeout rather than the client.
func New(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Fetcher{
		client: client,
		opts:   opts,
		log:    logger.ForFetcher(),
		sleep:  sleepContext,
	}
}

// Fetch returns the body of url. Up to MaxRetries attempts are made; after a
// failed attempt i the fetcher waits 2^i backoff units before the next one.
// A successful network fetch is followed by the configured delay. When every
// attempt fails the stats error counter is incremented once and the returned
// error wraps ErrFetchFailed. Cancellation is honored between attempts and
// during sleeps.
func (f *Fetcher) Fetch(ctx context.Context, url string, stats *record.Stats) ([]byte, error) {
	if body, ok := f.cached(url); ok {
		f.log.Debug().Str("url", url).Msg("page cache hit")
		return body, nil
	}

	var lastErr error
	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := f.attempt(ctx, url)
		if err == nil {
			f.store(url, body)
			if err := f.sleep(ctx, f.opts.Delay); err != nil {
				return nil, err
			}
			return body, nil
		}
		lastErr = err

		// the caller cancelled; do not count it as a fetch failure
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		f.log.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempt+1).
			Int("max_retries", f.opts.MaxRetries).
			Msg("fetch attempt failed")

		if attempt < f.opts.MaxRetries-1 {
			if err := f.sleep(ctx, f.backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	if stats != nil {
		stats.AddError()
	}
	f.log.Error().Err(lastErr).Str("url", url).Msg("giving up after max retries")
	return nil, fmt.Errorf("%w: %w", ErrFetchFailed,
		apperrors.NewTransport("fetcher", fmt.Sprintf("%d attempts for %s", f.opts.MaxRetries, url), lastErr))
}

func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	body, err := helpers.Get(ctx, f.client, url, f.opts.UserAgent)
	if err != nil {
		var statusErr *helpers.StatusError
		if errors.As(err, &statusErr) && statusErr.RateLimited() {
			return nil, fmt.Errorf("%w: %w", apperrors.NewRateLimit("fetcher", statusErr.RetryAfter), err)
		}
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * f.opts.BackoffUnit
}

func (f *Fetcher) cached(url string) ([]byte, bool) {
	if f.opts.Cache == nil {
		return nil, false
	}
	// failures other than a miss are logged by the cache
	body, err := f.opts.Cache.Get(cache.PageKey(url))
	if err != nil {
		return nil, false
	}
	return body, true
}

func (f *Fetcher) store(url string, body []byte) {
	if f.opts.Cache == nil || f.opts.CacheTTL <= 0 {
		return
	}
	_ = f.opts.Cache.Set(cache.PageKey(url), body, f.opts.CacheTTL)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
