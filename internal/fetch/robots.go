package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"sjsage522/propertyscraper/helpers"
	"sjsage522/propertyscraper/logger"
)

// RobotsChecker answers whether a URL may be fetched according to the
// host's robots.txt. Each host's rules are fetched once and remembered;
// transport failures are not remembered and the next lookup retries.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration

	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

// NewRobotsChecker creates a checker that identifies itself as userAgent.
// timeout bounds each robots.txt request; zero means no bound beyond ctx.
func NewRobotsChecker(client *http.Client, userAgent string, timeout time.Duration) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
		groups:    make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether rawURL may be fetched. Unreachable or unparsable
// robots.txt files allow everything.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	group := r.group(ctx, u)
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (r *RobotsChecker) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	origin := u.Scheme + "://" + u.Host

	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.groups[origin]; ok {
		return g
	}

	g, ok := r.load(ctx, origin)
	if ok {
		r.groups[origin] = g
	}
	return g
}

// load fetches and parses robots.txt. ok is false when the outcome should
// not be remembered, i.e. the request did not complete.
func (r *RobotsChecker) load(ctx context.Context, origin string) (group *robotstxt.Group, ok bool) {
	log := logger.ForFetcher()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := helpers.NewRequest(ctx, origin+"/robots.txt", r.userAgent)
	if err != nil {
		return nil, true
	}
	resp, err := r.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("origin", origin).Msg("robots.txt unreachable, allowing for now")
		return nil, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Debug().Err(err).Str("origin", origin).Msg("robots.txt read failed, allowing for now")
		return nil, false
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		log.Debug().Err(err).Str("origin", origin).Msg("robots.txt unparsable, allowing all")
		return nil, true
	}
	return data.FindGroup(r.userAgent), true
}
