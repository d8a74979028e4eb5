// Package source collects records for one category, either live from the
// site or from caller-supplied fixtures.
package source

import (
	"context"

	"sjsage522/propertyscraper/internal/record"
)

// Source produces the records of one category
type Source interface {
	Category() record.Category
	Collect(ctx context.Context, stats *record.Stats) ([]record.Record, error)
}

// Fetcher is the subset of fetch.Fetcher used by live sources
type Fetcher interface {
	Fetch(ctx context.Context, url string, stats *record.Stats) ([]byte, error)
}

// RobotsPolicy decides whether a URL may be fetched
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) bool
}
