package internal

import (
	"context"

	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/services/cache"
	"sjsage522/propertyscraper/services/publisher"
)

// ListingSink receives the persisted listings of a run
type ListingSink interface {
	SaveListings(ctx context.Context, listings []*record.Listing) (int, error)
	Close()
}

// Dependencies holds the optional external services of a run.
// Nil fields are disabled.
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Sink      ListingSink
}
