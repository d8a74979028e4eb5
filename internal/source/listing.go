package source

import (
	"context"
	"time"

	"sjsage522/propertyscraper/internal/extract"
	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	"sjsage522/propertyscraper/services/worker"
)

// ListingSource fetches and extracts property listings from a fixed URL list
type ListingSource struct {
	URLs        []string
	MaxListings int

	Fetcher   Fetcher
	Extractor *extract.ListingExtractor
	Pool      *worker.Pool

	// Robots and Images are optional
	Robots RobotsPolicy
	Images *ImageDownloader

	Now func() time.Time
}

// Category implements Source
func (s *ListingSource) Category() record.Category {
	return record.CategoryListings
}

// Collect fetches at most MaxListings URLs and returns the listings in URL
// order. URLs that cannot be fetched or parsed are skipped.
func (s *ListingSource) Collect(ctx context.Context, stats *record.Stats) ([]record.Record, error) {
	log := logger.ForSource(string(s.Category()))

	urls := s.URLs
	if s.MaxListings > 0 && len(urls) > s.MaxListings {
		urls = urls[:s.MaxListings]
	}
	log.Info().Int("urls", len(urls)).Int("max", s.MaxListings).Msg("starting property listings scrape")

	pool := s.Pool
	if pool == nil {
		pool = worker.NewPool(1)
	}

	results := worker.Run(ctx, pool, len(urls), func(ctx context.Context, i int) (*record.Listing, error) {
		return s.collectOne(ctx, urls[i], stats)
	})

	listings := make([]record.Record, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("url", urls[r.Index]).Msg("skipping listing")
			continue
		}
		if r.Value != nil {
			listings = append(listings, r.Value)
		}
	}

	if err := ctx.Err(); err != nil {
		return listings, err
	}

	stats.AddItems(len(listings))
	log.Info().Int("count", len(listings)).Msg("scraped property listings")
	return listings, nil
}

func (s *ListingSource) collectOne(ctx context.Context, url string, stats *record.Stats) (*record.Listing, error) {
	if s.Robots != nil && !s.Robots.Allowed(ctx, url) {
		logger.ForSource(string(s.Category())).Info().Str("url", url).Msg("disallowed by robots.txt")
		return nil, nil
	}

	body, err := s.Fetcher.Fetch(ctx, url, stats)
	if err != nil {
		return nil, err
	}

	raw, err := s.Extractor.Extract(body, url)
	if err != nil {
		return nil, err
	}

	listing := extract.BuildListing(raw, s.now())
	listing.Images = raw.Images

	if s.Images != nil && len(listing.Images) > 0 {
		listing.Images = s.Images.Download(ctx, listing, stats)
	}
	return listing, nil
}

func (s *ListingSource) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
