package source

import (
	"context"
	"time"

	"sjsage522/propertyscraper/internal/extract"
	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	"sjsage522/propertyscraper/services/worker"
)

// ArticleSource fetches editorial articles from a fixed URL list
type ArticleSource struct {
	URLs    []string
	Fetcher Fetcher
	Pool    *worker.Pool
	Robots  RobotsPolicy
	Now     func() time.Time
}

// Category implements Source
func (s *ArticleSource) Category() record.Category {
	return record.CategoryArticles
}

// Collect implements Source
func (s *ArticleSource) Collect(ctx context.Context, stats *record.Stats) ([]record.Record, error) {
	log := logger.ForSource(string(s.Category()))

	pool := s.Pool
	if pool == nil {
		pool = worker.NewPool(1)
	}

	results := worker.Run(ctx, pool, len(s.URLs), func(ctx context.Context, i int) (*record.Article, error) {
		url := s.URLs[i]
		if s.Robots != nil && !s.Robots.Allowed(ctx, url) {
			return nil, nil
		}
		body, err := s.Fetcher.Fetch(ctx, url, stats)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		if s.Now != nil {
			now = s.Now()
		}
		return extract.ExtractArticle(body, url, now)
	})

	articles := make([]record.Record, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("url", s.URLs[r.Index]).Msg("skipping article")
			continue
		}
		if r.Value != nil {
			articles = append(articles, r.Value)
		}
	}
	if err := ctx.Err(); err != nil {
		return articles, err
	}

	stats.AddItems(len(articles))
	log.Info().Int("count", len(articles)).Msg("scraped articles")
	return articles, nil
}
