package source

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

// FixtureSource returns caller-supplied records instead of fetching
type FixtureSource struct {
	category record.Category
	records  []record.Record
}

// NewFixtureSource creates a source that yields records for category
func NewFixtureSource(category record.Category, records []record.Record) *FixtureSource {
	return &FixtureSource{category: category, records: records}
}

// Category implements Source
func (s *FixtureSource) Category() record.Category {
	return s.category
}

// Collect returns a copy of the fixture records
func (s *FixtureSource) Collect(ctx context.Context, stats *record.Stats) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]record.Record, len(s.records))
	copy(out, s.records)

	stats.AddItems(len(out))
	logger.ForSource(string(s.category)).Info().Int("count", len(out)).Msg("loaded fixture records")
	return out, nil
}

// fixtureFile is the on-disk layout: one array per category file name
type fixtureFile struct {
	Listings []*record.Listing `json:"property_listings"`
	Projects []*record.Project `json:"projects"`
	Articles []*record.Article `json:"articles"`
	Agents   []*record.Agent   `json:"estate_agents"`
}

// LoadFixtures reads a fixture file. Records without scraped_at are stamped
// with now. Categories absent from the file are absent from the result.
func LoadFixtures(path string, now time.Time) (map[record.Category][]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to read fixture file "+path, err)
	}

	var f fixtureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewConfiguration("failed to parse fixture file "+path, err)
	}

	out := make(map[record.Category][]record.Record)
	add := func(category record.Category, records []record.Record) {
		if len(records) > 0 {
			out[category] = records
		}
	}

	for _, l := range f.Listings {
		stamp(&l.ScrapedAt, now)
	}
	for _, p := range f.Projects {
		stamp(&p.ScrapedAt, now)
	}
	for _, a := range f.Articles {
		stamp(&a.ScrapedAt, now)
	}
	for _, a := range f.Agents {
		stamp(&a.ScrapedAt, now)
	}

	add(record.CategoryListings, record.FromListings(f.Listings))
	add(record.CategoryProjects, toRecords(f.Projects))
	add(record.CategoryArticles, toRecords(f.Articles))
	add(record.CategoryAgents, toRecords(f.Agents))
	return out, nil
}

func stamp(t *time.Time, now time.Time) {
	if t.IsZero() {
		*t = now
	}
}

func toRecords[T record.Record](items []T) []record.Record {
	out := make([]record.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
