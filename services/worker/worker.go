package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"sjsage522/propertyscraper/internal"
	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/internal/store"
	"sjsage522/propertyscraper/logger"
	"sjsage522/propertyscraper/services/publisher"
)

// Source produces the records of one category
type Source interface {
	Category() record.Category
	Collect(ctx context.Context, stats *record.Stats) ([]record.Record, error)
}

// Worker runs one scraping session: collect, persist, publish
type Worker struct {
	sources []Source
	store   *store.Store
	deps    internal.Dependencies
	jsonDir string
	stats   *record.Stats
	logger  *logger.Logger

	// Now is the clock; tests replace it
	Now func() time.Time
}

// NewWorker creates a new worker writing its files to jsonDir
func NewWorker(sources []Source, st *store.Store, deps internal.Dependencies, jsonDir string) *Worker {
	return &Worker{
		sources: sources,
		store:   st,
		deps:    deps,
		jsonDir: jsonDir,
		stats:   record.NewStats(),
		logger:  logger.ForWorker(),
		Now:     time.Now,
	}
}

// Stats returns the session statistics of the last run
func (w *Worker) Stats() *record.Stats {
	return w.stats
}

// Run collects every source concurrently, persists the cleaned records and
// hands them to the optional publisher and sink. The run summary is written
// even when saving fails. A cancelled context still persists what was
// collected and then returns the context error. It returns the number of
// persisted records per category.
func (w *Worker) Run(ctx context.Context) (map[record.Category]int, error) {
	w.stats.Reset()
	w.stats.Start(w.Now())
	w.logger.Info().Str("run_id", w.stats.RunID).Int("sources", len(w.sources)).Msg("starting scraping session")

	w.collect(ctx)

	w.stats.Freeze(w.Now())
	cleaned, saveErr := w.store.Save(w.jsonDir, w.stats, w.Now())

	counts := w.store.Counts()
	if saveErr == nil {
		for c, records := range cleaned {
			counts[c] = len(records)
		}
	}
	if err := store.WriteSummary(w.jsonDir, w.stats, counts); err != nil {
		w.logger.Error().Err(err).Msg("failed to write scraping summary")
	}

	if saveErr != nil {
		w.logger.Error().Err(saveErr).Msg("failed to save scraped data")
		return counts, saveErr
	}

	if err := ctx.Err(); err != nil {
		w.logger.Warn().Err(err).Msg("scraping session interrupted, partial data saved")
		return counts, err
	}

	w.publish(ctx, cleaned)
	w.sink(ctx, cleaned)

	w.logger.Info().
		Int64("total_items", w.stats.TotalItems()).
		Int64("images_downloaded", w.stats.ImagesDownloaded()).
		Int64("errors", w.stats.Errors()).
		Dur("duration", w.stats.Duration()).
		Msg("scraping session completed")
	return counts, nil
}

// collect runs the sources in parallel and appends their records to the
// store in source order
func (w *Worker) collect(ctx context.Context) {
	type outcome struct {
		records []record.Record
		stats   *record.Stats
		err     error
	}
	outcomes := make([]outcome, len(w.sources))

	var wg sync.WaitGroup
	for i, src := range w.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			stats := record.NewStats()
			records, err := src.Collect(ctx, stats)
			outcomes[i] = outcome{records: records, stats: stats, err: err}
		}(i, src)
	}
	wg.Wait()

	for i, o := range outcomes {
		category := w.sources[i].Category()
		w.stats.Merge(o.stats)
		if o.err != nil && !errors.Is(o.err, context.Canceled) {
			w.logger.WithError(o.err).Error().Str("category", string(category)).Msg("source failed")
		}
		w.store.Append(category, o.records...)
	}
}

func (w *Worker) publish(ctx context.Context, cleaned map[record.Category][]record.Record) {
	if w.deps.Publisher == nil {
		return
	}
	for _, c := range record.Categories {
		n, err := publisher.PublishRecords(ctx, w.deps.Publisher, c, cleaned[c])
		if err != nil {
			w.logger.Error().Err(err).Str("category", string(c)).Int("published", n).Msg("failed to publish records")
		}
	}

	// Trim all streams after publishing
	if err := w.deps.Publisher.TrimStreams(ctx); err != nil {
		w.logger.Error().Err(err).Msg("failed to trim streams")
	}
}

func (w *Worker) sink(ctx context.Context, cleaned map[record.Category][]record.Record) {
	if w.deps.Sink == nil {
		return
	}
	listings := record.Listings(cleaned[record.CategoryListings])
	if _, err := w.deps.Sink.SaveListings(ctx, listings); err != nil {
		w.logger.Error().Err(err).Msg("failed to save listings to sink")
	}
}
