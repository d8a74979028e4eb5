package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

const (
	// AggregateFile holds every category under a metadata block
	AggregateFile = "buyrentkenya_complete_data.json"
	// SummaryFile holds the run statistics
	SummaryFile = "scraping_summary.json"
)

// Metadata heads the aggregate file
type Metadata struct {
	RunID            string                  `json:"run_id"`
	ScrapedAt        time.Time               `json:"scraped_at"`
	TotalItems       int64                   `json:"total_items"`
	ImagesDownloaded int64                   `json:"images_downloaded"`
	Errors           int64                   `json:"errors"`
	ItemCounts       map[record.Category]int `json:"item_counts"`
}

// Aggregate is the layout of AggregateFile
type Aggregate struct {
	Metadata Metadata                            `json:"metadata"`
	Data     map[record.Category][]record.Record `json:"data"`
}

// Session is the scraping_session block of the summary
type Session struct {
	RunID           string     `json:"run_id"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds float64    `json:"duration_seconds"`
}

// Summary is the layout of SummaryFile
type Summary struct {
	Session    Session                 `json:"scraping_session"`
	Statistics record.StatsSnapshot    `json:"statistics"`
	DataCounts map[record.Category]int `json:"data_counts"`
}

// Save writes one file per category and the aggregate file into dir. It
// returns the cleaned record sets that were written.
func (s *Store) Save(dir string, stats *record.Stats, now time.Time) (map[record.Category][]record.Record, error) {
	log := logger.ForStore()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewPersistence("store", "failed to create "+dir, err)
	}

	cleaned := make(map[record.Category][]record.Record, len(record.Categories))
	counts := make(map[record.Category]int, len(record.Categories))
	for _, c := range record.Categories {
		records := s.Clean(c)
		cleaned[c] = records
		counts[c] = len(records)

		path := filepath.Join(dir, c.FileName())
		if err := writeJSON(path, records); err != nil {
			return nil, err
		}
		log.Info().Int("count", len(records)).Str("file", path).Msg("saved category")
	}

	snap := stats.Snapshot()
	aggregate := Aggregate{
		Metadata: Metadata{
			RunID:            snap.RunID,
			ScrapedAt:        now,
			TotalItems:       snap.TotalItems,
			ImagesDownloaded: snap.ImagesDownloaded,
			Errors:           snap.Errors,
			ItemCounts:       counts,
		},
		Data: cleaned,
	}
	if err := writeJSON(filepath.Join(dir, AggregateFile), aggregate); err != nil {
		return nil, err
	}
	return cleaned, nil
}

// WriteSummary writes the run statistics and the per-category counts
func WriteSummary(dir string, stats *record.Stats, counts map[record.Category]int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewPersistence("store", "failed to create "+dir, err)
	}

	snap := stats.Snapshot()
	summary := Summary{
		Session: Session{
			RunID:           snap.RunID,
			StartTime:       snap.StartTime,
			EndTime:         snap.EndTime,
			DurationSeconds: stats.Duration().Seconds(),
		},
		Statistics: snap,
		DataCounts: counts,
	}
	return writeJSON(filepath.Join(dir, SummaryFile), summary)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.NewPersistence("store", "failed to encode "+filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.NewPersistence("store", "failed to write "+path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.NewPersistence("store", "failed to write "+path, err)
	}
	return nil
}
