// Package store holds the per-category record sequences of one run and
// persists them.
package store

import (
	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

// Valid reports whether r carries both a URL and a scrape timestamp
func Valid(r record.Record) bool {
	return r != nil && r.Key() != "" && !r.Scraped().IsZero()
}

// Validate drops invalid records, keeping order. With enabled false the
// input is returned as is.
func Validate(records []record.Record, enabled bool) []record.Record {
	if !enabled {
		return records
	}

	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if Valid(r) {
			out = append(out, r)
			continue
		}
		key := ""
		if r != nil {
			key = r.Key()
		}
		logger.ForStore().Warn().
			Err(apperrors.NewValidation("store", "record missing url or scraped_at")).
			Str("url", key).
			Msg("dropping invalid record")
	}
	return out
}

// Dedup keeps the first record for each non-empty URL. Records without a URL
// are never treated as duplicates. With enabled false the input is returned
// as is.
func Dedup(records []record.Record, enabled bool) []record.Record {
	if !enabled {
		return records
	}

	seen := make(map[string]struct{}, len(records))
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if r == nil {
			out = append(out, r)
			continue
		}
		key := r.Key()
		if key == "" {
			out = append(out, r)
			continue
		}
		if _, dup := seen[key]; dup {
			logger.ForStore().Debug().Str("url", key).Msg("removed duplicate")
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
