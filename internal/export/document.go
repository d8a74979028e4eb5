package export

import (
	"time"

	"sjsage522/propertyscraper/internal/record"
)

// DocumentMetadata heads a filtered export document
type DocumentMetadata struct {
	ExportDate     time.Time `json:"export_date"`
	FiltersApplied *Filters  `json:"filters_applied"`
	TotalItems     int       `json:"total_items"`
}

// Document is the structured JSON export
type Document struct {
	Metadata   DocumentMetadata  `json:"metadata"`
	Properties []*record.Listing `json:"properties"`
}

// NewDocument filters listings and wraps the result with metadata.
// FiltersApplied is null when no predicate was set.
func NewDocument(listings []*record.Listing, f Filters, now time.Time) *Document {
	var applied *Filters
	if !f.Empty() {
		applied = &f
	}

	filtered := Filter(listings, f)
	return &Document{
		Metadata: DocumentMetadata{
			ExportDate:     now,
			FiltersApplied: applied,
			TotalItems:     len(filtered),
		},
		Properties: filtered,
	}
}
