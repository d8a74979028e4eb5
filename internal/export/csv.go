package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"sjsage522/propertyscraper/internal/record"
)

// CSVColumns is the fixed column order of the CSV export
var CSVColumns = []string{
	"id", "title", "price", "location", "property_type",
	"transaction_type", "bedrooms", "bathrooms", "area",
	"url", "scraped_at",
}

// WriteCSV writes a header row and one row per listing
func WriteCSV(w io.Writer, listings []*record.Listing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, l := range listings {
		if err := cw.Write(csvRow(l)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(l *record.Listing) []string {
	id := ""
	if l.ID != 0 {
		id = strconv.FormatInt(l.ID, 10)
	}
	scrapedAt := ""
	if !l.ScrapedAt.IsZero() {
		scrapedAt = l.ScrapedAt.Format(time.RFC3339)
	}
	return []string{
		id, l.Title, l.Price, l.Location, l.PropertyType,
		l.TransactionType, l.Bedrooms, l.Bathrooms, l.Area,
		l.URL, scrapedAt,
	}
}
