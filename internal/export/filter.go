// Package export filters persisted listings and re-serializes them as CSV,
// a structured JSON document or a plain-text report.
package export

import (
	"strings"

	"sjsage522/propertyscraper/internal/normalize"
	"sjsage522/propertyscraper/internal/record"
)

// Filters is a conjunction of optional predicates over listings. Zero-valued
// fields impose no constraint.
type Filters struct {
	PriceMin        *float64 `json:"price_min,omitempty"`
	PriceMax        *float64 `json:"price_max,omitempty"`
	Location        string   `json:"location,omitempty"`
	PropertyType    string   `json:"property_type,omitempty"`
	TransactionType string   `json:"transaction_type,omitempty"`
}

// Empty reports whether no predicate is set
func (f Filters) Empty() bool {
	return f.PriceMin == nil && f.PriceMax == nil &&
		f.Location == "" && f.PropertyType == "" && f.TransactionType == ""
}

// Match reports whether l satisfies every set predicate. When a price bound
// is set, listings whose price has no number never match.
func (f Filters) Match(l *record.Listing) bool {
	if f.PriceMin != nil || f.PriceMax != nil {
		price, ok := normalize.PriceNumber(l.Price)
		if !ok {
			return false
		}
		if f.PriceMin != nil && price < *f.PriceMin {
			return false
		}
		if f.PriceMax != nil && price > *f.PriceMax {
			return false
		}
	}

	if f.Location != "" && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.PropertyType != "" && !strings.EqualFold(l.PropertyType, f.PropertyType) {
		return false
	}
	if f.TransactionType != "" && !strings.EqualFold(l.TransactionType, f.TransactionType) {
		return false
	}
	return true
}

// Filter returns the listings matching f, in input order
func Filter(listings []*record.Listing, f Filters) []*record.Listing {
	out := make([]*record.Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Search returns listings whose title or location contains query, ignoring case
func Search(listings []*record.Listing, query string) []*record.Listing {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return listings
	}

	out := make([]*record.Listing, 0)
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.Location), q) {
			out = append(out, l)
		}
	}
	return out
}

// Float returns a pointer to v, for building Filters literals
func Float(v float64) *float64 {
	return &v
}
