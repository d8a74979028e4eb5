package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sjsage522/propertyscraper/internal/normalize"
	"sjsage522/propertyscraper/internal/record"
)

const (
	// TopLocations is the number of locations listed in the report
	TopLocations = 5
	// SampleListings is the number of listings printed in the report
	SampleListings = 5

	locationWidth = 30
	unknown       = "Unknown"
)

// Count is a label and its number of occurrences
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// PriceSummary describes the parseable prices of one transaction type
type PriceSummary struct {
	TransactionType string  `json:"transaction_type"`
	Count           int     `json:"count"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	Average         float64 `json:"average"`
}

// PriceStats groups parseable prices by transaction type, sorted by type
func PriceStats(listings []*record.Listing) []PriceSummary {
	byType := make(map[string]*PriceSummary)
	for _, l := range listings {
		price, ok := normalize.PriceNumber(l.Price)
		if !ok {
			continue
		}
		t := orUnknown(l.TransactionType)
		s, exists := byType[t]
		if !exists {
			s = &PriceSummary{TransactionType: t, Min: price, Max: price}
			byType[t] = s
		}
		s.Count++
		s.Min = min(s.Min, price)
		s.Max = max(s.Max, price)
		s.Average += price
	}

	out := make([]PriceSummary, 0, len(byType))
	for _, s := range byType {
		s.Average /= float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionType < out[j].TransactionType })
	return out
}

// CountBy tallies key over listings and returns the counts sorted by label
func CountBy(listings []*record.Listing, key func(*record.Listing) string) []Count {
	counts := tally(listings, key)
	sort.Slice(counts, func(i, j int) bool { return counts[i].Label < counts[j].Label })
	return counts
}

// TopLocationCounts returns the n most frequent locations, truncated to 30
// characters. Ties keep the order in which locations were first seen.
func TopLocationCounts(listings []*record.Listing, n int) []Count {
	counts := tally(listings, func(l *record.Listing) string {
		return truncate(orUnknown(l.Location), locationWidth)
	})
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// tally counts labels in first-seen order
func tally(listings []*record.Listing, key func(*record.Listing) string) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, l := range listings {
		label := key(l)
		if i, ok := index[label]; ok {
			counts[i].Count++
			continue
		}
		index[label] = len(counts)
		counts = append(counts, Count{Label: label, Count: 1})
	}
	return counts
}

// WriteReport renders the plain-text summary report of data
func WriteReport(w io.Writer, data *Dataset, now time.Time) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	b.WriteString("BUYRENTKENYA SCRAPER - COMPREHENSIVE REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	b.WriteString("DATA SUMMARY:\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	fmt.Fprintf(&b, "Property Listings: %d\n", len(data.Properties))
	fmt.Fprintf(&b, "Real Estate Projects: %d\n", len(data.Projects))
	fmt.Fprintf(&b, "Articles: %d\n", len(data.Articles))
	fmt.Fprintf(&b, "Estate Agents: %d\n", len(data.Agents))
	fmt.Fprintf(&b, "Total Items: %d\n\n", data.Total())

	if len(data.Properties) > 0 {
		b.WriteString("PROPERTY ANALYSIS:\n")
		b.WriteString(strings.Repeat("-", 20) + "\n")

		b.WriteString("Property Types:\n")
		for _, c := range CountBy(data.Properties, func(l *record.Listing) string { return orUnknown(l.PropertyType) }) {
			fmt.Fprintf(&b, "  %s: %d\n", c.Label, c.Count)
		}

		b.WriteString("\nTransaction Types:\n")
		for _, c := range CountBy(data.Properties, func(l *record.Listing) string { return orUnknown(l.TransactionType) }) {
			fmt.Fprintf(&b, "  %s: %d\n", c.Label, c.Count)
		}

		b.WriteString("\nTop Locations:\n")
		for _, c := range TopLocationCounts(data.Properties, TopLocations) {
			fmt.Fprintf(&b, "  %s: %d\n", c.Label, c.Count)
		}

		if stats := PriceStats(data.Properties); len(stats) > 0 {
			b.WriteString("\nPRICE ANALYSIS:\n")
			b.WriteString(strings.Repeat("-", 20) + "\n")
			for _, s := range stats {
				b.WriteString(p.Sprintf("  %s (%d): min %.0f, max %.0f, average %.0f\n",
					s.TransactionType, s.Count, s.Min, s.Max, s.Average))
			}
		}
	}

	b.WriteString("\nSAMPLE PROPERTY LISTINGS:\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for i, l := range data.Properties[:min(SampleListings, len(data.Properties))] {
		fmt.Fprintf(&b, "%d. %s\n", i+1, orNA(l.Title))
		fmt.Fprintf(&b, "   Price: %s\n", orNA(l.Price))
		fmt.Fprintf(&b, "   Type: %s\n", orNA(l.PropertyType))
		fmt.Fprintf(&b, "   URL: %s\n\n", orNA(l.URL))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return record.NotAvailable
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
