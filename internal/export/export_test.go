package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/propertyscraper/internal/record"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

var exportTime = time.Date(2025, 9, 16, 10, 30, 0, 0, time.UTC)

func sampleListings() []*record.Listing {
	return []*record.Listing{
		{ID: 1, Title: "4 Bed Townhouse in Karen", Price: "KSh 78,000,000", Location: "Karen, Nairobi",
			PropertyType: "Townhouse", TransactionType: "Sale", Bedrooms: "4", Bathrooms: "N/A", Area: "N/A",
			URL: "https://www.buyrentkenya.com/listings/1", ScrapedAt: exportTime},
		{ID: 2, Title: "2 Bed Apartment for rent in Kilimani", Price: "KSh 85,000 / month", Location: "Kilimani, Nairobi",
			PropertyType: "Apartment", TransactionType: "Rent", Bedrooms: "2", Bathrooms: "2", Area: "1,200 sq ft",
			URL: "https://www.buyrentkenya.com/listings/2", ScrapedAt: exportTime},
		{ID: 3, Title: "Land in Kitengela", Price: record.PriceOnRequest, Location: "Kitengela",
			PropertyType: "Land", TransactionType: "Sale",
			URL: "https://www.buyrentkenya.com/listings/3", ScrapedAt: exportTime},
		{ID: 4, Title: "5 Bed Villa in Runda", Price: "KSh 150,000,000", Location: "Runda, Nairobi",
			PropertyType: "Villa", TransactionType: "Sale",
			URL: "https://www.buyrentkenya.com/listings/4", ScrapedAt: exportTime},
	}
}

func ids(listings []*record.Listing) []int64 {
	out := make([]int64, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	listings := sampleListings()

	tests := []struct {
		name    string
		filters Filters
		want    []int64
	}{
		{"no filters", Filters{}, []int64{1, 2, 3, 4}},
		{"price max excludes unparsable", Filters{PriceMax: Float(100_000_000)}, []int64{1, 2}},
		{"price min excludes unparsable", Filters{PriceMin: Float(1)}, []int64{1, 2, 4}},
		{"price range", Filters{PriceMin: Float(80_000), PriceMax: Float(80_000_000)}, []int64{1, 2}},
		{"location substring ignores case", Filters{Location: "nairobi"}, []int64{1, 2, 4}},
		{"property type exact ignores case", Filters{PropertyType: "villa"}, []int64{4}},
		{"property type is not substring", Filters{PropertyType: "Town"}, []int64{}},
		{"transaction type", Filters{TransactionType: "RENT"}, []int64{2}},
		{"conjunction", Filters{Location: "Nairobi", TransactionType: "Sale", PriceMax: Float(100_000_000)}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(listings, tt.filters)))
		})
	}
}

func TestPriceOnRequestNeverInRange(t *testing.T) {
	l := &record.Listing{Price: record.PriceOnRequest}
	assert.False(t, Filters{PriceMin: Float(0)}.Match(l))
	assert.False(t, Filters{PriceMax: Float(1e12)}.Match(l))
	assert.True(t, Filters{}.Match(l))
}

func TestSearch(t *testing.T) {
	listings := sampleListings()
	assert.Equal(t, []int64{1}, ids(Search(listings, "KAREN")))
	assert.Equal(t, []int64{2}, ids(Search(listings, "apartment")))
	assert.Equal(t, []int64{1, 2, 4}, ids(Search(listings, "nairobi")))
	assert.Len(t, Search(listings, "  "), 4)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	listings := sampleListings()
	listings[0].Images = []string{"images/1/0.jpg"}
	require.NoError(t, WriteCSV(&buf, listings[:3]))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, CSVColumns, rows[0])
	assert.Equal(t, []string{
		"1", "4 Bed Townhouse in Karen", "KSh 78,000,000", "Karen, Nairobi", "Townhouse",
		"Sale", "4", "N/A", "N/A", "https://www.buyrentkenya.com/listings/1", "2025-09-16T10:30:00Z",
	}, rows[1])
	// missing fields render as empty cells
	assert.Equal(t, "", rows[3][6])
	assert.Equal(t, "", rows[3][8])
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(sampleListings(), Filters{TransactionType: "Sale"}, exportTime)
	assert.Equal(t, 3, doc.Metadata.TotalItems)
	require.NotNil(t, doc.Metadata.FiltersApplied)
	assert.Equal(t, "Sale", doc.Metadata.FiltersApplied.TransactionType)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"transaction_type": "Sale"}, decoded["metadata"]["filters_applied"])

	unfiltered := NewDocument(sampleListings(), Filters{}, exportTime)
	assert.Nil(t, unfiltered.Metadata.FiltersApplied)
	assert.Equal(t, 4, unfiltered.Metadata.TotalItems)
}

func TestTopLocationsTieBreak(t *testing.T) {
	loc := func(s string) *record.Listing { return &record.Listing{Location: s} }
	listings := []*record.Listing{
		loc("Kilimani"), loc("Karen"), loc("Westlands"), loc("Karen"), loc("Runda"),
		loc("Lavington"), loc("Kilimani"), loc("Syokimau"), loc(""),
		loc("A very long location name that exceeds thirty characters"),
	}

	top := TopLocationCounts(listings, 5)
	assert.Equal(t, []Count{
		{"Kilimani", 2}, {"Karen", 2}, {"Westlands", 1}, {"Runda", 1}, {"Lavington", 1},
	}, top)

	all := TopLocationCounts(listings, 100)
	assert.Equal(t, "Unknown", all[len(all)-2].Label)
	assert.Equal(t, "A very long location name that", all[len(all)-1].Label)
}

func TestPriceStats(t *testing.T) {
	stats := PriceStats(sampleListings())
	require.Len(t, stats, 2)

	assert.Equal(t, "Rent", stats[0].TransactionType)
	assert.Equal(t, 1, stats[0].Count)
	assert.Equal(t, 85_000.0, stats[0].Average)

	assert.Equal(t, "Sale", stats[1].TransactionType)
	assert.Equal(t, 2, stats[1].Count)
	assert.Equal(t, 78_000_000.0, stats[1].Min)
	assert.Equal(t, 150_000_000.0, stats[1].Max)
	assert.Equal(t, 114_000_000.0, stats[1].Average)
}

func TestWriteReport(t *testing.T) {
	data := &Dataset{
		Properties: sampleListings(),
		Projects:   []*record.Project{{Title: "Spring Valley", URL: "p"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, data, exportTime))
	report := buf.String()

	assert.True(t, strings.HasPrefix(report, "BUYRENTKENYA SCRAPER - COMPREHENSIVE REPORT\n"))
	assert.Contains(t, report, "Generated: 2025-09-16 10:30:00")
	assert.Contains(t, report, "Property Listings: 4\n")
	assert.Contains(t, report, "Real Estate Projects: 1\n")
	assert.Contains(t, report, "Total Items: 5\n")
	assert.Contains(t, report, "Property Types:\n  Apartment: 1\n  Land: 1\n  Townhouse: 1\n  Villa: 1\n")
	assert.Contains(t, report, "Transaction Types:\n  Rent: 1\n  Sale: 3\n")
	assert.Contains(t, report, "PRICE ANALYSIS:")
	assert.Contains(t, report, "Sale (2): min 78,000,000, max 150,000,000, average 114,000,000")
	assert.Contains(t, report, "1. 4 Bed Townhouse in Karen\n   Price: KSh 78,000,000\n")
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, &Dataset{}, exportTime))
	assert.Contains(t, buf.String(), "Total Items: 0")
	assert.NotContains(t, buf.String(), "PROPERTY ANALYSIS")
}

func writeDataFile(t *testing.T, dir string, c record.Category, body string) {
	t.Helper()
	jsonDir := filepath.Join(dir, "json")
	require.NoError(t, os.MkdirAll(jsonDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jsonDir, c.FileName()), []byte(body), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	data, err := json.Marshal(sampleListings())
	require.NoError(t, err)
	writeDataFile(t, dir, record.CategoryListings, string(data))
	writeDataFile(t, dir, record.CategoryAgents, `[{"name":"Nairobi Realty","url":"a","scraped_at":"2025-01-01T00:00:00Z","specialties":null}]`)

	ds, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, ds.Properties, 4)
	assert.Len(t, ds.Agents, 1)
	assert.Empty(t, ds.Projects)
	assert.Equal(t, 5, ds.Total())
	assert.Equal(t, 1, ds.Counts()[record.CategoryAgents])
}

func TestLoadNaiveTimestamps(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, record.CategoryProjects, `[{"title":"Tatu City","url":"p","scraped_at":"2025-09-16T10:00:00.123456","amenities":[]}]`)

	ds, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, ds.Projects, 1)
	assert.Equal(t, time.Date(2025, 9, 16, 10, 0, 0, 123456000, time.UTC), ds.Projects[0].ScrapedAt)
}

func TestLoadRejectsSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, record.CategoryListings, `[{"title":"no url","price":"KSh 1"}]`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	writeDataFile(t, dir, record.CategoryListings, `{"not":"an array"}`)
	_, err = Load(dir)
	assert.Error(t, err)
}

func TestLoadMissingDirectory(t *testing.T) {
	ds, err := Load(filepath.Join(t.TempDir(), "nothing"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Total())
}

func TestExporterFiles(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(&Dataset{Properties: sampleListings()})
	e.Now = func() time.Time { return exportTime }

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	csvPath, err := e.ExportCSV("", Filters{TransactionType: "Sale"})
	require.NoError(t, err)
	assert.Equal(t, "buyrentkenya_properties_20250916_103000.csv", csvPath)
	content, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(content), "\n"))

	jsonPath, err := e.ExportJSON(filepath.Join(dir, "out", "nairobi.json"), Filters{Location: "Nairobi"})
	require.NoError(t, err)
	var doc Document
	content, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(content, &doc))
	assert.Equal(t, 3, doc.Metadata.TotalItems)
	assert.Len(t, doc.Properties, 3)

	reportPath, err := e.ExportReport("")
	require.NoError(t, err)
	assert.Equal(t, "buyrentkenya_summary_report_20250916_103000.txt", reportPath)
	assert.FileExists(t, filepath.Join(dir, reportPath))
}

func TestExportCSVWithoutData(t *testing.T) {
	e := NewExporter(&Dataset{})
	_, err := e.ExportCSV(filepath.Join(t.TempDir(), "x.csv"), Filters{})
	assert.Error(t, err)
}
