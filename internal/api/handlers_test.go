package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/propertyscraper/internal/export"
	"sjsage522/propertyscraper/internal/record"
)

var now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	data := &export.Dataset{
		Properties: []*record.Listing{
			{Title: "3 Bedroom Apartment for rent in Kilimani", Price: "KSh 85,000 / month", Location: "Kilimani, Nairobi", PropertyType: "Apartment", TransactionType: "Rent", URL: "https://x/1", ScrapedAt: now},
			{Title: "4 Bedroom Townhouse for sale in Karen", Price: "KSh 78,000,000", Location: "Karen, Nairobi", PropertyType: "Townhouse", TransactionType: "Sale", URL: "https://x/2", ScrapedAt: now},
			{Title: "Plot for sale in Kitengela", Price: "Price on request", Location: "Kitengela", PropertyType: "Land", TransactionType: "Sale", URL: "https://x/3", ScrapedAt: now},
		},
		Articles: []*record.Article{{Title: "Market update", URL: "https://x/a", ScrapedAt: now}},
	}

	h := NewHandler(data)
	h.Now = func() time.Time { return now }
	server := httptest.NewServer(NewRouter(h))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp
}

func TestHealth(t *testing.T) {
	server := testServer(t)

	var body map[string]string
	resp := getJSON(t, server.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestProperties(t *testing.T) {
	server := testServer(t)

	tests := []struct {
		name  string
		query string
		urls  []string
	}{
		{"no filters", "", []string{"https://x/1", "https://x/2", "https://x/3"}},
		{"transaction type", "?transaction_type=sale", []string{"https://x/2", "https://x/3"}},
		{"price range", "?price_min=50000&price_max=100000", []string{"https://x/1"}},
		{"location", "?location=nairobi", []string{"https://x/1", "https://x/2"}},
		{"search", "?q=karen", []string{"https://x/2"}},
		{"search and filter", "?q=sale&property_type=land", []string{"https://x/3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc export.Document
			resp := getJSON(t, server.URL+"/api/properties"+tt.query, &doc)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			urls := make([]string, 0, len(doc.Properties))
			for _, l := range doc.Properties {
				urls = append(urls, l.URL)
			}
			assert.Equal(t, tt.urls, urls)
			assert.Equal(t, len(tt.urls), doc.Metadata.TotalItems)
		})
	}
}

func TestPropertiesFiltersApplied(t *testing.T) {
	server := testServer(t)

	var doc export.Document
	getJSON(t, server.URL+"/api/properties", &doc)
	assert.Nil(t, doc.Metadata.FiltersApplied)

	getJSON(t, server.URL+"/api/properties?price_min=1000", &doc)
	require.NotNil(t, doc.Metadata.FiltersApplied)
	require.NotNil(t, doc.Metadata.FiltersApplied.PriceMin)
	assert.Equal(t, 1000.0, *doc.Metadata.FiltersApplied.PriceMin)
}

func TestPropertiesBadNumber(t *testing.T) {
	server := testServer(t)

	var body map[string]string
	resp := getJSON(t, server.URL+"/api/properties?price_min=cheap", &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "price_min")
}

func TestReport(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/api/report")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

func TestSummary(t *testing.T) {
	server := testServer(t)

	var body SummaryResponse
	resp := getJSON(t, server.URL+"/api/summary", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, body.TotalItems)
	assert.Equal(t, 3, body.Counts[record.CategoryListings])
	assert.Equal(t, 1, body.Counts[record.CategoryArticles])
	assert.Equal(t, 0, body.Counts[record.CategoryAgents])
}

func TestUnknownRoute(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/api/nothing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
