package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingsJSON = `[
  {"id": 1, "title": "2 Bedroom Apartment for rent in Kilimani", "price": "KSh 60,000 / month", "location": "Kilimani, Nairobi", "property_type": "Apartment", "transaction_type": "Rent", "url": "https://example.com/listings/1", "scraped_at": "2025-07-01T09:00:00Z"},
  {"id": 2, "title": "5 Bedroom Villa for sale in Runda", "price": "KSh 150,000,000", "location": "Runda, Nairobi", "property_type": "Villa", "transaction_type": "Sale", "url": "https://example.com/listings/2", "scraped_at": "2025-07-01T09:00:00Z"}
]`

func dataDir(t *testing.T, listings string) string {
	t.Helper()
	dir := t.TempDir()
	jsonDir := filepath.Join(dir, "json")
	require.NoError(t, os.MkdirAll(jsonDir, 0o755))
	if listings != "" {
		require.NoError(t, os.WriteFile(filepath.Join(jsonDir, "property_listings.json"), []byte(listings), 0o644))
	}
	return dir
}

func TestExportSingleFormat(t *testing.T) {
	dir := dataDir(t, listingsJSON)
	outFile := filepath.Join(t.TempDir(), "rent.csv")

	var out bytes.Buffer
	code := run(context.Background(), []string{"-data-dir", dir, "-format", "csv", "-o", outFile, "-transaction-type", "rent"}, &out)
	require.Equal(t, exitOK, code, out.String())
	assert.Contains(t, out.String(), "✓ csv exported to "+outFile)

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Kilimani")
}

func TestExportAllFormats(t *testing.T) {
	dir := dataDir(t, listingsJSON)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out bytes.Buffer
	code := run(context.Background(), []string{"-data-dir", dir, "-price-min", "1000000"}, &out)
	require.Equal(t, exitOK, code, out.String())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	var exported []string
	for _, line := range lines {
		if strings.HasPrefix(line, "✓") {
			exported = append(exported, line)
		}
	}
	assert.Len(t, exported, 3)

	for _, pattern := range []string{"buyrentkenya_properties_*.csv", "buyrentkenya_filtered_*.json", "buyrentkenya_summary_report_*.txt"} {
		matches, err := filepath.Glob(pattern)
		require.NoError(t, err)
		assert.Len(t, matches, 1, pattern)
	}
}

func TestExportNoData(t *testing.T) {
	dir := dataDir(t, "")
	outFile := filepath.Join(t.TempDir(), "empty.csv")

	var out bytes.Buffer
	code := run(context.Background(), []string{"-data-dir", dir, "-format", "csv", "-o", outFile}, &out)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out.String(), "✗ csv export failed")
	assert.NoFileExists(t, outFile)
}

func TestExportIOFailure(t *testing.T) {
	dir := dataDir(t, listingsJSON)

	// A regular file where the output directory should be
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	var out bytes.Buffer
	code := run(context.Background(), []string{"-data-dir", dir, "-format", "json", "-o", filepath.Join(blocked, "out.json")}, &out)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out.String(), "✗ json export failed")
}

func TestExportInvalidData(t *testing.T) {
	dir := dataDir(t, `[{"title": "no url"}]`)

	var out bytes.Buffer
	code := run(context.Background(), []string{"-data-dir", dir, "-format", "report", "-o", filepath.Join(t.TempDir(), "r.txt")}, &out)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out.String(), "Failed to load data")
}

func TestExportUsage(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitUsage, run(context.Background(), []string{"-format", "xml"}, &out))
	assert.Equal(t, exitUsage, run(context.Background(), []string{"-o", "x.csv"}, &out))
	assert.Equal(t, exitUsage, run(context.Background(), []string{"-price-min", "cheap"}, &out))
}

func TestServeStopsOnCancel(t *testing.T) {
	dir := dataDir(t, listingsJSON)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	code := run(ctx, []string{"-data-dir", dir, "-serve", "127.0.0.1:0"}, &out)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out.String(), "Serving 2 records")
}
