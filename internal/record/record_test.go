package record

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"listings":          CategoryListings,
		"properties":        CategoryListings,
		"property_listings": CategoryListings,
		"projects":          CategoryProjects,
		"articles":          CategoryArticles,
		"agents":            CategoryAgents,
		"estate_agents":     CategoryAgents,
	}
	for in, want := range tests {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
		assert.True(t, got.Valid())
	}

	_, err := ParseCategory("villas")
	assert.Error(t, err)
	assert.False(t, Category("villas").Valid())
	assert.Equal(t, "estate_agents.json", CategoryAgents.FileName())
}

func TestListingsNarrowing(t *testing.T) {
	records := []Record{
		&Listing{URL: "a"},
		&Project{URL: "p"},
		&Listing{URL: "b"},
	}
	listings := Listings(records)
	require.Len(t, listings, 2)
	assert.Equal(t, "a", listings[0].URL)
	assert.Equal(t, "b", listings[1].URL)
	assert.Len(t, FromListings(listings), 2)
}

func TestStatsConcurrentMerge(t *testing.T) {
	session := NewStats()
	assert.NotEmpty(t, session.RunID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := &Stats{}
			local.AddItems(2)
			local.AddImages(1)
			local.AddError()
			session.Merge(local)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 16, session.TotalItems())
	assert.EqualValues(t, 8, session.ImagesDownloaded())
	assert.EqualValues(t, 8, session.Errors())
}

func TestStatsDuration(t *testing.T) {
	s := NewStats()
	assert.Zero(t, s.Duration())

	start := time.Date(2025, 9, 16, 10, 0, 0, 0, time.UTC)
	s.Start(start)
	assert.Zero(t, s.Duration(), "no end time yet")

	s.Freeze(start.Add(90 * time.Second))
	assert.Equal(t, 90*time.Second, s.Duration())

	snap := s.Snapshot()
	require.NotNil(t, snap.StartTime)
	require.NotNil(t, snap.EndTime)

	oldRun := s.RunID
	s.AddItems(3)
	s.Reset()
	assert.Zero(t, s.TotalItems())
	assert.Zero(t, s.Duration())
	assert.NotEqual(t, oldRun, s.RunID)
	assert.Nil(t, s.Snapshot().StartTime)
}

func TestNilRecordMethods(t *testing.T) {
	for _, r := range []Record{(*Listing)(nil), (*Project)(nil), (*Article)(nil), (*Agent)(nil)} {
		assert.Empty(t, r.Key())
		assert.True(t, r.Scraped().IsZero())
	}
}

func TestDecodeScrapedAt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2025-09-16T10:00:00Z"`, time.Date(2025, 9, 16, 10, 0, 0, 0, time.UTC)},
		{"offset", `"2025-09-16T13:00:00+03:00"`, time.Date(2025, 9, 16, 10, 0, 0, 0, time.UTC)},
		{"naive micros", `"2025-09-16T10:00:00.123456"`, time.Date(2025, 9, 16, 10, 0, 0, 123456000, time.UTC)},
		{"naive seconds", `"2025-09-16T10:00:00"`, time.Date(2025, 9, 16, 10, 0, 0, 0, time.UTC)},
		{"space separated", `"2025-09-16 10:00:00"`, time.Date(2025, 9, 16, 10, 0, 0, 0, time.UTC)},
		{"null", `null`, time.Time{}},
		{"empty", `""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Listing
			require.NoError(t, json.Unmarshal([]byte(`{"url":"u","title":"x","scraped_at":`+tt.raw+`}`), &l))
			assert.True(t, tt.want.Equal(l.ScrapedAt), "got %v", l.ScrapedAt)
			assert.Equal(t, "u", l.URL)
			assert.Equal(t, "x", l.Title)
		})
	}

	var a Agent
	assert.Error(t, json.Unmarshal([]byte(`{"url":"u","scraped_at":"yesterday"}`), &a))
}

func TestDecodeScrapedAtAllKinds(t *testing.T) {
	want := time.Date(2025, 9, 16, 10, 0, 0, 123456000, time.UTC)
	doc := []byte(`{"url":"u","scraped_at":"2025-09-16T10:00:00.123456"}`)

	var (
		l  Listing
		p  Project
		ar Article
		ag Agent
	)
	for _, target := range []Record{&l, &p, &ar, &ag} {
		require.NoError(t, json.Unmarshal(doc, target))
		assert.Equal(t, "u", target.Key())
		assert.True(t, want.Equal(target.Scraped()))
	}
}

func TestDecodeKeepsScrapedAtWhenAbsent(t *testing.T) {
	stamped := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Project{ScrapedAt: stamped}
	require.NoError(t, json.Unmarshal([]byte(`{"url":"u","units":4}`), &p))
	assert.Equal(t, stamped, p.ScrapedAt)
	assert.Equal(t, 4, p.Units)
}
