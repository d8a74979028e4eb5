package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layouts accepted for scraped_at. Timestamps without an offset are UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// scrapedTime decodes scraped_at from RFC 3339 or a naive ISO timestamp
type scrapedTime time.Time

func (s *scrapedTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("scraped_at: %w", err)
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*s = scrapedTime(t)
	return nil
}

// ParseTimestamp parses an RFC 3339 timestamp or, failing that, a naive ISO
// timestamp taken as UTC. The empty string is the zero time.
func ParseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("scraped_at: unrecognised timestamp %q", raw)
}

func (l *Listing) UnmarshalJSON(data []byte) error {
	type plain Listing
	aux := struct {
		*plain
		ScrapedAt scrapedTime `json:"scraped_at"`
	}{plain: (*plain)(l), ScrapedAt: scrapedTime(l.ScrapedAt)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.ScrapedAt = time.Time(aux.ScrapedAt)
	return nil
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	aux := struct {
		*plain
		ScrapedAt scrapedTime `json:"scraped_at"`
	}{plain: (*plain)(p), ScrapedAt: scrapedTime(p.ScrapedAt)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ScrapedAt = time.Time(aux.ScrapedAt)
	return nil
}

func (a *Article) UnmarshalJSON(data []byte) error {
	type plain Article
	aux := struct {
		*plain
		ScrapedAt scrapedTime `json:"scraped_at"`
	}{plain: (*plain)(a), ScrapedAt: scrapedTime(a.ScrapedAt)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.ScrapedAt = time.Time(aux.ScrapedAt)
	return nil
}

func (a *Agent) UnmarshalJSON(data []byte) error {
	type plain Agent
	aux := struct {
		*plain
		ScrapedAt scrapedTime `json:"scraped_at"`
	}{plain: (*plain)(a), ScrapedAt: scrapedTime(a.ScrapedAt)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.ScrapedAt = time.Time(aux.ScrapedAt)
	return nil
}
