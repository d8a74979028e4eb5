package store

import (
	"sync"

	"sjsage522/propertyscraper/internal/record"
)

// Store is the in-memory record set of one run
type Store struct {
	validate bool
	dedup    bool

	mu   sync.RWMutex
	data map[record.Category][]record.Record
}

// New creates an empty store. validate and dedup control Clean.
func New(validate, dedup bool) *Store {
	return &Store{
		validate: validate,
		dedup:    dedup,
		data:     make(map[record.Category][]record.Record),
	}
}

// Append adds records to the end of a category's sequence
func (s *Store) Append(category record.Category, records ...record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[category] = append(s.data[category], records...)
}

// Snapshot returns a copy of a category's sequence
func (s *Store) Snapshot(category record.Category) []record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record.Record, len(s.data[category]))
	copy(out, s.data[category])
	return out
}

// Clean returns the validated and deduplicated snapshot of a category
func (s *Store) Clean(category record.Category) []record.Record {
	return Dedup(Validate(s.Snapshot(category), s.validate), s.dedup)
}

// Counts returns the raw number of records per category
func (s *Store) Counts() map[record.Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[record.Category]int, len(record.Categories))
	for _, c := range record.Categories {
		counts[c] = len(s.data[c])
	}
	return counts
}
