package record

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Stats holds the session statistics of one scraping run. Counters are
// atomic so concurrent fetch workers may share a single instance; stages may
// also fill their own Stats and let the caller Merge them.
type Stats struct {
	RunID string

	totalItems       atomic.Int64
	imagesDownloaded atomic.Int64
	errors           atomic.Int64

	mu    sync.Mutex
	start time.Time
	end   time.Time
}

// NewStats returns empty statistics for a new run
func NewStats() *Stats {
	return &Stats{RunID: uuid.NewString()}
}

// Reset clears all counters and timestamps and assigns a new run id
func (s *Stats) Reset() {
	s.totalItems.Store(0)
	s.imagesDownloaded.Store(0)
	s.errors.Store(0)

	s.mu.Lock()
	s.RunID = uuid.NewString()
	s.start = time.Time{}
	s.end = time.Time{}
	s.mu.Unlock()
}

func (s *Stats) AddItems(n int)  { s.totalItems.Add(int64(n)) }
func (s *Stats) AddImages(n int) { s.imagesDownloaded.Add(int64(n)) }
func (s *Stats) AddError()       { s.errors.Add(1) }

func (s *Stats) TotalItems() int64       { return s.totalItems.Load() }
func (s *Stats) ImagesDownloaded() int64 { return s.imagesDownloaded.Load() }
func (s *Stats) Errors() int64           { return s.errors.Load() }

// Merge adds the counters of other into s
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	s.totalItems.Add(other.TotalItems())
	s.imagesDownloaded.Add(other.ImagesDownloaded())
	s.errors.Add(other.Errors())
}

// Start stamps the run start time
func (s *Stats) Start(t time.Time) {
	s.mu.Lock()
	s.start = t
	s.mu.Unlock()
}

// Freeze stamps the run end time
func (s *Stats) Freeze(t time.Time) {
	s.mu.Lock()
	s.end = t
	s.mu.Unlock()
}

// Duration is end minus start, or zero if either is absent
func (s *Stats) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start.IsZero() || s.end.IsZero() {
		return 0
	}
	return s.end.Sub(s.start)
}

// StatsSnapshot is the encodable form of Stats
type StatsSnapshot struct {
	RunID            string     `json:"run_id"`
	TotalItems       int64      `json:"total_items"`
	ImagesDownloaded int64      `json:"images_downloaded"`
	Errors           int64      `json:"errors"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
}

// Snapshot copies the current counters and timestamps
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		RunID:            s.RunID,
		TotalItems:       s.totalItems.Load(),
		ImagesDownloaded: s.imagesDownloaded.Load(),
		Errors:           s.errors.Load(),
	}
	if !s.start.IsZero() {
		start := s.start
		snap.StartTime = &start
	}
	if !s.end.IsZero() {
		end := s.end
		snap.EndTime = &end
	}
	return snap
}
