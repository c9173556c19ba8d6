package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats represents scoring statistics for a specific month
type MonthlyStats struct {
	ScoredPosts   int       `json:"scored_posts"`
	ScoreTotal    int       `json:"score_total"`
	URLFetches    int       `json:"url_fetches"`
	FetchFailures int       `json:"fetch_failures"`
	CacheHits     int       `json:"cache_hits"`
	CacheMisses   int       `json:"cache_misses"`
	LastUpdated   time.Time `json:"last_updated"`
}

// AverageScore returns the mean score of the posts scored this month
func (m MonthlyStats) AverageScore() float64 {
	if m.ScoredPosts == 0 {
		return 0
	}
	return float64(m.ScoreTotal) / float64(m.ScoredPosts)
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		now:         time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

// load reads statistics from file
func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// save writes statistics to file
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Write to a temporary file first so readers never see a partial file
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// backgroundWriter handles periodic writes to disk until Shutdown
func (s *Storage) backgroundWriter() {
	defer close(s.stopped)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.save()
		case <-ticker.C:
			s.save()
		case <-s.done:
			return
		}
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// update applies fn to the current month's bucket. Callers must hold the lock.
func (s *Storage) update(fn func(*MonthlyStats)) {
	month := s.currentMonth()
	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}
	fn(stats)
	stats.LastUpdated = s.now()

	if s.now().Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = s.now()
	}
}

// RecordScore counts one scored post
func (s *Storage) RecordScore(score int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.update(func(m *MonthlyStats) {
		m.ScoredPosts++
		m.ScoreTotal += score
	})
}

// RecordFetch counts one page fetch and whether it failed
func (s *Storage) RecordFetch(failed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.update(func(m *MonthlyStats) {
		m.URLFetches++
		if failed {
			m.FetchFailures++
		}
	})
}

// RecordCache counts report cache hits and misses
func (s *Storage) RecordCache(hits, misses int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.update(func(m *MonthlyStats) {
		m.CacheHits += hits
		m.CacheMisses += misses
	})
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	month := s.currentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[month]; exists {
		return *stats
	}
	return MonthlyStats{}
}

// Cleanup removes statistics older than retainMonths months, keeping at
// least the current month
func (s *Storage) Cleanup(retainMonths int) {
	keep := make(map[string]bool, retainMonths+1)
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i <= retainMonths; i++ {
		keep[first.AddDate(0, -i, 0).Format("2006-01")] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns a sorted list of all months that have statistics
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	// newest first
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and flushes statistics to disk
func (s *Storage) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		err = s.save()
	})
	return err
}
