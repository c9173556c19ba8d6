package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Statistics represents the collected request statistics
type Statistics struct {
	UniqueVisitors map[string]time.Time `json:"uniqueVisitors"` // IP -> last visit
	ScoreRequests  int                  `json:"scoreRequests"`
	ErrorCount     int                  `json:"errorCount"`
	PopularURLs    map[string]int       `json:"popularUrls"` // URL -> count
	AverageScore   float64              `json:"averageScore"`
	AverageLatency float64              `json:"averageLatency"` // milliseconds
	ScoreTotal     int                  `json:"scoreTotal"`
	ScoredCount    int                  `json:"scoredCount"`
	TotalLatency   float64              `json:"totalLatency"`
	LastPersisted  time.Time            `json:"lastPersisted"`

	path  string
	mutex sync.RWMutex
}

// NewStatistics creates request statistics persisted under dataDir,
// loading any previously saved state.
func NewStatistics(dataDir string) (*Statistics, error) {
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		PopularURLs:    make(map[string]int),
		path:           filepath.Join(dataDir, "statistics.json"),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// TrackVisitor records a unique visitor
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = time.Now()
}

// cleanURL reduces a scored page URL to scheme, host and path
func cleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") || strings.Contains(u.Host, "127.0.0.1") {
		return ""
	}

	clean := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		clean += u.Path
	}
	return strings.TrimSuffix(clean, "/")
}

// TrackRequest records one score request. pageURL is empty for records
// submitted directly; score is negative when the request failed.
func (s *Statistics) TrackRequest(pageURL string, latency time.Duration, score int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.ScoreRequests++
	if cleaned := cleanURL(pageURL); cleaned != "" {
		s.PopularURLs[cleaned]++
	}

	if score < 0 {
		s.ErrorCount++
	} else {
		s.ScoreTotal += score
		s.ScoredCount++
		s.AverageScore = float64(s.ScoreTotal) / float64(s.ScoredCount)
	}

	s.TotalLatency += float64(latency.Milliseconds())
	s.AverageLatency = s.TotalLatency / float64(s.ScoreRequests)
}

func (s *Statistics) uniqueVisitors(since time.Time) int {
	count := 0
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(since) {
			count++
		}
	}
	return count
}

// GetUniqueVisitorsCount returns the number of unique visitors in the last 24 hours
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.uniqueVisitors(time.Now().Add(-24 * time.Hour))
}

func (s *Statistics) popularURLs(n int) map[string]int {
	urls := make([]string, 0, len(s.PopularURLs))
	for u := range s.PopularURLs {
		urls = append(urls, u)
	}
	sort.Slice(urls, func(i, j int) bool {
		if s.PopularURLs[urls[i]] != s.PopularURLs[urls[j]] {
			return s.PopularURLs[urls[i]] > s.PopularURLs[urls[j]]
		}
		return urls[i] < urls[j]
	})
	if len(urls) > n {
		urls = urls[:n]
	}

	result := make(map[string]int, len(urls))
	for _, u := range urls {
		result[u] = s.PopularURLs[u]
	}
	return result
}

// GetPopularURLs returns the top N most scored URLs
func (s *Statistics) GetPopularURLs(n int) map[string]int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.popularURLs(n)
}

func (s *Statistics) errorRate() float64 {
	if s.ScoreRequests == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.ScoreRequests) * 100
}

// GetErrorRate returns the error rate as a percentage
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.errorRate()
}

// TotalRequests returns the number of score requests seen so far
func (s *Statistics) TotalRequests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.ScoreRequests
}

// Save persists the statistics to disk
func (s *Statistics) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = time.Now()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("could not create statistics directory: %w", err)
	}
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("could not create statistics file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}
	return nil
}

// Load reads the statistics from disk. A missing file is not an error.
func (s *Statistics) Load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}
	defer file.Close()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PopularURLs == nil {
		s.PopularURLs = make(map[string]int)
	}
	return nil
}

// GetStatistics returns a snapshot of the statistics. Popular URLs are only
// included in dev mode.
func (s *Statistics) GetStatistics(devMode bool) map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := map[string]interface{}{
		"uniqueVisitors24h": s.uniqueVisitors(time.Now().Add(-24 * time.Hour)),
		"totalRequests":     s.ScoreRequests,
		"errorRate":         s.errorRate(),
		"averageScore":      s.AverageScore,
		"averageLatency":    s.AverageLatency,
	}
	if devMode {
		result["popularUrls"] = s.popularURLs(5)
	}
	return result
}
