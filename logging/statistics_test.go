package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackRequest(t *testing.T) {
	s, err := NewStatistics(t.TempDir())
	require.NoError(t, err)

	s.TrackVisitor("10.0.0.1")
	s.TrackVisitor("10.0.0.2")
	s.TrackVisitor("10.0.0.1")
	s.TrackRequest("https://blog.example.com/posts/go/?utm=1", 20*time.Millisecond, 80)
	s.TrackRequest("https://blog.example.com/posts/go", 40*time.Millisecond, 60)
	s.TrackRequest("", 30*time.Millisecond, -1)

	assert.Equal(t, 2, s.GetUniqueVisitorsCount())
	assert.Equal(t, 3, s.TotalRequests())
	assert.InDelta(t, 33.33, s.GetErrorRate(), 0.01)
	assert.Equal(t, 70.0, s.AverageScore)
	assert.Equal(t, 30.0, s.AverageLatency)
	assert.Equal(t, map[string]int{"https://blog.example.com/posts/go": 2}, s.GetPopularURLs(5))
}

func TestCleanURL(t *testing.T) {
	assert.Equal(t, "https://example.com", cleanURL("https://example.com/"))
	assert.Equal(t, "https://example.com/a/b", cleanURL("https://example.com/a/b/?q=1#frag"))
	assert.Equal(t, "", cleanURL("http://localhost:8082/api/score"))
	assert.Equal(t, "", cleanURL("not a url"))
}

func TestPopularURLsOrdering(t *testing.T) {
	s, err := NewStatistics(t.TempDir())
	require.NoError(t, err)

	for i, u := range []string{"https://a.com/x", "https://b.com/x", "https://b.com/x", "https://c.com/x", "https://c.com/x", "https://c.com/x"} {
		s.TrackRequest(u, time.Duration(i)*time.Millisecond, 50)
	}

	assert.Equal(t, map[string]int{"https://c.com/x": 3, "https://b.com/x": 2}, s.GetPopularURLs(2))
}

func TestGetStatisticsHidesURLsOutsideDevMode(t *testing.T) {
	s, err := NewStatistics(t.TempDir())
	require.NoError(t, err)
	s.TrackRequest("https://example.com/post", time.Millisecond, 90)

	prod := s.GetStatistics(false)
	assert.NotContains(t, prod, "popularUrls")
	assert.Equal(t, 1, prod["totalRequests"])

	dev := s.GetStatistics(true)
	assert.Contains(t, dev, "popularUrls")
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStatistics(dir)
	require.NoError(t, err)
	s.TrackVisitor("10.0.0.1")
	s.TrackRequest("https://example.com/post", 10*time.Millisecond, 42)
	require.NoError(t, s.Save())

	loaded, err := NewStatistics(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalRequests())
	assert.Equal(t, 42.0, loaded.AverageScore)
	assert.Equal(t, 1, loaded.GetUniqueVisitorsCount())
	assert.False(t, loaded.LastPersisted.IsZero())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", true)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}
