package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStorage(t *testing.T, dir string) *Storage {
	t.Helper()
	storage, err := NewStorage(dir)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Shutdown() })
	return storage
}

func TestRecordCounters(t *testing.T) {
	storage := newTestStorage(t, t.TempDir())

	storage.RecordScore(80)
	storage.RecordScore(40)
	storage.RecordFetch(false)
	storage.RecordFetch(true)
	storage.RecordCache(1, 2)

	stats := storage.GetCurrentStats()
	assert.Equal(t, 2, stats.ScoredPosts)
	assert.Equal(t, 120, stats.ScoreTotal)
	assert.Equal(t, 60.0, stats.AverageScore())
	assert.Equal(t, 2, stats.URLFetches)
	assert.Equal(t, 1, stats.FetchFailures)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 2, stats.CacheMisses)
	assert.False(t, stats.LastUpdated.IsZero())
}

func TestAverageScoreEmpty(t *testing.T) {
	assert.Equal(t, 0.0, MonthlyStats{}.AverageScore())
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	storage, err := NewStorage(dir)
	require.NoError(t, err)
	storage.RecordScore(70)
	require.NoError(t, storage.Shutdown())
	require.NoError(t, storage.Shutdown(), "second shutdown is a no-op")

	info, err := os.Stat(filepath.Join(dir, "stats.json"))
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(1024))

	reloaded := newTestStorage(t, dir)
	stats := reloaded.GetCurrentStats()
	assert.Equal(t, 1, stats.ScoredPosts)
	assert.Equal(t, 70, stats.ScoreTotal)
}

func TestCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stats.json"), []byte("{not json"), 0644))

	_, err := NewStorage(dir)
	assert.Error(t, err)
}

func TestCleanup(t *testing.T) {
	storage := newTestStorage(t, t.TempDir())
	storage.now = func() time.Time { return time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC) }

	storage.RecordScore(10)
	storage.mutex.Lock()
	storage.stats["2026-02"] = &MonthlyStats{ScoredPosts: 5}
	storage.stats["2025-12"] = &MonthlyStats{ScoredPosts: 100}
	storage.mutex.Unlock()

	storage.Cleanup(1)

	assert.Equal(t, []string{"2026-03", "2026-02"}, storage.GetAllMonths())
	_, exists := storage.GetMonthlyStats("2025-12")
	assert.False(t, exists, "old stats should have been cleaned up")
	feb, exists := storage.GetMonthlyStats("2026-02")
	require.True(t, exists)
	assert.Equal(t, 5, feb.ScoredPosts)
}

func TestConcurrentAccess(t *testing.T) {
	storage := newTestStorage(t, t.TempDir())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				storage.RecordCache(1, 1)
				storage.RecordScore(1)
				storage.GetCurrentStats()
			}
		}()
	}
	wg.Wait()

	stats := storage.GetCurrentStats()
	assert.Equal(t, 1000, stats.CacheHits)
	assert.Equal(t, 1000, stats.CacheMisses)
	assert.Equal(t, 1000, stats.ScoredPosts)
}
