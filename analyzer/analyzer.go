package analyzer

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/seo-optimizer/blogscore/scorer"
	"github.com/seo-optimizer/blogscore/stats"
)

// ErrInvalidURL is returned by ScoreURL for URLs that are not absolute http(s)
var ErrInvalidURL = errors.New("invalid page URL")

// maxPageSize caps how much of a fetched page is read
const maxPageSize = 5 << 20

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Options configures an Analyzer
type Options struct {
	DataDir      string
	Hostname     string // site hostname for records scored without one
	CacheTTL     time.Duration
	MaxCacheSize int
	FetchTimeout time.Duration
	Cache        Cache // defaults to an in-memory cache
	Logger       *zap.Logger

	// StatsRetentionMonths drops statistics older than this many months on
	// startup. Zero keeps everything.
	StatsRetentionMonths int
}

// Analyzer scores blog records and published pages, caching reports
type Analyzer struct {
	client       *http.Client
	cache        Cache
	hostname     string
	fetchTimeout time.Duration
	stats        *stats.Storage
	logger       *zap.Logger
	inflight     singleflight.Group // collapses concurrent misses for one key
}

// New creates a new Analyzer instance
func New(opts Options) (*Analyzer, error) {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = 1000
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	statsStorage, err := stats.NewStorage(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stats storage: %w", err)
	}
	if opts.StatsRetentionMonths > 0 {
		statsStorage.Cleanup(opts.StatsRetentionMonths)
	}

	cache := opts.Cache
	if cache == nil {
		cache = newMemoryCache(opts.CacheTTL, opts.MaxCacheSize)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Analyzer{
		client: &http.Client{
			Timeout:   opts.FetchTimeout,
			Transport: transport,
		},
		cache:        cache,
		hostname:     opts.Hostname,
		fetchTimeout: opts.FetchTimeout,
		stats:        statsStorage,
		logger:       opts.Logger,
	}, nil
}

// generateCacheKey creates a unique key for a record scored against hostname
func generateCacheKey(blog *scorer.BlogRecord, hostname string) string {
	data, _ := json.Marshal(blog)
	hash := md5.New()
	hash.Write([]byte(hostname))
	hash.Write([]byte{0})
	hash.Write(data)
	return hex.EncodeToString(hash.Sum(nil))
}

func (a *Analyzer) resolveHostname(hostname string) string {
	if hostname == "" {
		return a.hostname
	}
	return hostname
}

// Score returns the report for blog. An empty hostname uses the configured
// site hostname.
func (a *Analyzer) Score(ctx context.Context, blog *scorer.BlogRecord, hostname string) *scorer.Report {
	if blog == nil {
		return scorer.Analyze(nil)
	}
	hostname = a.resolveHostname(hostname)
	cacheKey := generateCacheKey(blog, hostname)

	if report, found := a.cache.Get(ctx, cacheKey); found {
		a.stats.RecordCache(1, 0)
		a.stats.RecordScore(report.Score)
		return report
	}
	a.stats.RecordCache(0, 1)

	v, _, _ := a.inflight.Do(cacheKey, func() (interface{}, error) {
		report := scorer.Analyze(blog, scorer.WithHostname(hostname))
		a.cache.Set(ctx, cacheKey, report)

		a.logger.Debug("Scored blog record",
			zap.String("title", blog.Title),
			zap.Int("score", report.Score),
			zap.Int("words", report.Signals.WordCount))
		return report, nil
	})
	report := v.(*scorer.Report)
	a.stats.RecordScore(report.Score)
	return report
}

// IsCached checks if a report for blog is cached and not expired
func (a *Analyzer) IsCached(ctx context.Context, blog *scorer.BlogRecord, hostname string) bool {
	if blog == nil {
		return false
	}
	_, found := a.cache.Get(ctx, generateCacheKey(blog, a.resolveHostname(hostname)))
	return found
}

// ScoreURL fetches a published page and scores it as a blog record
func (a *Analyzer) ScoreURL(ctx context.Context, rawURL, focusKeyword string) (*PageReport, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		return nil, fmt.Errorf("%w %q", ErrInvalidURL, rawURL)
	}

	start := time.Now()
	body, err := a.fetch(ctx, pageURL)
	a.stats.RecordFetch(err != nil)
	if err != nil {
		a.logger.Warn("Failed to fetch page", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}
	fetchTime := time.Since(start)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	blog := BlogFromDocument(doc, pageURL, body)
	blog.SEO.FocusKeyword = focusKeyword

	return &PageReport{
		URL:       rawURL,
		Blog:      blog,
		Report:    a.Score(ctx, blog, pageURL.Hostname()),
		PageSize:  len(body),
		FetchTime: fetchTime,
	}, nil
}

func (a *Analyzer) fetch(ctx context.Context, pageURL *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "BlogScore/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch page: unexpected status %d", resp.StatusCode)
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxPageSize)); err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	// the pooled buffer is reused, so hand out a copy
	return bytes.Clone(buf.Bytes()), nil
}

// GetCacheStats returns statistics about the report cache
func (a *Analyzer) GetCacheStats(ctx context.Context) CacheStats {
	current := a.stats.GetCurrentStats()
	return CacheStats{
		Backend:     a.cache.Name(),
		Entries:     a.cache.Len(ctx),
		CacheHits:   current.CacheHits,
		CacheMisses: current.CacheMisses,
		CacheTTL:    a.cache.TTL(),
	}
}

// SetCacheTTL sets the cache TTL
func (a *Analyzer) SetCacheTTL(ttl time.Duration) {
	a.cache.SetTTL(ttl)
}

// ClearCache clears the report cache
func (a *Analyzer) ClearCache(ctx context.Context) error {
	return a.cache.Clear(ctx)
}

// GetStats returns the statistics storage instance
func (a *Analyzer) GetStats() *stats.Storage {
	return a.stats
}

// Shutdown stops background work and ensures all statistics are saved
func (a *Analyzer) Shutdown() error {
	if a == nil {
		return nil
	}

	a.client.CloseIdleConnections()

	if err := a.cache.Close(); err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	if err := a.stats.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown stats storage: %w", err)
	}
	return nil
}
