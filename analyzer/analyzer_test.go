package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/blogscore/scorer"
)

func newTestAnalyzer(t *testing.T, opts Options) *Analyzer {
	t.Helper()
	if opts.DataDir == "" {
		opts.DataDir = t.TempDir()
	}
	a, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { a.Shutdown() })
	return a
}

func sampleBlog() *scorer.BlogRecord {
	return &scorer.BlogRecord{
		Title:    "Writing table driven tests in Go for real projects",
		Content:  "<h1>Table driven tests</h1><h2>Why</h2><p>" + strings.Repeat("Tests keep code honest. ", 80) + "</p>",
		Excerpt:  "How to structure Go tests as tables.",
		Category: "Go",
		Tags:     []string{"go", "testing"},
		SEO:      &scorer.SEOFields{FocusKeyword: "tests"},
	}
}

func TestScoreCachesReports(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	ctx := context.Background()
	blog := sampleBlog()

	assert.False(t, a.IsCached(ctx, blog, ""))

	first := a.Score(ctx, blog, "")
	assert.True(t, a.IsCached(ctx, blog, ""))
	second := a.Score(ctx, blog, "")

	assert.Same(t, first, second)
	assert.Equal(t, scorer.Calculate(blog), first.Score)

	stats := a.GetCacheStats(ctx)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, stats.CacheMisses)
	assert.Equal(t, 30*time.Minute, stats.CacheTTL)
	assert.Equal(t, 2, a.GetStats().GetCurrentStats().ScoredPosts)

	assert.False(t, a.IsCached(ctx, blog, "other.example.com"), "hostname is part of the key")

	require.NoError(t, a.ClearCache(ctx))
	assert.False(t, a.IsCached(ctx, blog, ""))
}

func TestScoreNil(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	assert.Equal(t, 0, a.Score(context.Background(), nil, "").Score)
	assert.False(t, a.IsCached(context.Background(), nil, ""))
}

func TestScoreUsesConfiguredHostname(t *testing.T) {
	blog := &scorer.BlogRecord{
		Content: "<p>" + strings.Repeat("word ", 600) + "</p>" +
			strings.Repeat(`<a href="https://blog.example.com/post">post</a> `, 3),
	}

	withHost := newTestAnalyzer(t, Options{Hostname: "blog.example.com"})
	withoutHost := newTestAnalyzer(t, Options{})

	ctx := context.Background()
	assert.Equal(t, 7, withHost.Score(ctx, blog, "").Points(scorer.RuleInternalLinks))
	assert.Equal(t, 0, withoutHost.Score(ctx, blog, "").Points(scorer.RuleInternalLinks))
	assert.Equal(t, 7, withoutHost.Score(ctx, blog, "blog.example.com").Points(scorer.RuleInternalLinks))
}

func TestCachePurging(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	a.SetCacheTTL(50 * time.Millisecond)

	ctx := context.Background()
	blog := sampleBlog()
	a.Score(ctx, blog, "")
	require.True(t, a.IsCached(ctx, blog, ""), "record should be cached immediately after scoring")

	time.Sleep(100 * time.Millisecond)

	assert.False(t, a.IsCached(ctx, blog, ""), "record should not be cached after TTL expiration")
}

func TestMemoryCacheEviction(t *testing.T) {
	c := newMemoryCache(time.Hour, 2)
	defer c.Close()

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	ctx := context.Background()
	for i := range 3 {
		c.Set(ctx, fmt.Sprintf("k%d", i), &scorer.Report{Score: i})
		current = current.Add(time.Second)
	}

	assert.Equal(t, 2, c.Len(ctx))
	_, found := c.Get(ctx, "k0")
	assert.False(t, found, "oldest entry is evicted first")
	report, found := c.Get(ctx, "k2")
	require.True(t, found)
	assert.Equal(t, 2, report.Score)

	current = current.Add(2 * time.Hour)
	c.cleanup()
	assert.Equal(t, 0, c.Len(ctx))
}

func TestMemoryCacheExpiresAtTTL(t *testing.T) {
	c := newMemoryCache(time.Minute, 10)
	defer c.Close()

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	ctx := context.Background()
	c.Set(ctx, "k", &scorer.Report{Score: 1})

	current = current.Add(time.Minute - time.Nanosecond)
	_, found := c.Get(ctx, "k")
	assert.True(t, found)
	c.cleanup()
	assert.Equal(t, 1, c.Len(ctx))

	current = current.Add(time.Nanosecond)
	_, found = c.Get(ctx, "k")
	assert.False(t, found, "entry is expired once its age equals the ttl")
	c.cleanup()
	assert.Equal(t, 0, c.Len(ctx), "cleanup drops what Get treats as expired")
}

func TestNewAppliesStatsRetention(t *testing.T) {
	current := time.Now().Format("2006-01")
	data := fmt.Sprintf(`{"2020-01": {"scored_posts": 4}, %q: {"scored_posts": 2}}`, current)
	seed := func() string {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "stats.json"), []byte(data), 0644))
		return dir
	}

	a := newTestAnalyzer(t, Options{DataDir: seed(), StatsRetentionMonths: 12})
	assert.Equal(t, []string{current}, a.GetStats().GetAllMonths())

	kept := newTestAnalyzer(t, Options{DataDir: seed()})
	assert.Equal(t, []string{current, "2020-01"}, kept.GetStats().GetAllMonths())
}

func TestConcurrentCacheAccess(t *testing.T) {
	a := newTestAnalyzer(t, Options{})
	ctx := context.Background()
	blog := sampleBlog()
	want := scorer.Calculate(blog)

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				if got := a.Score(ctx, blog, "").Score; got != want {
					errs <- fmt.Errorf("score %d, want %d", got, want)
				}
			} else {
				a.IsCached(ctx, blog, "")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent access error: %v", err)
	}
	assert.Equal(t, 1, a.GetCacheStats(ctx).Entries)
}

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Understanding goroutines | Example Blog</title>
  <meta name="description" content="A look at how goroutines are scheduled.">
  <meta name="keywords" content="go, concurrency">
  <meta property="og:title" content="Understanding goroutines">
  <meta property="og:description" content="Goroutines explained.">
  <meta property="og:image" content="/img/cover.png">
  <meta property="og:image:alt" content="Gopher">
  <meta property="article:section" content="Engineering">
  <meta property="article:tag" content="go">
  <meta property="article:tag" content="goroutines">
  <meta property="article:tag" content="scheduler">
</head>
<body>
  <nav><a href="/">Home</a></nav>
  <article>
    <h1>Understanding goroutines</h1>
    <p>Goroutines are cheap. <img src="/img/m.png" alt="M:N scheduling"></p>
    <p>Read <a href="/blog/channels">channels</a>.</p>
  </article>
</body>
</html>`

func TestScoreURL(t *testing.T) {
	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case agents <- r.UserAgent():
		default:
		}
		if r.URL.Path != "/posts/goroutines" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, samplePage)
	}))
	t.Cleanup(srv.Close)

	a := newTestAnalyzer(t, Options{})
	page, err := a.ScoreURL(context.Background(), srv.URL+"/posts/goroutines", "goroutines")
	require.NoError(t, err)

	assert.Equal(t, "BlogScore/1.0", <-agents)
	assert.Equal(t, len(samplePage), page.PageSize)

	blog := page.Blog
	assert.Equal(t, "Understanding goroutines", blog.Title)
	assert.Equal(t, "Understanding goroutines | Example Blog", blog.SEO.MetaTitle)
	assert.Equal(t, "A look at how goroutines are scheduled.", blog.SEO.MetaDescription)
	assert.Equal(t, "goroutines", blog.SEO.FocusKeyword)
	assert.Equal(t, "Goroutines explained.", blog.Excerpt)
	assert.Equal(t, "Engineering", blog.Category)
	assert.Equal(t, []string{"go", "goroutines", "scheduler"}, blog.Tags)
	require.NotNil(t, blog.FeaturedImage)
	assert.Equal(t, scorer.FeaturedImage{URL: "/img/cover.png", Alt: "Gopher"}, *blog.FeaturedImage)
	assert.NotContains(t, blog.Content, "Home", "navigation is outside the article")

	report := page.Report
	assert.Equal(t, 8, report.Points(scorer.RuleFeaturedImage))
	assert.Equal(t, 5, report.Points(scorer.RuleContentImages))
	assert.Equal(t, 5, report.Points(scorer.RuleKeywordHeading))
	assert.Equal(t, scorer.Calculate(blog, scorer.WithHostname("127.0.0.1")), report.Score)

	fetches := a.GetStats().GetCurrentStats()
	assert.Equal(t, 1, fetches.URLFetches)
	assert.Equal(t, 0, fetches.FetchFailures)
}

func TestScoreURLErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	a := newTestAnalyzer(t, Options{})
	ctx := context.Background()

	_, err := a.ScoreURL(ctx, srv.URL+"/missing", "")
	assert.ErrorContains(t, err, "unexpected status 404")

	_, err = a.ScoreURL(ctx, "ftp://example.com/file", "")
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = a.ScoreURL(ctx, "/relative/only", "")
	assert.ErrorIs(t, err, ErrInvalidURL)

	fetches := a.GetStats().GetCurrentStats()
	assert.Equal(t, 1, fetches.URLFetches)
	assert.Equal(t, 1, fetches.FetchFailures)
}

func TestBlogFromDocumentFallbacks(t *testing.T) {
	html := `<html><head><title>Plain page title</title>
<meta name="keywords" content="alpha, , beta ,gamma"></head>
<body><main><h1>Heading title</h1><p>Body text.</p></main></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	pageURL, _ := url.Parse("https://example.com/page")

	blog := BlogFromDocument(doc, pageURL, []byte(html))

	assert.Equal(t, "Heading title", blog.Title)
	assert.Equal(t, "Plain page title", blog.SEO.MetaTitle)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, blog.Tags)
	assert.Nil(t, blog.FeaturedImage)
	assert.Contains(t, blog.Content, "<h1>Heading title</h1>")
	assert.Empty(t, blog.Excerpt)
}
