package analyzer

import (
	"time"

	"github.com/seo-optimizer/blogscore/scorer"
)

// PageReport is the result of scoring a published page
type PageReport struct {
	URL       string             `json:"url"`
	Blog      *scorer.BlogRecord `json:"blog"`
	Report    *scorer.Report     `json:"report"`
	PageSize  int                `json:"pageSize"`
	FetchTime time.Duration      `json:"fetchTime"`
}

// CacheStats provides statistics about the analyzer's report cache
type CacheStats struct {
	Backend     string        `json:"backend"`
	Entries     int           `json:"entries"`
	CacheHits   int           `json:"cacheHits"`
	CacheMisses int           `json:"cacheMisses"`
	CacheTTL    time.Duration `json:"cacheTTL"`
}
