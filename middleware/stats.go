package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/blogscore/logging"
)

// Context keys set by score handlers for the stats middleware
const (
	ScoreKey   = "blogscore.score"
	PageURLKey = "blogscore.url"
)

// saveEvery is how many score requests pass between statistics flushes
const saveEvery = 100

// Stats tracks visitors and score requests. Handlers publish the computed
// score under ScoreKey; requests without one count as failures.
func Stats(stats *logging.Statistics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.Method != http.MethodPost {
			return
		}
		path := c.FullPath()
		if path != "/api/score" && path != "/api/score/url" {
			return
		}

		score := -1
		if v, ok := c.Get(ScoreKey); ok && c.Writer.Status() < 400 {
			score = v.(int)
		}
		stats.TrackRequest(c.GetString(PageURLKey), time.Since(start), score)

		if stats.TotalRequests()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("Failed to save statistics", zap.Error(err))
				}
			}()
		}
	}
}
