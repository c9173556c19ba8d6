package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/blogscore/analyzer"
	"github.com/seo-optimizer/blogscore/logging"
	"github.com/seo-optimizer/blogscore/middleware"
	"github.com/seo-optimizer/blogscore/scorer"
	"github.com/seo-optimizer/blogscore/stats"
)

// Config controls the router behaviour
type Config struct {
	DevMode bool
	Limiter *middleware.RateLimiter // nil disables rate limiting
}

// Server holds the handler dependencies
type Server struct {
	analyzer *analyzer.Analyzer
	stats    *logging.Statistics
	logger   *zap.Logger
	devMode  bool
}

// ScoreResponse is returned by both score endpoints
type ScoreResponse struct {
	URL             string              `json:"url,omitempty"`
	Score           int                 `json:"score"`
	BaseScore       int                 `json:"baseScore"`
	KeywordScore    int                 `json:"keywordScore"`
	Rating          string              `json:"rating"`
	Rules           []scorer.RuleResult `json:"rules"`
	Signals         scorer.Signals      `json:"signals"`
	Recommendations []string            `json:"recommendations"`
}

type cacheTTLRequest struct {
	TTL string `json:"ttl" binding:"required"`
}

type scoreURLRequest struct {
	URL          string `json:"url" binding:"required,url"`
	FocusKeyword string `json:"focusKeyword"`
}

// NewRouter wires the middleware chain and the /api routes
func NewRouter(a *analyzer.Analyzer, stats *logging.Statistics, logger *zap.Logger, cfg Config) *gin.Engine {
	s := &Server{
		analyzer: a,
		stats:    stats,
		logger:   logger,
		devMode:  cfg.DevMode,
	}

	r := gin.New()
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS())
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter.RateLimit())
	}
	r.Use(middleware.Stats(stats, logger))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/score", s.score)
		api.POST("/score/url", s.scoreURL)
		api.GET("/statistics", s.statistics)
		api.GET("/statistics/:month", s.monthStatistics)
		api.GET("/cache", s.cacheStats)
		api.PUT("/cache", s.setCacheTTL)
		api.DELETE("/cache", s.clearCache)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) score(c *gin.Context) {
	var blog scorer.BlogRecord
	if err := c.ShouldBindJSON(&blog); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid blog record: " + err.Error()})
		return
	}

	report := s.analyzer.Score(c.Request.Context(), &blog, c.Query("hostname"))
	c.Set(middleware.ScoreKey, report.Score)
	c.JSON(http.StatusOK, NewScoreResponse("", report))
}

func (s *Server) scoreURL(c *gin.Context) {
	var req scoreURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL provided"})
		return
	}
	c.Set(middleware.PageURLKey, req.URL)

	page, err := s.analyzer.ScoreURL(c.Request.Context(), req.URL, req.FocusKeyword)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, analyzer.ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "Failed to score URL: " + err.Error()})
		return
	}

	c.Set(middleware.ScoreKey, page.Report.Score)
	c.JSON(http.StatusOK, NewScoreResponse(page.URL, page.Report))
}

func (s *Server) statistics(c *gin.Context) {
	storage := s.analyzer.GetStats()
	result := s.stats.GetStatistics(s.devMode)
	result["scoring"] = storage.GetCurrentStats()

	history := make(map[string]stats.MonthlyStats)
	for _, month := range storage.GetAllMonths() {
		if monthly, ok := storage.GetMonthlyStats(month); ok {
			history[month] = monthly
		}
	}
	result["history"] = history
	c.JSON(http.StatusOK, result)
}

func (s *Server) monthStatistics(c *gin.Context) {
	month := c.Param("month")
	if _, err := time.Parse("2006-01", month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Month must be formatted as YYYY-MM"})
		return
	}

	monthly, ok := s.analyzer.GetStats().GetMonthlyStats(month)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No statistics for " + month})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":        month,
		"stats":        monthly,
		"averageScore": monthly.AverageScore(),
	})
}

func (s *Server) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.GetCacheStats(c.Request.Context()))
}

func (s *Server) setCacheTTL(c *gin.Context) {
	var req cacheTTLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cache settings: " + err.Error()})
		return
	}
	ttl, err := time.ParseDuration(req.TTL)
	if err != nil || ttl <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ttl must be a positive duration such as 10m"})
		return
	}

	s.analyzer.SetCacheTTL(ttl)
	s.logger.Info("Cache TTL updated", zap.Duration("ttl", ttl))
	c.JSON(http.StatusOK, s.analyzer.GetCacheStats(c.Request.Context()))
}

func (s *Server) clearCache(c *gin.Context) {
	if err := s.analyzer.ClearCache(c.Request.Context()); err != nil {
		s.logger.Error("Failed to clear cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// NewScoreResponse builds the response body for report. pageURL is empty for
// records submitted directly.
func NewScoreResponse(pageURL string, report *scorer.Report) ScoreResponse {
	recs := scorer.Recommendations(report)
	if recs == nil {
		recs = []string{}
	}
	return ScoreResponse{
		URL:             pageURL,
		Score:           report.Score,
		BaseScore:       report.BaseScore,
		KeywordScore:    report.KeywordScore,
		Rating:          scorer.Rating(report.Score),
		Rules:           report.Rules,
		Signals:         report.Signals,
		Recommendations: recs,
	}
}
