package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/blogscore/analyzer"
	"github.com/seo-optimizer/blogscore/api"
	"github.com/seo-optimizer/blogscore/config"
	"github.com/seo-optimizer/blogscore/logging"
	"github.com/seo-optimizer/blogscore/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := analyzer.Options{
		DataDir:      cfg.DataDir,
		Hostname:     cfg.SiteHostname,
		CacheTTL:     cfg.CacheTTL,
		MaxCacheSize: cfg.CacheMaxEntries,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,

		StatsRetentionMonths: cfg.StatsRetentionMonths,
	}
	if cfg.RedisAddr != "" {
		cache, err := analyzer.NewRedisCache(analyzer.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			return err
		}
		opts.Cache = cache
		logger.Info("Using redis report cache", zap.String("addr", cfg.RedisAddr))
	}

	blogAnalyzer, err := analyzer.New(opts)
	if err != nil {
		return err
	}

	stats, err := logging.NewStatistics(cfg.DataDir)
	if err != nil {
		return err
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go limiter.PruneEvery(bgCtx, time.Minute, 10*time.Minute)

	router := api.NewRouter(blogAnalyzer, stats, logger, api.Config{
		DevMode: cfg.DevMode,
		Limiter: limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case sig := <-sigChan:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := stats.Save(); err != nil {
		logger.Error("Failed to save statistics", zap.Error(err))
	}
	if err := blogAnalyzer.Shutdown(); err != nil {
		logger.Error("Analyzer shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
