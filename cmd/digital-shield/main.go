package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imj25/digital-shield/internal/advice"
	"github.com/imj25/digital-shield/internal/api"
	"github.com/imj25/digital-shield/internal/cache"
	"github.com/imj25/digital-shield/internal/config"
	"github.com/imj25/digital-shield/internal/content"
	"github.com/imj25/digital-shield/internal/metrics"
	"github.com/imj25/digital-shield/internal/repo"
	"github.com/imj25/digital-shield/internal/services"
	"github.com/imj25/digital-shield/internal/session"
	"github.com/imj25/digital-shield/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting digital-shield", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
		})
		if err != nil {
			logger.Warn("redis cache unavailable, falling back to in-process cache", slog.Any("error", err))
			cacheProvider = cache.NewMemoryProvider()
		} else {
			cacheProvider = provider
		}
	}
	defer cacheProvider.Close()

	assistant := repo.NewAssistantClient(
		cfg.Assistant.BaseURL,
		cfg.Assistant.ChatPath,
		cfg.Assistant.MaxAttempts,
		cfg.Assistant.Timeout,
		cfg.Assistant.Backoff,
		logger,
	)
	predictor := repo.NewPredictorClient(
		cfg.Predictor.BaseURL,
		cfg.Predictor.Timeout,
		cacheProvider,
		cfg.Predictor.CacheTTL,
	)

	advisor, err := advice.NewAdvisor(cfg.Advice.Path, logger)
	if err != nil {
		logger.Error("failed to load advice rules", slog.Any("error", err))
		os.Exit(1)
	}
	library, err := content.Load(cfg.Reference.Path)
	if err != nil {
		logger.Error("failed to load reference content", slog.Any("error", err))
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.Session.TTL, cacheProvider)
	svc := services.NewDashboardService(logger, assistant, predictor, sessions, advisor)

	handler := api.NewHandler(logger, svc, library)
	server := api.NewServer(cfg.Server, handler.Routes(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("digital-shield stopped")
}
