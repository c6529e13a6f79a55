package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/internal/audit"
	"github.com/vigil-sec/vigil/pkg/cache"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/detectors"
	"github.com/vigil-sec/vigil/pkg/detectors/behavior"
	"github.com/vigil-sec/vigil/pkg/detectors/bot"
	"github.com/vigil-sec/vigil/pkg/detectors/email"
	"github.com/vigil-sec/vigil/pkg/detectors/fingerprintcheck"
	"github.com/vigil-sec/vigil/pkg/detectors/ratelimit"
	handlers "github.com/vigil-sec/vigil/pkg/handlers/http"
	"github.com/vigil-sec/vigil/pkg/infra/database"
	"github.com/vigil-sec/vigil/pkg/infra/prometheus"
	"github.com/vigil-sec/vigil/pkg/infra/repository"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
	"github.com/vigil-sec/vigil/pkg/middleware"
	"github.com/vigil-sec/vigil/pkg/pipeline"
	"github.com/vigil-sec/vigil/pkg/server"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	cfgManager, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := cfgManager.Snapshot()

	logger := newLogger(cfg.Server.LogLevel)
	prometheus.Initialize()

	cacheInstance, err := cache.NewCache(cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize redis cache")
	}
	defer cacheInstance.Close()

	engine := cfgManager.Engine()
	redisStore := threatstore.NewRedisStore(
		cacheInstance,
		engine.Suspicion.Threshold,
		time.Duration(engine.Suspicion.HalfLifeSeconds)*time.Second,
		nil,
	)

	var store threatstore.Store = redisStore

	db, err := database.NewDB(logger, cfg.Database)
	if err != nil {
		logger.WithError(err).Warn("archive database unavailable, continuing without archive")
	} else {
		defer db.Close()
		store = threatstore.NewArchiveStore(
			store,
			repository.NewListRepository(db.DB),
			repository.NewAttemptRepository(db.DB),
			logger,
		)
	}

	store = threatstore.NewBreakerStore(store, logger)

	dets := []detectors.Detector{
		ratelimit.NewDetector(logger, store, cfgManager),
		bot.NewDetector(logger, cfgManager),
		behavior.NewDetector(logger, store, cfgManager),
		email.NewDetector(logger, cfgManager),
		fingerprintcheck.NewDetector(logger, store),
	}

	riskPipeline := pipeline.New(logger, store, cfgManager, dets, audit.NewLogSink(logger))

	middlewareTransport := middleware.Transport{
		SecurityMiddleware: middleware.NewSecurityMiddleware(
			logger, riskPipeline, middleware.NewSignalExtractor(logger)),
	}

	handlerTransport := handlers.HandlerTransport{
		AddWhitelistHandler:     handlers.NewAddWhitelistHandler(logger, store),
		RemoveWhitelistHandler:  handlers.NewRemoveWhitelistHandler(logger, store),
		AddBlacklistHandler:     handlers.NewAddBlacklistHandler(logger, store),
		EnableRuleHandler:       handlers.NewEnableRuleHandler(logger, cfgManager),
		DisableRuleHandler:      handlers.NewDisableRuleHandler(logger, cfgManager),
		GetConfigHandler:        handlers.NewGetConfigHandler(logger, cfgManager),
		UpdateConfigHandler:     handlers.NewUpdateConfigHandler(logger, cfgManager),
		BlockFingerprintHandler: handlers.NewBlockFingerprintHandler(logger, store),
		GetSuspicionHandler:     handlers.NewGetSuspicionHandler(logger, store),
	}

	gateServer := server.NewGateServer(server.GateServerDI{
		MiddlewareTransport: middlewareTransport,
		Config:              cfg,
		Logger:              logger,
	})
	adminServer := server.NewAdminServer(server.AdminServerDI{
		HandlerTransport: handlerTransport,
		Config:           cfg,
		Logger:           logger,
	})

	server.StartMetricsServer(logger, cfg.Server.MetricsPort)

	go func() {
		if err := adminServer.Run(); err != nil {
			logger.WithError(err).Fatal("admin server exited")
		}
	}()
	go func() {
		if err := gateServer.Run(); err != nil {
			logger.WithError(err).Fatal("gate server exited")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if err := gateServer.Shutdown(); err != nil {
			logger.WithError(err).Error("gate server shutdown failed")
		}
		if err := adminServer.Shutdown(); err != nil {
			logger.WithError(err).Error("admin server shutdown failed")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out")
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
