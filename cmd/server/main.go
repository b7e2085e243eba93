package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealscreener/server/config"
	"dealscreener/server/internal/api"
	"dealscreener/server/internal/cache"
	"dealscreener/server/internal/estimator"
	"dealscreener/server/internal/geometry"
	"dealscreener/server/internal/history"
	"dealscreener/server/internal/market"
	"dealscreener/server/internal/processor"
	"dealscreener/server/internal/queue"
	"dealscreener/server/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Zone table, with optional overrides
	zones := config.DefaultZoneTable()
	if cfg.Zones.File != "" {
		zones, err = config.LoadZoneTable(cfg.Zones.File, zones)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load zones file")
		}
		logger.WithField("file", cfg.Zones.File).Info("Loaded zone overrides")
	}

	trainer, err := estimator.NewTrainer(cfg.Estimator.Kind, estimator.Options{
		Trees:    cfg.Estimator.Trees,
		MaxDepth: cfg.Estimator.MaxDepth,
		MinLeaf:  cfg.Estimator.MinLeaf,
		Seed:     cfg.Estimator.Seed,
		Lambda:   cfg.Estimator.RidgeLambda,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure estimator")
	}

	builder := &market.Builder{
		Path:    cfg.Dataset.Path,
		Zones:   zones,
		Trainer: trainer,
		Options: market.Options{
			PriceEnabled:    cfg.Estimator.PriceEnabled,
			HoldoutFraction: cfg.Estimator.HoldoutFraction,
			Seed:            cfg.Estimator.Seed,
		},
		Logger: logger,
	}

	// A dataset that cannot be loaded or fitted is fatal
	logger.WithField("path", cfg.Dataset.Path).Info("Loading market dataset")
	mctx, err := builder.Build()
	if err != nil {
		logger.WithError(err).Fatal("Failed to build market context")
	}
	holder := market.NewHolder(mctx)

	handler := api.NewHandler(holder, geometry.NewZoneLocator(zones.Profiles(), 0), logger)

	if cfg.Cache.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		resultCache, err := cache.NewResultCache(pingCtx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB,
			time.Duration(cfg.Cache.TTL)*time.Second, logger)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Result cache disabled")
		} else {
			defer resultCache.Close()
			handler.SetCache(resultCache)
			logger.WithField("addr", cfg.Cache.RedisAddr).Info("Result cache enabled")
		}
	}

	var (
		evalQueue *queue.EvaluationQueue
		batchProc *processor.BatchProcessor
		historyDB *history.Store
	)
	if cfg.History.Enabled {
		historyDB, err = history.Open(cfg.History.DBPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open history database")
		}
		defer historyDB.Close()

		evalQueue = queue.NewEvaluationQueue(
			cfg.BatchProcessing.MaxBatchSize*4,
			cfg.BatchProcessing.MaxBatchSize,
			time.Duration(cfg.BatchProcessing.MaxBatchWaitTime)*time.Second,
			logger,
		)
		batchProc = processor.NewBatchProcessor(historyDB.DB(), evalQueue, cfg, logger)
		batchProc.Start()
		evalQueue.Start()
		handler.SetHistory(evalQueue, historyDB)
		logger.WithField("path", cfg.History.DBPath).Info("Evaluation history enabled")
	}

	var reloader *scheduler.Reloader
	if cfg.Dataset.ReloadInterval > 0 {
		reloader = scheduler.NewReloader(builder, holder, time.Duration(cfg.Dataset.ReloadInterval)*time.Second, logger)
		reloader.Start()
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	api.SetupRoutes(router, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shut down")
	}

	if reloader != nil {
		reloader.Stop()
	}
	// Flush queued evaluations before the workers stop
	if evalQueue != nil {
		evalQueue.Close()
		batchProc.Stop()
	}
	logger.Info("Server stopped")
}
