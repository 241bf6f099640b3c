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

	"github.com/timmy/artcaption/internal/api"
	"github.com/timmy/artcaption/internal/config"
	"github.com/timmy/artcaption/internal/logger"
	"github.com/timmy/artcaption/internal/repository"
	"github.com/timmy/artcaption/internal/service"
	"github.com/timmy/artcaption/internal/source"
	"github.com/timmy/artcaption/internal/source/gallery"
	"github.com/timmy/artcaption/internal/source/manifest"
)

func main() {
	appLogger := logger.NewDefault("artcaption-api")
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.VLM.Validate(); err != nil {
		appLogger.WithError(err).Fatal("Invalid VLM configuration")
	}

	vlmService := service.NewVLMService(&service.VLMConfig{
		Provider:  cfg.VLM.Provider,
		Model:     cfg.VLM.Model,
		APIKey:    cfg.VLM.APIKey,
		BaseURL:   cfg.VLM.BaseURL,
		MaxTokens: cfg.Caption.MaxTitleTokens,
		Timeout:   cfg.VLM.Timeout,
	})

	captionService := service.NewCaptionService(vlmService, appLogger, &service.CaptionConfig{
		DefaultPrompt:       cfg.Caption.DefaultPrompt,
		FlourishProbability: cfg.Caption.FlourishProbability,
		PrefixCandidates:    cfg.Caption.PrefixCandidates,
		DescriptionCutoff:   cfg.Caption.DescriptionCutoff,
		Seed:                cfg.Caption.Seed,
	})

	deps := api.Dependencies{
		Captions: captionService,
		Logger:   appLogger,
	}

	var store service.CaptionStore
	var jobs service.BatchJobStore
	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database, appLogger)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		sqlDB, err := db.DB()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to get database handle")
		}
		defer sqlDB.Close()

		captionRepo := repository.NewCaptionRepository(db)
		jobRepo := repository.NewBatchJobRepository(db)
		store, jobs = captionRepo, jobRepo
		deps.Archive = captionRepo
		deps.DB = sqlDB
	} else {
		appLogger.Warn("Caption archive disabled; list and lookup endpoints will return 503")
	}

	sources := configuredSources(cfg.Batch)
	if len(sources) > 0 {
		deps.Batch = service.NewBatchService(captionService, store, jobs, appLogger, &service.BatchConfig{
			Workers:   cfg.Batch.Workers,
			BatchSize: cfg.Batch.BatchSize,
		})
		deps.Sources = sources
	}

	router := api.SetupRouter(&cfg.Server, deps)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":  cfg.Server.Port,
			"mode":  cfg.Server.Mode,
			"model": cfg.VLM.Model,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Batches run inside requests, so give them longer than plain captions
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

func configuredSources(cfg config.BatchConfig) map[string]source.Source {
	sources := make(map[string]source.Source)
	if cfg.GalleryDir != "" {
		if info, err := os.Stat(cfg.GalleryDir); err == nil && info.IsDir() {
			sources[gallery.SourceID] = gallery.NewAdapter(cfg.GalleryDir)
		}
	}
	if cfg.ManifestDir != "" {
		sources["manifest"] = manifest.NewAdapter(cfg.ManifestDir)
	}
	return sources
}
