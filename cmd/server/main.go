package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renatond/dbi-replenishment/internal/api"
	"github.com/renatond/dbi-replenishment/internal/cache"
	"github.com/renatond/dbi-replenishment/internal/config"
	"github.com/renatond/dbi-replenishment/internal/repository/postgres"
	"github.com/renatond/dbi-replenishment/internal/service"
	"github.com/renatond/dbi-replenishment/internal/storage"
	"github.com/renatond/dbi-replenishment/internal/suppliers"
	"github.com/renatond/dbi-replenishment/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.App.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	runRepo := postgres.NewRunRepository(db)

	runCache, err := cache.NewRunCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to cache")
	}

	excluded, err := suppliers.Load(cfg.App.ExcludedFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load excluded suppliers")
	}

	runService := service.NewRunService(cfg, excluded).
		WithRepository(runRepo).
		WithCache(runCache)

	if cfg.Archive.Enabled {
		archive, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to build archive client")
		}
		runService.WithArchive(archive)
	}

	router := api.NewRouter(&api.Services{
		RunService: runService,
		Runs:       runRepo,
		Cache:      runCache,
		Suppliers:  excluded,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
