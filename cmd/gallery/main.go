package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/audit"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/config"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/database"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/gallery"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/httpserver"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/logger"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/programs"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/storage"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/telemetry"
)

func main() {
	cfg := config.Load()

	logger.Init("gallery")
	logger.SetLevel(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting gallery", logger.Fields{
		"port":             cfg.Port,
		"storage_provider": cfg.StorageProvider,
		"bucket":           cfg.BucketName,
		"database_driver":  cfg.DatabaseDriver,
		"log_level":        cfg.LogLevel,
	})

	shutdownTracing, err := telemetry.Setup(ctx, "gallery", cfg.OTELEndpoint)
	if err != nil {
		logger.Error(ctx, "failed to init tracing", err)
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error(flushCtx, "failed to flush traces", err)
		}
	}()

	// A missing bucket or an unusable client leaves the gallery empty rather
	// than stopping the screen.
	if cfg.BucketName == "" {
		logger.Warn(ctx, "S3_BUCKET_NAME is not set, the gallery will be empty")
	}
	bucket, err := storage.Default(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "failed to init storage client", err)
	}

	var store gallery.StudentStore
	db, err := database.NewClient(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.StudentsTable)
	if err != nil {
		logger.Error(ctx, "failed to init database client", err)
	} else {
		defer db.Close()
		store = db
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.Ping(pingCtx); err != nil {
			logger.Warn(ctx, "database is not reachable yet", logger.Fields{"error": err.Error()})
		}
		cancel()
	}

	allow, err := programs.Load(cfg.ProgramsFile, cfg.NormalizeCareers)
	if err != nil {
		logger.Error(ctx, "failed to load programs", err)
		log.Fatalf("failed to load programs: %v", err)
	}
	logger.Info(ctx, "programs loaded", logger.Fields{
		"count":     allow.Len(),
		"normalize": cfg.NormalizeCareers,
	})

	svc := gallery.NewService(bucket, store, allow, gallery.Options{
		URLTTL:      cfg.SignedURLTTL,
		Concurrency: cfg.SignConcurrency,
	})

	if cfg.AuditEnabled() {
		auditor, err := audit.New(svc, cfg.AuditSchedule)
		if err != nil {
			logger.Error(ctx, "failed to init gallery audit", err)
			log.Fatalf("failed to init gallery audit: %v", err)
		}
		auditor.Start(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpserver.NewServer(cfg, svc).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "gallery server starting", logger.Fields{"address": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "server error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "graceful shutdown failed", err)
	}
	logger.Info(shutdownCtx, "gallery shutdown complete")
}
