package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casedesk/caseintake/internal/api"
	"github.com/casedesk/caseintake/internal/api/middleware"
	"github.com/casedesk/caseintake/internal/config"
	"github.com/casedesk/caseintake/internal/extract"
	"github.com/casedesk/caseintake/internal/logger"
	"github.com/casedesk/caseintake/internal/ocr"
	"github.com/casedesk/caseintake/internal/repository"
	"github.com/casedesk/caseintake/internal/service"
	"github.com/casedesk/caseintake/internal/storage"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "caseintake-api",
	})
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	documentRepo := repository.NewDocumentRepository(db)
	jobRepo := repository.NewJobRepository(db)
	auditRepo := repository.NewAuditEventRepository(db)

	// Initialize S3-compatible storage (supports R2, S3, MinIO, etc.)
	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Initialize services
	auditEmitter := service.NewAuditEmitter(auditRepo, appLogger)

	uploadService := service.NewUploadService(documentRepo, objectStorage, auditEmitter, appLogger, &service.UploadConfig{
		MaxFileSize: cfg.Upload.MaxFileSize,
		PresignTTL:  cfg.Storage.PresignTTL,
	})

	processorService := service.NewProcessorService(
		documentRepo,
		jobRepo,
		auditEmitter,
		objectStorage,
		extract.NewPDFExtractor(),
		extract.NewDocxExtractor(appLogger),
		buildOCRAdapter(cfg, appLogger),
		appLogger,
		&service.ProcessorConfig{OCRTimeout: cfg.OCR.Timeout},
	)

	// Setup router
	router := api.SetupRouter(uploadService, processorService, jobRepo, appLogger, &api.RouterConfig{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("port", cfg.Server.Port).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Received shutdown signal, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server shutdown failed")
	}
	appLogger.Info("Server stopped")
}

// buildOCRAdapter wires the remote OCR detector and the optional local
// fallback engine from configuration.
func buildOCRAdapter(cfg *config.Config, log *logger.Logger) *ocr.Adapter {
	detector := ocr.NewRemoteDetector(&ocr.DetectorConfig{
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   cfg.OCR.APIKey,
		Timeout:  cfg.OCR.Timeout,
	})

	var fallback ocr.FallbackEngine
	if cfg.OCR.Fallback.Enabled {
		fallback = ocr.NewTesseractEngine(cfg.OCR.Fallback.Languages...)
	}

	return ocr.NewAdapter(detector, fallback, log)
}
