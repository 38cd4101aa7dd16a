package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/casedesk/caseintake/internal/config"
	"github.com/casedesk/caseintake/internal/domain"
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
		ServiceName: "caseintake-worker",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	limit := flag.Int("limit", 0, "Maximum number of pending documents to process (0 uses config)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	batchLimit := cfg.Worker.Limit
	if *limit > 0 {
		batchLimit = *limit
	}

	appLogger.WithField("limit", batchLimit).Info("Starting processing run")

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

	// Initialize OCR
	detector := ocr.NewRemoteDetector(&ocr.DetectorConfig{
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   cfg.OCR.APIKey,
		Timeout:  cfg.OCR.Timeout,
	})
	var fallback ocr.FallbackEngine
	if cfg.OCR.Fallback.Enabled {
		fallback = ocr.NewTesseractEngine(cfg.OCR.Fallback.Languages...)
	}

	// Initialize services
	auditEmitter := service.NewAuditEmitter(auditRepo, appLogger)
	processorService := service.NewProcessorService(
		documentRepo,
		jobRepo,
		auditEmitter,
		objectStorage,
		extract.NewPDFExtractor(),
		extract.NewDocxExtractor(appLogger),
		ocr.NewAdapter(detector, fallback, appLogger),
		appLogger,
		&service.ProcessorConfig{OCRTimeout: cfg.OCR.Timeout},
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	// Run batch processing
	stats, err := processorService.ProcessPending(ctx, batchLimit)
	if err != nil {
		appLogger.WithError(err).Fatal("Processing run failed")
	}

	remaining, err := documentRepo.CountByStatus(ctx, domain.DocumentStatusPending)
	if err != nil {
		appLogger.WithError(err).Warn("Failed to count remaining pending documents")
	}

	appLogger.WithFields(logger.Fields{
		"total":             stats.Total,
		"processed":         stats.Processed,
		"failed":            stats.Failed,
		"pending_remaining": remaining,
	}).Info("Processing run completed")
}
