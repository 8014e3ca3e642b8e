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

	"github.com/fieldops/backoffice-api/docs"
	"github.com/fieldops/backoffice-api/internal/auth"
	"github.com/fieldops/backoffice-api/internal/config"
	"github.com/fieldops/backoffice-api/internal/database"
	"github.com/fieldops/backoffice-api/internal/http/handler"
	"github.com/fieldops/backoffice-api/internal/http/middleware"
	"github.com/fieldops/backoffice-api/internal/http/router"
	"github.com/fieldops/backoffice-api/internal/jobs"
	"github.com/fieldops/backoffice-api/internal/logger"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/fieldops/backoffice-api/internal/storage"
	"go.uber.org/zap"
)

// @title Field Service Back-Office API
// @version 1.0
// @description Jobs, technicians, customers, job reports and inventory for a field service company

// @contact.name API Support

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for system integrations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Secrets come from the environment in development and from Key Vault
	// in staging and production.
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Repositories
	departmentRepo := repository.NewDepartmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	contactRepo := repository.NewContactRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	jobRepo := repository.NewJobRepository(db)
	lineItemRepo := repository.NewJobLineItemRepository(db)
	reportRepo := repository.NewJobReportRepository(db)
	serviceItemRepo := repository.NewServiceItemRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)
	userService := service.NewUserService(userRepo, departmentRepo, log)
	departmentService := service.NewDepartmentService(departmentRepo, userRepo, log)
	customerService := service.NewCustomerService(customerRepo, contactRepo, db, log)
	contactService := service.NewContactService(contactRepo, customerRepo, db, log)
	projectService := service.NewProjectService(projectRepo, customerRepo, log)
	jobService := service.NewJobService(jobRepo, lineItemRepo, userRepo, customerRepo, projectRepo, inventoryRepo, serviceItemRepo, numberSequenceService, db, log)
	reportService := service.NewJobReportService(reportRepo, jobRepo, db, time.Duration(cfg.Reports.DuplicateWindowSeconds)*time.Second, log)
	serviceItemService := service.NewServiceItemService(serviceItemRepo, log)
	inventoryService := service.NewInventoryService(inventoryRepo, db, cfg.Inventory.Location(), log)
	mediaService := service.NewMediaService(fileStorage, cfg.Storage.MaxUploadSizeMB*1024*1024, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, userService, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(auditLogService, nil, log)

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, auditMiddleware, router.Handlers{
		Auth:      handler.NewAuthHandler(log),
		User:      handler.NewUserHandler(userService, departmentService, log),
		Customer:  handler.NewCustomerHandler(customerService, contactService, log),
		Project:   handler.NewProjectHandler(projectService, log),
		Job:       handler.NewJobHandler(jobService, reportService, log),
		JobReport: handler.NewJobReportHandler(reportService, log),
		Catalog:   handler.NewCatalogHandler(serviceItemService, log),
		Inventory: handler.NewInventoryHandler(inventoryService, log),
		Media:     handler.NewMediaHandler(mediaService, log),
		Audit:     handler.NewAuditHandler(auditLogService, log),
	})

	// Background jobs
	scheduler := jobs.NewScheduler(cfg.Inventory.Location(), log)
	if cfg.Inventory.RolloverEnabled {
		if err := jobs.RegisterInventoryRolloverJob(scheduler, inventoryService, log, cfg.Inventory.RolloverCron, true); err != nil {
			log.Error("Failed to register inventory rollover job", zap.Error(err))
		}
	}
	if cfg.Audit.RetentionDays > 0 {
		if err := jobs.RegisterAuditCleanupJob(scheduler, auditLogService, log, cfg.Audit.CleanupCron, cfg.Audit.RetentionDays); err != nil {
			log.Error("Failed to register audit cleanup job", zap.Error(err))
		}
	}
	scheduler.Start()
	log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           rt.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeoutDuration(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		stopped := scheduler.Stop()
		<-stopped.Done()
		log.Info("Scheduler stopped")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}
		log.Info("Server stopped gracefully")
	}

	return nil
}
