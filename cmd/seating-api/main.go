package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/seatwise/exam-seating-api/api/swagger"
	"github.com/seatwise/exam-seating-api/internal/handler"
	"github.com/seatwise/exam-seating-api/internal/middleware"
	"github.com/seatwise/exam-seating-api/internal/repository"
	"github.com/seatwise/exam-seating-api/internal/service"
	"github.com/seatwise/exam-seating-api/pkg/cache"
	"github.com/seatwise/exam-seating-api/pkg/config"
	"github.com/seatwise/exam-seating-api/pkg/database"
	"github.com/seatwise/exam-seating-api/pkg/jobs"
	"github.com/seatwise/exam-seating-api/pkg/logger"
	corsmiddleware "github.com/seatwise/exam-seating-api/pkg/middleware/cors"
	reqidmiddleware "github.com/seatwise/exam-seating-api/pkg/middleware/requestid"
	"github.com/seatwise/exam-seating-api/pkg/storage"
)

// @title Exam Seating API
// @version 1.0.0
// @description Deterministic exam seat allocation service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	rosterRepo := repository.NewRosterRepository(db)
	runRepo := repository.NewAllocationRunRepository(db)
	exportRepo := repository.NewExportJobRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	rosterSvc := service.NewRosterService(rosterRepo, validate, logr)
	allocationSvc := service.NewAllocationService(rosterRepo, runRepo, cacheRepo, metricsSvc, validate, logr, service.AllocationConfig{
		SlotWorkers:   cfg.Allocator.SlotWorkers,
		StatsCacheTTL: cfg.Allocator.StatsCacheTTL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var exportJobSvc *service.ExportJobService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exporter := service.NewExportService(runRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr)

		worker := service.NewExportWorker(exportRepo, exporter, metricsSvc, cfg.Exports.WorkerRetries, logr)
		queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		exportJobSvc = service.NewExportJobService(exportRepo, runRepo, queue, exporter, validate, logr, service.ExportJobConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		})
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	allocationHandler := handler.NewAllocationHandler(allocationSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.POST("/rosters", rosterHandler.Upload)
	protected.GET("/rosters", rosterHandler.List)
	protected.GET("/rosters/:id", rosterHandler.Get)
	protected.GET("/rosters/:id/students", rosterHandler.Students)
	protected.DELETE("/rosters/:id", rosterHandler.Delete)
	protected.POST("/allocations", allocationHandler.Allocate)
	protected.GET("/allocations", allocationHandler.List)
	protected.GET("/allocations/:id", allocationHandler.Get)
	protected.GET("/allocations/:id/stats", allocationHandler.Stats)

	if exportJobSvc != nil {
		exportHandler := handler.NewExportHandler(exportJobSvc)
		protected.POST("/exports", exportHandler.Create)
		protected.GET("/exports/:id", exportHandler.Status)
		// Token carries its own authentication.
		api.GET("/exports/download/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
