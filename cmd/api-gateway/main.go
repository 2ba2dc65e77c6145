package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/course-swap-api/api/swagger"
	"github.com/noah-isme/course-swap-api/internal/handler"
	"github.com/noah-isme/course-swap-api/internal/middleware"
	"github.com/noah-isme/course-swap-api/internal/repository"
	"github.com/noah-isme/course-swap-api/internal/service"
	"github.com/noah-isme/course-swap-api/pkg/cache"
	"github.com/noah-isme/course-swap-api/pkg/config"
	"github.com/noah-isme/course-swap-api/pkg/database"
	"github.com/noah-isme/course-swap-api/pkg/jobs"
	"github.com/noah-isme/course-swap-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-swap-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-swap-api/pkg/middleware/requestid"
)

// @title Course Swap API
// @version 0.1.0
// @description Course enrollment swap matching service
// @BasePath /api/v1
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Repositories.
	requestRepo := repository.NewSwapRequestRepository(db)
	matchRepo := repository.NewSwapMatchRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ScheduleTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	safety := service.NewSwapSafetyChecker(scheduleRepo, cacheSvc, logr)
	matcher := service.NewMatchFinderService(requestRepo, matchRepo, safety, metricsSvc, logr)
	requestSvc := service.NewSwapRequestService(requestRepo, scheduleRepo, matcher, validator.New(), logr, cfg.Matching.RequestTTL)
	lifecycleSvc := service.NewMatchLifecycleService(matchRepo, requestRepo, studentRepo, courseRepo, logr)
	sweeperSvc := service.NewSweeperService(requestRepo, matcher, metricsSvc, logr)
	exportSvc := service.NewExportService(matchRepo, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	// Handlers.
	requestHandler := handler.NewSwapRequestHandler(requestSvc)
	matchHandler := handler.NewMatchHandler(lifecycleSvc)
	adminHandler := handler.NewAdminHandler(sweeperSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))
	{
		api.POST("/swap-requests", requestHandler.Create)
		api.GET("/swap-requests", requestHandler.List)
		api.DELETE("/swap-requests/:id", requestHandler.Cancel)

		api.GET("/matches", matchHandler.List)
		api.POST("/matches/:id/confirm", matchHandler.Confirm)
		api.POST("/matches/:id/reject", matchHandler.Reject)
		api.GET("/matches/:id/contact", matchHandler.Contact)
		api.POST("/matches/:id/complete", matchHandler.Complete)

		api.POST("/admin/sweep", adminHandler.Sweep)
		api.GET("/admin/swaps/export", adminHandler.ExportSwapHistory)
	}

	var scheduler *service.SweepScheduler
	if cfg.Matching.SweepEnabled {
		scheduler = service.NewSweepScheduler(sweeperSvc, cfg.Matching.SweepInterval, jobs.QueueConfig{
			Workers:    cfg.Matching.SweepWorkers,
			MaxRetries: cfg.Matching.SweepRetries,
			Logger:     logr,
		})
		scheduler.Start(context.Background())
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
