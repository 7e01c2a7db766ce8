package main

import (
	"context"
	"errors"
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
	"go.uber.org/zap"

	_ "github.com/rtdacademy/SignupForm-sub036/api/swagger"
	"github.com/rtdacademy/SignupForm-sub036/internal/handler"
	"github.com/rtdacademy/SignupForm-sub036/internal/middleware"
	"github.com/rtdacademy/SignupForm-sub036/internal/models"
	"github.com/rtdacademy/SignupForm-sub036/internal/repository"
	"github.com/rtdacademy/SignupForm-sub036/internal/service"
	"github.com/rtdacademy/SignupForm-sub036/pkg/cache"
	"github.com/rtdacademy/SignupForm-sub036/pkg/config"
	"github.com/rtdacademy/SignupForm-sub036/pkg/database"
	"github.com/rtdacademy/SignupForm-sub036/pkg/jobs"
	"github.com/rtdacademy/SignupForm-sub036/pkg/logger"
	corsmiddleware "github.com/rtdacademy/SignupForm-sub036/pkg/middleware/cors"
	reqidmiddleware "github.com/rtdacademy/SignupForm-sub036/pkg/middleware/requestid"
)

// @title Schedule Normalization Engine
// @version 1.0.0
// @description Reconciles course structures, personalized schedules and recorded grades.
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

	db, err := database.EnsureInitialized(cfg.Database)
	if err != nil {
		logr.Fatal("record store unavailable", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("migrations failed", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without cache and locks", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	records := repository.NewRecordRepository(db)
	courses := repository.NewCourseRepository(records)
	students := repository.NewStudentRepository(records)
	lti := repository.NewLTIRepository(records)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Normalization.LinkCatalogCacheTTL, logr, redisClient != nil)
	autoStatus := service.NewAutoStatusService(students, records, metricsSvc, logr, cfg.Normalization.InactivityWindow)

	var identity *service.IdentityClient
	if cfg.Identity.ResolveURL != "" {
		identity = service.NewIdentityClient(service.IdentityClientConfig{
			ResolveURL: cfg.Identity.ResolveURL,
			APIKey:     cfg.Identity.APIKey,
			Timeout:    cfg.Identity.Timeout,
		}, metricsSvc, logr)
	}

	params := service.NormalizationServiceParams{
		Courses:    courses,
		Students:   students,
		Records:    records,
		Links:      service.NewLinkResolver(lti, cacheSvc, cfg.Normalization.LinkCatalogCacheTTL, logr),
		Grades:     service.NewGradeFetcher(lti, cfg.Normalization.GradeFetchConcurrency),
		Locks:      repository.NewLockRepository(redisClient),
		AutoStatus: autoStatus,
		Metrics:    metricsSvc,
		Validator:  validate,
		Logger:     logr,
		Config: service.NormalizationConfig{
			CacheWindow: cfg.Normalization.CacheWindow,
			LockTTL:     cfg.Normalization.LockTTL,
			LockWait:    cfg.Normalization.LockWait,
		},
	}
	if identity != nil {
		params.Identity = identity
	}
	normalizationSvc := service.NewNormalizationService(params)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	worker := service.NewTriggerWorker(normalizationSvc, metricsSvc, logr)
	triggerQueue := jobs.NewQueue("triggers", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Triggers.Workers,
		BufferSize: cfg.Triggers.BufferSize,
		Logger:     logr,
	})
	triggerQueue.Start(context.Background())

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	normalizationHandler := handler.NewNormalizationHandler(normalizationSvc)
	triggerHandler := handler.NewTriggerHandler(triggerQueue, validate)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	api.POST("/normalizations", middleware.RequireRoles(false, models.RoleStaff, models.RoleSystem), normalizationHandler.Normalize)
	api.GET("/students/:studentKey/courses/:courseId/normalized-schedule", middleware.RequireRoles(true, models.RoleStaff, models.RoleSystem), normalizationHandler.NormalizedSchedule)
	api.GET("/metrics/snapshot", middleware.RequireRoles(false, models.RoleStaff, models.RoleSystem), metricsHandler.Snapshot)

	events := api.Group("/events", middleware.RequireRoles(false, models.RoleSystem))
	events.POST("/grades", triggerHandler.GradeRecorded)
	events.POST("/lms-ids", triggerHandler.LMSIDAssigned)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	triggerQueue.Stop()
	logr.Info("server stopped")
}
