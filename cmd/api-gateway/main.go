package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campuserp/registry-api/api/swagger"
	"github.com/campuserp/registry-api/internal/handler"
	"github.com/campuserp/registry-api/internal/middleware"
	"github.com/campuserp/registry-api/internal/models"
	"github.com/campuserp/registry-api/internal/repository"
	"github.com/campuserp/registry-api/internal/service"
	"github.com/campuserp/registry-api/pkg/cache"
	"github.com/campuserp/registry-api/pkg/config"
	"github.com/campuserp/registry-api/pkg/database"
	"github.com/campuserp/registry-api/pkg/logger"
	corsmiddleware "github.com/campuserp/registry-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuserp/registry-api/pkg/middleware/requestid"
)

// @title University Registry API
// @version 0.1.0
// @description Section registration and grading rules engine
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, statistics caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	accessSvc := service.NewAccessService(settingsRepo, logr)
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, accessSvc, validate, logr, service.AuthConfig{
		TokenSecret:       cfg.JWT.Secret,
		TokenExpiry:       cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockoutDuration:   cfg.Auth.LockoutDuration,
	})
	sectionSvc := service.NewSectionService(sectionRepo, accessSvc, validate, logr)
	registrationSvc := service.NewRegistrationService(sectionRepo, enrollmentRepo, accessSvc, cacheRepo, metricsSvc, logr)
	gradeSvc := service.NewGradeService(sectionRepo, enrollmentRepo, assessmentRepo, accessSvc, cacheRepo, cfg.Statistics.CacheTTL, validate, logr)
	reportSvc := service.NewReportService(gradeSvc, enrollmentRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	settingsHandler := handler.NewSettingsHandler(accessSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.PUT("/auth/password", authHandler.ChangePassword)

	authed.GET("/sections", sectionHandler.List)
	authed.GET("/sections/:id", sectionHandler.Get)
	authed.POST("/sections", middleware.RequireRoles(models.RoleAdmin), sectionHandler.Create)
	authed.PUT("/sections/:id", middleware.RequireRoles(models.RoleAdmin), sectionHandler.Update)
	authed.PUT("/sections/:id/status", middleware.RequireRoles(models.RoleAdmin), sectionHandler.UpdateStatus)

	if cfg.Registration.Enabled {
		authed.POST("/registrations", middleware.RequireRoles(models.RoleStudent), registrationHandler.Register)
		authed.DELETE("/registrations/:sectionId", middleware.RequireRoles(models.RoleStudent), registrationHandler.Drop)
	}
	authed.GET("/students/:id/timetable",
		middleware.RBAC(string(models.RoleAdmin), string(models.RoleInstructor), middleware.SelfParam),
		registrationHandler.Timetable)

	staff := middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)
	authed.PUT("/sections/:id/assessments", staff, gradeHandler.UpsertAssessment)
	authed.POST("/sections/:id/finalize", staff, gradeHandler.Finalize)
	authed.GET("/sections/:id/statistics", staff, gradeHandler.Statistics)

	studentOrStaff := middleware.RBAC(string(models.RoleAdmin), string(models.RoleInstructor), middleware.SelfParam)
	authed.GET("/students/:id/transcript", studentOrStaff, gradeHandler.Transcript)
	authed.GET("/students/:id/cgpa", studentOrStaff, gradeHandler.CGPA)

	if cfg.Reports.Enabled {
		authed.GET("/students/:id/transcript/export", studentOrStaff, reportHandler.TranscriptExport)
		authed.GET("/sections/:id/roster/export", staff, reportHandler.RosterExport)
	}

	authed.GET("/settings/maintenance", settingsHandler.GetMaintenance)
	authed.PUT("/settings/maintenance", middleware.RequireRoles(models.RoleAdmin), settingsHandler.SetMaintenance)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
