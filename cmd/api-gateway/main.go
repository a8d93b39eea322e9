package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/vti-ops/timetable-api/api/swagger"
	"github.com/vti-ops/timetable-api/internal/handler"
	"github.com/vti-ops/timetable-api/internal/middleware"
	"github.com/vti-ops/timetable-api/internal/models"
	"github.com/vti-ops/timetable-api/internal/repository"
	"github.com/vti-ops/timetable-api/internal/service"
	"github.com/vti-ops/timetable-api/pkg/config"
	"github.com/vti-ops/timetable-api/pkg/database"
	"github.com/vti-ops/timetable-api/pkg/logger"
	corsmiddleware "github.com/vti-ops/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vti-ops/timetable-api/pkg/middleware/requestid"

	"github.com/vti-ops/timetable-api/pkg/cache"
)

// @title VTI Timetable API
// @version 1.0.0
// @description Timetable generation engine and registry for vocational training institutes
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

	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without view cache", zap.Error(err))
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	// Repositories.
	termRepo := repository.NewTermRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	periodRepo := repository.NewLessonPeriodRepository(db)
	assignmentRepo := repository.NewTeachingAssignmentRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	configRepo := repository.NewConfigurationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)
	termSvc := service.NewTermService(termRepo, logr)
	classSvc := service.NewClassService(classRepo, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, logr)
	trainerSvc := service.NewTrainerService(trainerRepo, logr)
	roomSvc := service.NewRoomService(roomRepo, logr)
	periodSvc := service.NewLessonPeriodService(periodRepo, logr)
	assignmentSvc := service.NewTeachingAssignmentService(assignmentRepo, logr)
	lockoutSvc := service.NewGenerationLockoutService(configRepo, logr)
	preflightSvc := service.NewPreflightService(termRepo, assignmentRepo, roomRepo, periodRepo, timetableRepo, lockoutSvc, cfg.Timetable, logr)
	allocator := service.NewSlotAllocator(logr)

	generatorSvc := service.NewTimetableGeneratorService(
		db, termRepo, assignmentRepo, roomRepo, periodRepo, timetableRepo,
		preflightSvc, lockoutSvc, allocator, cacheRepo, metricsSvc, cfg.Timetable, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, cacheRepo, cfg.Timetable, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	termHandler := handler.NewTermHandler(termSvc, classSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	trainerHandler := handler.NewTrainerHandler(trainerSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	periodHandler := handler.NewLessonPeriodHandler(periodSvc)
	assignmentHandler := handler.NewTeachingAssignmentHandler(assignmentSvc)
	generatorHandler := handler.NewTimetableGeneratorHandler(preflightSvc, generatorSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	configHandler := handler.NewConfigurationHandler(lockoutSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.JWT(authSvc))
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	admin := middleware.RequireRoles(models.RoleAdmin)

	authed.GET("/terms", termHandler.List)
	authed.GET("/terms/:id", termHandler.Get)
	authed.POST("/terms", staff, termHandler.Create)
	authed.PUT("/terms/:id", staff, termHandler.Update)
	authed.GET("/terms/:id/classes", termHandler.Classes)

	authed.GET("/classes", classHandler.List)
	authed.GET("/classes/:id", classHandler.Get)
	authed.POST("/classes", staff, classHandler.Create)

	authed.GET("/subjects", subjectHandler.List)
	authed.GET("/subjects/:id", subjectHandler.Get)
	authed.POST("/subjects", staff, subjectHandler.Create)

	authed.GET("/trainers", trainerHandler.List)
	authed.GET("/trainers/:id", trainerHandler.Get)

	authed.GET("/rooms", roomHandler.List)
	authed.POST("/rooms", staff, roomHandler.Create)
	authed.PUT("/rooms/:id", staff, roomHandler.Update)

	authed.GET("/lesson-periods", periodHandler.List)
	authed.POST("/lesson-periods", staff, periodHandler.Create)
	authed.PUT("/lesson-periods/:id", staff, periodHandler.Update)

	authed.GET("/terms/:id/assignments", assignmentHandler.ListByTerm)
	authed.POST("/assignments", staff, assignmentHandler.Create)
	authed.PUT("/assignments/:id/trainer", staff, assignmentHandler.SetTrainer)
	authed.DELETE("/assignments/:id", staff, assignmentHandler.Delete)

	authed.GET("/terms/:id/timetable/preflight", staff, generatorHandler.Preflight)
	authed.POST("/terms/:id/timetable/generate", staff, generatorHandler.Generate)
	authed.GET("/terms/:id/timetable", timetableHandler.Weekly)
	authed.GET("/terms/:id/timetable/export/csv", timetableHandler.ExportCSV)
	authed.GET("/terms/:id/timetable/export/pdf", timetableHandler.ExportPDF)

	authed.GET("/timetable/slots", timetableHandler.List)
	authed.POST("/timetable/slots", staff, timetableHandler.CreateSlot)
	authed.PUT("/timetable/slots/:id", staff, timetableHandler.UpdateSlot)
	authed.DELETE("/timetable/slots/:id", staff, timetableHandler.DeleteSlot)

	authed.GET("/configurations/timetable-lockout", staff, configHandler.GetLockout)
	authed.PUT("/configurations/timetable-lockout", admin, configHandler.SetLockout)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
