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

	_ "github.com/noah-isme/tutor-match-api/api/swagger"
	"github.com/noah-isme/tutor-match-api/internal/handler"
	internalmiddleware "github.com/noah-isme/tutor-match-api/internal/middleware"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/repository"
	"github.com/noah-isme/tutor-match-api/internal/service"
	"github.com/noah-isme/tutor-match-api/pkg/cache"
	"github.com/noah-isme/tutor-match-api/pkg/config"
	"github.com/noah-isme/tutor-match-api/pkg/database"
	"github.com/noah-isme/tutor-match-api/pkg/export"
	"github.com/noah-isme/tutor-match-api/pkg/jobs"
	"github.com/noah-isme/tutor-match-api/pkg/linksign"
	"github.com/noah-isme/tutor-match-api/pkg/logger"
	"github.com/noah-isme/tutor-match-api/pkg/mail"
	corsmiddleware "github.com/noah-isme/tutor-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-match-api/pkg/middleware/requestid"
)

// @title Tutor Match API
// @version 1.0.0
// @description Matches waiting students with language teachers and commits operator-confirmed assignments
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching and event publishing disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	location, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		logr.Warn("unknown calendar timezone, using UTC", zap.String("timezone", cfg.Calendar.Timezone))
		location = time.UTC
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	studentRepo := repository.NewStudentDemandRepository(db)
	teacherRepo := repository.NewTeacherOfferRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	signer := linksign.NewSigner(cfg.JWT.Secret, cfg.Calendar.LinkTTL)
	calendarExporter := export.NewICSExporter("-//"+cfg.AppName+"//Assignments//EN", location)
	exportSvc := service.NewExportService(assignmentRepo, calendarExporter, signer, service.ExportConfig{
		APIPrefix:     cfg.APIPrefix,
		PublicBaseURL: cfg.Calendar.PublicBaseURL,
		AppName:       cfg.AppName,
	}, logr)

	var notifier *service.NotificationService
	var queue *jobs.Queue
	if cfg.Notification.Enabled {
		queue = jobs.NewQueue("notifications", jobs.QueueConfig{
			Workers:    cfg.Notification.Workers,
			MaxRetries: cfg.Notification.Retries,
			RetryDelay: cfg.Notification.RetryDelay,
			Logger:     logr,
			OnDeadLetter: func(job jobs.Job, err error) {
				logr.Error("notification dropped",
					zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempts", job.Attempt), zap.Error(err))
			},
		})
		mailer := mail.New(cfg.Mail, cfg.AppName, logr)
		notifier = service.NewNotificationService(queue, cacheRepo, mailer, exportSvc, cfg.Notification.Channel, metrics, logr)
		queue.Start(ctx)
	}

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Matching.CacheTTL, logr, cfg.Matching.CacheEnabled && cacheRepo.Available())
	matchingSvc := service.NewMatchingService(studentRepo, teacherRepo, assignmentRepo, cacheSvc, notifier, metrics, validate, logr, service.MatchingConfig{
		MaxCandidates: cfg.Matching.MaxCandidates,
		CacheTTL:      cfg.Matching.CacheTTL,
	})
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	matchingHandler := handler.NewMatchingHandler(matchingSvc)
	assignmentHandler := handler.NewAssignmentHandler(matchingSvc, exportSvc)
	calendarHandler := handler.NewCalendarHandler(exportSvc)
	healthHandler := handler.NewHealthHandler(metrics, map[string]handler.Pinger{
		"postgres": db,
		"redis":    handler.PingerFunc(cacheRepo.Ping),
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", healthHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/calendar/:token", calendarHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(tokenSvc), internalmiddleware.RequireRoles(models.OperatorRoles()...))
	secured.Use(internalmiddleware.WithResponseMeta())

	matchingGroup := secured.Group("/matching")
	matchingGroup.GET("/students", matchingHandler.ListStudents)
	matchingGroup.POST("/students", matchingHandler.CreateStudent)
	matchingGroup.GET("/students/:id/candidates", matchingHandler.Candidates)
	matchingGroup.PUT("/students/:id/availability", matchingHandler.ReplaceStudentAvailability)
	matchingGroup.GET("/teachers", matchingHandler.ListTeachers)
	matchingGroup.POST("/teachers", matchingHandler.CreateTeacher)
	matchingGroup.PUT("/teachers/:id/availability", matchingHandler.ReplaceTeacherAvailability)

	assignmentGroup := secured.Group("/assignments")
	assignmentGroup.POST("", assignmentHandler.Create)
	assignmentGroup.GET("", assignmentHandler.List)
	assignmentGroup.GET("/export", assignmentHandler.Export)
	assignmentGroup.GET("/:id", assignmentHandler.Get)
	assignmentGroup.GET("/:id/calendar", assignmentHandler.Calendar)
	assignmentGroup.POST("/:id/calendar-link", assignmentHandler.CalendarLink)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown incomplete", zap.Error(err))
	}
	if queue != nil {
		queue.Stop()
	}
	return nil
}
