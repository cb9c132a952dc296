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

	_ "github.com/edulink-id/parent-portal-api/api/swagger"
	"github.com/edulink-id/parent-portal-api/internal/feed"
	"github.com/edulink-id/parent-portal-api/internal/handler"
	"github.com/edulink-id/parent-portal-api/internal/identity"
	"github.com/edulink-id/parent-portal-api/internal/middleware"
	"github.com/edulink-id/parent-portal-api/internal/repository"
	"github.com/edulink-id/parent-portal-api/internal/service"
	"github.com/edulink-id/parent-portal-api/internal/store"
	"github.com/edulink-id/parent-portal-api/pkg/cache"
	"github.com/edulink-id/parent-portal-api/pkg/config"
	"github.com/edulink-id/parent-portal-api/pkg/database"
	"github.com/edulink-id/parent-portal-api/pkg/jobs"
	"github.com/edulink-id/parent-portal-api/pkg/logger"
	corsmiddleware "github.com/edulink-id/parent-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edulink-id/parent-portal-api/pkg/middleware/requestid"
	"github.com/edulink-id/parent-portal-api/pkg/storage"
)

// @title Parent Portal API
// @version 1.0.0
// @description School data access and realtime feed gateway for the parent app.
// @BasePath /api/v1
// @schemes http
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	docStore := store.NewPostgres(db, store.PostgresOptions{
		DSN:               database.DSN(cfg.Database),
		NotifyChannel:     cfg.Store.NotifyChannel,
		ListenMinInterval: cfg.Store.ListenMinInterval,
		ListenMaxInterval: cfg.Store.ListenMaxInterval,
		Logger:            logr.Named("store"),
	})
	defer docStore.Close()

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr.Named("cache"))
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.AnnouncementTTL, logr.Named("cache"), true)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(docStore)
	studentRepo := repository.NewStudentRepository(docStore)
	attendanceRepo := repository.NewAttendanceRepository(docStore)
	announcementRepo := repository.NewAnnouncementRepository(docStore)
	homeworkRepo := repository.NewHomeworkRepository(docStore)
	postRepo := repository.NewPostRepository(docStore)
	teacherRepo := repository.NewTeacherRepository(docStore)
	reportRepo := repository.NewReportRepository(docStore)

	provider := identity.NewJWTProvider(userRepo, validate, logr.Named("identity"), identity.JWTConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	authSvc := service.NewAuthService(provider, validate, logr.Named("auth"))
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, cfg.Cache.AttendanceTTL, logr.Named("students"))
	attendanceSvc := service.NewAttendanceService(attendanceRepo, logr.Named("attendance"))
	announcementSvc := service.NewAnnouncementService(announcementRepo, 50, logr.Named("announcements"))
	homeworkSvc := service.NewHomeworkService(homeworkRepo, cfg.Homework.RecentContainers, logr.Named("homework"))
	gradeSvc := service.NewGradeService(studentRepo, logr.Named("grades"))
	postSvc := service.NewPostService(postRepo, teacherRepo, validate, logr.Named("posts"))
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:      studentRepo,
		Attendance:    attendanceRepo,
		Announcements: announcementRepo,
		Homework:      homeworkRepo,
		Cache:         cacheSvc,
		Logger:        logr.Named("dashboard"),
		Config: service.DashboardServiceConfig{
			CacheTTL:           cfg.Cache.DashboardTTL,
			HomeworkContainers: cfg.Homework.RecentContainers,
		},
	})

	var feedSync *feed.Synchronizer
	if cfg.Feed.Enabled {
		feedSync = feed.NewSynchronizer(docStore, metrics, logr.Named("feed"))
		if err := feedSync.Start(rootCtx); err != nil {
			logr.Sugar().Fatalw("feed synchronizer failed to start", "error", err)
		}
		defer feedSync.Close()
	}

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("export storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exporter := service.NewExportService(studentRepo, attendanceRepo, files, signer, service.ExportConfig{
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr.Named("exports"), nil, nil)

		worker := service.NewReportWorker(reportRepo, exporter, func(token string) string {
			return reportSvc.DownloadURL(token)
		}, logr.Named("report-worker"))
		reportQueue = jobs.NewQueue("report-cards", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr.Named("report-queue"),
		})
		reportSvc = service.NewReportService(reportRepo, studentRepo, reportQueue, exporter, logr.Named("reports"), service.ReportServiceConfig{
			ResultTTL:    cfg.Exports.SignedURLTTL,
			DownloadPath: cfg.APIPrefix + "/reports/download",
		})
		reportQueue.Start(rootCtx)
		defer reportQueue.Stop()
		reportSvc.RecoverPendingJobs(rootCtx)
		reportSvc.StartCleanup(rootCtx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	profileHandler := handler.NewProfileHandler(studentSvc)
	attendanceHandler := handler.NewAttendanceHandler(studentSvc, attendanceSvc)
	homeworkHandler := handler.NewHomeworkHandler(studentSvc, homeworkSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	postHandler := handler.NewPostHandler(postSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.SignIn)
	api.GET("/status", metricsHandler.Status)

	authed := api.Group("")
	authed.Use(middleware.JWT(provider))
	authed.POST("/auth/logout", authHandler.SignOut)
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/dashboard", dashboardHandler.Load)
	authed.GET("/profile", profileHandler.Get)
	authed.GET("/attendance", attendanceHandler.History)
	authed.GET("/attendance/week", attendanceHandler.Week)
	authed.GET("/homework", homeworkHandler.Recent)
	authed.GET("/grades", gradeHandler.List)
	authed.GET("/announcements", announcementHandler.List)
	authed.GET("/events", announcementHandler.Events)
	authed.GET("/posts", postHandler.List)
	authed.GET("/posts/:id/comments", postHandler.Comments)
	authed.POST("/posts/:id/comments", postHandler.AddComment)
	authed.POST("/posts/:id/like", postHandler.ToggleLike)
	authed.GET("/teachers/:id", postHandler.Author)

	if feedSync != nil {
		feedHandler := handler.NewFeedHandler(feedSync, handler.FeedStreamConfig{
			PingPeriod: cfg.Feed.StreamPingPeriod,
			QueueSize:  cfg.Feed.ObserverQueueSize,
		})
		authed.GET("/feed", feedHandler.Snapshot)
		authed.GET("/feed/stream", feedHandler.Stream)
	}

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		authed.POST("/reports", reportHandler.Create)
		authed.GET("/reports/:id", reportHandler.Status)
		api.GET("/reports/download", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
