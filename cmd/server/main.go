package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"alcyxob/endurance-planner/internal/api"
	"alcyxob/endurance-planner/internal/compliance"
	"alcyxob/endurance-planner/internal/config"
	"alcyxob/endurance-planner/internal/generator"
	"alcyxob/endurance-planner/internal/logging"
	"alcyxob/endurance-planner/internal/metrics"
	"alcyxob/endurance-planner/internal/planner"
	"alcyxob/endurance-planner/internal/repository"
	"alcyxob/endurance-planner/internal/repository/memory"
	"alcyxob/endurance-planner/internal/repository/mongo"
	"alcyxob/endurance-planner/internal/service"
	"alcyxob/endurance-planner/internal/storage"
)

type repositories struct {
	users      repository.UserRepository
	plans      repository.PlanRepository
	sessions   repository.SessionRepository
	activities repository.ActivityRepository
	close      func() error
}

// @title Endurance Planner API
// @version 1.0
// @description Race-specific training plan synthesis and compliance tracking for endurance athletes.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.Log.FileName,
		LogToStdout:      cfg.Log.ToStdout,
		LogLevel:         cfg.Log.Level,
		LogFormatJSON:    cfg.Log.JSON,
		Environment:      cfg.Sentry.Environment,
		SentryEnabled:    cfg.Sentry.Enabled,
		SentryDSN:        cfg.Sentry.DSN,
		SentryServerName: cfg.Sentry.ServerName,
	})
	logrus.Info("starting endurance planner server")

	// --- Repositories ---
	repos, err := openRepositories(cfg.Database)
	if err != nil {
		logrus.Fatalf("could not open repositories: %v", err)
	}

	// --- Storage ---
	var archive storage.FileStorage
	if cfg.S3.Enabled {
		archive, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			logrus.Fatalf("failed to initialize S3 storage: %v", err)
		}
	} else {
		logrus.Warn("s3 disabled, plan archives are kept in memory")
		archive = storage.NewMemoryStorage()
	}

	// --- Generator ---
	gen, err := generator.NewGeminiGenerator(context.Background(), cfg.Gemini)
	if err != nil {
		logrus.Fatalf("failed to initialize week generator: %v", err)
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("endurance", "planner", registry)

	// --- Services ---
	engine := compliance.NewEngine(cfg.Planner.DefaultCompliance)
	authService := service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration)
	planService := service.NewPlanService(service.PlanServiceDeps{
		Plans:     repos.plans,
		Sessions:  repos.sessions,
		Generator: gen,
		Validator: planner.NewValidator(),
		Archive:   archive,
		Metrics:   metricsManager,
	}, service.PlanServiceConfig{
		MaxParseAttempts:      cfg.Planner.MaxParseAttempts,
		MaxValidationAttempts: cfg.Planner.MaxValidationAttempts,
		GenerationTimeout:     cfg.Planner.GenerationTimeout,
		MaxConcurrentRuns:     cfg.Planner.MaxConcurrentRuns,
		ArchivePrefix:         cfg.S3.ArchivePrefix,
		PresignExpiry:         cfg.S3.PresignExpiry,
	})
	complianceService := service.NewComplianceService(repos.plans, repos.sessions, repos.activities, engine, nil)
	activityService := service.NewActivityService(repos.activities)

	reconciler := service.NewReconciler(repos.sessions, repos.activities, engine, metricsManager, nil)
	if cfg.Scheduler.Enabled {
		if err := reconciler.Start(cfg.Scheduler.ReconcileSpec); err != nil {
			logrus.Fatalf("failed to start reconciler: %v", err)
		}
	}

	// --- Router ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	api.SetupRoutes(router, cfg.JWT.Secret, api.Services{
		Auth:       authService,
		Plans:      planService,
		Compliance: complianceService,
		Activities: activityService,
	}, metricsManager)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("listen and serve: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	reconciler.Stop()
	err = multierr.Combine(
		server.Shutdown(ctx),
		planService.Shutdown(ctx),
		gen.Close(),
		repos.close(),
	)
	if err != nil {
		logrus.Errorf("unclean shutdown: %v", err)
		os.Exit(1)
	}
	logrus.Info("server exited")
}

func openRepositories(cfg config.DatabaseConfig) (*repositories, error) {
	if cfg.Driver == "memory" {
		logrus.Warn("using in-memory repositories, data is lost on restart")
		return &repositories{
			users:      memory.NewUserRepository(),
			plans:      memory.NewPlanRepository(),
			sessions:   memory.NewSessionRepository(),
			activities: memory.NewActivityRepository(),
			close:      func() error { return nil },
		}, nil
	}

	client, err := mongo.ConnectDB(cfg.URI, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Name)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		// the server runs without indexes, only slower
		logrus.Errorf("ensure indexes: %v", err)
	}

	return &repositories{
		users:      mongo.NewMongoUserRepository(db),
		plans:      mongo.NewMongoTrainingPlanRepository(db),
		sessions:   mongo.NewMongoSessionRepository(db),
		activities: mongo.NewMongoActivityRepository(db),
		close:      func() error { return mongo.DisconnectDB(client) },
	}, nil
}
