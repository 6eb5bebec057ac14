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
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"exambuilder/config"
	"exambuilder/handlers"
	"exambuilder/logger"
	"exambuilder/middleware"
	"exambuilder/routes"
	"exambuilder/services"
	"exambuilder/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("failed to load configuration: %v", err)
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		config.Exitf("failed to init logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to init tracing", "error", err)
	}

	// Initialize database
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	// Live updates: local hub always, Redis fan-out across instances when configured
	hub := services.NewHub(log)
	go hub.Run(ctx)

	var notifier services.Notifier = hub
	redisClient, err := config.InitRedis(cfg)
	if err != nil {
		log.Fatal("Failed to connect to redis", "error", err)
	}
	if redisClient != nil {
		bus, err := services.NewRedisBus(redisClient, cfg.RedisChannel, log)
		if err != nil {
			log.Fatal("Failed to init redis bus", "error", err)
		}
		defer bus.Close()
		if err := bus.StartForwarder(ctx, func(event services.ExamEvent) {
			_ = hub.Publish(ctx, event)
		}); err != nil {
			log.Fatal("Failed to subscribe to exam events", "error", err)
		}
		notifier = bus
	}

	// Initialize services and handlers
	examService := services.NewExamService(db, log, services.WithNotifier(notifier))
	examHandler := handlers.NewExamHandler(examService)
	questionHandler := handlers.NewQuestionHandler(examService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(log))
	router.Use(middleware.CORS())
	if cfg.OtelEnabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	routes.SetupRoutes(router, examHandler, questionHandler, hub, log)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", "error", err)
	}
}
