package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/auth"
	"workshop-web/internal/config"
	"workshop-web/internal/database"
	"workshop-web/internal/export"
	"workshop-web/internal/handler"
	"workshop-web/internal/repository"
	"workshop-web/internal/router"
	"workshop-web/internal/scheduler"
	"workshop-web/internal/service"
	"workshop-web/internal/session"
	"workshop-web/internal/utils"
	"workshop-web/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/hibiken/asynq"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Sessions, export guards and payment tracking use Redis when it is up.
	var (
		sessionStorage fiber.Storage = session.NewMemoryStorage()
		guard          export.Guard  = export.NewMemoryGuard()
		payments       *service.PaymentService
	)

	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to Redis")
		log.Warn("Application will continue with in-memory sessions (payments disabled)")
	} else {
		defer redisClient.Close()
		sessionStorage = session.NewRedisStorage(redisClient)
		guard = export.NewRedisGuard(redisClient, cfg.ExportLockTTL)

		queue := asynq.NewClient(worker.RedisOpt(cfg))
		defer queue.Close()
		payments = service.NewPaymentService(redisClient, queue, cfg, log)
	}

	sessions := session.NewManager(sessionStorage, session.Config{
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     !cfg.IsDevelopment(),
	})
	gate := auth.NewGate(cfg.JWTSecret, log)

	clientOpts := []apiclient.Option{
		apiclient.WithTimeout(cfg.BackendTimeout),
		apiclient.WithLogger(log),
	}
	client := apiclient.New(cfg.BackendBaseURL, nil, clientOpts...)

	// A 401 on any report call also drops the session's mounted screens.
	var screens *service.ScreenRegistry
	backends := func(sessionID string) service.ReportBackend {
		opts := append(append([]apiclient.Option(nil), clientOpts...), apiclient.WithUnauthorizedHook(func(ctx context.Context) {
			screens.EvictSession(sessionID)
		}))
		return repository.NewReportRepository(apiclient.New(cfg.BackendBaseURL, sessions.For(sessionID), opts...))
	}
	screens = service.NewScreenRegistry(backends, guard, cfg.ExportFormats, log)

	sweeper := scheduler.NewSweeper(screens, cfg.SweepSchedule, cfg.ScreenIdleTTL, sessions)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start screen sweeper: %v", err)
	}
	defer sweeper.Stop()

	// Initialize template engine
	engine := html.New("./views", ".html")
	engine.Reload(cfg.IsDevelopment())

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		Views:        engine,
		ErrorHandler: handler.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AppURL,
		AllowHeaders: "Origin, Content-Type, Accept, X-Requested-With",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Static files
	app.Static("/static", "./public")

	// Setup routes
	router.Setup(app, router.Dependencies{
		Config:   cfg,
		Sessions: sessions,
		Gate:     gate,
		Client:   client,
		Screens:  screens,
		Payments: payments,
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := fmt.Sprintf(":%s", cfg.AppPort)
	log.Infof("Server starting on %s", port)
	if err := app.Listen(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Info("Server exited")
}
