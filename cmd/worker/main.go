package main

import (
	"workshop-web/internal/apiclient"
	"workshop-web/internal/config"
	"workshop-web/internal/database"
	"workshop-web/internal/service"
	"workshop-web/internal/utils"
	"workshop-web/internal/worker"

	"github.com/hibiken/asynq"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Redis
	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Polls re-enqueue themselves through the same broker.
	queue := asynq.NewClient(worker.RedisOpt(cfg))
	defer queue.Close()

	payments := service.NewPaymentService(redisClient, queue, cfg, log)
	client := apiclient.New(cfg.BackendBaseURL, nil,
		apiclient.WithTimeout(cfg.BackendTimeout),
		apiclient.WithLogger(log),
	)

	srv := worker.NewServer(cfg)

	// Register task handlers
	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, payments, client)

	// Run blocks until SIGINT or SIGTERM, then drains in-flight tasks.
	log.Infof("Worker starting with concurrency: %d", cfg.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Info("Worker exited")
}
