package worker

import (
	"context"

	"workshop-web/internal/config"
	"workshop-web/internal/utils"

	"github.com/hibiken/asynq"
)

// RedisOpt is the asynq connection shared by the web client and the worker.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.AsynqRedisAddr,
		Password: cfg.AsynqRedisPassword,
		DB:       cfg.AsynqRedisDB,
	}
}

func NewServer(cfg *config.Config) *asynq.Server {
	logger := utils.Component("worker")

	return asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.WithError(err).WithField("task", task.Type()).Error("Task failed")
		}),
	})
}
