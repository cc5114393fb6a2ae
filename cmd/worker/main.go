package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/roadassist/portal/internal/app"
	"github.com/roadassist/portal/internal/backend"
	"github.com/roadassist/portal/internal/directory"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/observability"
	"github.com/roadassist/portal/internal/platform/cache"
	"github.com/roadassist/portal/internal/platform/db"
	"github.com/roadassist/portal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Fail fast when Redis never answers.
	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisWait)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	if err := redisClient.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}

	var revoker jobs.Revoker = backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, metrics)
	var cron []jobs.CronRegistration
	handlers := []jobs.TaskHandler{}

	if cfg.DirectoryMode() {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()

		svc := directory.NewService(directory.NewRepository(pool), identity.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), logger)
		revoker = svc

		purgeJob := jobs.NewSessionPurgeJob(svc, logger, metrics)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskSessionPurge, Handler: purgeJob.Handle})

		purgeTask, err := jobs.NewSessionPurgeTask(time.Now())
		if err != nil {
			logger.Error("build session purge task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.SessionPurgeCron, Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	logoutJob := jobs.NewLogoutNotifyJob(revoker, logger, metrics)
	handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskLogoutNotify, Handler: logoutJob.Handle})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("auth_mode", cfg.AuthMode), slog.Int("cron_entries", len(cron)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
