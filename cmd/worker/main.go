package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/turbovets/taskboard/internal/app"
	"github.com/turbovets/taskboard/internal/platform/cache"
	"github.com/turbovets/taskboard/internal/platform/db"
	"github.com/turbovets/taskboard/internal/tasks"
	"github.com/turbovets/taskboard/internal/users"
	"github.com/turbovets/taskboard/jobs"
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
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	flag.Parse()
	switch flag.Arg(0) {
	case "", "run":
	case "trigger":
		if err := trigger(ctx, redisOpts, cfg, flag.Arg(1)); err != nil {
			logger.Error("trigger job", slog.Any("error", err))
			os.Exit(1)
		}
		return
	case "stats":
		if err := stats(redisOpts); err != nil {
			logger.Error("queue stats", slog.Any("error", err))
			os.Exit(1)
		}
		return
	default:
		fmt.Fprintf(os.Stderr, "usage: worker [run | trigger %s | stats]\n", jobs.TaskTypeDueReminder)
		os.Exit(2)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	notifier := jobs.LogNotifier{Logger: logger}
	usersService := users.NewService(users.NewRepository(pool))
	assignedJob := jobs.NewTaskAssignedJob(usersService, notifier, logger, nil)
	reminderJob := jobs.NewDueReminderJob(tasks.NewPGStore(pool), notifier, logger, nil)
	reminderJob.Ledger = jobs.NewRedisReminderLedger(redisClient)

	reminderTask, err := jobs.NewDueReminderTask(cfg.DueReminderWindow)
	if err != nil {
		logger.Error("build reminder task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeTaskAssigned, Handler: assignedJob.Handle},
			{Type: jobs.TaskTypeDueReminder, Handler: reminderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.DueReminderCron, Task: reminderTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func trigger(ctx context.Context, opts asynq.RedisClientOpt, cfg *app.Config, name string) error {
	cli := newJobsCLI(opts)
	defer cli.Close()
	info, err := cli.Trigger(ctx, name, cfg.DueReminderWindow)
	if err != nil {
		return err
	}
	fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return nil
}

func stats(opts asynq.RedisClientOpt) error {
	cli := newJobsCLI(opts)
	defer cli.Close()
	s, err := cli.InspectQueue()
	if err != nil {
		return err
	}
	fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
		s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
	return nil
}
