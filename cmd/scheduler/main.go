package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch_backend/internal/catalog"
	"dispatch_backend/internal/dispatch"
	"dispatch_backend/internal/email"
	"dispatch_backend/internal/events"
	"dispatch_backend/internal/jobs"
	remrepo "dispatch_backend/internal/reminders/repository"
	remsvc "dispatch_backend/internal/reminders/service"
	"dispatch_backend/internal/routing"
	"dispatch_backend/internal/scheduler"
	"dispatch_backend/internal/teams"
	"dispatch_backend/platform/config"
	"dispatch_backend/platform/db"
	"dispatch_backend/platform/logger"
	"dispatch_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	sender := email.NewSender(cfg)

	var redisClient *redis.Client
	if cfg.GetRedisURL() != "" {
		if opts, err := redis.ParseURL(cfg.GetRedisURL()); err == nil {
			redisClient = redis.NewClient(opts)
			defer func() { _ = redisClient.Close() }()
		}
	}

	// Worker-side dispatch wiring (no HTTP handlers required).
	teamsModule := teams.NewModule(pool)
	catalogModule := catalog.NewModule(pool, val)
	routingModule := routing.NewModule(cfg, redisClient, log)
	jobsModule := jobs.NewModule(pool, val, routingModule.Service, log)

	dispatchModule := dispatch.NewModule(
		pool,
		val,
		catalogModule.Service,
		teamsModule.Repository,
		jobsModule.Service,
		routingModule.Service,
		eventBus,
		cfg,
		log,
	)

	remindersService := remsvc.New(remrepo.New(pool), sender, eventBus, cfg, log)

	dispatcher, err := scheduler.NewSweepDispatcher(cfg, log)
	if err != nil {
		log.Error("failed to initialize sweep dispatcher", "error", err)
		panic("failed to initialize sweep dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()

	worker, err := scheduler.NewWorker(cfg, dispatchModule.Service, remindersService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
