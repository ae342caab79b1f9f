package scheduler

import (
	"context"
	"fmt"
	"time"

	remsvc "dispatch_backend/internal/reminders/service"
	"dispatch_backend/platform/config"
	"dispatch_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// HoldExpirer releases lapsed tentative holds.
type HoldExpirer interface {
	ExpireStaleHolds(ctx context.Context, now time.Time) (int, error)
}

// ReminderSweeper sends due appointment reminders.
type ReminderSweeper interface {
	SendDueReminders(ctx context.Context, now time.Time) (remsvc.Result, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	holds     HoldExpirer
	reminders ReminderSweeper
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, holds HoldExpirer, reminders ReminderSweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		holds:     holds,
		reminders: reminders,
		log:       log,
	}

	mux.HandleFunc(TaskExpireHolds, w.handleExpireHolds)
	mux.HandleFunc(TaskReminderSweep, w.handleReminderSweep)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleExpireHolds(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSweepPayload(task)
	if err != nil {
		return err
	}

	now := payload.ScheduledFor
	if now.IsZero() {
		now = time.Now()
	}

	expired, err := w.holds.ExpireStaleHolds(ctx, now)
	if err != nil {
		return err
	}
	if expired > 0 {
		w.log.Info("expired stale holds", "count", expired)
	}
	return nil
}

func (w *Worker) handleReminderSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSweepPayload(task)
	if err != nil {
		return err
	}

	now := payload.ScheduledFor
	if now.IsZero() {
		now = time.Now()
	}

	result, err := w.reminders.SendDueReminders(ctx, now)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		// Failed reminders stay unflagged; asynq retries the whole sweep
		// and the guard on reminder_sent keeps delivered ones idempotent.
		return fmt.Errorf("reminder sweep: %d of %d deliveries failed", result.Failed, result.Sent+result.Failed)
	}
	return nil
}
