package scheduler

import (
	"context"
	"fmt"
	"time"

	"dispatch_backend/platform/config"
	"dispatch_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultSweepInterval = time.Minute

// SweepDispatcher enqueues the periodic hold expiry and reminder sweep
// tasks. It only produces work; the Worker consumes it, so API and
// worker deployments can scale independently.
type SweepDispatcher struct {
	client   *asynq.Client
	queue    string
	interval time.Duration
	log      *logger.Logger
}

func NewSweepDispatcher(cfg config.SchedulerConfig, log *logger.Logger) (*SweepDispatcher, error) {
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

	interval := cfg.GetSweepInterval()
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &SweepDispatcher{
		client:   asynq.NewClient(opt),
		queue:    queue,
		interval: interval,
		log:      log,
	}, nil
}

func (d *SweepDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *SweepDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	d.enqueueSweeps(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.enqueueSweeps(ctx)
		}
	}
}

func (d *SweepDispatcher) enqueueSweeps(ctx context.Context) {
	now := time.Now()

	if err := d.enqueue(ctx, TaskExpireHolds, now); err != nil {
		d.log.Warn("failed to enqueue hold expiry sweep", "error", err)
	}
	if err := d.enqueue(ctx, TaskReminderSweep, now); err != nil {
		d.log.Warn("failed to enqueue reminder sweep", "error", err)
	}
}

func (d *SweepDispatcher) enqueue(ctx context.Context, taskType string, now time.Time) error {
	var task *asynq.Task
	var err error

	switch taskType {
	case TaskExpireHolds:
		task, err = NewExpireHoldsTask(SweepPayload{ScheduledFor: now})
	case TaskReminderSweep:
		task, err = NewReminderSweepTask(SweepPayload{ScheduledFor: now})
	default:
		return fmt.Errorf("unknown sweep task %q", taskType)
	}
	if err != nil {
		return err
	}

	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue))
	return err
}
