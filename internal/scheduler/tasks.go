package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskExpireHolds = "dispatch.holds.expire"

const TaskReminderSweep = "dispatch.reminders.sweep"

// SweepPayload pins the sweep to the moment it was scheduled, so a task
// that sits in the queue is evaluated against its intended reference time.
type SweepPayload struct {
	ScheduledFor time.Time `json:"scheduledFor"`
}

func NewExpireHoldsTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpireHolds, data), nil
}

func NewReminderSweepTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReminderSweep, data), nil
}

func ParseSweepPayload(task *asynq.Task) (SweepPayload, error) {
	var payload SweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SweepPayload{}, err
	}
	return payload, nil
}
