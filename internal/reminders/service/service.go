// Package service implements the appointment reminder sweep.
package service

import (
	"context"
	"fmt"
	"time"

	"dispatch_backend/internal/events"
	"dispatch_backend/internal/reminders/repository"
	"dispatch_backend/platform/config"
	"dispatch_backend/platform/logger"
	"dispatch_backend/platform/phone"

	"github.com/google/uuid"
)

// ReminderStore is the slice of the repository the sweep needs.
type ReminderStore interface {
	ListDue(ctx context.Context, windowStart, windowEnd time.Time) ([]repository.DueReminder, error)
	MarkReminderSent(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}

// ReminderSender delivers the reminder email.
type ReminderSender interface {
	SendAppointmentReminder(ctx context.Context, toEmail, teamName, jobTitle, appointmentTime, companyPhone string) error
}

// Result summarizes one sweep run. Failed reminders stay unflagged and
// are retried on the next sweep.
type Result struct {
	Sent    int
	Failed  int
	Skipped int
	Errors  []error
}

// Service runs the reminder sweep.
type Service struct {
	store  ReminderStore
	sender ReminderSender
	bus    events.Bus
	cfg    config.DispatchConfig
	log    *logger.Logger
	tz     *time.Location
}

// New creates a new reminders service.
func New(store ReminderStore, sender ReminderSender, bus events.Bus, cfg config.DispatchConfig, log *logger.Logger) *Service {
	tz, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		tz = time.UTC
	}
	return &Service{
		store:  store,
		sender: sender,
		bus:    bus,
		cfg:    cfg,
		log:    log,
		tz:     tz,
	}
}

// SendDueReminders processes every appointment whose start time falls in
// [now+lead, now+lead+window). One bad row never aborts the sweep: rows
// that cannot be emailed are skipped, delivery failures are counted and
// retried next run.
func (s *Service) SendDueReminders(ctx context.Context, now time.Time) (Result, error) {
	windowStart := now.Add(s.cfg.GetReminderLeadTime())
	windowEnd := windowStart.Add(s.cfg.GetReminderWindow())

	due, err := s.store.ListDue(ctx, windowStart, windowEnd)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, item := range due {
		if item.CustomerEmail == nil || *item.CustomerEmail == "" {
			result.Skipped++
			continue
		}
		if item.TeamName == "" || item.JobTitle == "" {
			result.Skipped++
			continue
		}

		companyPhone := phone.NormalizeE164(item.CompanyPhone, s.cfg.GetPhoneRegion())
		appointmentTime := item.StartTime.In(s.tz).Format("02-01-2006 om 15:04")

		if err := s.sender.SendAppointmentReminder(ctx, *item.CustomerEmail, item.TeamName, item.JobTitle, appointmentTime, companyPhone); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("appointment %s: %w", item.AppointmentID, err))
			continue
		}

		marked, err := s.store.MarkReminderSent(ctx, item.AppointmentID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("appointment %s: %w", item.AppointmentID, err))
			continue
		}
		if !marked {
			// A concurrent sweep got here first.
			result.Skipped++
			continue
		}

		result.Sent++
		s.bus.Publish(ctx, events.AppointmentReminderSent{
			BaseEvent:     events.NewBaseEvent(),
			AppointmentID: item.AppointmentID,
			TeamID:        item.TeamID,
			JobID:         item.JobID,
			StartTime:     item.StartTime,
		})
	}

	s.log.SweepResult("reminders", result.Sent, result.Failed, result.Skipped)
	return result, nil
}
