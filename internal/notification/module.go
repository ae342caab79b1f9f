// Package notification sends customer email in response to domain events.
// It subscribes to the event bus so the dispatch module never needs to
// know about email providers or templates.
package notification

import (
	"context"
	"time"

	"dispatch_backend/internal/dispatch/repository"
	"dispatch_backend/internal/events"
	notifrepo "dispatch_backend/internal/notification/repository"
	"dispatch_backend/platform/logger"

	"github.com/google/uuid"
)

// ConfirmationStore resolves the email fields for an appointment.
type ConfirmationStore interface {
	GetConfirmationDetails(ctx context.Context, appointmentID uuid.UUID) (*notifrepo.ConfirmationDetails, error)
}

// ConfirmationSender delivers the confirmation email.
type ConfirmationSender interface {
	SendAppointmentConfirmation(ctx context.Context, toEmail, teamName, jobTitle, appointmentTime, address string) error
}

// Module handles notification event subscriptions.
type Module struct {
	store  ConfirmationStore
	sender ConfirmationSender
	log    *logger.Logger
	tz     *time.Location
}

// New creates a new notification module.
func New(store ConfirmationStore, sender ConfirmationSender, log *logger.Logger) *Module {
	tz, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		tz = time.UTC
	}
	return &Module{
		store:  store,
		sender: sender,
		log:    log,
		tz:     tz,
	}
}

// RegisterHandlers subscribes to the appointment events on the bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.AppointmentCreated{}.EventName(), m)
	bus.Subscribe(events.AppointmentStatusChanged{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.AppointmentCreated:
		if e.Status != repository.StatusConfirmed {
			return nil
		}
		return m.sendConfirmation(ctx, e.AppointmentID)
	case events.AppointmentStatusChanged:
		if e.NewStatus != repository.StatusConfirmed {
			return nil
		}
		return m.sendConfirmation(ctx, e.AppointmentID)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) sendConfirmation(ctx context.Context, appointmentID uuid.UUID) error {
	details, err := m.store.GetConfirmationDetails(ctx, appointmentID)
	if err != nil {
		m.log.Error("failed to resolve confirmation details",
			"appointmentId", appointmentID,
			"error", err,
		)
		return err
	}

	if details.CustomerEmail == nil || *details.CustomerEmail == "" {
		m.log.Debug("appointment has no customer email; confirmation skipped", "appointmentId", appointmentID)
		return nil
	}

	appointmentTime := details.StartTime.In(m.tz).Format("02-01-2006 om 15:04")
	if err := m.sender.SendAppointmentConfirmation(ctx, *details.CustomerEmail, details.TeamName, details.JobTitle, appointmentTime, details.JobAddress); err != nil {
		m.log.Error("failed to send confirmation email",
			"appointmentId", appointmentID,
			"error", err,
		)
		return err
	}

	m.log.Info("confirmation email sent", "appointmentId", appointmentID)
	return nil
}
