// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"dispatch_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Dispatch Domain Events
// =============================================================================

// AppointmentCreated is published when an appointment is persisted after
// passing slot validation.
type AppointmentCreated struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	TeamID        uuid.UUID `json:"teamId"`
	JobID         uuid.UUID `json:"jobId"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

func (e AppointmentCreated) EventName() string { return "dispatch.appointment.created" }

// AppointmentStatusChanged is published on any lifecycle transition.
type AppointmentStatusChanged struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	TeamID        uuid.UUID `json:"teamId"`
	JobID         uuid.UUID `json:"jobId"`
	OldStatus     string    `json:"oldStatus"`
	NewStatus     string    `json:"newStatus"`
}

func (e AppointmentStatusChanged) EventName() string { return "dispatch.appointment.status_changed" }

// JobScheduled is published when a pending job advances to scheduled.
type JobScheduled struct {
	BaseEvent
	JobID         uuid.UUID `json:"jobId"`
	TeamID        uuid.UUID `json:"teamId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
}

func (e JobScheduled) EventName() string { return "dispatch.job.scheduled" }

// AppointmentReminderSent is published after a reminder email was dispatched
// and the appointment was marked as reminded.
type AppointmentReminderSent struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	TeamID        uuid.UUID `json:"teamId"`
	JobID         uuid.UUID `json:"jobId"`
	StartTime     time.Time `json:"startTime"`
}

func (e AppointmentReminderSent) EventName() string { return "dispatch.appointment.reminder_sent" }
