// Package transport defines request and response DTOs for the dispatch API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateAppointmentRequest books a visit slot for a job. When EndTime is
// omitted the slot length comes from the job's duration estimate.
type CreateAppointmentRequest struct {
	JobID        uuid.UUID  `json:"jobId" validate:"required"`
	TechnicianID uuid.UUID  `json:"technicianId" validate:"required"`
	StartTime    time.Time  `json:"startTime" validate:"required"`
	EndTime      *time.Time `json:"endTime" validate:"omitempty"`
	Confirmed    bool       `json:"confirmed"`
	Notes        string     `json:"notes" validate:"omitempty,max=2000"`
}

// ListAppointmentsRequest filters the appointment listing.
type ListAppointmentsRequest struct {
	TechnicianID *uuid.UUID `form:"technicianId" validate:"omitempty"`
	JobID        *uuid.UUID `form:"jobId" validate:"omitempty"`
	From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00" validate:"omitempty"`
	To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00" validate:"omitempty"`
	Status       string     `form:"status" validate:"omitempty,oneof=tentative confirmed canceled completed"`
}

// ValidateSlotRequest asks whether a candidate slot could be booked,
// without booking it.
type ValidateSlotRequest struct {
	JobID        uuid.UUID `json:"jobId" validate:"required"`
	TechnicianID uuid.UUID `json:"technicianId" validate:"required"`
	StartTime    time.Time `json:"startTime" validate:"required"`
	EndTime      time.Time `json:"endTime" validate:"required"`
}

// ValidateSlotResponse reports the dry-run validation outcome.
type ValidateSlotResponse struct {
	Valid                    bool       `json:"valid"`
	Reason                   string     `json:"reason,omitempty"`
	Detail                   string     `json:"detail,omitempty"`
	ConflictingAppointmentID *uuid.UUID `json:"conflictingAppointmentId,omitempty"`
}

// EstimateDurationRequest asks for a duration estimate for a job.
type EstimateDurationRequest struct {
	JobID uuid.UUID `json:"jobId" validate:"required"`
}

// LineItemEstimateResponse is the per-item breakdown of an estimate.
type LineItemEstimateResponse struct {
	LineItemID     uuid.UUID `json:"lineItemId"`
	Description    string    `json:"description"`
	Minutes        int       `json:"minutes"`
	DefaultApplied bool      `json:"defaultApplied"`
}

// EstimateDurationResponse is the total slot length for a job.
type EstimateDurationResponse struct {
	TotalMinutes  int                        `json:"totalMinutes"`
	WorkMinutes   int                        `json:"workMinutes"`
	BufferMinutes int                        `json:"bufferMinutes"`
	Items         []LineItemEstimateResponse `json:"items"`
}

// AppointmentResponse is the API representation of an appointment.
type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	JobID         uuid.UUID  `json:"jobId"`
	TechnicianID  uuid.UUID  `json:"technicianId"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	Status        string     `json:"status"`
	HoldExpiresAt *time.Time `json:"holdExpiresAt,omitempty"`
	ReminderSent  bool       `json:"reminderSent"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// AppointmentListResponse wraps an appointment listing.
type AppointmentListResponse struct {
	Items []AppointmentResponse `json:"items"`
	Total int                   `json:"total"`
}
