// Package service implements the dispatch booking flow.
package service

import (
	"context"
	"fmt"
	"time"

	"dispatch_backend/internal/dispatch/repository"
	"dispatch_backend/internal/dispatch/transport"
	"dispatch_backend/internal/events"
	"dispatch_backend/internal/routing"
	"dispatch_backend/platform/apperr"
	"dispatch_backend/platform/config"
	"dispatch_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// neighborWindow bounds how far around a candidate slot existing bookings
// are loaded for travel feasibility checks.
const neighborWindow = 24 * time.Hour

// PresetResolver maps preset IDs to their durations in minutes.
type PresetResolver interface {
	GetDurations(ctx context.Context, teamID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error)
	GetDurationsByName(ctx context.Context, teamID uuid.UUID, names []string) (map[string]int, error)
}

// TechnicianDirectory checks technician team membership.
type TechnicianDirectory interface {
	IsTechnicianOnTeam(ctx context.Context, teamID, technicianID uuid.UUID) (bool, error)
}

// JobScheduler advances a job out of the pending status.
type JobScheduler interface {
	MarkScheduledIfPending(ctx context.Context, teamID, jobID uuid.UUID) (bool, error)
}

// Store is the appointment persistence surface the booking flow needs.
// Satisfied by *repository.Repository.
type Store interface {
	GetJobForScheduling(ctx context.Context, teamID, jobID uuid.UUID) (*repository.JobForScheduling, error)
	WithTechnicianLock(ctx context.Context, technicianID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx) error) error
	ListBookedSlotsTx(ctx context.Context, tx pgx.Tx, technicianID uuid.UUID, windowStart, windowEnd time.Time) ([]repository.BookedSlot, error)
	ListBookedSlots(ctx context.Context, technicianID uuid.UUID, windowStart, windowEnd time.Time) ([]repository.BookedSlot, error)
	CreateTx(ctx context.Context, tx pgx.Tx, appt repository.Appointment) (*repository.Appointment, error)
	GetByID(ctx context.Context, teamID, id uuid.UUID) (*repository.Appointment, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Appointment, error)
	TransitionStatus(ctx context.Context, teamID, id uuid.UUID, fromStatuses []string, to string) (*repository.Appointment, string, error)
	ExpireStaleHolds(ctx context.Context, now time.Time) ([]repository.Appointment, error)
}

// Service coordinates appointment booking, lifecycle and hold expiry.
type Service struct {
	repo        Store
	presets     PresetResolver
	technicians TechnicianDirectory
	jobs        JobScheduler
	travel      TravelTimer
	bus         events.Bus
	cfg         config.DispatchConfig
	log         *logger.Logger
	now         func() time.Time
}

// New creates a new dispatch service.
func New(
	repo Store,
	presets PresetResolver,
	technicians TechnicianDirectory,
	jobs JobScheduler,
	travel TravelTimer,
	bus events.Bus,
	cfg config.DispatchConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		presets:     presets,
		technicians: technicians,
		jobs:        jobs,
		travel:      travel,
		bus:         bus,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// EstimateForJob computes the recommended slot length for a job.
func (s *Service) EstimateForJob(ctx context.Context, teamID, jobID uuid.UUID) (*transport.EstimateDurationResponse, error) {
	job, err := s.repo.GetJobForScheduling(ctx, teamID, jobID)
	if err != nil {
		return nil, err
	}

	estimate, err := s.estimateForJob(ctx, teamID, job)
	if err != nil {
		return nil, err
	}

	return toEstimateResponse(estimate), nil
}

func (s *Service) estimateForJob(ctx context.Context, teamID uuid.UUID, job *repository.JobForScheduling) (DurationEstimate, error) {
	presetIDs := make([]uuid.UUID, 0, len(job.LineItems))
	for _, item := range job.LineItems {
		if item.PresetID != nil {
			presetIDs = append(presetIDs, *item.PresetID)
		}
	}

	durations, err := s.presets.GetDurations(ctx, teamID, presetIDs)
	if err != nil {
		return DurationEstimate{}, err
	}

	// Items without a resolvable preset get a second chance through a
	// case-insensitive match of their description against preset names.
	var unresolved []string
	for _, item := range job.LineItems {
		if item.PresetID != nil {
			if _, ok := durations[*item.PresetID]; ok {
				continue
			}
		}
		if item.Description != "" {
			unresolved = append(unresolved, item.Description)
		}
	}
	labels, err := s.presets.GetDurationsByName(ctx, teamID, unresolved)
	if err != nil {
		return DurationEstimate{}, err
	}

	return EstimateDuration(job.LineItems, durations, labels, s.cfg.GetDefaultBufferMinutes()), nil
}

// Create books an appointment for a job. The slot is validated against
// the technician's calendar while holding the technician lock, so two
// concurrent bookings for the same technician cannot both pass.
func (s *Service) Create(ctx context.Context, teamID uuid.UUID, createdBy *uuid.UUID, req transport.CreateAppointmentRequest) (*transport.AppointmentResponse, error) {
	now := s.now()

	job, err := s.repo.GetJobForScheduling(ctx, teamID, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status == "canceled" || job.Status == "completed" {
		return nil, apperr.InvalidState(fmt.Sprintf("job is %s", job.Status))
	}

	onTeam, err := s.technicians.IsTechnicianOnTeam(ctx, teamID, req.TechnicianID)
	if err != nil {
		return nil, err
	}
	if !onTeam {
		return nil, apperr.Forbidden("technician is not an active member of this team")
	}

	endTime := req.StartTime
	if req.EndTime != nil {
		endTime = *req.EndTime
	} else {
		estimate, err := s.estimateForJob(ctx, teamID, job)
		if err != nil {
			return nil, err
		}
		endTime = req.StartTime.Add(estimate.Duration())
	}

	candidate := CandidateSlot{
		Start: req.StartTime,
		End:   endTime,
		Site:  jobLocation(job),
	}

	appt := repository.Appointment{
		ID:           uuid.New(),
		TeamID:       teamID,
		JobID:        req.JobID,
		TechnicianID: req.TechnicianID,
		StartTime:    req.StartTime,
		EndTime:      endTime,
		Status:       repository.StatusTentative,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
	}
	if req.Confirmed {
		appt.Status = repository.StatusConfirmed
	} else {
		holdExpiry := now.Add(s.cfg.GetHoldTTL())
		appt.HoldExpiresAt = &holdExpiry
	}

	var saved *repository.Appointment
	err = s.repo.WithTechnicianLock(ctx, req.TechnicianID, func(ctx context.Context, tx pgx.Tx) error {
		booked, err := s.repo.ListBookedSlotsTx(ctx, tx, req.TechnicianID, candidate.Start.Add(-neighborWindow), candidate.End.Add(neighborWindow))
		if err != nil {
			return err
		}

		result := ValidateSlot(ctx, s.travel, candidate, booked)
		if !result.OK {
			return validationError(result)
		}

		saved, err = s.repo.CreateTx(ctx, tx, appt)
		return err
	})
	if err != nil {
		return nil, err
	}

	if flipped, err := s.jobs.MarkScheduledIfPending(ctx, teamID, req.JobID); err != nil {
		s.log.Error("failed to mark job scheduled", "jobId", req.JobID, "error", err)
	} else if flipped {
		s.bus.Publish(ctx, events.JobScheduled{
			BaseEvent:     events.NewBaseEvent(),
			JobID:         req.JobID,
			TeamID:        teamID,
			AppointmentID: saved.ID,
		})
	}

	s.bus.Publish(ctx, events.AppointmentCreated{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: saved.ID,
		TeamID:        teamID,
		JobID:         saved.JobID,
		TechnicianID:  saved.TechnicianID,
		Status:        saved.Status,
		StartTime:     saved.StartTime,
		EndTime:       saved.EndTime,
	})

	return toResponse(saved), nil
}

// ValidateCandidate checks a slot without booking it. Used by the dry-run
// endpoint so planners can try a calendar before committing.
func (s *Service) ValidateCandidate(ctx context.Context, teamID, jobID, technicianID uuid.UUID, start, end time.Time) (ValidationResult, error) {
	job, err := s.repo.GetJobForScheduling(ctx, teamID, jobID)
	if err != nil {
		return ValidationResult{}, err
	}

	booked, err := s.repo.ListBookedSlots(ctx, technicianID, start.Add(-neighborWindow), end.Add(neighborWindow))
	if err != nil {
		return ValidationResult{}, err
	}

	candidate := CandidateSlot{Start: start, End: end, Site: jobLocation(job)}
	return ValidateSlot(ctx, s.travel, candidate, booked), nil
}

// Confirm promotes a tentative appointment and releases its hold.
func (s *Service) Confirm(ctx context.Context, teamID, id uuid.UUID) (*transport.AppointmentResponse, error) {
	return s.transition(ctx, teamID, id, []string{repository.StatusTentative}, repository.StatusConfirmed)
}

// Cancel cancels a tentative or confirmed appointment.
func (s *Service) Cancel(ctx context.Context, teamID, id uuid.UUID) (*transport.AppointmentResponse, error) {
	return s.transition(ctx, teamID, id, []string{repository.StatusTentative, repository.StatusConfirmed}, repository.StatusCanceled)
}

// Complete marks a confirmed appointment as completed.
func (s *Service) Complete(ctx context.Context, teamID, id uuid.UUID) (*transport.AppointmentResponse, error) {
	return s.transition(ctx, teamID, id, []string{repository.StatusConfirmed}, repository.StatusCompleted)
}

func (s *Service) transition(ctx context.Context, teamID, id uuid.UUID, from []string, to string) (*transport.AppointmentResponse, error) {
	saved, prevStatus, err := s.repo.TransitionStatus(ctx, teamID, id, from, to)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.AppointmentStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: saved.ID,
		TeamID:        teamID,
		JobID:         saved.JobID,
		OldStatus:     prevStatus,
		NewStatus:     to,
	})

	return toResponse(saved), nil
}

// GetByID returns an appointment.
func (s *Service) GetByID(ctx context.Context, teamID, id uuid.UUID) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	return toResponse(appt), nil
}

// List returns appointments matching the filters.
func (s *Service) List(ctx context.Context, teamID uuid.UUID, req transport.ListAppointmentsRequest) (*transport.AppointmentListResponse, error) {
	items, err := s.repo.List(ctx, repository.ListParams{
		TeamID:       teamID,
		TechnicianID: req.TechnicianID,
		JobID:        req.JobID,
		From:         req.From,
		To:           req.To,
		Status:       req.Status,
	})
	if err != nil {
		return nil, err
	}

	out := make([]transport.AppointmentResponse, 0, len(items))
	for i := range items {
		out = append(out, *toResponse(&items[i]))
	}
	return &transport.AppointmentListResponse{Items: out, Total: len(out)}, nil
}

// ExpireStaleHolds cancels tentative appointments whose hold lapsed.
// Returns the number of holds released.
func (s *Service) ExpireStaleHolds(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ExpireStaleHolds(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, appt := range expired {
		s.bus.Publish(ctx, events.AppointmentStatusChanged{
			BaseEvent:     events.NewBaseEvent(),
			AppointmentID: appt.ID,
			TeamID:        appt.TeamID,
			JobID:         appt.JobID,
			OldStatus:     repository.StatusTentative,
			NewStatus:     repository.StatusCanceled,
		})
	}

	return len(expired), nil
}

// WithClock overrides the time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func validationError(result ValidationResult) error {
	switch result.Reason {
	case ReasonInvalidWindow:
		return apperr.Validation(result.Detail).WithDetails(map[string]string{"reason": result.Reason})
	case ReasonTimeConflict:
		details := map[string]string{"reason": result.Reason}
		if result.ConflictingID != uuid.Nil {
			details["conflictingAppointmentId"] = result.ConflictingID.String()
		}
		return apperr.Conflict(result.Detail).WithDetails(details)
	default:
		return apperr.Internal("slot validation failed")
	}
}

func jobLocation(job *repository.JobForScheduling) *routing.Location {
	if job.Lat == nil || job.Lng == nil {
		return nil
	}
	return &routing.Location{Lat: *job.Lat, Lng: *job.Lng}
}

func toEstimateResponse(e DurationEstimate) *transport.EstimateDurationResponse {
	items := make([]transport.LineItemEstimateResponse, 0, len(e.Items))
	for _, item := range e.Items {
		items = append(items, transport.LineItemEstimateResponse{
			LineItemID:     item.LineItemID,
			Description:    item.Description,
			Minutes:        item.Minutes,
			DefaultApplied: item.DefaultApplied,
		})
	}
	return &transport.EstimateDurationResponse{
		TotalMinutes:  e.TotalMinutes,
		WorkMinutes:   e.WorkMinutes,
		BufferMinutes: e.BufferMinutes,
		Items:         items,
	}
}

func toResponse(a *repository.Appointment) *transport.AppointmentResponse {
	return &transport.AppointmentResponse{
		ID:            a.ID,
		JobID:         a.JobID,
		TechnicianID:  a.TechnicianID,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Status:        a.Status,
		HoldExpiresAt: a.HoldExpiresAt,
		ReminderSent:  a.ReminderSent,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
