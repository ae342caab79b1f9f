// Package repository provides data access for appointments.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Appointment statuses.
const (
	StatusTentative = "tentative"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
	StatusCompleted = "completed"
)

// Appointment is a booked visit slot for a technician.
type Appointment struct {
	ID            uuid.UUID
	TeamID        uuid.UUID
	JobID         uuid.UUID
	TechnicianID  uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	HoldExpiresAt *time.Time
	ReminderSent  bool
	Notes         string
	CreatedBy     *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookedSlot is an existing appointment together with its job site
// coordinates, as needed for travel feasibility checks.
type BookedSlot struct {
	AppointmentID uuid.UUID
	JobID         uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	SiteLat       *float64
	SiteLng       *float64
}

// JobForScheduling is the slice of a job the dispatch flow needs.
type JobForScheduling struct {
	ID        uuid.UUID
	Title     string
	Status    string
	Address   string
	Lat       *float64
	Lng       *float64
	LineItems []JobLineItem
}

// JobLineItem is a line item as read for duration estimation.
type JobLineItem struct {
	ID          uuid.UUID
	Description string
	Quantity    int
	PresetID    *uuid.UUID
}

// ListParams filters appointment listings.
type ListParams struct {
	TeamID       uuid.UUID
	TechnicianID *uuid.UUID
	JobID        *uuid.UUID
	From         *time.Time
	To           *time.Time
	Status       string
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so reads can run
// inside or outside the booking transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides access to appointment records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new dispatch repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const appointmentColumns = `id, team_id, job_id, technician_id, start_time, end_time,
	status, hold_expires_at, reminder_sent, notes, created_by, created_at, updated_at`

// WithTechnicianLock runs fn inside a transaction that holds an advisory
// lock on the technician. Concurrent bookings for the same technician
// serialize here, so a validation done inside fn cannot be invalidated
// by a competing insert before fn commits.
func (r *Repository) WithTechnicianLock(ctx context.Context, technicianID uuid.UUID, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, technicianID); err != nil {
		return fmt.Errorf("failed to acquire technician lock: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

// CreateTx inserts an appointment inside the booking transaction. The
// exclusion constraint on overlapping slots backstops validation, so a
// constraint violation surfaces as a conflict rather than an internal error.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, appt Appointment) (*Appointment, error) {
	query := `
		INSERT INTO appointments
			(id, team_id, job_id, technician_id, start_time, end_time, status, hold_expires_at, notes, created_by)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + appointmentColumns

	var saved Appointment
	err := tx.QueryRow(ctx, query,
		appt.ID,
		appt.TeamID,
		appt.JobID,
		appt.TechnicianID,
		appt.StartTime,
		appt.EndTime,
		appt.Status,
		appt.HoldExpiresAt,
		appt.Notes,
		appt.CreatedBy,
	).Scan(
		&saved.ID,
		&saved.TeamID,
		&saved.JobID,
		&saved.TechnicianID,
		&saved.StartTime,
		&saved.EndTime,
		&saved.Status,
		&saved.HoldExpiresAt,
		&saved.ReminderSent,
		&saved.Notes,
		&saved.CreatedBy,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == "23P01":
				return nil, apperr.Conflict("technician already has an appointment in this window")
			case pgErr.Code == "23505" && pgErr.ConstraintName == "appointments_one_active_per_job":
				return nil, apperr.Conflict("job already has an active appointment")
			}
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	return &saved, nil
}

// ListBookedSlotsTx returns the technician's active slots around a window,
// joined with each job's coordinates. Canceled and completed appointments
// do not block new bookings.
func (r *Repository) ListBookedSlotsTx(ctx context.Context, tx pgx.Tx, technicianID uuid.UUID, windowStart, windowEnd time.Time) ([]BookedSlot, error) {
	return listBookedSlots(ctx, tx, technicianID, windowStart, windowEnd)
}

// ListBookedSlots is the out-of-transaction variant used for dry-run
// slot validation.
func (r *Repository) ListBookedSlots(ctx context.Context, technicianID uuid.UUID, windowStart, windowEnd time.Time) ([]BookedSlot, error) {
	return listBookedSlots(ctx, r.pool, technicianID, windowStart, windowEnd)
}

func listBookedSlots(ctx context.Context, q querier, technicianID uuid.UUID, windowStart, windowEnd time.Time) ([]BookedSlot, error) {
	query := `
		SELECT a.id, a.job_id, a.start_time, a.end_time, a.status, j.lat, j.lng
		FROM appointments a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.technician_id = $1
		  AND a.status IN ('tentative', 'confirmed')
		  AND a.start_time < $3
		  AND a.end_time > $2
		ORDER BY a.start_time ASC`

	rows, err := q.Query(ctx, query, technicianID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	defer rows.Close()

	items := make([]BookedSlot, 0)
	for rows.Next() {
		var item BookedSlot
		if err := rows.Scan(
			&item.AppointmentID,
			&item.JobID,
			&item.StartTime,
			&item.EndTime,
			&item.Status,
			&item.SiteLat,
			&item.SiteLng,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booked slot: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booked slots: %w", err)
	}

	return items, nil
}

// GetJobForScheduling reads the job fields and line items the dispatch
// flow needs in one round trip per table.
func (r *Repository) GetJobForScheduling(ctx context.Context, teamID, jobID uuid.UUID) (*JobForScheduling, error) {
	query := `SELECT id, title, status, address, lat, lng FROM jobs WHERE id = $1 AND team_id = $2`

	var job JobForScheduling
	err := r.pool.QueryRow(ctx, query, jobID, teamID).Scan(
		&job.ID,
		&job.Title,
		&job.Status,
		&job.Address,
		&job.Lat,
		&job.Lng,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job for scheduling: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, description, quantity, preset_id
		FROM job_line_items WHERE job_id = $1 ORDER BY position ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item JobLineItem
		if err := rows.Scan(&item.ID, &item.Description, &item.Quantity, &item.PresetID); err != nil {
			return nil, fmt.Errorf("failed to scan job line item: %w", err)
		}
		job.LineItems = append(job.LineItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job line items: %w", err)
	}

	return &job, nil
}

// GetByID returns an appointment scoped to a team.
func (r *Repository) GetByID(ctx context.Context, teamID, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND team_id = $2`

	var appt Appointment
	err := r.pool.QueryRow(ctx, query, id, teamID).Scan(
		&appt.ID,
		&appt.TeamID,
		&appt.JobID,
		&appt.TechnicianID,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Status,
		&appt.HoldExpiresAt,
		&appt.ReminderSent,
		&appt.Notes,
		&appt.CreatedBy,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return &appt, nil
}

// List returns appointments matching the params ordered by start time.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Appointment, error) {
	whereClause := "team_id = $1"
	args := []interface{}{params.TeamID}
	argIdx := 2

	if params.TechnicianID != nil {
		whereClause += fmt.Sprintf(" AND technician_id = $%d", argIdx)
		args = append(args, *params.TechnicianID)
		argIdx++
	}
	if params.JobID != nil {
		whereClause += fmt.Sprintf(" AND job_id = $%d", argIdx)
		args = append(args, *params.JobID)
		argIdx++
	}
	if params.From != nil {
		whereClause += fmt.Sprintf(" AND end_time > $%d", argIdx)
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		whereClause += fmt.Sprintf(" AND start_time < $%d", argIdx)
		args = append(args, *params.To)
		argIdx++
	}
	if params.Status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, params.Status)
		argIdx++
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE ` + whereClause + ` ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	items := make([]Appointment, 0)
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.TeamID,
			&appt.JobID,
			&appt.TechnicianID,
			&appt.StartTime,
			&appt.EndTime,
			&appt.Status,
			&appt.HoldExpiresAt,
			&appt.ReminderSent,
			&appt.Notes,
			&appt.CreatedBy,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return items, nil
}

// TransitionStatus moves an appointment to a new status only when its
// current status is in fromStatuses. The hold is always cleared because
// only tentative appointments carry one. Returns the updated row together
// with the status it left, or an invalid state error naming the actual
// status when the guard misses.
func (r *Repository) TransitionStatus(ctx context.Context, teamID, id uuid.UUID, fromStatuses []string, to string) (*Appointment, string, error) {
	query := `
		UPDATE appointments a
		SET status = $3, hold_expires_at = NULL, updated_at = now()
		FROM (SELECT id, status FROM appointments WHERE id = $1 AND team_id = $2 FOR UPDATE) prev
		WHERE a.id = prev.id AND prev.status = ANY($4)
		RETURNING a.id, a.team_id, a.job_id, a.technician_id, a.start_time, a.end_time,
			a.status, a.hold_expires_at, a.reminder_sent, a.notes, a.created_by, a.created_at, a.updated_at,
			prev.status`

	var saved Appointment
	var prevStatus string
	err := r.pool.QueryRow(ctx, query, id, teamID, to, fromStatuses).Scan(
		&saved.ID,
		&saved.TeamID,
		&saved.JobID,
		&saved.TechnicianID,
		&saved.StartTime,
		&saved.EndTime,
		&saved.Status,
		&saved.HoldExpiresAt,
		&saved.ReminderSent,
		&saved.Notes,
		&saved.CreatedBy,
		&saved.CreatedAt,
		&saved.UpdatedAt,
		&prevStatus,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := r.GetByID(ctx, teamID, id)
		if getErr != nil {
			return nil, "", getErr
		}
		return nil, "", apperr.InvalidState(fmt.Sprintf("appointment is %s", current.Status))
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to transition appointment: %w", err)
	}

	return &saved, prevStatus, nil
}

// ExpireStaleHolds cancels tentative appointments whose hold lapsed on or
// before the given time. Returns the canceled appointments.
func (r *Repository) ExpireStaleHolds(ctx context.Context, now time.Time) ([]Appointment, error) {
	query := `
		UPDATE appointments
		SET status = 'canceled', hold_expires_at = NULL, updated_at = now()
		WHERE status = 'tentative' AND hold_expires_at <= $1
		RETURNING ` + appointmentColumns

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire stale holds: %w", err)
	}
	defer rows.Close()

	items := make([]Appointment, 0)
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.TeamID,
			&appt.JobID,
			&appt.TechnicianID,
			&appt.StartTime,
			&appt.EndTime,
			&appt.Status,
			&appt.HoldExpiresAt,
			&appt.ReminderSent,
			&appt.Notes,
			&appt.CreatedBy,
			&appt.CreatedAt,
			&appt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expired appointment: %w", err)
		}
		items = append(items, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired appointments: %w", err)
	}

	return items, nil
}
