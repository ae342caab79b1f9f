// Package repository provides data access for confirmation notifications.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfirmationDetails carries the appointment fields the confirmation
// email needs. CustomerEmail is nil when the job has no customer or the
// customer has no address.
type ConfirmationDetails struct {
	AppointmentID uuid.UUID
	StartTime     time.Time
	JobTitle      string
	JobAddress    string
	CustomerEmail *string
	TeamName      string
}

// Repository reads notification state.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new notification repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetConfirmationDetails resolves the email fields for one appointment.
func (r *Repository) GetConfirmationDetails(ctx context.Context, appointmentID uuid.UUID) (*ConfirmationDetails, error) {
	query := `
		SELECT a.id, a.start_time, j.title, j.address, c.email, t.name
		FROM appointments a
		JOIN jobs j ON j.id = a.job_id
		JOIN teams t ON t.id = a.team_id
		LEFT JOIN customers c ON c.id = j.customer_id
		WHERE a.id = $1`

	var details ConfirmationDetails
	err := r.pool.QueryRow(ctx, query, appointmentID).Scan(
		&details.AppointmentID,
		&details.StartTime,
		&details.JobTitle,
		&details.JobAddress,
		&details.CustomerEmail,
		&details.TeamName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmation details: %w", err)
	}

	return &details, nil
}
