// Package repository provides data access for the reminder sweep.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DueReminder is a confirmed appointment that needs a customer reminder,
// joined with the job, customer and team fields the email needs. Email
// is nil when the job has no customer or the customer has no address.
type DueReminder struct {
	AppointmentID uuid.UUID
	TeamID        uuid.UUID
	JobID         uuid.UUID
	StartTime     time.Time
	JobTitle      string
	CustomerEmail *string
	TeamName      string
	CompanyPhone  string
}

// Repository provides access to reminder state.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new reminders repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListDue returns confirmed, unreminded appointments starting inside
// [windowStart, windowEnd).
func (r *Repository) ListDue(ctx context.Context, windowStart, windowEnd time.Time) ([]DueReminder, error) {
	query := `
		SELECT a.id, a.team_id, a.job_id, a.start_time, j.title, c.email, t.name, t.company_phone
		FROM appointments a
		JOIN jobs j ON j.id = a.job_id
		JOIN teams t ON t.id = a.team_id
		LEFT JOIN customers c ON c.id = j.customer_id
		WHERE a.status = 'confirmed'
		  AND a.reminder_sent = false
		  AND a.start_time >= $1
		  AND a.start_time < $2
		ORDER BY a.start_time ASC`

	rows, err := r.pool.Query(ctx, query, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()

	items := make([]DueReminder, 0)
	for rows.Next() {
		var item DueReminder
		if err := rows.Scan(
			&item.AppointmentID,
			&item.TeamID,
			&item.JobID,
			&item.StartTime,
			&item.JobTitle,
			&item.CustomerEmail,
			&item.TeamName,
			&item.CompanyPhone,
		); err != nil {
			return nil, fmt.Errorf("failed to scan due reminder: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due reminders: %w", err)
	}

	return items, nil
}

// MarkReminderSent flags an appointment as reminded. The guard keeps a
// concurrent sweep from flagging the same row twice.
func (r *Repository) MarkReminderSent(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET reminder_sent = true, updated_at = now()
		WHERE id = $1 AND reminder_sent = false`,
		appointmentID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
