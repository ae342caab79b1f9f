// Package repository provides data access for jobs and their line items.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Job statuses.
const (
	StatusPending    = "pending"
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCanceled   = "canceled"
)

// Job is a unit of field work to be dispatched.
type Job struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	CustomerID *uuid.UUID
	Title      string
	Status     string
	Address    string
	Lat        *float64
	Lng        *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LineItems  []LineItem
}

// LineItem describes one piece of work on a job. PresetID is nil for
// ad-hoc work that has no catalog entry.
type LineItem struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	Description string
	Quantity    int
	PresetID    *uuid.UUID
	Position    int
}

// ListParams filters and paginates job listings.
type ListParams struct {
	TeamID uuid.UUID
	Status string
	Search string
	Limit  int
	Offset int
}

// Repository provides access to job records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new jobs repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a job and its line items in one transaction.
func (r *Repository) Create(ctx context.Context, job Job) (*Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO jobs (id, team_id, customer_id, title, status, address, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, team_id, customer_id, title, status, address, lat, lng, created_at, updated_at`

	var saved Job
	err = tx.QueryRow(ctx, query,
		job.ID,
		job.TeamID,
		job.CustomerID,
		job.Title,
		job.Status,
		job.Address,
		job.Lat,
		job.Lng,
	).Scan(
		&saved.ID,
		&saved.TeamID,
		&saved.CustomerID,
		&saved.Title,
		&saved.Status,
		&saved.Address,
		&saved.Lat,
		&saved.Lng,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	for i, item := range job.LineItems {
		_, err := tx.Exec(ctx, `
			INSERT INTO job_line_items (id, job_id, team_id, description, quantity, preset_id, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, saved.ID, job.TeamID, item.Description, item.Quantity, item.PresetID, i,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create job line item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit job: %w", err)
	}

	saved.LineItems = job.LineItems
	return &saved, nil
}

// GetByID returns a job with its line items.
func (r *Repository) GetByID(ctx context.Context, teamID, id uuid.UUID) (*Job, error) {
	query := `SELECT id, team_id, customer_id, title, status, address, lat, lng, created_at, updated_at
		FROM jobs WHERE id = $1 AND team_id = $2`

	var job Job
	err := r.pool.QueryRow(ctx, query, id, teamID).Scan(
		&job.ID,
		&job.TeamID,
		&job.CustomerID,
		&job.Title,
		&job.Status,
		&job.Address,
		&job.Lat,
		&job.Lng,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	items, err := r.listLineItems(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	job.LineItems = items

	return &job, nil
}

func (r *Repository) listLineItems(ctx context.Context, jobID uuid.UUID) ([]LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, job_id, description, quantity, preset_id, position
		FROM job_line_items WHERE job_id = $1 ORDER BY position ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job line items: %w", err)
	}
	defer rows.Close()

	items := make([]LineItem, 0)
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(
			&item.ID,
			&item.JobID,
			&item.Description,
			&item.Quantity,
			&item.PresetID,
			&item.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job line items: %w", err)
	}

	return items, nil
}

// List returns jobs matching the params plus the total count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Job, int, error) {
	whereClause := "team_id = $1"
	args := []interface{}{params.TeamID}
	argIdx := 2

	if params.Status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.Search != "" {
		whereClause += fmt.Sprintf(" AND (title ILIKE $%d OR address ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM jobs WHERE " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT id, team_id, customer_id, title, status, address, lat, lng, created_at, updated_at
		FROM jobs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	items := make([]Job, 0)
	for rows.Next() {
		var job Job
		if err := rows.Scan(
			&job.ID,
			&job.TeamID,
			&job.CustomerID,
			&job.Title,
			&job.Status,
			&job.Address,
			&job.Lat,
			&job.Lng,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		items = append(items, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return items, total, nil
}

// UpdateStatusIf moves a job from one status to another only when it is
// still in the expected status. Returns false when no row matched, either
// because the job does not exist or because its status already changed.
func (r *Repository) UpdateStatusIf(ctx context.Context, teamID, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs SET status = $4, updated_at = now()
		WHERE id = $1 AND team_id = $2 AND status = $3`,
		id, teamID, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update job status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus sets the job status unconditionally within the team scope.
func (r *Repository) UpdateStatus(ctx context.Context, teamID, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs SET status = $3, updated_at = now()
		WHERE id = $1 AND team_id = $2`,
		id, teamID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("job not found")
	}
	return nil
}
