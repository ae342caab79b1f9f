// Package repository provides data access for service presets.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServicePreset is a reusable service definition with a typical duration.
type ServicePreset struct {
	ID              uuid.UUID
	TeamID          uuid.UUID
	Name            string
	DurationMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Repository provides access to service preset records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const presetColumns = `id, team_id, name, duration_minutes, created_at, updated_at`

// Create inserts a new service preset.
func (r *Repository) Create(ctx context.Context, preset ServicePreset) (*ServicePreset, error) {
	query := `
		INSERT INTO service_presets (id, team_id, name, duration_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + presetColumns

	var saved ServicePreset
	err := r.pool.QueryRow(ctx, query,
		preset.ID,
		preset.TeamID,
		preset.Name,
		preset.DurationMinutes,
	).Scan(
		&saved.ID,
		&saved.TeamID,
		&saved.Name,
		&saved.DurationMinutes,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("a preset with this name already exists")
		}
		return nil, fmt.Errorf("failed to create service preset: %w", err)
	}

	return &saved, nil
}

// GetByID returns a service preset by ID scoped to a team.
func (r *Repository) GetByID(ctx context.Context, teamID, id uuid.UUID) (*ServicePreset, error) {
	query := `SELECT ` + presetColumns + ` FROM service_presets WHERE id = $1 AND team_id = $2`

	var item ServicePreset
	err := r.pool.QueryRow(ctx, query, id, teamID).Scan(
		&item.ID,
		&item.TeamID,
		&item.Name,
		&item.DurationMinutes,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("service preset not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service preset: %w", err)
	}

	return &item, nil
}

// List returns all service presets for a team ordered by name.
func (r *Repository) List(ctx context.Context, teamID uuid.UUID) ([]ServicePreset, error) {
	query := `SELECT ` + presetColumns + ` FROM service_presets WHERE team_id = $1 ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list service presets: %w", err)
	}
	defer rows.Close()

	items := make([]ServicePreset, 0)
	for rows.Next() {
		var item ServicePreset
		if err := rows.Scan(
			&item.ID,
			&item.TeamID,
			&item.Name,
			&item.DurationMinutes,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service preset: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service presets: %w", err)
	}

	return items, nil
}

// GetDurations returns duration minutes keyed by preset ID for the given IDs.
// IDs that do not exist for the team are simply absent from the result.
func (r *Repository) GetDurations(ctx context.Context, teamID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]int{}, nil
	}

	query := `SELECT id, duration_minutes FROM service_presets WHERE team_id = $1 AND id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, teamID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get preset durations: %w", err)
	}
	defer rows.Close()

	durations := make(map[uuid.UUID]int, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var minutes int
		if err := rows.Scan(&id, &minutes); err != nil {
			return nil, fmt.Errorf("failed to scan preset duration: %w", err)
		}
		durations[id] = minutes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preset durations: %w", err)
	}

	return durations, nil
}

// GetDurationsByName returns duration minutes keyed by lowercased preset
// name. Names are matched case-insensitively; unknown names are absent
// from the result.
func (r *Repository) GetDurationsByName(ctx context.Context, teamID uuid.UUID, names []string) (map[string]int, error) {
	if len(names) == 0 {
		return map[string]int{}, nil
	}

	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}

	query := `SELECT lower(name), duration_minutes FROM service_presets WHERE team_id = $1 AND lower(name) = ANY($2)`

	rows, err := r.pool.Query(ctx, query, teamID, lowered)
	if err != nil {
		return nil, fmt.Errorf("failed to get preset durations by name: %w", err)
	}
	defer rows.Close()

	durations := make(map[string]int, len(names))
	for rows.Next() {
		var name string
		var minutes int
		if err := rows.Scan(&name, &minutes); err != nil {
			return nil, fmt.Errorf("failed to scan preset duration: %w", err)
		}
		durations[name] = minutes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preset durations: %w", err)
	}

	return durations, nil
}

// Update updates a preset's name and duration.
func (r *Repository) Update(ctx context.Context, teamID, id uuid.UUID, name string, durationMinutes int) (*ServicePreset, error) {
	query := `
		UPDATE service_presets
		SET name = $3, duration_minutes = $4, updated_at = now()
		WHERE id = $1 AND team_id = $2
		RETURNING ` + presetColumns

	var saved ServicePreset
	err := r.pool.QueryRow(ctx, query, id, teamID, name, durationMinutes).Scan(
		&saved.ID,
		&saved.TeamID,
		&saved.Name,
		&saved.DurationMinutes,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("service preset not found")
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("a preset with this name already exists")
		}
		return nil, fmt.Errorf("failed to update service preset: %w", err)
	}

	return &saved, nil
}

// Delete removes a preset. Line items referencing it keep their preset_id
// until the foreign key blocks the delete, which surfaces as a conflict.
func (r *Repository) Delete(ctx context.Context, teamID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM service_presets WHERE id = $1 AND team_id = $2`, id, teamID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("preset is referenced by existing job line items")
		}
		return fmt.Errorf("failed to delete service preset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("service preset not found")
	}
	return nil
}
