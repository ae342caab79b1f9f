// Package repository provides data access for teams and technicians.
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

// TeamInfo holds the team fields needed for customer-facing messages.
type TeamInfo struct {
	ID           uuid.UUID
	Name         string
	CompanyPhone string
}

// Technician is a dispatchable field worker belonging to a team.
type Technician struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
}

// Repository provides access to team and technician records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new teams repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTeamInfo returns the team name and company phone for a team.
func (r *Repository) GetTeamInfo(ctx context.Context, teamID uuid.UUID) (*TeamInfo, error) {
	query := `SELECT id, name, company_phone FROM teams WHERE id = $1`

	var info TeamInfo
	err := r.pool.QueryRow(ctx, query, teamID).Scan(&info.ID, &info.Name, &info.CompanyPhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("team not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team info: %w", err)
	}

	return &info, nil
}

// GetTechnicianByID returns a technician by ID scoped to a team.
func (r *Repository) GetTechnicianByID(ctx context.Context, teamID, technicianID uuid.UUID) (*Technician, error) {
	query := `SELECT id, team_id, name, email, active, created_at
		FROM technicians WHERE id = $1 AND team_id = $2`

	var tech Technician
	err := r.pool.QueryRow(ctx, query, technicianID, teamID).Scan(
		&tech.ID,
		&tech.TeamID,
		&tech.Name,
		&tech.Email,
		&tech.Active,
		&tech.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("technician not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get technician: %w", err)
	}

	return &tech, nil
}

// ListTechnicians returns all technicians on a team, active first.
func (r *Repository) ListTechnicians(ctx context.Context, teamID uuid.UUID) ([]Technician, error) {
	query := `SELECT id, team_id, name, email, active, created_at
		FROM technicians WHERE team_id = $1 ORDER BY active DESC, name ASC`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list technicians: %w", err)
	}
	defer rows.Close()

	items := make([]Technician, 0)
	for rows.Next() {
		var item Technician
		if err := rows.Scan(
			&item.ID,
			&item.TeamID,
			&item.Name,
			&item.Email,
			&item.Active,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan technician: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate technicians: %w", err)
	}

	return items, nil
}

// IsTechnicianOnTeam reports whether the technician exists, is active,
// and belongs to the given team.
func (r *Repository) IsTechnicianOnTeam(ctx context.Context, teamID, technicianID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM technicians WHERE id = $1 AND team_id = $2 AND active = true
	)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, technicianID, teamID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check technician membership: %w", err)
	}

	return exists, nil
}
