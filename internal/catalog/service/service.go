// Package service implements catalog business logic.
package service

import (
	"context"
	"strings"

	"dispatch_backend/internal/catalog/repository"
	"dispatch_backend/internal/catalog/transport"

	"github.com/google/uuid"
)

// Service coordinates service preset operations.
type Service struct {
	repo *repository.Repository
}

// New creates a new catalog service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a service preset for a team.
func (s *Service) Create(ctx context.Context, teamID uuid.UUID, req transport.CreatePresetRequest) (*transport.PresetResponse, error) {
	saved, err := s.repo.Create(ctx, repository.ServicePreset{
		ID:              uuid.New(),
		TeamID:          teamID,
		Name:            strings.TrimSpace(req.Name),
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return nil, err
	}
	return toResponse(saved), nil
}

// GetByID returns a preset by ID.
func (s *Service) GetByID(ctx context.Context, teamID, id uuid.UUID) (*transport.PresetResponse, error) {
	item, err := s.repo.GetByID(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	return toResponse(item), nil
}

// List returns all presets for a team.
func (s *Service) List(ctx context.Context, teamID uuid.UUID) (*transport.PresetListResponse, error) {
	items, err := s.repo.List(ctx, teamID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.PresetResponse, 0, len(items))
	for i := range items {
		out = append(out, *toResponse(&items[i]))
	}
	return &transport.PresetListResponse{Items: out, Total: len(out)}, nil
}

// Update updates a preset's name and duration.
func (s *Service) Update(ctx context.Context, teamID, id uuid.UUID, req transport.UpdatePresetRequest) (*transport.PresetResponse, error) {
	saved, err := s.repo.Update(ctx, teamID, id, strings.TrimSpace(req.Name), req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	return toResponse(saved), nil
}

// Delete removes a preset.
func (s *Service) Delete(ctx context.Context, teamID, id uuid.UUID) error {
	return s.repo.Delete(ctx, teamID, id)
}

// GetDurations returns duration minutes keyed by preset ID. Unknown IDs
// are absent from the map so callers can apply their own defaults.
func (s *Service) GetDurations(ctx context.Context, teamID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return s.repo.GetDurations(ctx, teamID, ids)
}

// GetDurationsByName returns duration minutes keyed by lowercased preset
// name, matched case-insensitively.
func (s *Service) GetDurationsByName(ctx context.Context, teamID uuid.UUID, names []string) (map[string]int, error) {
	return s.repo.GetDurationsByName(ctx, teamID, names)
}

func toResponse(p *repository.ServicePreset) *transport.PresetResponse {
	return &transport.PresetResponse{
		ID:              p.ID,
		Name:            p.Name,
		DurationMinutes: p.DurationMinutes,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
