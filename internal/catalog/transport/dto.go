// Package transport defines request and response DTOs for the catalog API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreatePresetRequest creates a new service preset.
type CreatePresetRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=120"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,min=1,max=1440"`
}

// UpdatePresetRequest updates a service preset.
type UpdatePresetRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=120"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,min=1,max=1440"`
}

// PresetResponse is the API representation of a service preset.
type PresetResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PresetListResponse wraps a list of presets.
type PresetListResponse struct {
	Items []PresetResponse `json:"items"`
	Total int              `json:"total"`
}
