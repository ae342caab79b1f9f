// Package transport defines request and response DTOs for the jobs API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// LineItemRequest is one piece of work on a job being created.
type LineItemRequest struct {
	Description string     `json:"description" validate:"required,min=2,max=500"`
	Quantity    int        `json:"quantity" validate:"omitempty,min=1,max=100"`
	PresetID    *uuid.UUID `json:"presetId" validate:"omitempty"`
}

// CreateJobRequest creates a new job with its line items.
type CreateJobRequest struct {
	Title      string            `json:"title" validate:"required,min=2,max=200"`
	CustomerID *uuid.UUID        `json:"customerId" validate:"omitempty"`
	Address    string            `json:"address" validate:"required,min=5,max=500"`
	Lat        *float64          `json:"lat" validate:"omitempty,latitude"`
	Lng        *float64          `json:"lng" validate:"omitempty,longitude"`
	LineItems  []LineItemRequest `json:"lineItems" validate:"required,min=1,max=50,dive"`
}

// ListJobsRequest filters and paginates job listings.
type ListJobsRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=pending scheduled in_progress completed canceled"`
	Search string `form:"search" validate:"omitempty,max=200"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

// LineItemResponse is the API representation of a job line item.
type LineItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	Quantity    int        `json:"quantity"`
	PresetID    *uuid.UUID `json:"presetId,omitempty"`
}

// JobResponse is the API representation of a job.
type JobResponse struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	Status    string             `json:"status"`
	Address   string             `json:"address"`
	Lat       *float64           `json:"lat,omitempty"`
	Lng       *float64           `json:"lng,omitempty"`
	LineItems []LineItemResponse `json:"lineItems,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// JobListResponse wraps a paginated job listing.
type JobListResponse struct {
	Items  []JobResponse `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
