// Package service implements job business logic.
package service

import (
	"context"
	"strings"

	"dispatch_backend/internal/jobs/repository"
	"dispatch_backend/internal/jobs/transport"
	"dispatch_backend/internal/routing"
	"dispatch_backend/platform/apperr"
	"dispatch_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultListLimit = 25

// Geocoder resolves a free-text address to coordinates. A nil result
// means the address could not be resolved.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*routing.Location, error)
}

// Service coordinates job operations.
type Service struct {
	repo *repository.Repository
	geo  Geocoder
	log  *logger.Logger
}

// New creates a new jobs service. The geocoder may be nil, in which
// case jobs keep whatever coordinates the caller supplied.
func New(repo *repository.Repository, geo Geocoder, log *logger.Logger) *Service {
	return &Service{repo: repo, geo: geo, log: log}
}

// Create creates a job in the pending status.
func (s *Service) Create(ctx context.Context, teamID uuid.UUID, req transport.CreateJobRequest) (*transport.JobResponse, error) {
	items := make([]repository.LineItem, 0, len(req.LineItems))
	for i, li := range req.LineItems {
		qty := li.Quantity
		if qty == 0 {
			qty = 1
		}
		items = append(items, repository.LineItem{
			ID:          uuid.New(),
			Description: strings.TrimSpace(li.Description),
			Quantity:    qty,
			PresetID:    li.PresetID,
			Position:    i,
		})
	}

	address := strings.TrimSpace(req.Address)
	lat, lng := req.Lat, req.Lng
	if (lat == nil || lng == nil) && address != "" && s.geo != nil {
		loc, err := s.geo.Geocode(ctx, address)
		if err != nil {
			// Coordinates are a scheduling aid, not a requirement.
			s.log.Warn("failed to geocode job address", "error", err)
		} else if loc != nil {
			lat, lng = &loc.Lat, &loc.Lng
		}
	}

	saved, err := s.repo.Create(ctx, repository.Job{
		ID:         uuid.New(),
		TeamID:     teamID,
		CustomerID: req.CustomerID,
		Title:      strings.TrimSpace(req.Title),
		Status:     repository.StatusPending,
		Address:    address,
		Lat:        lat,
		Lng:        lng,
		LineItems:  items,
	})
	if err != nil {
		return nil, err
	}

	return toResponse(saved), nil
}

// GetByID returns a job with its line items.
func (s *Service) GetByID(ctx context.Context, teamID, id uuid.UUID) (*transport.JobResponse, error) {
	job, err := s.repo.GetByID(ctx, teamID, id)
	if err != nil {
		return nil, err
	}
	return toResponse(job), nil
}

// List returns a paginated job listing.
func (s *Service) List(ctx context.Context, teamID uuid.UUID, req transport.ListJobsRequest) (*transport.JobListResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	items, total, err := s.repo.List(ctx, repository.ListParams{
		TeamID: teamID,
		Status: req.Status,
		Search: strings.TrimSpace(req.Search),
		Limit:  limit,
		Offset: req.Offset,
	})
	if err != nil {
		return nil, err
	}

	out := make([]transport.JobResponse, 0, len(items))
	for i := range items {
		out = append(out, *toResponse(&items[i]))
	}

	return &transport.JobListResponse{
		Items:  out,
		Total:  total,
		Limit:  limit,
		Offset: req.Offset,
	}, nil
}

// Cancel marks a job canceled. Completed jobs cannot be canceled.
func (s *Service) Cancel(ctx context.Context, teamID, id uuid.UUID) error {
	job, err := s.repo.GetByID(ctx, teamID, id)
	if err != nil {
		return err
	}
	if job.Status == repository.StatusCompleted {
		return apperr.InvalidState("completed jobs cannot be canceled")
	}
	return s.repo.UpdateStatus(ctx, teamID, id, repository.StatusCanceled)
}

// MarkScheduledIfPending flips a pending job to scheduled. It is a no-op
// when the job already left the pending status.
func (s *Service) MarkScheduledIfPending(ctx context.Context, teamID, id uuid.UUID) (bool, error) {
	return s.repo.UpdateStatusIf(ctx, teamID, id, repository.StatusPending, repository.StatusScheduled)
}

func toResponse(j *repository.Job) *transport.JobResponse {
	items := make([]transport.LineItemResponse, 0, len(j.LineItems))
	for _, li := range j.LineItems {
		items = append(items, transport.LineItemResponse{
			ID:          li.ID,
			Description: li.Description,
			Quantity:    li.Quantity,
			PresetID:    li.PresetID,
		})
	}

	return &transport.JobResponse{
		ID:        j.ID,
		Title:     j.Title,
		Status:    j.Status,
		Address:   j.Address,
		Lat:       j.Lat,
		Lng:       j.Lng,
		LineItems: items,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
