package service

import (
	"context"
	"fmt"
	"time"

	"dispatch_backend/internal/dispatch/repository"
	"dispatch_backend/internal/routing"

	"github.com/google/uuid"
)

// Validation failure reasons.
const (
	ReasonInvalidWindow = "invalid_window"
	ReasonTimeConflict  = "time_conflict"
)

// TravelTimer resolves drive time between two job sites.
type TravelTimer interface {
	TravelTime(ctx context.Context, from, to routing.Location, departure time.Time) routing.TravelEstimate
}

// CandidateSlot is a proposed appointment window at a job site. Site is
// nil when the job has no coordinates, in which case travel checks use
// the conservative fallback.
type CandidateSlot struct {
	Start time.Time
	End   time.Time
	Site  *routing.Location
}

// ValidationResult reports whether a candidate slot can be booked. On a
// time conflict ConflictingID names the booking that blocks the slot.
type ValidationResult struct {
	OK            bool
	Reason        string
	Detail        string
	ConflictingID uuid.UUID
}

// ValidateSlot checks a candidate slot against the technician's existing
// bookings. A slot is rejected when its window is malformed, when it
// overlaps an active booking, or when the gap to any booking is shorter
// than the drive between the two job sites. Every tentative or confirmed
// slot is padded and checked individually, because a distant booking
// with a long drive can conflict even when a closer one fits. Canceled
// and completed slots never block.
func ValidateSlot(ctx context.Context, travel TravelTimer, candidate CandidateSlot, booked []repository.BookedSlot) ValidationResult {
	if !candidate.End.After(candidate.Start) {
		return ValidationResult{Reason: ReasonInvalidWindow, Detail: "end time must be after start time"}
	}

	for i := range booked {
		slot := &booked[i]

		if slot.Status != repository.StatusTentative && slot.Status != repository.StatusConfirmed {
			continue
		}

		if candidate.Start.Before(slot.EndTime) && candidate.End.After(slot.StartTime) {
			return ValidationResult{
				Reason:        ReasonTimeConflict,
				Detail:        fmt.Sprintf("overlaps appointment from %s to %s", slot.StartTime.Format(time.RFC3339), slot.EndTime.Format(time.RFC3339)),
				ConflictingID: slot.AppointmentID,
			}
		}

		if !slot.EndTime.After(candidate.Start) {
			// The slot precedes the candidate: pad its end with the
			// drive to the candidate's site.
			gap := candidate.Start.Sub(slot.EndTime)
			drive := travelBetween(ctx, travel, slotLocation(slot), candidate.Site, slot.EndTime)
			if gap < drive {
				return ValidationResult{
					Reason:        ReasonTimeConflict,
					Detail:        fmt.Sprintf("needs %s travel after appointment ending %s, only %s available", drive, slot.EndTime.Format(time.RFC3339), gap),
					ConflictingID: slot.AppointmentID,
				}
			}
		} else {
			// The slot follows the candidate: pad its start backward
			// with the drive from the candidate's site.
			gap := slot.StartTime.Sub(candidate.End)
			drive := travelBetween(ctx, travel, candidate.Site, slotLocation(slot), candidate.End)
			if gap < drive {
				return ValidationResult{
					Reason:        ReasonTimeConflict,
					Detail:        fmt.Sprintf("needs %s travel before appointment starting %s, only %s available", drive, slot.StartTime.Format(time.RFC3339), gap),
					ConflictingID: slot.AppointmentID,
				}
			}
		}
	}

	return ValidationResult{OK: true}
}

func slotLocation(slot *repository.BookedSlot) *routing.Location {
	if slot.SiteLat == nil || slot.SiteLng == nil {
		return nil
	}
	return &routing.Location{Lat: *slot.SiteLat, Lng: *slot.SiteLng}
}

func travelBetween(ctx context.Context, travel TravelTimer, from, to *routing.Location, departure time.Time) time.Duration {
	if from == nil || to == nil {
		return time.Duration(routing.FallbackTravelMinutes) * time.Minute
	}
	estimate := travel.TravelTime(ctx, *from, *to, departure)
	return time.Duration(estimate.Minutes) * time.Minute
}
