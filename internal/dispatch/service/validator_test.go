package service

import (
	"context"
	"testing"
	"time"

	"dispatch_backend/internal/dispatch/repository"
	"dispatch_backend/internal/routing"

	"github.com/google/uuid"
)

// fakeTravel returns a fixed number of minutes for every leg.
type fakeTravel struct {
	minutes int
}

func (f fakeTravel) TravelTime(_ context.Context, _, _ routing.Location, _ time.Time) routing.TravelEstimate {
	return routing.TravelEstimate{Minutes: f.minutes, Status: routing.StatusOK, Source: routing.SourceAPI}
}

// routeTravel returns per-origin drive times so tests can give each
// booked site its own distance to the candidate.
type routeTravel struct {
	byOrigin map[routing.Location]int
}

func (f routeTravel) TravelTime(_ context.Context, from, _ routing.Location, _ time.Time) routing.TravelEstimate {
	if minutes, ok := f.byOrigin[from]; ok {
		return routing.TravelEstimate{Minutes: minutes, Status: routing.StatusOK, Source: routing.SourceAPI}
	}
	return routing.TravelEstimate{Minutes: 0, Status: routing.StatusOK, Source: routing.SourceAPI}
}

func loc(lat, lng float64) (*float64, *float64) {
	return &lat, &lng
}

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad time %q: %v", value, err)
	}
	return parsed
}

func TestValidateSlotRejectsInvertedWindow(t *testing.T) {
	start := mustParse(t, "2026-09-01T11:00:00Z")
	end := mustParse(t, "2026-09-01T10:00:00Z")

	result := ValidateSlot(context.Background(), fakeTravel{}, CandidateSlot{Start: start, End: end}, nil)
	if result.OK {
		t.Fatal("expected rejection")
	}
	if result.Reason != ReasonInvalidWindow {
		t.Fatalf("expected reason %q, got %q", ReasonInvalidWindow, result.Reason)
	}
}

func TestValidateSlotRejectsOverlap(t *testing.T) {
	lat, lng := loc(52.37, 4.89)
	booked := []repository.BookedSlot{{
		AppointmentID: uuid.New(),
		StartTime:     mustParse(t, "2026-09-01T09:00:00Z"),
		EndTime:       mustParse(t, "2026-09-01T10:00:00Z"),
		Status:        repository.StatusConfirmed,
		SiteLat:       lat,
		SiteLng:       lng,
	}}

	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T09:30:00Z"),
		End:   mustParse(t, "2026-09-01T10:30:00Z"),
		Site:  &routing.Location{Lat: 52.09, Lng: 5.12},
	}

	result := ValidateSlot(context.Background(), fakeTravel{minutes: 0}, candidate, booked)
	if result.OK {
		t.Fatal("expected rejection")
	}
	if result.Reason != ReasonTimeConflict {
		t.Fatalf("expected reason %q, got %q", ReasonTimeConflict, result.Reason)
	}
	if result.ConflictingID != booked[0].AppointmentID {
		t.Fatalf("expected conflicting id %s, got %s", booked[0].AppointmentID, result.ConflictingID)
	}
}

func TestValidateSlotIgnoresCanceledAndCompleted(t *testing.T) {
	lat, lng := loc(52.37, 4.89)
	booked := []repository.BookedSlot{
		{
			AppointmentID: uuid.New(),
			StartTime:     mustParse(t, "2026-09-01T09:00:00Z"),
			EndTime:       mustParse(t, "2026-09-01T10:00:00Z"),
			Status:        repository.StatusCanceled,
			SiteLat:       lat,
			SiteLng:       lng,
		},
		{
			AppointmentID: uuid.New(),
			StartTime:     mustParse(t, "2026-09-01T10:00:00Z"),
			EndTime:       mustParse(t, "2026-09-01T11:00:00Z"),
			Status:        repository.StatusCompleted,
			SiteLat:       lat,
			SiteLng:       lng,
		},
	}

	// Overlaps both, but neither is active.
	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T09:30:00Z"),
		End:   mustParse(t, "2026-09-01T10:30:00Z"),
		Site:  &routing.Location{Lat: 52.09, Lng: 5.12},
	}

	result := ValidateSlot(context.Background(), fakeTravel{minutes: 30}, candidate, booked)
	if !result.OK {
		t.Fatalf("expected acceptance, got %s: %s", result.Reason, result.Detail)
	}
}

func TestValidateSlotRejectsWhenTravelExceedsGap(t *testing.T) {
	lat, lng := loc(52.37, 4.89)
	booked := []repository.BookedSlot{{
		AppointmentID: uuid.New(),
		StartTime:     mustParse(t, "2026-09-01T09:00:00Z"),
		EndTime:       mustParse(t, "2026-09-01T10:00:00Z"),
		Status:        repository.StatusConfirmed,
		SiteLat:       lat,
		SiteLng:       lng,
	}}

	// 5 minute gap, 20 minute drive.
	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T10:05:00Z"),
		End:   mustParse(t, "2026-09-01T11:05:00Z"),
		Site:  &routing.Location{Lat: 52.09, Lng: 5.12},
	}

	result := ValidateSlot(context.Background(), fakeTravel{minutes: 20}, candidate, booked)
	if result.OK {
		t.Fatal("expected rejection")
	}
	if result.Reason != ReasonTimeConflict {
		t.Fatalf("expected reason %q, got %q", ReasonTimeConflict, result.Reason)
	}
}

func TestValidateSlotAcceptsWhenTravelFitsGap(t *testing.T) {
	lat, lng := loc(52.37, 4.89)
	booked := []repository.BookedSlot{{
		AppointmentID: uuid.New(),
		StartTime:     mustParse(t, "2026-09-01T09:00:00Z"),
		EndTime:       mustParse(t, "2026-09-01T10:00:00Z"),
		Status:        repository.StatusConfirmed,
		SiteLat:       lat,
		SiteLng:       lng,
	}}

	// 5 minute gap, 2 minute drive.
	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T10:05:00Z"),
		End:   mustParse(t, "2026-09-01T11:05:00Z"),
		Site:  &routing.Location{Lat: 52.372, Lng: 4.893},
	}

	result := ValidateSlot(context.Background(), fakeTravel{minutes: 2}, candidate, booked)
	if !result.OK {
		t.Fatalf("expected acceptance, got %s: %s", result.Reason, result.Detail)
	}
}

func TestValidateSlotChecksEveryPrecedingAppointment(t *testing.T) {
	farSite := routing.Location{Lat: 51.92, Lng: 4.48}
	nearSite := routing.Location{Lat: 52.37, Lng: 4.89}
	candidateSite := routing.Location{Lat: 52.36, Lng: 4.88}

	booked := []repository.BookedSlot{
		{
			AppointmentID: uuid.New(),
			StartTime:     mustParse(t, "2026-09-01T09:00:00Z"),
			EndTime:       mustParse(t, "2026-09-01T09:50:00Z"),
			Status:        repository.StatusConfirmed,
			SiteLat:       &farSite.Lat,
			SiteLng:       &farSite.Lng,
		},
		{
			AppointmentID: uuid.New(),
			StartTime:     mustParse(t, "2026-09-01T09:55:00Z"),
			EndTime:       mustParse(t, "2026-09-01T10:00:00Z"),
			Status:        repository.StatusConfirmed,
			SiteLat:       &nearSite.Lat,
			SiteLng:       &nearSite.Lng,
		},
	}

	// The later booking is 5 minutes away and fits the 10 minute gap,
	// but the earlier one ends 09:50 with a 40 minute drive: its padded
	// end 10:30 reaches past the 10:10 start.
	travel := routeTravel{byOrigin: map[routing.Location]int{
		farSite:  40,
		nearSite: 5,
	}}

	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T10:10:00Z"),
		End:   mustParse(t, "2026-09-01T11:00:00Z"),
		Site:  &candidateSite,
	}

	result := ValidateSlot(context.Background(), travel, candidate, booked)
	if result.OK {
		t.Fatal("expected rejection from the earlier appointment's travel padding")
	}
	if result.Reason != ReasonTimeConflict {
		t.Fatalf("expected reason %q, got %q", ReasonTimeConflict, result.Reason)
	}
	if result.ConflictingID != booked[0].AppointmentID {
		t.Fatalf("expected the far appointment %s to conflict, got %s", booked[0].AppointmentID, result.ConflictingID)
	}
}

func TestValidateSlotMissingCoordinatesUsesFallbackTravel(t *testing.T) {
	booked := []repository.BookedSlot{{
		AppointmentID: uuid.New(),
		StartTime:     mustParse(t, "2026-09-01T09:00:00Z"),
		EndTime:       mustParse(t, "2026-09-01T10:00:00Z"),
		Status:        repository.StatusConfirmed,
	}}

	// 10 minute gap cannot absorb the 30 minute fallback drive.
	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T10:10:00Z"),
		End:   mustParse(t, "2026-09-01T11:10:00Z"),
	}

	result := ValidateSlot(context.Background(), fakeTravel{minutes: 2}, candidate, booked)
	if result.OK {
		t.Fatal("expected rejection from fallback travel padding")
	}
	if result.Reason != ReasonTimeConflict {
		t.Fatalf("expected reason %q, got %q", ReasonTimeConflict, result.Reason)
	}
}

func TestValidateSlotChecksTravelToNextAppointment(t *testing.T) {
	lat, lng := loc(52.37, 4.89)
	booked := []repository.BookedSlot{{
		AppointmentID: uuid.New(),
		StartTime:     mustParse(t, "2026-09-01T13:00:00Z"),
		EndTime:       mustParse(t, "2026-09-01T14:00:00Z"),
		Status:        repository.StatusTentative,
		SiteLat:       lat,
		SiteLng:       lng,
	}}

	// Ends 12:50, next starts 13:00, drive is 25 minutes.
	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T11:50:00Z"),
		End:   mustParse(t, "2026-09-01T12:50:00Z"),
		Site:  &routing.Location{Lat: 52.09, Lng: 5.12},
	}

	result := ValidateSlot(context.Background(), fakeTravel{minutes: 25}, candidate, booked)
	if result.OK {
		t.Fatal("expected rejection")
	}
	if result.Reason != ReasonTimeConflict {
		t.Fatalf("expected reason %q, got %q", ReasonTimeConflict, result.Reason)
	}
}

func TestValidateSlotAcceptsOpenCalendar(t *testing.T) {
	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T09:00:00Z"),
		End:   mustParse(t, "2026-09-01T10:00:00Z"),
		Site:  &routing.Location{Lat: 52.37, Lng: 4.89},
	}

	result := ValidateSlot(context.Background(), fakeTravel{minutes: 30}, candidate, nil)
	if !result.OK {
		t.Fatalf("expected acceptance, got %s: %s", result.Reason, result.Detail)
	}
}

func TestValidateSlotBackToBackSameSiteAllowed(t *testing.T) {
	lat, lng := loc(52.37, 4.89)
	booked := []repository.BookedSlot{{
		AppointmentID: uuid.New(),
		StartTime:     mustParse(t, "2026-09-01T09:00:00Z"),
		EndTime:       mustParse(t, "2026-09-01T10:00:00Z"),
		Status:        repository.StatusConfirmed,
		SiteLat:       lat,
		SiteLng:       lng,
	}}

	// Zero travel, zero gap: adjacent slots at the same site.
	candidate := CandidateSlot{
		Start: mustParse(t, "2026-09-01T10:00:00Z"),
		End:   mustParse(t, "2026-09-01T11:00:00Z"),
		Site:  &routing.Location{Lat: 52.37, Lng: 4.89},
	}

	result := ValidateSlot(context.Background(), fakeTravel{minutes: 0}, candidate, booked)
	if !result.OK {
		t.Fatalf("expected acceptance, got %s: %s", result.Reason, result.Detail)
	}
}
