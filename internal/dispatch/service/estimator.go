package service

import (
	"strings"
	"time"

	"dispatch_backend/internal/dispatch/repository"

	"github.com/google/uuid"
)

// Estimation defaults. A line item without a usable preset gets a flat
// hour so that unpriced work still reserves a plausible slot.
const (
	DefaultItemMinutes   = 60
	DefaultBufferMinutes = 15
)

// LineItemEstimate is the estimated duration for one line item.
type LineItemEstimate struct {
	LineItemID     uuid.UUID
	Description    string
	Minutes        int
	DefaultApplied bool
}

// DurationEstimate is the estimated slot length for a job.
type DurationEstimate struct {
	WorkMinutes   int
	BufferMinutes int
	TotalMinutes  int
	Items         []LineItemEstimate
}

// Duration returns the estimate as a time.Duration.
func (e DurationEstimate) Duration() time.Duration {
	return time.Duration(e.TotalMinutes) * time.Minute
}

// EstimateDuration computes the slot length for a job's line items.
// Per-unit duration comes from the item's preset when set, otherwise
// from a case-insensitive match of the item description against preset
// names (keys in labels are lowercased), otherwise DefaultItemMinutes.
// Durations are multiplied by quantity, and defaulted items are flagged
// so the caller can show which parts of the estimate are guesses. The
// buffer covers parking, paperwork and customer handover.
func EstimateDuration(items []repository.JobLineItem, durations map[uuid.UUID]int, labels map[string]int, bufferMinutes int) DurationEstimate {
	if bufferMinutes <= 0 {
		bufferMinutes = DefaultBufferMinutes
	}

	estimate := DurationEstimate{
		BufferMinutes: bufferMinutes,
		Items:         make([]LineItemEstimate, 0, len(items)),
	}

	for _, item := range items {
		// The schema enforces quantity > 0; a non-positive value can only
		// come from a caller-built item and still reserves one unit.
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}

		perUnit := DefaultItemMinutes
		defaultApplied := true
		if item.PresetID != nil {
			if d, ok := durations[*item.PresetID]; ok && d > 0 {
				perUnit = d
				defaultApplied = false
			}
		}
		if defaultApplied {
			if d, ok := labels[strings.ToLower(item.Description)]; ok && d > 0 {
				perUnit = d
				defaultApplied = false
			}
		}

		minutes := perUnit * qty
		estimate.WorkMinutes += minutes
		estimate.Items = append(estimate.Items, LineItemEstimate{
			LineItemID:     item.ID,
			Description:    item.Description,
			Minutes:        minutes,
			DefaultApplied: defaultApplied,
		})
	}

	estimate.TotalMinutes = estimate.WorkMinutes + bufferMinutes
	return estimate
}
