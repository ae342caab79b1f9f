package service

import (
	"testing"

	"dispatch_backend/internal/dispatch/repository"

	"github.com/google/uuid"
)

func TestEstimateDurationUsesPresetDurations(t *testing.T) {
	presetA := uuid.New()
	presetB := uuid.New()

	items := []repository.JobLineItem{
		{ID: uuid.New(), Description: "boiler service", Quantity: 1, PresetID: &presetA},
		{ID: uuid.New(), Description: "radiator bleed", Quantity: 3, PresetID: &presetB},
	}
	durations := map[uuid.UUID]int{presetA: 90, presetB: 20}

	estimate := EstimateDuration(items, durations, nil, 15)

	if estimate.WorkMinutes != 150 {
		t.Fatalf("expected 150 work minutes, got %d", estimate.WorkMinutes)
	}
	if estimate.TotalMinutes != 165 {
		t.Fatalf("expected 165 total minutes, got %d", estimate.TotalMinutes)
	}
	for _, item := range estimate.Items {
		if item.DefaultApplied {
			t.Fatalf("no default should apply for item %s", item.Description)
		}
	}
}

func TestEstimateDurationDefaultsUnresolvedItems(t *testing.T) {
	known := uuid.New()
	unknown := uuid.New()

	items := []repository.JobLineItem{
		{ID: uuid.New(), Description: "known work", Quantity: 1, PresetID: &known},
		{ID: uuid.New(), Description: "deleted preset", Quantity: 1, PresetID: &unknown},
		{ID: uuid.New(), Description: "ad-hoc work", Quantity: 1, PresetID: nil},
	}
	durations := map[uuid.UUID]int{known: 30}

	estimate := EstimateDuration(items, durations, nil, 15)

	if estimate.WorkMinutes != 30+DefaultItemMinutes*2 {
		t.Fatalf("expected %d work minutes, got %d", 30+DefaultItemMinutes*2, estimate.WorkMinutes)
	}
	if estimate.Items[0].DefaultApplied {
		t.Fatal("resolved preset should not be flagged as defaulted")
	}
	if !estimate.Items[1].DefaultApplied {
		t.Fatal("missing preset should be flagged as defaulted")
	}
	if !estimate.Items[2].DefaultApplied {
		t.Fatal("ad-hoc item should be flagged as defaulted")
	}
}

func TestEstimateDurationMatchesPresetNames(t *testing.T) {
	dangling := uuid.New()

	items := []repository.JobLineItem{
		{ID: uuid.New(), Description: "Boiler Service", Quantity: 2, PresetID: nil},
		{ID: uuid.New(), Description: "radiator bleed", Quantity: 1, PresetID: &dangling},
		{ID: uuid.New(), Description: "something else", Quantity: 1, PresetID: nil},
	}
	labels := map[string]int{"boiler service": 45, "radiator bleed": 20}

	estimate := EstimateDuration(items, nil, labels, 15)

	if estimate.Items[0].Minutes != 90 || estimate.Items[0].DefaultApplied {
		t.Fatalf("expected name match for %q, got %+v", items[0].Description, estimate.Items[0])
	}
	if estimate.Items[1].Minutes != 20 || estimate.Items[1].DefaultApplied {
		t.Fatalf("dangling preset should fall back to name match, got %+v", estimate.Items[1])
	}
	if !estimate.Items[2].DefaultApplied {
		t.Fatal("unmatched item should be flagged as defaulted")
	}
}

func TestEstimateDurationMultipliesByQuantity(t *testing.T) {
	items := []repository.JobLineItem{
		{ID: uuid.New(), Description: "smoke detector install", Quantity: 4, PresetID: nil},
	}

	estimate := EstimateDuration(items, nil, nil, 15)

	if estimate.WorkMinutes != DefaultItemMinutes*4 {
		t.Fatalf("expected %d work minutes, got %d", DefaultItemMinutes*4, estimate.WorkMinutes)
	}
}

func TestEstimateDurationNonPositiveQuantityReservesOneUnit(t *testing.T) {
	items := []repository.JobLineItem{
		{ID: uuid.New(), Description: "smoke detector install", Quantity: 0, PresetID: nil},
	}

	estimate := EstimateDuration(items, nil, nil, 15)

	if estimate.WorkMinutes != DefaultItemMinutes {
		t.Fatalf("expected %d work minutes, got %d", DefaultItemMinutes, estimate.WorkMinutes)
	}
}

func TestEstimateDurationEmptyJobIsBufferOnly(t *testing.T) {
	estimate := EstimateDuration(nil, nil, nil, 15)

	if estimate.WorkMinutes != 0 {
		t.Fatalf("expected 0 work minutes, got %d", estimate.WorkMinutes)
	}
	if estimate.TotalMinutes != 15 {
		t.Fatalf("expected buffer-only total of 15, got %d", estimate.TotalMinutes)
	}
}

func TestEstimateDurationZeroBufferUsesDefault(t *testing.T) {
	estimate := EstimateDuration(nil, nil, nil, 0)

	if estimate.BufferMinutes != DefaultBufferMinutes {
		t.Fatalf("expected default buffer %d, got %d", DefaultBufferMinutes, estimate.BufferMinutes)
	}
}
