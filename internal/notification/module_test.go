package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch_backend/internal/events"
	notifrepo "dispatch_backend/internal/notification/repository"
	"dispatch_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	details map[uuid.UUID]*notifrepo.ConfirmationDetails
}

func (f *fakeStore) GetConfirmationDetails(_ context.Context, appointmentID uuid.UUID) (*notifrepo.ConfirmationDetails, error) {
	details, ok := f.details[appointmentID]
	if !ok {
		return nil, errors.New("appointment not found")
	}
	return details, nil
}

type fakeSender struct {
	sent []string
	fail bool
}

func (f *fakeSender) SendAppointmentConfirmation(_ context.Context, toEmail, teamName, jobTitle, appointmentTime, address string) error {
	if f.fail {
		return errors.New("smtp send: connection refused")
	}
	f.sent = append(f.sent, toEmail)
	return nil
}

func strptr(s string) *string { return &s }

func detailsFor(id uuid.UUID, email *string) *notifrepo.ConfirmationDetails {
	return &notifrepo.ConfirmationDetails{
		AppointmentID: id,
		StartTime:     time.Date(2026, 9, 3, 9, 0, 0, 0, time.UTC),
		JobTitle:      "CV-ketel onderhoud",
		JobAddress:    "Keizersgracht 1, Amsterdam",
		CustomerEmail: email,
		TeamName:      "Installatiebedrijf Jansen",
	}
}

func TestConfirmedBookingSendsConfirmationEmail(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{details: map[uuid.UUID]*notifrepo.ConfirmationDetails{
		id: detailsFor(id, strptr("klant@example.com")),
	}}
	sender := &fakeSender{}

	log := logger.New("test")
	module := New(store, sender, log)
	bus := events.NewInMemoryBus(log)
	module.RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.AppointmentCreated{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: id,
		TeamID:        uuid.New(),
		JobID:         uuid.New(),
		TechnicianID:  uuid.New(),
		Status:        "confirmed",
		StartTime:     time.Date(2026, 9, 3, 9, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0] != "klant@example.com" {
		t.Fatalf("unexpected recipients: %v", sender.sent)
	}
}

func TestTentativeBookingSendsNothing(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{details: map[uuid.UUID]*notifrepo.ConfirmationDetails{
		id: detailsFor(id, strptr("klant@example.com")),
	}}
	sender := &fakeSender{}

	module := New(store, sender, logger.New("test"))

	err := module.Handle(context.Background(), events.AppointmentCreated{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: id,
		Status:        "tentative",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no deliveries, got %v", sender.sent)
	}
}

func TestConfirmTransitionSendsConfirmationEmail(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{details: map[uuid.UUID]*notifrepo.ConfirmationDetails{
		id: detailsFor(id, strptr("klant@example.com")),
	}}
	sender := &fakeSender{}

	module := New(store, sender, logger.New("test"))

	err := module.Handle(context.Background(), events.AppointmentStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: id,
		OldStatus:     "tentative",
		NewStatus:     "confirmed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sender.sent))
	}
}

func TestCancelTransitionSendsNothing(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{details: map[uuid.UUID]*notifrepo.ConfirmationDetails{
		id: detailsFor(id, strptr("klant@example.com")),
	}}
	sender := &fakeSender{}

	module := New(store, sender, logger.New("test"))

	err := module.Handle(context.Background(), events.AppointmentStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: id,
		OldStatus:     "confirmed",
		NewStatus:     "canceled",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no deliveries, got %v", sender.sent)
	}
}

func TestMissingCustomerEmailSkipsDelivery(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{details: map[uuid.UUID]*notifrepo.ConfirmationDetails{
		id: detailsFor(id, nil),
	}}
	sender := &fakeSender{}

	module := New(store, sender, logger.New("test"))

	err := module.Handle(context.Background(), events.AppointmentStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: id,
		OldStatus:     "tentative",
		NewStatus:     "confirmed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no deliveries, got %v", sender.sent)
	}
}

func TestDeliveryFailureSurfacesError(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{details: map[uuid.UUID]*notifrepo.ConfirmationDetails{
		id: detailsFor(id, strptr("klant@example.com")),
	}}
	sender := &fakeSender{fail: true}

	module := New(store, sender, logger.New("test"))

	err := module.Handle(context.Background(), events.AppointmentStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: id,
		OldStatus:     "tentative",
		NewStatus:     "confirmed",
	})
	if err == nil {
		t.Fatal("expected delivery error")
	}
}
