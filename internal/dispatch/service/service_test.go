package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch_backend/internal/dispatch/repository"
	"dispatch_backend/internal/dispatch/transport"
	"dispatch_backend/internal/events"
	"dispatch_backend/platform/apperr"
	"dispatch_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// dispatchStore is an in-memory Store for booking flow tests. The
// technician lock degenerates to a direct callback with a nil tx.
type dispatchStore struct {
	job        *repository.JobForScheduling
	booked     []repository.BookedSlot
	created    []repository.Appointment
	transition *repository.Appointment
	prevStatus string
	expired    []repository.Appointment
}

func (f *dispatchStore) GetJobForScheduling(_ context.Context, _, _ uuid.UUID) (*repository.JobForScheduling, error) {
	if f.job == nil {
		return nil, apperr.NotFound("job not found")
	}
	return f.job, nil
}

func (f *dispatchStore) WithTechnicianLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

func (f *dispatchStore) ListBookedSlotsTx(_ context.Context, _ pgx.Tx, _ uuid.UUID, _, _ time.Time) ([]repository.BookedSlot, error) {
	return f.booked, nil
}

func (f *dispatchStore) ListBookedSlots(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]repository.BookedSlot, error) {
	return f.booked, nil
}

func (f *dispatchStore) CreateTx(_ context.Context, _ pgx.Tx, appt repository.Appointment) (*repository.Appointment, error) {
	f.created = append(f.created, appt)
	return &appt, nil
}

func (f *dispatchStore) GetByID(_ context.Context, _, _ uuid.UUID) (*repository.Appointment, error) {
	return nil, apperr.NotFound("appointment not found")
}

func (f *dispatchStore) List(_ context.Context, _ repository.ListParams) ([]repository.Appointment, error) {
	return nil, nil
}

func (f *dispatchStore) TransitionStatus(_ context.Context, _, _ uuid.UUID, fromStatuses []string, to string) (*repository.Appointment, string, error) {
	if f.transition == nil {
		return nil, "", apperr.NotFound("appointment not found")
	}
	allowed := false
	for _, status := range fromStatuses {
		if status == f.prevStatus {
			allowed = true
		}
	}
	if !allowed {
		return nil, "", apperr.InvalidState("appointment is " + f.prevStatus)
	}
	saved := *f.transition
	saved.Status = to
	return &saved, f.prevStatus, nil
}

func (f *dispatchStore) ExpireStaleHolds(_ context.Context, _ time.Time) ([]repository.Appointment, error) {
	return f.expired, nil
}

type fixedPresets struct{}

func (fixedPresets) GetDurations(_ context.Context, _ uuid.UUID, _ []uuid.UUID) (map[uuid.UUID]int, error) {
	return map[uuid.UUID]int{}, nil
}

func (fixedPresets) GetDurationsByName(_ context.Context, _ uuid.UUID, _ []string) (map[string]int, error) {
	return map[string]int{}, nil
}

type membership struct {
	onTeam bool
	err    error
}

func (m membership) IsTechnicianOnTeam(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return m.onTeam, m.err
}

type jobFlipper struct {
	flipped bool
}

func (j jobFlipper) MarkScheduledIfPending(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return j.flipped, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type dispatchConfig struct{}

func (dispatchConfig) GetHoldTTL() time.Duration          { return 24 * time.Hour }
func (dispatchConfig) GetDefaultBufferMinutes() int       { return 15 }
func (dispatchConfig) GetReminderLeadTime() time.Duration { return 24 * time.Hour }
func (dispatchConfig) GetReminderWindow() time.Duration   { return time.Hour }
func (dispatchConfig) GetPhoneRegion() string             { return "NL" }

func pendingJob() *repository.JobForScheduling {
	return &repository.JobForScheduling{
		ID:     uuid.New(),
		Title:  "CV-ketel onderhoud",
		Status: "pending",
	}
}

func newTestService(store *dispatchStore, technicians TechnicianDirectory, bus events.Bus) *Service {
	return New(store, fixedPresets{}, technicians, jobFlipper{}, fakeTravel{minutes: 0}, bus, dispatchConfig{}, logger.New("test"))
}

func TestCreateRejectsOffTeamTechnicianAsForbidden(t *testing.T) {
	store := &dispatchStore{job: pendingJob()}
	svc := newTestService(store, membership{onTeam: false}, &recordingBus{})

	_, err := svc.Create(context.Background(), uuid.New(), nil, transport.CreateAppointmentRequest{
		JobID:        store.job.ID,
		TechnicianID: uuid.New(),
		StartTime:    mustParse(t, "2026-09-03T09:00:00Z"),
	})
	if err == nil {
		t.Fatal("expected error for off-team technician")
	}
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got kind %v (%v)", apperr.GetKind(err), err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no appointment, got %d", len(store.created))
	}
}

func TestCreateRejectsFinishedJob(t *testing.T) {
	job := pendingJob()
	job.Status = "completed"
	store := &dispatchStore{job: job}
	svc := newTestService(store, membership{onTeam: true}, &recordingBus{})

	_, err := svc.Create(context.Background(), uuid.New(), nil, transport.CreateAppointmentRequest{
		JobID:        job.ID,
		TechnicianID: uuid.New(),
		StartTime:    mustParse(t, "2026-09-03T09:00:00Z"),
	})
	if apperr.GetKind(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestCreateTentativeHoldExpiresAfterTTL(t *testing.T) {
	store := &dispatchStore{job: pendingJob()}
	svc := newTestService(store, membership{onTeam: true}, &recordingBus{})

	now := mustParse(t, "2026-09-01T08:00:00Z")
	svc.WithClock(func() time.Time { return now })

	end := mustParse(t, "2026-09-03T10:00:00Z")
	resp, err := svc.Create(context.Background(), uuid.New(), nil, transport.CreateAppointmentRequest{
		JobID:        store.job.ID,
		TechnicianID: uuid.New(),
		StartTime:    mustParse(t, "2026-09-03T09:00:00Z"),
		EndTime:      &end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != repository.StatusTentative {
		t.Fatalf("expected tentative, got %s", resp.Status)
	}
	if resp.HoldExpiresAt == nil || !resp.HoldExpiresAt.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("unexpected hold expiry: %v", resp.HoldExpiresAt)
	}
}

func TestCreateConfirmedCarriesNoHold(t *testing.T) {
	store := &dispatchStore{job: pendingJob()}
	bus := &recordingBus{}
	svc := newTestService(store, membership{onTeam: true}, bus)

	end := mustParse(t, "2026-09-03T10:00:00Z")
	resp, err := svc.Create(context.Background(), uuid.New(), nil, transport.CreateAppointmentRequest{
		JobID:        store.job.ID,
		TechnicianID: uuid.New(),
		StartTime:    mustParse(t, "2026-09-03T09:00:00Z"),
		EndTime:      &end,
		Confirmed:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != repository.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", resp.Status)
	}
	if resp.HoldExpiresAt != nil {
		t.Fatalf("confirmed booking must not hold: %v", resp.HoldExpiresAt)
	}

	var created *events.AppointmentCreated
	for _, event := range bus.published {
		if e, ok := event.(events.AppointmentCreated); ok {
			created = &e
		}
	}
	if created == nil {
		t.Fatal("expected AppointmentCreated event")
	}
	if created.Status != repository.StatusConfirmed {
		t.Fatalf("event status %s, want confirmed", created.Status)
	}
}

func TestCreateSurfacesMembershipLookupError(t *testing.T) {
	store := &dispatchStore{job: pendingJob()}
	svc := newTestService(store, membership{err: errors.New("directory unavailable")}, &recordingBus{})

	_, err := svc.Create(context.Background(), uuid.New(), nil, transport.CreateAppointmentRequest{
		JobID:        store.job.ID,
		TechnicianID: uuid.New(),
		StartTime:    mustParse(t, "2026-09-03T09:00:00Z"),
	})
	if err == nil {
		t.Fatal("expected lookup error to propagate")
	}
}

func TestCancelPublishesActualPriorStatus(t *testing.T) {
	appt := &repository.Appointment{
		ID:           uuid.New(),
		TeamID:       uuid.New(),
		JobID:        uuid.New(),
		TechnicianID: uuid.New(),
		Status:       repository.StatusConfirmed,
	}
	store := &dispatchStore{transition: appt, prevStatus: repository.StatusConfirmed}
	bus := &recordingBus{}
	svc := newTestService(store, membership{onTeam: true}, bus)

	_, err := svc.Cancel(context.Background(), appt.TeamID, appt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.published))
	}
	changed, ok := bus.published[0].(events.AppointmentStatusChanged)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if changed.OldStatus != repository.StatusConfirmed {
		t.Fatalf("event old status %s, want confirmed", changed.OldStatus)
	}
	if changed.NewStatus != repository.StatusCanceled {
		t.Fatalf("event new status %s, want canceled", changed.NewStatus)
	}
}

func TestCompleteRejectsTentativeAppointment(t *testing.T) {
	appt := &repository.Appointment{
		ID:     uuid.New(),
		TeamID: uuid.New(),
		Status: repository.StatusTentative,
	}
	store := &dispatchStore{transition: appt, prevStatus: repository.StatusTentative}
	bus := &recordingBus{}
	svc := newTestService(store, membership{onTeam: true}, bus)

	_, err := svc.Complete(context.Background(), appt.TeamID, appt.ID)
	if apperr.GetKind(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events, got %d", len(bus.published))
	}
}

func TestExpireStaleHoldsPublishesCancellation(t *testing.T) {
	expired := repository.Appointment{
		ID:     uuid.New(),
		TeamID: uuid.New(),
		JobID:  uuid.New(),
		Status: repository.StatusCanceled,
	}
	store := &dispatchStore{expired: []repository.Appointment{expired}}
	bus := &recordingBus{}
	svc := newTestService(store, membership{onTeam: true}, bus)

	count, err := svc.ExpireStaleHolds(context.Background(), mustParse(t, "2026-09-03T09:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expired, got %d", count)
	}
	changed, ok := bus.published[0].(events.AppointmentStatusChanged)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if changed.OldStatus != repository.StatusTentative || changed.NewStatus != repository.StatusCanceled {
		t.Fatalf("unexpected transition %s -> %s", changed.OldStatus, changed.NewStatus)
	}
}
