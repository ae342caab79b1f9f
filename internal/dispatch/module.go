// Package dispatch provides the appointment booking and lifecycle module.
package dispatch

import (
	"dispatch_backend/internal/dispatch/handler"
	"dispatch_backend/internal/dispatch/repository"
	"dispatch_backend/internal/dispatch/service"
	"dispatch_backend/internal/events"
	apphttp "dispatch_backend/internal/http"
	"dispatch_backend/platform/config"
	"dispatch_backend/platform/logger"
	"dispatch_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the dispatch domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new dispatch module with all dependencies wired.
// Preset durations, technician membership, job scheduling and travel
// times come from the other modules through narrow interfaces.
func NewModule(
	pool *pgxpool.Pool,
	val *validator.Validator,
	presets service.PresetResolver,
	technicians service.TechnicianDirectory,
	jobs service.JobScheduler,
	travel service.TravelTimer,
	bus events.Bus,
	cfg config.DispatchConfig,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, presets, technicians, jobs, travel, bus, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "dispatch"
}

// RegisterRoutes registers the module's routes under /api/v1/appointments
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	appointments := ctx.Protected.Group("/appointments")
	m.handler.RegisterRoutes(appointments)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
