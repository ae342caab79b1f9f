// Package jobs provides the jobs domain module.
package jobs

import (
	"dispatch_backend/internal/jobs/handler"
	"dispatch_backend/internal/jobs/repository"
	"dispatch_backend/internal/jobs/service"
	apphttp "dispatch_backend/internal/http"
	"dispatch_backend/platform/logger"
	"dispatch_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the jobs domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new jobs module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, geo service.Geocoder, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, geo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "jobs"
}

// RegisterRoutes registers the module's routes under /api/v1/jobs
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	jobs := ctx.Protected.Group("/jobs")
	m.handler.RegisterRoutes(jobs)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
