// Package catalog provides the service preset catalog module.
package catalog

import (
	"dispatch_backend/internal/catalog/handler"
	"dispatch_backend/internal/catalog/repository"
	"dispatch_backend/internal/catalog/service"
	apphttp "dispatch_backend/internal/http"
	"dispatch_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the catalog domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new catalog module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "catalog"
}

// RegisterRoutes registers the module's routes under /api/v1/presets
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	presets := ctx.Protected.Group("/presets")
	m.handler.RegisterRoutes(presets)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
