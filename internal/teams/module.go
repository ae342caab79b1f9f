// Package teams provides the teams and technicians domain module.
package teams

import (
	"dispatch_backend/internal/teams/handler"
	"dispatch_backend/internal/teams/repository"

	apphttp "dispatch_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the teams domain module
type Module struct {
	handler    *handler.Handler
	Repository *repository.Repository
}

// NewModule creates a new teams module with all dependencies wired
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	h := handler.New(repo)

	return &Module{
		handler:    h,
		Repository: repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "teams"
}

// RegisterRoutes registers the module's routes under /api/v1/teams
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	teams := ctx.Protected.Group("/teams")
	m.handler.RegisterRoutes(teams)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
