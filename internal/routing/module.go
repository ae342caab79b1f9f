package routing

import (
	apphttp "dispatch_backend/internal/http"
	"dispatch_backend/platform/config"
	"dispatch_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Module wires the routing HTTP routes and exposes the travel service.
type Module struct {
	handler *Handler
	Service *Service
}

func NewModule(cfg config.RoutingConfig, redisClient *redis.Client, log *logger.Logger) *Module {
	svc := NewService(cfg, redisClient, log)
	h := NewHandler(svc)
	return &Module{handler: h, Service: svc}
}

func (m *Module) Name() string {
	return "routing"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/routing")
	group.GET("/address-lookup", m.handler.LookupAddress)
}

var _ apphttp.Module = (*Module)(nil)
