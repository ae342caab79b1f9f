package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dispatch_backend/internal/teams/repository"
	"dispatch_backend/platform/httpkit"
)

// Handler handles HTTP requests for teams.
type Handler struct {
	repo *repository.Repository
}

// New creates a new teams handler.
func New(repo *repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers team routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.GetTeam)
	rg.GET("/technicians", h.ListTechnicians)
	rg.GET("/technicians/:id", h.GetTechnician)
}

// GetTeam returns the caller's team info.
// GET /api/v1/teams/me
func (h *Handler) GetTeam(c *gin.Context) {
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	info, err := h.repo.GetTeamInfo(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, info)
}

// ListTechnicians lists the team's technicians.
// GET /api/v1/teams/technicians
func (h *Handler) ListTechnicians(c *gin.Context) {
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	items, err := h.repo.ListTechnicians(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}

// GetTechnician returns a single technician on the caller's team.
// GET /api/v1/teams/technicians/:id
func (h *Handler) GetTechnician(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid technician id", nil)
		return
	}
	tenantID, ok := mustGetTenantID(c)
	if !ok {
		return
	}

	tech, err := h.repo.GetTechnicianByID(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, tech)
}

func mustGetTenantID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusBadRequest, "tenant ID is required", nil)
		return uuid.UUID{}, false
	}
	return *tenantID, true
}
