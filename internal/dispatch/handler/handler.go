package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dispatch_backend/internal/dispatch/service"
	"dispatch_backend/internal/dispatch/transport"
	"dispatch_backend/platform/httpkit"
	"dispatch_backend/platform/validator"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid appointment id"
)

// New creates a new dispatch handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers appointment routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/estimate", h.Estimate)
	rg.POST("/validate", h.Validate)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/confirm", h.Confirm)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/complete", h.Complete)
}

// Create books an appointment slot.
// POST /api/v1/appointments
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := mustGetTenantID(c, identity)
	if !ok {
		return
	}

	createdBy := identity.UserID()
	result, err := h.svc.Create(c.Request.Context(), tenantID, &createdBy, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Estimate returns the recommended slot length for a job.
// POST /api/v1/appointments/estimate
func (h *Handler) Estimate(c *gin.Context) {
	var req transport.EstimateDurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tenantID, ok := mustGetTenantIDOnly(c)
	if !ok {
		return
	}

	result, err := h.svc.EstimateForJob(c.Request.Context(), tenantID, req.JobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Validate dry-runs slot validation for a candidate window.
// POST /api/v1/appointments/validate
func (h *Handler) Validate(c *gin.Context) {
	var req transport.ValidateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tenantID, ok := mustGetTenantIDOnly(c)
	if !ok {
		return
	}

	result, err := h.svc.ValidateCandidate(c.Request.Context(), tenantID, req.JobID, req.TechnicianID, req.StartTime, req.EndTime)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.ValidateSlotResponse{
		Valid:  result.OK,
		Reason: result.Reason,
		Detail: result.Detail,
	}
	if result.ConflictingID != uuid.Nil {
		id := result.ConflictingID
		resp.ConflictingAppointmentID = &id
	}
	httpkit.OK(c, resp)
}

// GetByID returns an appointment.
// GET /api/v1/appointments/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, tenantID, ok := parseIDAndTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// List lists appointments with optional filters.
// GET /api/v1/appointments
func (h *Handler) List(c *gin.Context) {
	var req transport.ListAppointmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	tenantID, ok := mustGetTenantIDOnly(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Confirm promotes a tentative appointment.
// POST /api/v1/appointments/:id/confirm
func (h *Handler) Confirm(c *gin.Context) {
	id, tenantID, ok := parseIDAndTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Confirm(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Cancel cancels an appointment.
// POST /api/v1/appointments/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	id, tenantID, ok := parseIDAndTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Cancel(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Complete marks an appointment completed.
// POST /api/v1/appointments/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	id, tenantID, ok := parseIDAndTenant(c)
	if !ok {
		return
	}

	result, err := h.svc.Complete(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseIDAndTenant(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	tenantID, ok := mustGetTenantIDOnly(c)
	if !ok {
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return id, tenantID, true
}

func mustGetTenantIDOnly(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	return mustGetTenantID(c, identity)
}

func mustGetTenantID(c *gin.Context, identity httpkit.Identity) (uuid.UUID, bool) {
	tenantID := identity.TenantID()
	if tenantID == nil {
		httpkit.Error(c, http.StatusBadRequest, "tenant ID is required", nil)
		return uuid.UUID{}, false
	}
	return *tenantID, true
}
