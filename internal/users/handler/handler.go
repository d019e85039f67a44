package handler

import (
	"net/http"

	"marketplace_backend/internal/users/service"
	"marketplace_backend/internal/users/transport"
	"marketplace_backend/platform/httpkit"
	"marketplace_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const msgInvalidRequest = "invalid request"

// Handler handles HTTP requests for users
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new users handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/nearby-employees", h.NearbyEmployees)
	rg.GET("/employees/search", h.SearchEmployees)
	rg.PUT("/radius", h.SetRadius)
}

// mustGetUserID extracts the authenticated user ID, aborting when absent.
func mustGetUserID(c *gin.Context) (int64, bool) {
	userID, ok := httpkit.UserID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return 0, false
	}
	return userID, true
}

// NearbyEmployees handles GET /api/v1/users/nearby-employees?radius=
func (h *Handler) NearbyEmployees(c *gin.Context) {
	userID, ok := mustGetUserID(c)
	if !ok {
		return
	}

	var req transport.NearbyEmployeesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "a positive radius is required", err.Error())
		return
	}

	result, err := h.svc.NearbyEmployees(c.Request.Context(), userID, req.Radius)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// SearchEmployees handles GET /api/v1/users/employees/search?q=
func (h *Handler) SearchEmployees(c *gin.Context) {
	userID, ok := mustGetUserID(c)
	if !ok {
		return
	}

	var req transport.SearchEmployeesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' is required", err.Error())
		return
	}

	result, err := h.svc.SearchEmployees(c.Request.Context(), userID, req.Query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// SetRadius handles PUT /api/v1/users/radius
func (h *Handler) SetRadius(c *gin.Context) {
	userID, ok := mustGetUserID(c)
	if !ok {
		return
	}

	var req transport.SetRadiusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	if err := h.svc.SetRadius(c.Request.Context(), userID, req.Radius); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "radius updated"})
}
