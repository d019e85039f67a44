package handler

import (
	"net/http"

	"marketplace_backend/internal/cities/service"
	"marketplace_backend/internal/cities/transport"
	"marketplace_backend/platform/httpkit"
	"marketplace_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const msgInvalidRequest = "invalid request"

// Handler handles HTTP requests for cities
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new cities handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the city routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Resolve)
	rg.GET("/nearby", h.Nearby)
	rg.GET("/search", h.Search)
}

// Resolve handles POST /api/v1/cities
func (h *Handler) Resolve(c *gin.Context) {
	var req transport.ResolveCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.svc.Resolve(c.Request.Context(), req.Name, req.State)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, result)
}

// Nearby handles GET /api/v1/cities/nearby?name=&state=&radius=
func (h *Handler) Nearby(c *gin.Context) {
	var req transport.NearbyCitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "name and a positive radius are required", err.Error())
		return
	}

	result, err := h.svc.NearbyCities(c.Request.Context(), req.Name, req.State, req.Radius)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Search handles GET /api/v1/cities/search?q=
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchCitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' is required", err.Error())
		return
	}

	result, err := h.svc.Search(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// List handles GET /api/v1/cities
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
