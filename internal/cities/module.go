// Package cities provides the canonical-city domain module: resolution of
// free-text city names against the geocoder and proximity queries between
// stored cities.
package cities

import (
	"marketplace_backend/internal/cities/handler"
	"marketplace_backend/internal/cities/repository"
	"marketplace_backend/internal/cities/service"
	"marketplace_backend/internal/geo"
	apphttp "marketplace_backend/internal/http"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the cities domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new cities module with all dependencies wired.
// geocoder is the (possibly cache-wrapped) place lookup client.
func NewModule(pool *pgxpool.Pool, geocoder geo.Geocoder, country string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(geocoder, repo, country, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "cities"
}

// Service exposes the cities service to sibling modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the cities repository to cross-module adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes under /api/v1/cities
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	cities := ctx.Protected.Group("/cities")
	m.handler.RegisterRoutes(cities)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
