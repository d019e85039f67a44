// Package users provides the users domain module: radius configuration
// and radius-based employee matching. User accounts themselves are
// created and authenticated by the external account service.
package users

import (
	apphttp "marketplace_backend/internal/http"
	"marketplace_backend/internal/users/handler"
	"marketplace_backend/internal/users/repository"
	"marketplace_backend/internal/users/service"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the users domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new users module with all dependencies wired.
// cities supplies the city snapshot for the proximity prefilter.
func NewModule(pool *pgxpool.Pool, cities service.CityDirectory, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cities, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "users"
}

// Service exposes the users service to sibling modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes under /api/v1/users
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	users := ctx.Protected.Group("/users")
	m.handler.RegisterRoutes(users)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
