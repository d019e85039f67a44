// Package service implements radius-based employee matching for users.
package service

import (
	"context"

	"marketplace_backend/internal/geo"
	"marketplace_backend/internal/users/repository"
	"marketplace_backend/internal/users/transport"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const searchLimit = 10

// CityPoint is a coordinate-bearing city entry from the city directory.
type CityPoint struct {
	ID    int64
	Name  string
	State string
	Lat   float64
	Lon   float64
}

// CityDirectory provides a point-in-time snapshot of all stored cities
// for the proximity prefilter.
type CityDirectory interface {
	Snapshot(ctx context.Context) ([]CityPoint, error)
}

// UserStore provides the user rows the matching runs over.
type UserStore interface {
	FindWithCity(ctx context.Context, id int64) (*repository.UserWithCity, error)
	FindEmployeesInCities(ctx context.Context, cityIDs []int64, excludeUserID int64) ([]repository.Employee, error)
	SearchEmployeesInCities(ctx context.Context, term string, cityIDs []int64, excludeUserID int64, limit int) ([]repository.Employee, error)
	UpdateRadius(ctx context.Context, id int64, radiusKm float64) error
}

// Service provides employee proximity matching: cities within the radius
// of the requesting user's city are computed first (city-level
// prefilter), then employees are fetched from those cities.
type Service struct {
	users  UserStore
	cities CityDirectory
	log    *logger.Logger
}

// New creates a new users service
func New(users UserStore, cities CityDirectory, log *logger.Logger) *Service {
	return &Service{users: users, cities: cities, log: log}
}

// NearbyEmployees returns employees located in cities within radiusKm of
// the requesting user's city, excluding the requester. Employees in the
// requester's own city are included: the reference city trivially lies
// within its own radius.
func (s *Service) NearbyEmployees(ctx context.Context, userID int64, radiusKm float64) (*transport.NearbyEmployeesResponse, error) {
	user, cityIDs, distances, err := s.prefilterCities(ctx, userID, radiusKm)
	if err != nil {
		return nil, err
	}

	employees, err := s.users.FindEmployeesInCities(ctx, cityIDs, userID)
	if err != nil {
		return nil, err
	}

	matches := make([]transport.EmployeeResponse, 0, len(employees))
	for _, employee := range employees {
		matches = append(matches, transport.EmployeeResponse{
			ID:             employee.ID,
			Name:           employee.Name,
			Email:          employee.Email,
			Phone:          deref(employee.Phone),
			ProfileColor:   deref(employee.ProfileColor),
			Profession:     deref(employee.Profession),
			City:           employee.CityName,
			State:          employee.CityState,
			CityDistanceKm: distances[employee.CityID],
		})
	}

	return &transport.NearbyEmployeesResponse{
		User: transport.RequestingUser{
			ID:    user.ID,
			Name:  user.Name,
			City:  deref(user.CityName),
			State: deref(user.CityState),
		},
		RadiusKm:  radiusKm,
		Total:     len(matches),
		Employees: matches,
	}, nil
}

// SearchEmployees searches employees by name within the requesting
// user's stored radius. The user must have configured a radius first.
func (s *Service) SearchEmployees(ctx context.Context, userID int64, term string) ([]transport.EmployeeSummary, error) {
	term = geo.CollapseWhitespace(term)
	if term == "" {
		return nil, apperr.Validation("search term is required")
	}

	user, err := s.users.FindWithCity(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Radius == nil || *user.Radius <= 0 {
		return nil, apperr.BadRequest("user has no search radius configured")
	}

	cityIDs, err := s.prefilterCitiesFor(ctx, user, *user.Radius)
	if err != nil {
		return nil, err
	}

	employees, err := s.users.SearchEmployeesInCities(ctx, term, cityIDs, userID, searchLimit)
	if err != nil {
		return nil, err
	}

	out := make([]transport.EmployeeSummary, 0, len(employees))
	for _, employee := range employees {
		out = append(out, transport.EmployeeSummary{
			ID:         employee.ID,
			Name:       employee.Name,
			Profession: deref(employee.Profession),
			City:       employee.CityName,
			State:      employee.CityState,
		})
	}
	return out, nil
}

// SetRadius updates the user's search radius.
func (s *Service) SetRadius(ctx context.Context, userID int64, radiusKm float64) error {
	if radiusKm <= 0 {
		return apperr.Validation("radius must be greater than zero")
	}
	return s.users.UpdateRadius(ctx, userID, radiusKm)
}

// prefilterCities loads the user and the city snapshot concurrently and
// returns the IDs of cities within radius of the user's city, plus the
// per-city distances for annotating matches.
func (s *Service) prefilterCities(ctx context.Context, userID int64, radiusKm float64) (*repository.UserWithCity, []int64, map[int64]float64, error) {
	var user *repository.UserWithCity
	var snapshot []CityPoint

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		user, err = s.users.FindWithCity(groupCtx, userID)
		return err
	})
	group.Go(func() error {
		var err error
		snapshot, err = s.cities.Snapshot(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, nil, nil, err
	}

	cityIDs, distances, err := nearbyCityIDs(user, snapshot, radiusKm)
	if err != nil {
		return nil, nil, nil, err
	}
	return user, cityIDs, distances, nil
}

// prefilterCitiesFor is prefilterCities for an already-loaded user.
func (s *Service) prefilterCitiesFor(ctx context.Context, user *repository.UserWithCity, radiusKm float64) ([]int64, error) {
	snapshot, err := s.cities.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	cityIDs, _, err := nearbyCityIDs(user, snapshot, radiusKm)
	return cityIDs, err
}

func nearbyCityIDs(user *repository.UserWithCity, snapshot []CityPoint, radiusKm float64) ([]int64, map[int64]float64, error) {
	if user.CityID == nil || user.Lat == nil || user.Lon == nil {
		return nil, nil, apperr.BadRequest("user has no city with usable coordinates")
	}

	ref := geo.Reference{
		ID:    *user.CityID,
		Name:  deref(user.CityName),
		Coord: &geo.Point{Lat: *user.Lat, Lon: *user.Lon},
	}

	candidates := make([]geo.Candidate, 0, len(snapshot))
	for _, city := range snapshot {
		candidates = append(candidates, geo.Candidate{
			ID:    city.ID,
			Name:  city.Name,
			State: city.State,
			Coord: geo.Point{Lat: city.Lat, Lon: city.Lon},
		})
	}

	matches, err := geo.Nearby(ref, candidates, radiusKm)
	if err != nil {
		return nil, nil, err
	}

	// The user's own city is always in range of itself.
	cityIDs := make([]int64, 0, len(matches)+1)
	distances := make(map[int64]float64, len(matches)+1)
	cityIDs = append(cityIDs, *user.CityID)
	distances[*user.CityID] = 0
	for _, match := range matches {
		cityIDs = append(cityIDs, match.ID)
		distances[match.ID] = match.DistanceKm
	}

	return cityIDs, distances, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
