// Package adapters contains thin cross-module adapters so each domain
// module depends only on its own interfaces.
package adapters

import (
	"context"

	citiesrepo "marketplace_backend/internal/cities/repository"
	usersservice "marketplace_backend/internal/users/service"
)

// CityDirectoryAdapter exposes the cities repository as the city
// directory the users module prefilters against.
type CityDirectoryAdapter struct {
	cities *citiesrepo.Repository
}

// NewCityDirectoryAdapter creates the adapter.
func NewCityDirectoryAdapter(cities *citiesrepo.Repository) *CityDirectoryAdapter {
	return &CityDirectoryAdapter{cities: cities}
}

// Snapshot returns a point-in-time copy of all stored cities.
func (a *CityDirectoryAdapter) Snapshot(ctx context.Context) ([]usersservice.CityPoint, error) {
	cities, err := a.cities.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]usersservice.CityPoint, 0, len(cities))
	for _, city := range cities {
		points = append(points, usersservice.CityPoint{
			ID:    city.ID,
			Name:  city.Name,
			State: city.State,
			Lat:   city.Lat,
			Lon:   city.Lon,
		})
	}
	return points, nil
}

var _ usersservice.CityDirectory = (*CityDirectoryAdapter)(nil)
