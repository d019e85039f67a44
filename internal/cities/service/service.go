// Package service implements city resolution and city-to-city proximity.
package service

import (
	"context"
	"strings"

	"marketplace_backend/internal/cities/repository"
	"marketplace_backend/internal/cities/transport"
	"marketplace_backend/internal/geo"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"
)

const searchLimit = 10

// Store is the persisted canonical-city collection.
type Store interface {
	FindByNameState(ctx context.Context, name, state string) (*repository.City, error)
	FindByName(ctx context.Context, name string) (*repository.City, error)
	Insert(ctx context.Context, city *repository.City) (*repository.City, error)
	ListAll(ctx context.Context) ([]repository.City, error)
	SearchByPrefix(ctx context.Context, prefix string, limit int) ([]repository.City, error)
}

// Service orchestrates the geocoder, the candidate normalizer and the
// city store into idempotent city resolution, and runs city-to-city
// proximity queries over store snapshots.
type Service struct {
	geocoder geo.Geocoder
	store    Store
	country  string
	log      *logger.Logger
}

// New creates a new cities service. country is the lowercase ISO code the
// geocoder results are filtered to.
func New(geocoder geo.Geocoder, store Store, country string, log *logger.Logger) *Service {
	return &Service{
		geocoder: geocoder,
		store:    store,
		country:  country,
		log:      log,
	}
}

// Resolve turns a free-text (name, optional state) query into exactly one
// canonical stored city. Resolution is idempotent: repeated calls for the
// same pair return the same row, and a lost insert race against a
// concurrent resolution is recovered by re-fetching.
func (s *Service) Resolve(ctx context.Context, rawName, rawState string) (*transport.ResolveCityResponse, error) {
	name := geo.CollapseWhitespace(rawName)
	if name == "" {
		return nil, apperr.Validation("city name is required")
	}
	state := geo.CollapseWhitespace(rawState)

	raw, err := s.geocoder.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	candidates := geo.NormalizePlaces(raw, s.country)
	if len(candidates) == 0 {
		return nil, apperr.NotFound("no matching city found")
	}

	chosen, err := pickCandidate(candidates, state)
	if err != nil {
		return nil, err
	}

	city, created, err := s.persist(ctx, chosen)
	if err != nil {
		return nil, err
	}

	return &transport.ResolveCityResponse{
		Created: created,
		City:    toCityResponse(city),
	}, nil
}

// pickCandidate applies the ambiguity policy: a lone candidate wins; with
// a state hint the first candidate (in provider order) whose state
// contains the hint case-insensitively wins; multiple candidates without
// a hint surface the full option list so the caller can retry.
func pickCandidate(candidates []geo.Place, state string) (geo.Place, error) {
	if state != "" {
		needle := strings.ToLower(state)
		for _, candidate := range candidates {
			if strings.Contains(strings.ToLower(candidate.State), needle) {
				return candidate, nil
			}
		}
		return geo.Place{}, apperr.NotFound("no matching city in the given state")
	}

	if len(candidates) > 1 {
		options := make([]transport.CandidateOption, 0, len(candidates))
		for _, candidate := range candidates {
			options = append(options, transport.CandidateOption{
				Name:  candidate.Name,
				State: candidate.State,
			})
		}
		return geo.Place{}, apperr.BadRequest("more than one city matched; retry with a state").
			WithDetails(options)
	}

	return candidates[0], nil
}

// persist finds or creates the store row for the chosen candidate. The
// existence check and insert are not atomic; the store's unique index is
// the correctness mechanism, and a Conflict from Insert means another
// resolution created the row first.
func (s *Service) persist(ctx context.Context, chosen geo.Place) (*repository.City, bool, error) {
	existing, err := s.store.FindByNameState(ctx, chosen.Name, chosen.State)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	city := &repository.City{
		Name:    chosen.Name,
		State:   chosen.State,
		Country: chosen.Country,
		Lat:     chosen.Lat,
		Lon:     chosen.Lon,
	}

	inserted, err := s.store.Insert(ctx, city)
	if err == nil {
		return inserted, true, nil
	}
	if !apperr.Is(err, apperr.KindConflict) {
		return nil, false, err
	}

	// Lost the insert race: the row exists now, fetch it.
	winner, err := s.store.FindByNameState(ctx, chosen.Name, chosen.State)
	if err != nil {
		return nil, false, err
	}
	if winner == nil {
		return nil, false, apperr.Internal("city vanished after concurrent insert")
	}
	return winner, false, nil
}

// NearbyCities returns stored cities within radiusKm of the named city,
// ordered by ascending distance. The reference city itself is excluded.
func (s *Service) NearbyCities(ctx context.Context, rawName, rawState string, radiusKm float64) (*transport.NearbyCitiesResponse, error) {
	name := geo.CollapseWhitespace(rawName)
	if name == "" {
		return nil, apperr.Validation("city name is required")
	}
	state := geo.CollapseWhitespace(rawState)

	base, err := s.findBase(ctx, name, state)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	matches, err := geo.Nearby(cityReference(base), cityCandidates(snapshot), radiusKm)
	if err != nil {
		return nil, err
	}

	cities := make([]transport.CityDistance, 0, len(matches))
	for _, match := range matches {
		cities = append(cities, transport.CityDistance{
			ID:         match.ID,
			Name:       match.Name,
			State:      match.State,
			Lat:        match.Coord.Lat,
			Lon:        match.Coord.Lon,
			DistanceKm: match.DistanceKm,
		})
	}

	return &transport.NearbyCitiesResponse{
		BaseCity: transport.BaseCity{Name: base.Name, State: base.State},
		RadiusKm: radiusKm,
		Total:    len(cities),
		Cities:   cities,
	}, nil
}

func (s *Service) findBase(ctx context.Context, name, state string) (*repository.City, error) {
	var base *repository.City
	var err error
	if state != "" {
		base, err = s.store.FindByNameState(ctx, name, state)
	} else {
		base, err = s.store.FindByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, apperr.NotFound("city not found")
	}
	return base, nil
}

// Search runs the stored-city prefix autocomplete.
func (s *Service) Search(ctx context.Context, query string) ([]transport.CitySummary, error) {
	prefix := geo.CollapseWhitespace(query)
	if prefix == "" {
		return nil, apperr.Validation("search term is required")
	}

	cities, err := s.store.SearchByPrefix(ctx, prefix, searchLimit)
	if err != nil {
		return nil, err
	}

	out := make([]transport.CitySummary, 0, len(cities))
	for _, city := range cities {
		out = append(out, transport.CitySummary{ID: city.ID, Name: city.Name, State: city.State})
	}
	return out, nil
}

// List returns every stored city.
func (s *Service) List(ctx context.Context) ([]transport.CityResponse, error) {
	cities, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]transport.CityResponse, 0, len(cities))
	for _, city := range cities {
		out = append(out, toCityResponse(&city))
	}
	return out, nil
}

func toCityResponse(city *repository.City) transport.CityResponse {
	return transport.CityResponse{
		ID:      city.ID,
		Name:    city.Name,
		State:   city.State,
		Country: city.Country,
		Lat:     city.Lat,
		Lon:     city.Lon,
	}
}

func cityReference(base *repository.City) geo.Reference {
	return geo.Reference{
		ID:    base.ID,
		Name:  base.Name,
		Coord: &geo.Point{Lat: base.Lat, Lon: base.Lon},
	}
}

func cityCandidates(cities []repository.City) []geo.Candidate {
	candidates := make([]geo.Candidate, 0, len(cities))
	for _, city := range cities {
		candidates = append(candidates, geo.Candidate{
			ID:    city.ID,
			Name:  city.Name,
			State: city.State,
			Coord: geo.Point{Lat: city.Lat, Lon: city.Lon},
		})
	}
	return candidates
}
