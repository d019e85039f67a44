package service

import (
	"context"
	"strings"
	"testing"

	"marketplace_backend/internal/users/repository"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"
)

type fakeDirectory struct {
	cities []CityPoint
	err    error
}

func (d *fakeDirectory) Snapshot(ctx context.Context) ([]CityPoint, error) {
	return d.cities, d.err
}

type fakeUserStore struct {
	users     map[int64]*repository.UserWithCity
	employees []repository.Employee

	gotCityIDs []int64
	gotExclude int64
	radii      map[int64]float64
}

func (s *fakeUserStore) FindWithCity(ctx context.Context, id int64) (*repository.UserWithCity, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

func (s *fakeUserStore) FindEmployeesInCities(ctx context.Context, cityIDs []int64, excludeUserID int64) ([]repository.Employee, error) {
	s.gotCityIDs = cityIDs
	s.gotExclude = excludeUserID

	allowed := make(map[int64]bool, len(cityIDs))
	for _, id := range cityIDs {
		allowed[id] = true
	}
	out := make([]repository.Employee, 0)
	for _, e := range s.employees {
		if e.ID != excludeUserID && allowed[e.CityID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeUserStore) SearchEmployeesInCities(ctx context.Context, term string, cityIDs []int64, excludeUserID int64, limit int) ([]repository.Employee, error) {
	matched, err := s.FindEmployeesInCities(ctx, cityIDs, excludeUserID)
	if err != nil {
		return nil, err
	}
	out := make([]repository.Employee, 0)
	for _, e := range matched {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(e.Name), strings.ToLower(term)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeUserStore) UpdateRadius(ctx context.Context, id int64, radiusKm float64) error {
	if _, ok := s.users[id]; !ok {
		return apperr.NotFound("user not found")
	}
	if s.radii == nil {
		s.radii = make(map[int64]float64)
	}
	s.radii[id] = radiusKm
	return nil
}

func ptr[T any](v T) *T { return &v }

// Test fixture: the requester lives in São Paulo (city 1); Guarulhos
// (city 2) is ~15 km away and Rio de Janeiro (city 3) ~360 km away.
func fixtureStore() (*fakeUserStore, *fakeDirectory) {
	store := &fakeUserStore{
		users: map[int64]*repository.UserWithCity{
			10: {
				ID:        10,
				Name:      "Ana",
				Radius:    ptr(100.0),
				CityID:    ptr(int64(1)),
				CityName:  ptr("São Paulo"),
				CityState: ptr("São Paulo"),
				Lat:       ptr(-23.5505),
				Lon:       ptr(-46.6333),
			},
		},
		employees: []repository.Employee{
			{ID: 20, Name: "Bruno", Email: "bruno@example.com", Profession: ptr("Eletricista"),
				CityID: 1, CityName: "São Paulo", CityState: "São Paulo"},
			{ID: 21, Name: "Carla", Email: "carla@example.com", Profession: ptr("Encanadora"),
				CityID: 2, CityName: "Guarulhos", CityState: "São Paulo"},
			{ID: 22, Name: "Diego", Email: "diego@example.com", Profession: ptr("Pintor"),
				CityID: 3, CityName: "Rio de Janeiro", CityState: "Rio de Janeiro"},
		},
	}
	directory := &fakeDirectory{cities: []CityPoint{
		{ID: 1, Name: "São Paulo", State: "São Paulo", Lat: -23.5505, Lon: -46.6333},
		{ID: 2, Name: "Guarulhos", State: "São Paulo", Lat: -23.4538, Lon: -46.5333},
		{ID: 3, Name: "Rio de Janeiro", State: "Rio de Janeiro", Lat: -22.9068, Lon: -43.1729},
	}}
	return store, directory
}

func TestNearbyEmployeesIncludesOwnCity(t *testing.T) {
	store, directory := fixtureStore()
	svc := New(store, directory, logger.New("development"))

	resp, err := svc.NearbyEmployees(context.Background(), 10, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.User.ID != 10 || resp.User.City != "São Paulo" {
		t.Fatalf("wrong requesting user: %+v", resp.User)
	}
	if resp.Total != 2 {
		t.Fatalf("got %d employees, want 2 (own city plus Guarulhos): %+v", resp.Total, resp.Employees)
	}

	byID := make(map[int64]float64, len(resp.Employees))
	for _, e := range resp.Employees {
		byID[e.ID] = e.CityDistanceKm
	}
	if _, ok := byID[20]; !ok {
		t.Fatal("employee in the requester's own city missing")
	}
	if byID[20] != 0 {
		t.Fatalf("own-city distance = %f, want 0", byID[20])
	}
	if byID[21] <= 0 || byID[21] > 100 {
		t.Fatalf("Guarulhos distance = %f, want within (0, 100]", byID[21])
	}
	if _, ok := byID[22]; ok {
		t.Fatal("employee beyond the radius should be excluded")
	}
}

func TestNearbyEmployeesExcludesRequester(t *testing.T) {
	store, directory := fixtureStore()
	// The requester is also an employee in their own city.
	store.employees = append(store.employees, repository.Employee{
		ID: 10, Name: "Ana", CityID: 1, CityName: "São Paulo", CityState: "São Paulo",
	})
	svc := New(store, directory, logger.New("development"))

	resp, err := svc.NearbyEmployees(context.Background(), 10, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.gotExclude != 10 {
		t.Fatalf("store not asked to exclude the requester: %d", store.gotExclude)
	}
	for _, e := range resp.Employees {
		if e.ID == 10 {
			t.Fatal("requester present in their own results")
		}
	}
}

func TestNearbyEmployeesWiderRadius(t *testing.T) {
	store, directory := fixtureStore()
	svc := New(store, directory, logger.New("development"))

	resp, err := svc.NearbyEmployees(context.Background(), 10, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("got %d employees with radius 400, want 3: %+v", resp.Total, resp.Employees)
	}
}

func TestNearbyEmployeesUserWithoutCity(t *testing.T) {
	store, directory := fixtureStore()
	store.users[11] = &repository.UserWithCity{ID: 11, Name: "Sem Cidade"}
	svc := New(store, directory, logger.New("development"))

	_, err := svc.NearbyEmployees(context.Background(), 11, 100)
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestNearbyEmployeesUnknownUser(t *testing.T) {
	store, directory := fixtureStore()
	svc := New(store, directory, logger.New("development"))

	_, err := svc.NearbyEmployees(context.Background(), 999, 100)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearchEmployeesUsesStoredRadius(t *testing.T) {
	store, directory := fixtureStore()
	svc := New(store, directory, logger.New("development"))

	out, err := svc.SearchEmployees(context.Background(), 10, " car ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Carla" {
		t.Fatalf("got %+v, want only Carla", out)
	}
	// Stored radius is 100 km, so Rio's city must not reach the store query.
	for _, id := range store.gotCityIDs {
		if id == 3 {
			t.Fatal("city beyond the stored radius passed to the store")
		}
	}
}

func TestSearchEmployeesRequiresRadius(t *testing.T) {
	store, directory := fixtureStore()
	store.users[10].Radius = nil
	svc := New(store, directory, logger.New("development"))

	_, err := svc.SearchEmployees(context.Background(), 10, "car")
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestSearchEmployeesRejectsBlankTerm(t *testing.T) {
	store, directory := fixtureStore()
	svc := New(store, directory, logger.New("development"))

	_, err := svc.SearchEmployees(context.Background(), 10, "   ")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetRadius(t *testing.T) {
	store, directory := fixtureStore()
	svc := New(store, directory, logger.New("development"))

	if err := svc.SetRadius(context.Background(), 10, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.radii[10] != 50 {
		t.Fatalf("radius not stored: %+v", store.radii)
	}

	if err := svc.SetRadius(context.Background(), 10, 0); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for zero radius, got %v", err)
	}
	if err := svc.SetRadius(context.Background(), 10, -5); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for negative radius, got %v", err)
	}
}
