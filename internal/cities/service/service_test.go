package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"marketplace_backend/internal/cities/repository"
	"marketplace_backend/internal/cities/transport"
	"marketplace_backend/internal/geo"
	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/logger"
)

type fakeGeocoder struct {
	places []geo.RawPlace
	err    error
	calls  int
}

func (g *fakeGeocoder) Lookup(ctx context.Context, query string) ([]geo.RawPlace, error) {
	g.calls++
	return g.places, g.err
}

// fakeStore keeps cities in memory and enforces the (name, state) unique
// constraint the way the real store does.
type fakeStore struct {
	cities     []repository.City
	nextID     int64
	insertHook func(s *fakeStore)
	listErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) FindByNameState(ctx context.Context, name, state string) (*repository.City, error) {
	for i := range s.cities {
		if strings.EqualFold(s.cities[i].Name, name) && strings.EqualFold(s.cities[i].State, state) {
			city := s.cities[i]
			return &city, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByName(ctx context.Context, name string) (*repository.City, error) {
	for i := range s.cities {
		if strings.EqualFold(s.cities[i].Name, name) {
			city := s.cities[i]
			return &city, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Insert(ctx context.Context, city *repository.City) (*repository.City, error) {
	if s.insertHook != nil {
		hook := s.insertHook
		s.insertHook = nil
		hook(s)
	}
	for i := range s.cities {
		if strings.EqualFold(s.cities[i].Name, city.Name) && strings.EqualFold(s.cities[i].State, city.State) {
			return nil, apperr.Conflict("city already exists")
		}
	}
	stored := *city
	stored.ID = s.nextID
	s.nextID++
	s.cities = append(s.cities, stored)
	return &stored, nil
}

func (s *fakeStore) ListAll(ctx context.Context) ([]repository.City, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]repository.City, len(s.cities))
	copy(out, s.cities)
	return out, nil
}

func (s *fakeStore) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]repository.City, error) {
	out := make([]repository.City, 0)
	for _, city := range s.cities {
		if len(out) == limit {
			break
		}
		if strings.HasPrefix(strings.ToLower(city.Name), strings.ToLower(prefix)) {
			out = append(out, city)
		}
	}
	return out, nil
}

func rawDuplicatedCity() []geo.RawPlace {
	return []geo.RawPlace{
		{
			Name: "são   paulo", Type: "city", Lat: "-23.5505", Lon: "-46.6333",
			Address: geo.RawAddress{State: "São Paulo", Country: "Brasil", CountryCode: "br"},
		},
		{
			Name: "SÃO PAULO", Type: "municipality", Lat: "-23.5506", Lon: "-46.6334",
			Address: geo.RawAddress{State: "são paulo", Country: "Brasil", CountryCode: "br"},
		},
		{
			Name: "São Paulo", Type: "town", Lat: "-8.3333", Lon: "-37.1167",
			Address: geo.RawAddress{State: "Pernambuco", Country: "Brasil", CountryCode: "br"},
		},
	}
}

func newService(geocoder geo.Geocoder, store Store) *Service {
	return New(geocoder, store, "br", logger.New("development"))
}

func TestResolveRejectsBlankName(t *testing.T) {
	geocoder := &fakeGeocoder{}
	svc := newService(geocoder, newFakeStore())

	_, err := svc.Resolve(context.Background(), "   ", "")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if geocoder.calls != 0 {
		t.Fatal("geocoder should not be called for a blank name")
	}
}

func TestResolvePropagatesUpstreamError(t *testing.T) {
	geocoder := &fakeGeocoder{err: apperr.Unavailable("place lookup failed")}
	svc := newService(geocoder, newFakeStore())

	_, err := svc.Resolve(context.Background(), "Natal", "")
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestResolveNoMatch(t *testing.T) {
	// Provider answers, but nothing survives normalization.
	geocoder := &fakeGeocoder{places: []geo.RawPlace{
		{Name: "Avenida Brasil", Type: "road", Lat: "-23.0", Lon: "-43.0",
			Address: geo.RawAddress{CountryCode: "br"}},
	}}
	svc := newService(geocoder, newFakeStore())

	_, err := svc.Resolve(context.Background(), "Avenida Brasil", "")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveAmbiguousWithoutState(t *testing.T) {
	geocoder := &fakeGeocoder{places: rawDuplicatedCity()}
	svc := newService(geocoder, newFakeStore())

	_, err := svc.Resolve(context.Background(), "  são   paulo ", "")
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	options, ok := appErr.Details.([]transport.CandidateOption)
	if !ok {
		t.Fatalf("expected candidate options in details, got %T", appErr.Details)
	}
	// The two provider duplicates collapse; two real candidates remain.
	if len(options) != 2 {
		t.Fatalf("got %d options, want 2: %+v", len(options), options)
	}
	if options[0].State != "São Paulo" || options[1].State != "Pernambuco" {
		t.Fatalf("options out of provider order: %+v", options)
	}
}

func TestResolveWithStateHint(t *testing.T) {
	geocoder := &fakeGeocoder{places: rawDuplicatedCity()}
	store := newFakeStore()
	svc := newService(geocoder, store)

	resp, err := svc.Resolve(context.Background(), "São Paulo", "pernambuco")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Created {
		t.Fatal("first resolution should create the row")
	}
	if resp.City.State != "Pernambuco" || resp.City.Lat != -8.3333 {
		t.Fatalf("wrong candidate chosen: %+v", resp.City)
	}
}

func TestResolveStateMismatch(t *testing.T) {
	geocoder := &fakeGeocoder{places: rawDuplicatedCity()}
	svc := newService(geocoder, newFakeStore())

	_, err := svc.Resolve(context.Background(), "São Paulo", "Bahia")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unmatched state, got %v", err)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	geocoder := &fakeGeocoder{places: rawDuplicatedCity()}
	store := newFakeStore()
	svc := newService(geocoder, store)

	first, err := svc.Resolve(context.Background(), "São Paulo", "Pernambuco")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Resolve(context.Background(), "são paulo", "Pernambuco")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.Created || second.Created {
		t.Fatalf("created flags wrong: first=%v second=%v", first.Created, second.Created)
	}
	if first.City.ID != second.City.ID {
		t.Fatalf("repeated resolution returned different rows: %d vs %d", first.City.ID, second.City.ID)
	}
	if len(store.cities) != 1 {
		t.Fatalf("store holds %d rows, want 1", len(store.cities))
	}
}

func TestResolveRecoversFromInsertRace(t *testing.T) {
	geocoder := &fakeGeocoder{places: rawDuplicatedCity()}
	store := newFakeStore()
	// Simulate a concurrent resolution landing between the existence check
	// and the insert.
	store.insertHook = func(s *fakeStore) {
		s.cities = append(s.cities, repository.City{
			ID: 77, Name: "São Paulo", State: "Pernambuco", Country: "Brasil",
			Lat: -8.3333, Lon: -37.1167,
		})
	}
	svc := newService(geocoder, store)

	resp, err := svc.Resolve(context.Background(), "São Paulo", "Pernambuco")
	if err != nil {
		t.Fatalf("lost race should be recovered, got error: %v", err)
	}
	if resp.Created {
		t.Fatal("recovered race should report created=false")
	}
	if resp.City.ID != 77 {
		t.Fatalf("expected the concurrent winner's row, got %+v", resp.City)
	}
}

func TestNearbyCitiesExcludesBaseAndSorts(t *testing.T) {
	store := newFakeStore()
	store.cities = []repository.City{
		{ID: 1, Name: "São Paulo", State: "São Paulo", Lat: -23.5505, Lon: -46.6333},
		{ID: 2, Name: "Rio de Janeiro", State: "Rio de Janeiro", Lat: -22.9068, Lon: -43.1729},
		{ID: 3, Name: "Guarulhos", State: "São Paulo", Lat: -23.4538, Lon: -46.5333},
	}
	svc := newService(&fakeGeocoder{}, store)

	resp, err := svc.NearbyCities(context.Background(), "São Paulo", "", 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.BaseCity.Name != "São Paulo" {
		t.Fatalf("wrong base city: %+v", resp.BaseCity)
	}
	if resp.Total != 2 || len(resp.Cities) != 2 {
		t.Fatalf("got %d cities, want 2: %+v", resp.Total, resp.Cities)
	}
	if resp.Cities[0].Name != "Guarulhos" || resp.Cities[1].Name != "Rio de Janeiro" {
		t.Fatalf("cities not sorted by distance: %+v", resp.Cities)
	}
	if resp.Cities[0].DistanceKm <= 0 {
		t.Fatalf("distance not populated: %+v", resp.Cities[0])
	}
}

func TestNearbyCitiesUnknownBase(t *testing.T) {
	svc := newService(&fakeGeocoder{}, newFakeStore())

	_, err := svc.NearbyCities(context.Background(), "Atlântida", "", 100)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearchRejectsBlankTerm(t *testing.T) {
	svc := newService(&fakeGeocoder{}, newFakeStore())

	_, err := svc.Search(context.Background(), "   ")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchByPrefix(t *testing.T) {
	store := newFakeStore()
	store.cities = []repository.City{
		{ID: 1, Name: "Natal", State: "Rio Grande do Norte"},
		{ID: 2, Name: "Niterói", State: "Rio de Janeiro"},
	}
	svc := newService(&fakeGeocoder{}, store)

	out, err := svc.Search(context.Background(), " na ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Natal" {
		t.Fatalf("got %+v, want only Natal", out)
	}
}
