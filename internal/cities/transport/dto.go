package transport

// ResolveCityRequest is the request body for resolving (and persisting) a city.
type ResolveCityRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=120"`
	State string `json:"state,omitempty" validate:"max=120"`
}

// CityResponse is the public representation of a stored city.
type CityResponse struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// ResolveCityResponse reports the canonical city and whether this call
// created it.
type ResolveCityResponse struct {
	Created bool         `json:"created"`
	City    CityResponse `json:"city"`
}

// CandidateOption is one ambiguous resolution choice; the caller retries
// with one of the listed states.
type CandidateOption struct {
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// NearbyCitiesRequest is the query for city-to-city proximity.
type NearbyCitiesRequest struct {
	Name   string  `form:"name" binding:"required"`
	State  string  `form:"state"`
	Radius float64 `form:"radius" binding:"required,gt=0"`
}

// CityDistance is a proximity match with city attributes.
type CityDistance struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	State      string  `json:"state,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distanceKm"`
}

// BaseCity identifies the reference city of a proximity query.
type BaseCity struct {
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// NearbyCitiesResponse is the ordered proximity result set.
type NearbyCitiesResponse struct {
	BaseCity BaseCity       `json:"baseCity"`
	RadiusKm float64        `json:"radiusKm"`
	Total    int            `json:"total"`
	Cities   []CityDistance `json:"cities"`
}

// SearchCitiesRequest is the query for the stored-city autocomplete.
type SearchCitiesRequest struct {
	Query string `form:"q" binding:"required,min=1"`
}

// CitySummary is the compact shape returned by the autocomplete.
type CitySummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}
