// Package geo contains the place-lookup boundary and the in-memory
// proximity engine: geocoder client, candidate normalization, and
// great-circle distance filtering.
package geo

// RawPlace mirrors the relevant parts of the provider search payload.
// Depending on the record the classification may arrive in either the
// "type" or the "addresstype" field, so both are decoded.
type RawPlace struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Type        string     `json:"type"`
	AddressType string     `json:"addresstype"`
	Lat         string     `json:"lat"`
	Lon         string     `json:"lon"`
	Address     RawAddress `json:"address"`
}

// RawAddress is the nested address detail block of a provider record.
type RawAddress struct {
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// Place is a normalized municipality candidate: canonical casing and
// whitespace, parsed coordinates. It exists only within a resolution call.
type Place struct {
	Name    string
	State   string
	Country string
	Lat     float64
	Lon     float64
}

// Point is a coordinate pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Reference is the entity distances are measured from. Coord may be nil
// when the referenced record carries no usable coordinates.
type Reference struct {
	ID    int64
	Name  string
	Coord *Point
}

// Candidate is a coordinate-bearing entity evaluated against a reference.
type Candidate struct {
	ID    int64
	Name  string
	State string
	Coord Point
}

// Match is a candidate within the query radius, annotated with its
// distance from the reference in kilometers (two-decimal precision).
type Match struct {
	ID         int64
	Name       string
	State      string
	Coord      Point
	DistanceKm float64
}
