package geo

import (
	"math"
	"sort"

	"marketplace_backend/platform/apperr"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Haversine computes the great-circle distance in kilometers between two
// coordinate pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// RoundKm rounds a distance to two decimal places. Radius filtering uses
// the rounded value, so a candidate at exactly the radius boundary is kept.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func validCoord(p Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Nearby filters and ranks candidates by great-circle distance from the
// reference. Candidates matching the reference itself are excluded, by ID
// and also by normalized name: some references are located by name alone
// and may not carry a reliable ID. Results are ordered by ascending
// distance with provider order preserved on ties. An empty result is not
// an error.
//
// The scan is O(n) over the candidate snapshot. The city table this runs
// against is small and slow-growing; a spatial index only becomes worth
// revisiting if that stops being true.
func Nearby(ref Reference, candidates []Candidate, radiusKm float64) ([]Match, error) {
	if ref.Coord == nil || !validCoord(*ref.Coord) {
		return nil, apperr.BadRequest("reference has no usable coordinates")
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == ref.ID || SameName(c.Name, ref.Name) {
			continue
		}

		// Inclusion-positive comparison: a NaN distance from a candidate
		// with unusable coordinates fails it and the candidate drops out.
		distance := RoundKm(Haversine(ref.Coord.Lat, ref.Coord.Lon, c.Coord.Lat, c.Coord.Lon))
		if distance <= radiusKm {
			matches = append(matches, Match{
				ID:         c.ID,
				Name:       c.Name,
				State:      c.State,
				Coord:      c.Coord,
				DistanceKm: distance,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	return matches, nil
}
