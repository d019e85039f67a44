package geo

import (
	"strconv"
	"strings"
	"unicode"
)

// classification tags accepted as municipality-level records
var municipalityTags = map[string]bool{
	"city":         true,
	"town":         true,
	"municipality": true,
}

// CollapseWhitespace reduces runs of whitespace to single spaces and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase canonicalizes a name word by word: first rune uppercased,
// remainder lowercased. Input is whitespace-collapsed first.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// foldKey builds the case-insensitive comparison key for a name/state pair.
func foldKey(name, state string) string {
	return strings.ToLower(CollapseWhitespace(name)) + "\x00" + strings.ToLower(CollapseWhitespace(state))
}

// SameName reports whether two names are equal after whitespace collapse,
// ignoring case.
func SameName(a, b string) bool {
	return strings.EqualFold(CollapseWhitespace(a), CollapseWhitespace(b))
}

// NormalizePlaces canonicalizes raw provider records: it keeps only
// municipality-level entries for the target country (the classification
// may sit in either raw field), title-cases name and state, parses
// coordinates, and removes duplicates on the (name, state) pair keeping
// the first occurrence in provider order. An empty result is valid and
// signals that the query matched no municipality.
func NormalizePlaces(raw []RawPlace, countryCode string) []Place {
	countryCode = strings.ToLower(strings.TrimSpace(countryCode))

	places := make([]Place, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, r := range raw {
		if !strings.EqualFold(r.Address.CountryCode, countryCode) {
			continue
		}
		if !municipalityTags[strings.ToLower(r.Type)] && !municipalityTags[strings.ToLower(r.AddressType)] {
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		// ParseFloat accepts "NaN" and "Inf"; those must not reach the store.
		if !validCoord(Point{Lat: lat, Lon: lon}) {
			continue
		}

		name := TitleCase(r.Name)
		if name == "" {
			continue
		}
		state := TitleCase(r.Address.State)

		key := foldKey(name, state)
		if seen[key] {
			continue
		}
		seen[key] = true

		places = append(places, Place{
			Name:    name,
			State:   state,
			Country: CollapseWhitespace(r.Address.Country),
			Lat:     lat,
			Lon:     lon,
		})
	}

	return places
}
