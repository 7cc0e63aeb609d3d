package domain

import (
	"regexp"
	"strings"
)

// KnownCities lists major French cities recognized when parsing free-text
// locations.
var KnownCities = []string{
	"Paris", "Marseille", "Lyon", "Toulouse", "Nice",
	"Nantes", "Montpellier", "Strasbourg", "Bordeaux", "Lille",
	"Rennes", "Reims", "Toulon", "Saint-Étienne", "Le Havre",
	"Grenoble", "Dijon", "Angers", "Nîmes", "Clermont-Ferrand",
	"Aix-en-Provence", "Brest", "Tours", "Amiens", "Limoges",
	"Annecy", "Perpignan", "Boulogne-Billancourt", "Metz", "Besançon",
	"Orléans", "Rouen", "Mulhouse", "Caen", "Nancy",
}

// ExtractCityFromAddress tries to pull a city name out of a free-text address.
// Returns nil when no city could be determined.
func ExtractCityFromAddress(address string) *string {
	if address == "" {
		return nil
	}

	addressLower := strings.ToLower(address)

	for _, city := range KnownCities {
		if strings.Contains(addressLower, strings.ToLower(city)) {
			return &city
		}
	}

	// French addresses usually end with "<postal code> <city>".
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`\b\d{5}\s+([A-Za-zÀ-ÿ' -]+)\s*$`),
		regexp.MustCompile(`^([A-Za-zÀ-ÿ' -]+),`),
	}

	for _, pattern := range patterns {
		if matches := pattern.FindStringSubmatch(address); len(matches) > 1 {
			city := strings.TrimSpace(matches[1])
			if len(city) > 2 {
				return &city
			}
		}
	}

	return nil
}

// NormalizeCity maps common aliases and spellings to a canonical city name.
func NormalizeCity(city string) string {
	city = strings.TrimSpace(city)

	normalizations := map[string]string{
		"paname":        "Paris",
		"paris cedex":   "Paris",
		"aix":           "Aix-en-Provence",
		"st-étienne":    "Saint-Étienne",
		"st etienne":    "Saint-Étienne",
		"saint etienne": "Saint-Étienne",
		"boulogne":      "Boulogne-Billancourt",
		"clermont":      "Clermont-Ferrand",
	}

	cityLower := strings.ToLower(city)
	if normalized, ok := normalizations[cityLower]; ok {
		return normalized
	}

	for _, known := range KnownCities {
		if strings.EqualFold(city, known) {
			return known
		}
	}

	// Uppercase the first letter
	if len(city) > 0 {
		runes := []rune(city)
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		return string(runes)
	}

	return city
}

// CitiesMatch reports whether two city values refer to the same city after
// normalization.
func CitiesMatch(city1, city2 string) bool {
	if city1 == "" || city2 == "" {
		return false
	}
	return strings.EqualFold(NormalizeCity(city1), NormalizeCity(city2))
}

// postalDepartments maps postal-code prefixes to their principal city, used
// as a geocoding hint when only a postal code was supplied.
var postalDepartments = map[string]string{
	"75": "Paris",
	"13": "Marseille",
	"69": "Lyon",
	"31": "Toulouse",
	"06": "Nice",
	"44": "Nantes",
	"34": "Montpellier",
	"67": "Strasbourg",
	"33": "Bordeaux",
	"59": "Lille",
}

// CityFromPostalCode returns the principal city for a postal code, or nil.
func CityFromPostalCode(code string) *string {
	if len(code) < 2 {
		return nil
	}
	if city, ok := postalDepartments[code[:2]]; ok {
		return &city
	}
	return nil
}
