package matching

import (
	"log/slog"
	"sort"
	"time"

	"artisan_dispo/internal/domain"
)

// Engine computes compatibility scores between a search and a candidate pool.
// It is a pure function over its inputs: no candidate is mutated and nothing
// is persisted.
type Engine struct {
	log *slog.Logger
}

func NewEngine(log *slog.Logger) *Engine {
	return &Engine{log: log}
}

// Match filters the candidate pool against the criteria and returns the
// survivors ranked by descending aggregate score. An empty result is a valid
// outcome, not an error.
//
// A candidate survives only when it serves the requested category, has at
// least one available day inside the flexibility-expanded date window, and,
// when a radius cap applies and both sides carry GPS coordinates, sits within
// that radius.
func (e *Engine) Match(criteria domain.SearchCriteria, candidates []domain.ArtisanProfile, now time.Time) []domain.MatchingResult {
	window := domain.ExpandDates(criteria.DesiredDates, criteria.Flexible, criteria.FlexibilityDays)

	var results []domain.MatchingResult

	for _, artisan := range candidates {
		// Category is a hard filter: no partial credit
		if !artisan.ServesCategory(criteria.Category) {
			continue
		}

		distanceKm := nearestZoneDistance(criteria.GPS, artisan.Zones)

		// Radius is a hard cutoff, never a soft penalty
		if distanceKm != nil && criteria.MaxRadiusKm != nil && *distanceKm > *criteria.MaxRadiusKm {
			continue
		}

		// Without coordinates the declared cities decide the distance
		// component instead of the raw default
		cityMatch := false
		if distanceKm == nil {
			cityMatch = servesCity(criteria.City, criteria.PostalCode, artisan.Zones)
		}

		exactDays, windowDays := countAvailableDays(artisan.Calendar, criteria.DesiredDates, window)
		if windowDays == 0 {
			continue
		}

		details := domain.MatchDetails{
			DistanceScore:      distanceScore(distanceKm, criteria.MaxRadiusKm, cityMatch),
			DisponibiliteScore: disponibiliteScore(exactDays, len(criteria.DesiredDates), windowDays, len(window)),
			NotationScore:      notationScore(artisan.Notation, artisan.NombreAvis),
			UrgenceMatch:       urgenceBonus(criteria.Urgency, artisan.Calendar, window, now),
			DistanceKm:         distanceKm,
		}

		results = append(results, domain.MatchingResult{
			Artisan: artisan,
			Score:   details.DistanceScore + details.DisponibiliteScore + details.NotationScore + details.UrgenceMatch,
			Details: details,
		})
	}

	// Descending score; equal scores order by artisan id so the ranking is
	// deterministic across data-store query executions.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Artisan.ID.String() < results[j].Artisan.ID.String()
	})

	return results
}

// nearestZoneDistance returns the distance to the closest service zone that
// carries coordinates, or nil when either side has none.
func nearestZoneDistance(from *domain.GPSCoordinates, zones []domain.ServiceZone) *float64 {
	if from == nil {
		return nil
	}

	var nearest *float64
	for _, zone := range zones {
		if zone.GPS == nil {
			continue
		}
		d := domain.HaversineKm(*from, *zone.GPS)
		if nearest == nil || d < *nearest {
			nearest = &d
		}
	}
	return nearest
}

// servesCity reports whether any service zone covers the requested location
// by declared city name. Zone values may be free-text addresses, so the city
// is extracted first; the postal code serves as a second hint when the
// requested city name is missing or unrecognized.
func servesCity(city, postalCode string, zones []domain.ServiceZone) bool {
	wanted := []string{city}
	if hint := domain.CityFromPostalCode(postalCode); hint != nil {
		wanted = append(wanted, *hint)
	}

	for _, zone := range zones {
		zoneCity := zone.City
		if extracted := domain.ExtractCityFromAddress(zone.City); extracted != nil {
			zoneCity = *extracted
		}
		for _, w := range wanted {
			if domain.CitiesMatch(w, zoneCity) {
				return true
			}
		}
	}
	return false
}

// distanceScore converts a distance into a bounded score: near the cap when
// close, decaying linearly, saturating at zero at the effective radius.
// Missing coordinates fall back to city matching: a zone covering the
// requested city keeps the neutral default, any other zone scores zero but
// stays included.
func distanceScore(distanceKm *float64, maxRadiusKm *float64, cityMatch bool) float64 {
	if distanceKm == nil {
		if cityMatch {
			return domain.NeutralDistanceScore
		}
		return 0
	}

	radius := domain.DefaultRadiusKm
	if maxRadiusKm != nil && *maxRadiusKm > 0 {
		radius = *maxRadiusKm
	}

	score := domain.MaxDistanceScore * (1 - *distanceKm/radius)
	return clamp(score, 0, domain.MaxDistanceScore)
}

// countAvailableDays returns how many of the exact desired dates and how many
// days of the whole acceptance window the artisan can take. Contract-occupied
// days never count, regardless of manual calendar marks.
func countAvailableDays(cal domain.Calendar, desired, window []time.Time) (exactDays, windowDays int) {
	for _, d := range desired {
		if cal.AvailableOn(d) {
			exactDays++
		}
	}
	for _, d := range window {
		if cal.AvailableOn(d) {
			windowDays++
		}
	}
	return exactDays, windowDays
}

// disponibiliteScore rewards exact-date availability over flexibility-window
// availability, and broader coverage of the window over spotty coverage. An
// artisan available on an exact desired date always outranks one reachable
// only through the flexibility window: the exact branch floors at 30 while
// the flex-only branch tops out at 25.
func disponibiliteScore(exactDays, desiredCount, windowDays, windowSize int) float64 {
	if windowSize == 0 || windowDays == 0 {
		return 0
	}

	coverage := float64(windowDays) / float64(windowSize)

	if exactDays > 0 && desiredCount > 0 {
		exactRatio := float64(exactDays) / float64(desiredCount)
		return clamp(30+10*exactRatio+10*coverage, 0, domain.MaxDisponibiliteScore)
	}

	return clamp(10+15*coverage, 0, domain.MaxDisponibiliteScore)
}

// notationScore maps the 0-5 review average onto the component cap. Zero
// reviews contribute zero: a neutral omission for new artisans, not a rating
// of zero stars.
func notationScore(notation float64, nombreAvis int32) float64 {
	if nombreAvis <= 0 {
		return 0
	}
	return clamp(notation/5*domain.MaxNotationScore, 0, domain.MaxNotationScore)
}

// urgenceBonus adds a strictly additive bonus when the client is in a hurry
// and the artisan is free on the nearest possible requested day, not merely
// somewhere in the flexible window.
func urgenceBonus(urgency domain.Urgency, cal domain.Calendar, window []time.Time, now time.Time) float64 {
	if urgency != domain.UrgencyUrgent {
		return 0
	}

	// Day keys are UTC midnights; truncating against the epoch would shift
	// "today" by a day near midnight in non-UTC zones
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, day := range window {
		if day.Before(today) {
			continue
		}
		if cal.AvailableOn(day) {
			return domain.UrgenceBonus
		}
		// Only the nearest reachable day qualifies
		return 0
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
