package domain

import "time"

// Component score caps. The aggregate score is the plain sum of present
// components; relative ordering is what matters, not the ceiling itself.
const (
	MaxDistanceScore      = 50.0
	MaxDisponibiliteScore = 50.0
	MaxNotationScore      = 50.0
	UrgenceBonus          = 20.0

	// NeutralDistanceScore is assigned when GPS coordinates are missing on
	// either side. Missing coordinates degrade gracefully instead of
	// excluding the candidate.
	NeutralDistanceScore = 25.0

	// DefaultRadiusKm scales the distance decay when the client sets no
	// explicit radius.
	DefaultRadiusKm = 50.0
)

// Urgency is the client's declared urgency level.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

func (u Urgency) String() string {
	return string(u)
}

// SearchCriteria is one client search, built by the HTTP layer from query
// parameters. Request-scoped, never persisted.
type SearchCriteria struct {
	Category   TradeCategory
	City       string
	PostalCode string

	// GPS is optional; without it distance scoring falls back to
	// NeutralDistanceScore and the radius cutoff does not apply.
	GPS *GPSCoordinates

	DesiredDates    []time.Time
	Flexible        bool
	FlexibilityDays int

	Urgency Urgency

	// MaxRadiusKm is a hard cutoff, not a score penalty: candidates beyond it
	// are excluded when both parties carry GPS coordinates.
	MaxRadiusKm *float64
}

// MatchDetails is the per-component breakdown attached to each result.
type MatchDetails struct {
	DistanceScore      float64  `json:"distanceScore"`
	DisponibiliteScore float64  `json:"disponibiliteScore"`
	NotationScore      float64  `json:"notationScore"`
	UrgenceMatch       float64  `json:"urgenceMatch"`
	DistanceKm         *float64 `json:"distanceKm,omitempty"`
}

// MatchingResult is one qualifying artisan with its aggregate score.
// Request-scoped, never persisted.
type MatchingResult struct {
	Artisan ArtisanProfile
	Score   float64
	Details MatchDetails
}
