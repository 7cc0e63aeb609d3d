package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/services/matching"
)

// searchQuery binds GET /api/recherche query parameters.
type searchQuery struct {
	Categorie       string `validate:"required"`
	Ville           string `validate:"required"`
	CodePostal      string `validate:"omitempty,len=5,numeric"`
	Dates           string `validate:"required"`
	Flexible        bool
	FlexibiliteDays int `validate:"gte=0,lte=30"`
	Urgence         string
	Lat, Lon        *float64
	RayonMax        *float64
}

type searchResultDTO struct {
	Artisan artisanDTO          `json:"artisan"`
	Score   float64             `json:"score"`
	Details domain.MatchDetails `json:"details"`
}

type searchResponseDTO struct {
	Results                []searchResultDTO `json:"results"`
	PublicRequestSuggested bool              `json:"publicRequestSuggested"`
}

// handleSearch is the matching entry point. All filtering semantics live in
// the matching service; this handler only parses, validates and shapes.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := searchQuery{
		Categorie:  q.Get("categorie"),
		Ville:      q.Get("ville"),
		CodePostal: q.Get("codePostal"),
		Dates:      q.Get("dates"),
		Urgence:    q.Get("urgence"),
	}
	query.Flexible = q.Get("flexible") == "true"

	if v := q.Get("flexibiliteDays"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			sendValidationError(w, "invalid flexibiliteDays", v)
			return
		}
		query.FlexibiliteDays = n
	}

	var parseErr error
	query.Lat, parseErr = parseFloatParam(q.Get("lat"))
	if parseErr != nil {
		sendValidationError(w, "invalid lat", q.Get("lat"))
		return
	}
	query.Lon, parseErr = parseFloatParam(q.Get("lon"))
	if parseErr != nil {
		sendValidationError(w, "invalid lon", q.Get("lon"))
		return
	}
	query.RayonMax, parseErr = parseFloatParam(q.Get("rayonMax"))
	if parseErr != nil {
		sendValidationError(w, "invalid rayonMax", q.Get("rayonMax"))
		return
	}

	if err := s.validate.Struct(query); err != nil {
		sendValidationError(w, "missing or invalid search criteria", err.Error())
		return
	}

	category := domain.TradeCategory(query.Categorie)
	if !category.Valid() {
		sendValidationError(w, "unknown category", query.Categorie)
		return
	}

	dates, err := parseDates(query.Dates)
	if err != nil {
		sendValidationError(w, "invalid dates, expected YYYY-MM-DD list", query.Dates)
		return
	}

	criteria := domain.SearchCriteria{
		Category:        category,
		City:            query.Ville,
		PostalCode:      query.CodePostal,
		DesiredDates:    dates,
		Flexible:        query.Flexible,
		FlexibilityDays: query.FlexibiliteDays,
		Urgency:         parseUrgency(query.Urgence),
		MaxRadiusKm:     query.RayonMax,
	}
	if query.Lat != nil && query.Lon != nil {
		criteria.GPS = &domain.GPSCoordinates{Latitude: *query.Lat, Longitude: *query.Lon}
	}

	results, err := s.matcher.MatchArtisans(r.Context(), criteria)
	if err != nil {
		if errors.Is(err, matching.ErrMissingCriteria) {
			sendValidationError(w, "missing search criteria", "")
			return
		}
		s.log.Error("search failed", sl.Err(err))
		sendInternalError(w)
		return
	}

	resp := searchResponseDTO{
		Results:                make([]searchResultDTO, 0, len(results)),
		PublicRequestSuggested: len(results) == 0,
	}
	for _, res := range results {
		resp.Results = append(resp.Results, searchResultDTO{
			Artisan: toArtisanDTO(res.Artisan),
			Score:   res.Score,
			Details: res.Details,
		})
	}

	sendSuccess(w, http.StatusOK, resp)
}

func parseFloatParam(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// parseDates accepts the web client's JSON-array form
// (["2025-06-10","2025-06-12"]) as well as a plain comma-separated list.
func parseDates(raw string) ([]time.Time, error) {
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, err
		}
		dates := make([]time.Time, 0, len(list))
		for _, p := range list {
			d, err := domain.ParseDay(p)
			if err != nil {
				return nil, err
			}
			dates = append(dates, d)
		}
		return dates, nil
	}

	parts := strings.Split(raw, ",")
	dates := make([]time.Time, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := domain.ParseDay(p)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func parseUrgency(raw string) domain.Urgency {
	switch raw {
	case "urgent", "true":
		return domain.UrgencyUrgent
	case "low":
		return domain.UrgencyLow
	default:
		return domain.UrgencyNormal
	}
}
